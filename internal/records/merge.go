package records

import (
	"encoding/json"
	"fmt"
)

// Merge overlays fields onto the JSON form of rec and decodes the result
// into a new value. Keys use the record's JSON field names; "id" is ignored.
func Merge[T any](rec T, fields map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("encode record: %w", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("encode merged record: %w", err)
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, fmt.Errorf("decode merged record: %w", err)
	}
	return out, nil
}

// Encode and Decode are the payload codec shared by the backends.
func Encode[T any](rec T) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return b, nil
}

func Decode[T any](b []byte) (T, error) {
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}
