package records

import (
	"strings"

	"github.com/google/uuid"
)

// legacyNamespace seeds deterministic ids for imported legacy rows.
var legacyNamespace = uuid.MustParse("6f1c5d2e-8b3a-4e57-9a41-0c2d7e9b5f13")

// NewID returns a random identifier for a new record.
func NewID() string {
	return uuid.NewString()
}

// StableID derives the same identifier from the same parts on every call, so
// re-importing a legacy row overwrites instead of duplicating it.
func StableID(parts ...string) string {
	return uuid.NewSHA1(legacyNamespace, []byte(strings.Join(parts, "\x1f"))).String()
}

// StatementID is the identifier of the one statement of a card closing in
// a month.
func StatementID(cardID, closingYM string) string {
	return StableID("statement", cardID, closingYM)
}
