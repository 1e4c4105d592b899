package core

import (
	"encoding/json"
	"testing"
)

func TestYearMonthAddMonths(t *testing.T) {
	tests := []struct {
		name  string
		start YearMonth
		delta int
		want  YearMonth
	}{
		{"same month", YearMonth{2024, 3}, 0, YearMonth{2024, 3}},
		{"next month", YearMonth{2024, 3}, 1, YearMonth{2024, 4}},
		{"wraps forward", YearMonth{2024, 12}, 1, YearMonth{2025, 1}},
		{"wraps backward", YearMonth{2024, 1}, -1, YearMonth{2023, 12}},
		{"many years", YearMonth{2024, 6}, 30, YearMonth{2026, 12}},
		{"many years back", YearMonth{2024, 6}, -30, YearMonth{2021, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.start.AddMonths(tt.delta); got != tt.want {
				t.Errorf("AddMonths(%d) = %v, want %v", tt.delta, got, tt.want)
			}
		})
	}
}

func TestYearMonthOrdinalRoundTrip(t *testing.T) {
	for ord := 2020 * 12; ord < 2030*12; ord++ {
		ym := YearMonthFromOrdinal(ord)
		if ym.Month < 1 || ym.Month > 12 {
			t.Fatalf("ordinal %d produced month %d", ord, ym.Month)
		}
		if ym.Ordinal() != ord {
			t.Fatalf("ordinal %d round-tripped to %d", ord, ym.Ordinal())
		}
	}
	if got := (YearMonth{2024, 1}).MonthsUntil(YearMonth{2025, 6}); got != 17 {
		t.Errorf("MonthsUntil = %d, want 17", got)
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		day, year, month int
		want             int
	}{
		{31, 2024, 2, 29}, // leap year
		{31, 2023, 2, 28},
		{30, 2024, 4, 30},
		{31, 2024, 4, 30},
		{15, 2024, 4, 15},
		{0, 2024, 4, 1},
		{-7, 2024, 4, 1},
		{99, 2024, 12, 31},
	}
	for _, tt := range tests {
		if got := ClampDay(tt.day, tt.year, tt.month); got != tt.want {
			t.Errorf("ClampDay(%d, %d, %d) = %d, want %d", tt.day, tt.year, tt.month, got, tt.want)
		}
	}
}

func TestDateFromYearMonthDay(t *testing.T) {
	got := DateFromYearMonthDay(2024, 2, 31)
	if got.String() != "2024-02-29" {
		t.Errorf("got %s, want 2024-02-29", got)
	}
	// Month overflow is normalized before clamping, never rolled into the next month.
	got = DateFromYearMonthDay(2024, 14, 31)
	if got.String() != "2025-02-28" {
		t.Errorf("got %s, want 2025-02-28", got)
	}
}

func TestParseYearMonth(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01", true},
		{"2024-12", true},
		{"2024-1", true},
		{"2024-13", false},
		{"2024-00", false},
		{"24-01", false},
		{"2024/01", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseYearMonth(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDateAndYearMonthJSON(t *testing.T) {
	type payload struct {
		Day   Date      `json:"day"`
		Month YearMonth `json:"month"`
		Empty Date      `json:"empty"`
	}
	in := payload{Day: NewDate(2024, 1, 20), Month: YearMonth{2024, 2}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"day":"2024-01-20","month":"2024-02","empty":""}`
	if string(b) != want {
		t.Fatalf("marshal = %s, want %s", b, want)
	}

	var out payload
	if err := json.Unmarshal([]byte(`{"day":"2024-01-20T15:04:05Z","month":"2024-02-11","empty":null}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Day != in.Day || out.Month != in.Month || !out.Empty.IsZero() {
		t.Fatalf("unmarshal = %+v", out)
	}
}

func TestYearMonthContains(t *testing.T) {
	ym := YearMonth{2024, 3}
	if !ym.Contains(NewDate(2024, 3, 31)) {
		t.Error("expected March 31 inside 2024-03")
	}
	if ym.Contains(NewDate(2024, 4, 1)) {
		t.Error("expected April 1 outside 2024-03")
	}
	if ym.Contains(Date{}) {
		t.Error("zero date must not be contained")
	}
}
