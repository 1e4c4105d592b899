// Package core provides the domain types and calendar arithmetic shared by
// every other package.
//
// This file contains the year-month and date helpers. All of them are total:
// any integer day or month delta produces a valid calendar position.
package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	isoDateLayout   = "2006-01-02"
	yearMonthLayout = "2006-01"
)

type (
	// Date is a calendar date at midnight UTC.
	Date struct {
		time.Time
	}

	// YearMonth identifies a calendar month. Month is 1-12.
	YearMonth struct {
		Year  int
		Month int
	}
)

// NewDate creates a new Date from year, month, day.
// Out of range values are normalized by time.Date.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoDateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// Validate rejects the zero date.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrEmptyDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String returns the ISO form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(isoDateLayout)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// MarshalText encodes the date as YYYY-MM-DD; the zero date encodes as "".
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts YYYY-MM-DD, a full RFC 3339 timestamp, or "".
func (d *Date) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = Date{}
		return nil
	}
	if len(s) > len(isoDateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			*d = DateOf(t)
			return nil
		}
		s = s[:len(isoDateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a JSON string (see UnmarshalText) or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// NewYearMonth builds a YearMonth, normalizing months outside 1-12.
func NewYearMonth(year, month int) YearMonth {
	return YearMonthFromOrdinal(year*12 + (month - 1))
}

// YearMonthOf returns the year-month key of a date.
func YearMonthOf(d Date) YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

// YearMonthFromOrdinal is the inverse of Ordinal.
func YearMonthFromOrdinal(ord int) YearMonth {
	year := ord / 12
	month := ord % 12
	if month < 0 {
		month += 12
		year--
	}
	return YearMonth{Year: year, Month: month + 1}
}

// ParseYearMonth parses a YYYY-MM key.
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) < 1 || len(parts[1]) > 2 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	return YearMonth{Year: year, Month: month}, nil
}

// IsZero reports whether the year-month is unset.
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// String returns the YYYY-MM key, or "" when unset.
func (ym YearMonth) String() string {
	if ym.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Ordinal is year*12 + (month-1), used for comparison and subtraction.
func (ym YearMonth) Ordinal() int {
	return ym.Year*12 + (ym.Month - 1)
}

// AddMonths shifts the year-month by delta months, wrapping year boundaries.
func (ym YearMonth) AddMonths(delta int) YearMonth {
	return YearMonthFromOrdinal(ym.Ordinal() + delta)
}

// MonthsUntil returns other - ym in months.
func (ym YearMonth) MonthsUntil(other YearMonth) int {
	return other.Ordinal() - ym.Ordinal()
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	return ym.Ordinal() < other.Ordinal()
}

// After reports whether ym is strictly later than other.
func (ym YearMonth) After(other YearMonth) bool {
	return ym.Ordinal() > other.Ordinal()
}

// DaysIn returns the number of days in the month.
func (ym YearMonth) DaysIn() int {
	return DaysInMonth(ym.Year, ym.Month)
}

// Date projects day onto this month, clamping to the last day.
func (ym YearMonth) Date(day int) Date {
	return DateFromYearMonthDay(ym.Year, ym.Month, day)
}

// FirstDay returns the first calendar day of the month.
func (ym YearMonth) FirstDay() Date {
	return ym.Date(1)
}

// LastDay returns the last calendar day of the month.
func (ym YearMonth) LastDay() Date {
	return ym.Date(ym.DaysIn())
}

// Contains reports whether d falls inside the month.
func (ym YearMonth) Contains(d Date) bool {
	return !d.IsZero() && YearMonthOf(d) == ym
}

// MarshalText encodes the key as YYYY-MM.
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText accepts YYYY-MM, a full ISO date (its month is taken), or "".
func (ym *YearMonth) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*ym = YearMonth{}
		return nil
	}
	if len(s) > len(yearMonthLayout) {
		s = s[:len(yearMonthLayout)]
	}
	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// DaysInMonth returns the number of days of the given month.
func DaysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay bounds day to [1, daysInMonth(year, month)].
func ClampDay(day, year, month int) int {
	if day < 1 {
		return 1
	}
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// DateFromYearMonthDay builds a date with the day clamped into the month.
func DateFromYearMonthDay(year, month, day int) Date {
	ym := NewYearMonth(year, month)
	return NewDate(ym.Year, ym.Month, ClampDay(day, ym.Year, ym.Month))
}
