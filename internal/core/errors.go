package core

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidYearMonth    = errors.New("invalid year-month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidInstallments = errors.New("invalid installment count")
	ErrInvalidStrategy     = errors.New("invalid prepayment strategy")
	ErrInvalidRecurrence   = errors.New("invalid recurrence")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyDate           = errors.New("date cannot be zero")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidRange        = errors.New("end month must not precede start month")
	ErrInvalidField        = errors.New("invalid field")
)

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDay, ErrInvalidMonth, ErrInvalidYearMonth, ErrInvalidAmount,
		ErrInvalidInstallments, ErrInvalidStrategy, ErrInvalidRecurrence,
		ErrInvalidCurrency, ErrEmptyDescription, ErrEmptyName, ErrEmptyDate,
		ErrDescriptionTooLong, ErrInvalidRange, ErrInvalidField,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
