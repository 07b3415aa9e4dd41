package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the on-disk layout of transaction dates.
const DateLayout = "2006-01-02"

// TimestampLayout is the on-disk layout of created_at and updated_at.
const TimestampLayout = "2006-01-02 15:04:05"

// AnonymousName is recorded as name1 for gifts given without a name.
const AnonymousName = "무명"

// ErrInvalidEntry is returned by Validate for incomplete entries.
var ErrInvalidEntry = errors.New("invalid entry")

// Income is one income transaction, typically an offering.
type Income struct {
	Date         time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MainCategory string
	SubCategory  string
	Name1        string // Primary giver name
	Name2        string // Secondary name, e.g. a spouse
	Memo         string
	Amount       int64 // Smallest currency unit
	ID           int64
}

// Expense is one expense transaction.
type Expense struct {
	Date         time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MainCategory string
	SubCategory  string
	Memo         string
	Amount       int64
	ID           int64
}

// MarkAnonymous records the gift under the anonymous marker and drops the
// secondary name.
func (i *Income) MarkAnonymous() {
	i.Name1 = AnonymousName
	i.Name2 = ""
}

// IsAnonymous reports whether the gift was recorded without a name.
func (i *Income) IsAnonymous() bool {
	return i.Name1 == AnonymousName
}

// Validate checks the fields a user must supply for an income entry.
func (i *Income) Validate() error {
	if err := validateCommon(i.Date, i.MainCategory, i.SubCategory, i.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(i.Name1) == "" {
		return fmt.Errorf("%w: name is required unless the gift is anonymous", ErrInvalidEntry)
	}
	return nil
}

// Validate checks the fields a user must supply for an expense entry.
func (e *Expense) Validate() error {
	return validateCommon(e.Date, e.MainCategory, e.SubCategory, e.Amount)
}

func validateCommon(date time.Time, main, sub string, amount int64) error {
	if date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidEntry)
	}
	if strings.TrimSpace(main) == "" {
		return fmt.Errorf("%w: missing main category", ErrInvalidEntry)
	}
	if strings.TrimSpace(sub) == "" {
		return fmt.Errorf("%w: missing sub category", ErrInvalidEntry)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidEntry)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseTimestamp parses a stored local timestamp. Empty input yields the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
