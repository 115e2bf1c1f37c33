package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the calendar-date format used everywhere a date is stored or
// compared. Dates carry no time component.
const DateLayout = "2006-01-02"

// DefaultCategoryColor is applied when a category is created without one.
const DefaultCategoryColor = "#007AFF"

const maxDescriptionLen = 200

type (
	TransactionType string

	Category struct {
		ID    int64           `json:"id"`
		Name  string          `json:"name"`
		Type  TransactionType `json:"type"`
		Color string          `json:"color"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		Description string          `json:"description"`
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		CategoryID  *int64          `json:"category_id"`
		Date        string          `json:"date"`
		CreatedAt   string          `json:"created_at,omitempty"`

		// Joined category fields, populated on reads. Nil when the
		// transaction is uncategorized.
		CategoryName  *string `json:"category_name,omitempty"`
		CategoryColor *string `json:"category_color,omitempty"`
	}

	Balance struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Total   float64 `json:"total"`
	}

	BalanceSnapshot struct {
		ID      int64   `json:"id"`
		Date    string  `json:"date"`
		Total   float64 `json:"total"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	// CategorySummary aggregates transactions of one category for the
	// statistics views.
	CategorySummary struct {
		Name    string  `json:"name"`
		Color   string  `json:"color"`
		Total   float64 `json:"total"`
		Percent float64 `json:"percent"`
	}

	// MonthSummary aggregates one calendar month (YYYY-MM).
	MonthSummary struct {
		Month   string  `json:"month"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Net     float64 `json:"net"`
	}
)

var (
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty category name")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// ParseDate validates a YYYY-MM-DD calendar date string.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Type.Validate()
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if t.Amount < 0 || math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if _, err := ParseDate(t.Date); err != nil {
		return err
	}
	return nil
}

// IsValidation reports whether err comes from caller-supplied data failing a
// precondition, as opposed to a storage fault.
func IsValidation(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidType,
		ErrInvalidAmount,
		ErrInvalidDate,
		ErrEmptyDescription,
		ErrDescriptionTooLong,
		ErrEmptyName,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
