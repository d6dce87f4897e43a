package core

import (
	"errors"
	"strings"
	"time"
)

// PredefinedCategories is the fixed category set. Anything else is a custom
// category that gets registered per user on first use.
var PredefinedCategories = []string{
	"Food",
	"Transport",
	"Entertainment",
	"Utilities",
	"Health",
	"Education",
	"Other",
}

type (
	// User is a registered account. The password digest never leaves the
	// storage/auth layers.
	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Expense is a single outflow owned by exactly one user. Ownership is
	// permanent: every read, update and delete is scoped by both the expense
	// ID and the owner's ID.
	Expense struct {
		ID          string    `json:"id"`
		UserID      string    `json:"-"`
		Amount      float64   `json:"amount"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Date        time.Time `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// ExpenseInput is the caller-supplied payload for create and update. The
	// date arrives as a string and is parsed with ParseDate.
	ExpenseInput struct {
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Date        string  `json:"date"`
	}

	// ExpenseFilter narrows a listing. A zero bound leaves that side of the
	// date range open; both bounds are inclusive. Category is an exact match.
	ExpenseFilter struct {
		StartDate time.Time
		EndDate   time.Time
		Category  string
	}

	// MonthlySpending is one row of the by-month report, Month as "YYYY-MM".
	MonthlySpending struct {
		Month       string  `json:"month"`
		TotalAmount float64 `json:"totalAmount"`
	}

	// CategorySpending is one row of the by-category report.
	CategorySpending struct {
		Category    string  `json:"category"`
		TotalAmount float64 `json:"totalAmount"`
	}
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("expense not found")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// IsPredefinedCategory reports whether name is one of the fixed categories.
func IsPredefinedCategory(name string) bool {
	for _, c := range PredefinedCategories {
		if c == name {
			return true
		}
	}
	return false
}

// ParseDate parses a calendar date. It accepts YYYY-MM-DD and full RFC 3339
// timestamps, normalizing to UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, ErrInvalidDate
}

// Validate checks the structurally required fields of an input payload. Date
// parsing is left to the caller so it can surface ErrInvalidDate separately.
func (in ExpenseInput) Validate() error {
	if in.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(in.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(in.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// ValidateCredentials checks registration and login input.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}
