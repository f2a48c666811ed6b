package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyID         = errors.New("empty record id")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrCategoryTooLong = errors.New("category too long (max 200 characters)")
)

// Record is a single expense entry. It is immutable once created: mutating
// operations on the ledger replace whole records, never fields.
type Record struct {
	ID       string
	Amount   decimal.Decimal
	Category string
	At       time.Time
}

// NewRecord builds a record with a fresh unique ID.
func NewRecord(amount decimal.Decimal, category string, at time.Time) Record {
	return Record{
		ID:       uuid.NewString(),
		Amount:   amount,
		Category: strings.TrimSpace(category),
		At:       at,
	}
}

// Validate checks the invariants callers must guarantee before handing a
// record to the ledger. The ledger itself trusts its input.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if r.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	// Category is free-form and may be empty, only bounded in size.
	if len(r.Category) > 200 {
		return ErrCategoryTooLong
	}
	if r.At.IsZero() {
		return ErrZeroDate
	}
	return nil
}
