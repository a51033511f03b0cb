package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

type (
	// Type discriminates income from expense entries. It is fixed at
	// creation; edits never change it.
	Type string

	// Timestamp is a creation time assigned by the store. The zero value
	// means the server timestamp has not resolved yet ("pending"), which
	// happens briefly after a create against a remote backend.
	Timestamp struct {
		time.Time
	}

	// Transaction is a single income or expense record as delivered by
	// the store. ID is the store-assigned document key.
	Transaction struct {
		ID        string
		Caption   string
		Amount    float64
		Type      Type
		CreatedAt Timestamp
	}

	// Draft carries the user-supplied fields for a create. The store
	// assigns ID and CreatedAt.
	Draft struct {
		Caption string
		Amount  float64
		Type    Type
	}

	// Patch carries the editable fields for an update. Type and
	// CreatedAt are immutable post-creation.
	Patch struct {
		Caption string
		Amount  float64
	}
)

var (
	ErrEmptyCaption   = errors.New("empty caption")
	ErrCaptionTooLong = errors.New("caption too long (max 200 characters)")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidType    = errors.New("invalid transaction type")
)

// Valid reports whether t is one of the two known types.
func (t Type) Valid() bool {
	return t == Income || t == Expense
}

// Sign returns the display sign for amounts of this type.
func (t Type) Sign() string {
	if t == Income {
		return "+"
	}
	return "-"
}

// Pending reports whether the server timestamp has not resolved yet.
func (ts Timestamp) Pending() bool {
	return ts.IsZero()
}

// Label formats the timestamp for display, with an explicit placeholder
// while the server timestamp is still pending.
func (ts Timestamp) Label() string {
	if ts.Pending() {
		return "Pending"
	}
	return ts.Format("2006-01-02")
}

// NewTimestamp wraps a resolved creation time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func validCaption(caption string) error {
	if len(strings.TrimSpace(caption)) == 0 {
		return ErrEmptyCaption
	}
	if len(caption) > 200 {
		return ErrCaptionTooLong
	}
	return nil
}

func (d Draft) Validate() error {
	if err := validCaption(d.Caption); err != nil {
		return err
	}
	if err := validAmount(d.Amount); err != nil {
		return err
	}
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (p Patch) Validate() error {
	if err := validCaption(p.Caption); err != nil {
		return err
	}
	return validAmount(p.Amount)
}
