package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record owned by one user.
	// ID and timestamps are assigned by the server on creation.
	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      Money
		Category    string
		Title       string
		Description string
		Date        string // ISO date, DateLayout
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// TransactionDraft is the client-side shape of a transaction before the
	// server has assigned it an identifier.
	TransactionDraft struct {
		Type        TransactionType
		Amount      Money
		Category    string
		Title       string
		Description string
		Date        string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyCategory = errors.New("empty category")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (d TransactionDraft) Validate() error {
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if len(d.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if d.Date != "" {
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

func (t Transaction) Validate() error {
	return t.Draft().Validate()
}

// Draft strips the server-assigned fields, leaving the user-supplied ones.
func (t Transaction) Draft() TransactionDraft {
	return TransactionDraft{
		Type:        t.Type,
		Amount:      t.Amount,
		Category:    t.Category,
		Title:       t.Title,
		Description: t.Description,
		Date:        t.Date,
	}
}

// TransactionPatch carries a partial update. Nil fields are left unchanged.
type TransactionPatch struct {
	Type        *TransactionType
	Amount      *Money
	Category    *string
	Title       *string
	Description *string
	Date        *string
}

// Apply returns a copy of t with the non-nil patch fields applied.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

// Validate checks that the patched result would still be a valid transaction.
func (p TransactionPatch) Validate(t Transaction) error {
	return p.Apply(t).Validate()
}
