// Package repository persists the five ledger entity kinds. It stores
// ciphertext columns as opaque strings and carries no business logic;
// encryption, resolution and import rules live in the service layer.
package repository

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is a lookup miss. Callers must keep it distinct from a
	// vault decrypt failure.
	ErrNotFound = errors.New("repository: not found")
	// ErrCategoryInUse blocks category deletion while transactions still
	// reference it. Recoverable by reassigning those transactions first.
	ErrCategoryInUse = errors.New("repository: category in use")
)

// CategoryType is fixed at creation and never updated afterwards.
type CategoryType string

const (
	TypeIncome   CategoryType = "income"
	TypeExpense  CategoryType = "expense"
	TypeSaving   CategoryType = "saving"
	TypeTransfer CategoryType = "transfer"
)

// CategoryKind says where a transaction's effective category comes from.
// Exactly one kind holds at any time; transfer rows may carry a linked
// transaction id, uncategorized rows carry nothing.
type CategoryKind string

const (
	KindExplicit      CategoryKind = "explicit"
	KindAuto          CategoryKind = "auto"
	KindTransfer      CategoryKind = "transfer"
	KindUncategorized CategoryKind = "uncategorized"
)

// Category represents a category row. Name and DefaultLimit are ciphertext.
type Category struct {
	ID           int64
	Name         string
	Type         CategoryType
	DefaultLimit string
}

// BudgetOverride is a per-month limit superseding the category default.
// At most one row exists per (CategoryID, Month); Month is "YYYY-MM".
type BudgetOverride struct {
	CategoryID int64
	Month      string
	Limit      string // ciphertext
}

// Transaction represents a transaction row. Date, Amount, Description,
// Account and Note are ciphertext.
type Transaction struct {
	ID           string
	Date         string
	Amount       string
	Description  string
	Account      string
	Note         *string
	CategoryKind CategoryKind
	CategoryID   *int64
	LinkedID     *string
	PayeeID      *int64
	AutoPayee    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DescriptionMapping is a rule keyed by the raw description text. The
// category is referenced by encrypted name, not id, so it re-resolves
// against the live category table at every use.
type DescriptionMapping struct {
	Description  string
	CategoryName string  // ciphertext; may hold the Transfer sentinel
	PayeeName    *string // ciphertext, optional
}

// AccountMapping maps a raw account identifier to an encrypted display
// name. Cosmetic only.
type AccountMapping struct {
	Account     string
	DisplayName string
}

// Payee represents a payee row. Name is ciphertext.
type Payee struct {
	ID   int64
	Name string
}

// VaultMeta is the single-row unlock material.
type VaultMeta struct {
	PasswordHash string
	KDFSalt      []byte
}
