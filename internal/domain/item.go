package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemKind discriminates fine policies between catalog items.
type ItemKind string

const (
	ItemKindStandard  ItemKind = "STANDARD"
	ItemKindReference ItemKind = "REFERENCE"
)

var (
	standardDailyFine  = decimal.RequireFromString("1.00")
	referenceDailyFine = decimal.RequireFromString("5.00")
)

// Valid reports whether the kind is a known item kind.
func (k ItemKind) Valid() bool {
	return k == ItemKindStandard || k == ItemKindReference
}

// DailyFineRate returns the per-day penalty for items of this kind.
func (k ItemKind) DailyFineRate() decimal.Decimal {
	if k == ItemKindReference {
		return referenceDailyFine
	}
	return standardDailyFine
}

// Item is a lendable catalog entry, keyed by its catalog identifier (ISBN).
type Item struct {
	ID           string
	Title        string
	Author       string
	Kind         ItemKind
	Available    bool
	RegisteredBy *string
	CreatedAt    time.Time
}

// NewItem builds an available item of the given kind.
func NewItem(id, title, author string, kind ItemKind) *Item {
	if kind == "" {
		kind = ItemKindStandard
	}
	return &Item{
		ID:        id,
		Title:     title,
		Author:    author,
		Kind:      kind,
		Available: true,
	}
}

// DailyFineRate returns the item's fine per late day.
func (i *Item) DailyFineRate() decimal.Decimal {
	return i.Kind.DailyFineRate()
}

// MarkBorrowed flags the item as lent out. Callers check availability first.
func (i *Item) MarkBorrowed() bool {
	i.Available = false
	return true
}

// MarkReturned flags the item as back on the shelf.
func (i *Item) MarkReturned() bool {
	i.Available = true
	return true
}
