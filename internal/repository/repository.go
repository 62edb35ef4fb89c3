package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/lending-service/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a create collides with an existing key.
	ErrDuplicate = errors.New("duplicate key")
)

// ItemRepository persists catalog items.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
}

// PatronRepository persists patrons.
type PatronRepository interface {
	Create(ctx context.Context, patron *domain.Patron) error
	GetByID(ctx context.Context, id string) (*domain.Patron, error)
	List(ctx context.Context) ([]domain.Patron, error)
}

// StaffRepository persists staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	GetByID(ctx context.Context, id string) (*domain.Staff, error)
	List(ctx context.Context) ([]domain.Staff, error)
}

// LoanFilter narrows ledger listings. Results keep ledger (creation) order.
type LoanFilter struct {
	PatronID  *string
	ItemID    *string
	OpenOnly  bool
	DueBefore *time.Time
	Limit     int
	Offset    int
}

// LoanRepository persists the lending ledger.
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	Update(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	FindOpen(ctx context.Context, patronID, itemID string) (*domain.Loan, error)
	CountOpenByPatron(ctx context.Context, patronID string) (int, error)
	List(ctx context.Context, filter LoanFilter) ([]domain.Loan, error)
}

// Repositories groups the registry and ledger repositories.
type Repositories interface {
	Items() ItemRepository
	Patrons() PatronRepository
	Staff() StaffRepository
	Loans() LoanRepository
}

// Store is the registry plus ledger, with all-or-nothing transactions.
// Reads inside a transaction on Postgres lock the rows they return.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
	Close()
}

func matchesLoan(loan *domain.Loan, filter LoanFilter) bool {
	if filter.PatronID != nil && loan.PatronID != *filter.PatronID {
		return false
	}
	if filter.ItemID != nil && loan.ItemID != *filter.ItemID {
		return false
	}
	if filter.OpenOnly && !loan.IsOpen() {
		return false
	}
	if filter.DueBefore != nil && !loan.DueDate.Before(*filter.DueBefore) {
		return false
	}
	return true
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
