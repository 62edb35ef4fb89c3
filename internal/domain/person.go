package domain

import "time"

// PersonRole tags the shared person record.
type PersonRole string

const (
	PersonRolePatron PersonRole = "PATRON"
	PersonRoleStaff  PersonRole = "STAFF"
)

const (
	// DefaultBorrowLimit is the number of simultaneous open loans a patron may hold.
	DefaultBorrowLimit = 3

	patronLoanTermDays = 7
	staffLoanTermDays  = 14
)

// LoanTermFor returns the loan term in days for the borrowing actor's role.
// Every loan is currently created through a patron; the staff term applies
// once staff members can borrow for themselves.
func LoanTermFor(role PersonRole) int {
	if role == PersonRoleStaff {
		return staffLoanTermDays
	}
	return patronLoanTermDays
}

// Person holds the identity fields shared by patrons and staff.
type Person struct {
	Name  string
	TaxID string
	Role  PersonRole
}

// Patron is a registered borrower.
type Patron struct {
	Person
	ID        string
	Limit     int
	CreatedAt time.Time
}

// NewPatron builds a patron; a non-positive limit falls back to DefaultBorrowLimit.
func NewPatron(id, name, taxID string, limit int) *Patron {
	if limit <= 0 {
		limit = DefaultBorrowLimit
	}
	return &Patron{
		Person: Person{Name: name, TaxID: taxID, Role: PersonRolePatron},
		ID:     id,
		Limit:  limit,
	}
}

// CanBorrow reports whether a patron holding activeLoans may open another loan.
func (p *Patron) CanBorrow(activeLoans int) bool {
	return activeLoans < p.Limit
}

// Staff authorizes loans and registers items. It holds no loan state.
type Staff struct {
	Person
	ID        string
	Position  string
	CreatedAt time.Time
}

// NewStaff builds a staff member.
func NewStaff(id, name, taxID, position string) *Staff {
	return &Staff{
		Person:   Person{Name: name, TaxID: taxID, Role: PersonRoleStaff},
		ID:       id,
		Position: position,
	}
}
