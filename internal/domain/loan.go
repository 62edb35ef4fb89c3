package domain

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/spec-kit/lending-service/pkg/util/errorutil"
)

// LoanStatus is derived from the return date.
type LoanStatus string

const (
	LoanStatusOpen   LoanStatus = "OPEN"
	LoanStatusClosed LoanStatus = "CLOSED"
)

// Loan binds a patron, an item and the authorizing staff member.
type Loan struct {
	ID         string
	PatronID   string
	ItemID     string
	StaffID    string
	LoanDate   time.Time
	DueDate    time.Time
	ReturnedOn *time.Time
	Fine       decimal.Decimal
	CreatedAt  time.Time
}

// NewLoan opens a loan starting on loanDate for the given term.
func NewLoan(id string, patron *Patron, item *Item, staff *Staff, loanDate time.Time, termDays int) *Loan {
	start := DateOf(loanDate)
	return &Loan{
		ID:       id,
		PatronID: patron.ID,
		ItemID:   item.ID,
		StaffID:  staff.ID,
		LoanDate: start,
		DueDate:  AddDays(start, termDays),
		Fine:     decimal.Zero,
	}
}

// IsOpen reports whether the loan has not been returned yet.
func (l *Loan) IsOpen() bool {
	return l.ReturnedOn == nil
}

// Status returns OPEN or CLOSED.
func (l *Loan) Status() LoanStatus {
	if l.IsOpen() {
		return LoanStatusOpen
	}
	return LoanStatusClosed
}

// DaysLate returns how many days past the due date `on` is, never negative.
func (l *Loan) DaysLate(on time.Time) int {
	days := DaysBetween(l.DueDate, on)
	if days < 0 {
		return 0
	}
	return days
}

// FineOn computes the fine for a return on the given date at the given rate.
func (l *Loan) FineOn(on time.Time, rate decimal.Decimal) decimal.Decimal {
	late := l.DaysLate(on)
	if late == 0 {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromInt(int64(late)))
}

// CloseLoan returns the item, stamps the return date and records the fine.
func CloseLoan(loan *Loan, item *Item, returnedOn time.Time) (decimal.Decimal, error) {
	if !loan.IsOpen() {
		return decimal.Zero, apperrors.NewAlreadyReturned(loan.ID)
	}
	if !item.MarkReturned() {
		return decimal.Zero, apperrors.NewReturnFailed(loan.ID)
	}
	date := DateOf(returnedOn)
	loan.ReturnedOn = &date
	loan.Fine = loan.FineOn(date, item.DailyFineRate())
	return loan.Fine, nil
}
