package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/lending-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventItemRegistered   EventType = "item_registered"
	EventPatronRegistered EventType = "patron_registered"
	EventStaffRegistered  EventType = "staff_registered"
	EventLoanCreated      EventType = "loan_created"
	EventLoanReturned     EventType = "loan_returned"
	EventLoanOverdue      EventType = "loan_overdue"
)

// AllEventTypes lists every type the services publish.
var AllEventTypes = []EventType{
	EventItemRegistered,
	EventPatronRegistered,
	EventStaffRegistered,
	EventLoanCreated,
	EventLoanReturned,
	EventLoanOverdue,
}

// Actor identifies who caused an event. System events carry no staff id.
type Actor struct {
	Role    domain.PersonRole `json:"role,omitempty"`
	StaffID *string           `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	LoanID    string    `json:"loan_id,omitempty"`
	ItemID    string    `json:"item_id,omitempty"`
	PatronID  string    `json:"patron_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// ItemRegisteredPayload payload.
type ItemRegisteredPayload struct {
	Title string          `json:"title"`
	Kind  domain.ItemKind `json:"kind"`
}

// PatronRegisteredPayload payload.
type PatronRegisteredPayload struct {
	Name  string `json:"name"`
	Limit int    `json:"limit"`
}

// StaffRegisteredPayload payload.
type StaffRegisteredPayload struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// LoanCreatedPayload payload.
type LoanCreatedPayload struct {
	LoanDate time.Time `json:"loan_date"`
	DueDate  time.Time `json:"due_date"`
}

// LoanReturnedPayload payload.
type LoanReturnedPayload struct {
	ReturnedOn time.Time       `json:"returned_on"`
	DaysLate   int             `json:"days_late"`
	Fine       decimal.Decimal `json:"fine"`
}

// LoanOverduePayload payload.
type LoanOverduePayload struct {
	DueDate     time.Time       `json:"due_date"`
	DaysLate    int             `json:"days_late"`
	AccruedFine decimal.Decimal `json:"accrued_fine"`
}
