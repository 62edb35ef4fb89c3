package dto

import "github.com/spec-kit/lending-service/internal/domain"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// BorrowRequest payload.
type BorrowRequest struct {
	PatronID string `json:"patron_id"`
	ItemID   string `json:"item_id"`
	StaffID  string `json:"staff_id"`
}

// ReturnLoanRequest payload for returning by loan id.
type ReturnLoanRequest struct {
	ReturnDate string `json:"return_date"`
}

// ReturnItemRequest payload for returning by patron and item.
type ReturnItemRequest struct {
	PatronID   string `json:"patron_id"`
	ItemID     string `json:"item_id"`
	ReturnDate string `json:"return_date"`
}

// ListLoansQuery filters the ledger listing.
type ListLoansQuery struct {
	PatronID string `query:"patron_id"`
	ItemID   string `query:"item_id"`
	Open     bool   `query:"open"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

// LoanResponse describes a ledger entry.
type LoanResponse struct {
	ID         string            `json:"id"`
	PatronID   string            `json:"patron_id"`
	ItemID     string            `json:"item_id"`
	StaffID    string            `json:"staff_id"`
	Status     domain.LoanStatus `json:"status"`
	LoanDate   string            `json:"loan_date"`
	DueDate    string            `json:"due_date"`
	ReturnedOn *string           `json:"returned_on,omitempty"`
	Fine       string            `json:"fine"`
}

// ReturnResponse reports the outcome of a return.
type ReturnResponse struct {
	LoanID     string `json:"loan_id"`
	ReturnedOn string `json:"returned_on"`
	DaysLate   int    `json:"days_late"`
	Fine       string `json:"fine"`
}

// StatusResponse is the lending status page.
type StatusResponse struct {
	AsOf       string           `json:"as_of"`
	Patrons    []PatronResponse `json:"patrons"`
	Items      []ItemResponse   `json:"items"`
	OpenLoans  []LoanResponse   `json:"open_loans"`
	Counters   map[string]int64 `json:"counters"`
	FinesTotal string           `json:"fines_total"`
}
