package dto

import (
	"time"

	"github.com/spec-kit/lending-service/internal/domain"
)

// RegisterItemRequest payload.
type RegisterItemRequest struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Author       string          `json:"author"`
	Kind         domain.ItemKind `json:"kind"`
	RegisteredBy *string         `json:"registered_by"`
}

// ItemResponse describes a catalog item.
type ItemResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	Kind          domain.ItemKind `json:"kind"`
	Available     bool            `json:"available"`
	DailyFineRate string          `json:"daily_fine_rate"`
	RegisteredBy  *string         `json:"registered_by,omitempty"`
	RegisteredAt  time.Time       `json:"registered_at"`
}

// RegisterPatronRequest payload.
type RegisterPatronRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
	Limit int    `json:"limit"`
}

// PatronResponse describes a patron and its open-loan count.
type PatronResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TaxID       string    `json:"tax_id"`
	Limit       int       `json:"limit"`
	ActiveLoans int       `json:"active_loans"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegisterStaffRequest payload. Role is the free-text position.
type RegisterStaffRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
	Role  string `json:"role"`
}

// StaffResponse describes a staff member.
type StaffResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
