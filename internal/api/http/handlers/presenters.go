package handlers

import (
	"strings"
	"time"

	"github.com/spec-kit/lending-service/internal/api/dto"
	"github.com/spec-kit/lending-service/internal/domain"
	"github.com/spec-kit/lending-service/internal/service"
	apperrors "github.com/spec-kit/lending-service/pkg/util/errorutil"
)

func itemResponse(item *domain.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:            item.ID,
		Title:         item.Title,
		Author:        item.Author,
		Kind:          item.Kind,
		Available:     item.Available,
		DailyFineRate: item.DailyFineRate().StringFixed(2),
		RegisteredBy:  item.RegisteredBy,
		RegisteredAt:  item.CreatedAt,
	}
}

func patronResponse(summary *service.PatronSummary) dto.PatronResponse {
	return dto.PatronResponse{
		ID:          summary.Patron.ID,
		Name:        summary.Patron.Name,
		TaxID:       summary.Patron.TaxID,
		Limit:       summary.Patron.Limit,
		ActiveLoans: summary.ActiveLoans,
		CreatedAt:   summary.Patron.CreatedAt,
	}
}

func staffResponse(staff *domain.Staff) dto.StaffResponse {
	return dto.StaffResponse{
		ID:        staff.ID,
		Name:      staff.Name,
		TaxID:     staff.TaxID,
		Role:      staff.Position,
		CreatedAt: staff.CreatedAt,
	}
}

func loanResponse(loan *domain.Loan) dto.LoanResponse {
	resp := dto.LoanResponse{
		ID:       loan.ID,
		PatronID: loan.PatronID,
		ItemID:   loan.ItemID,
		StaffID:  loan.StaffID,
		Status:   loan.Status(),
		LoanDate: formatDate(loan.LoanDate),
		DueDate:  formatDate(loan.DueDate),
		Fine:     loan.Fine.StringFixed(2),
	}
	if loan.ReturnedOn != nil {
		returned := formatDate(*loan.ReturnedOn)
		resp.ReturnedOn = &returned
	}
	return resp
}

func loanResponses(loans []domain.Loan) []dto.LoanResponse {
	out := make([]dto.LoanResponse, 0, len(loans))
	for i := range loans {
		out = append(out, loanResponse(&loans[i]))
	}
	return out
}

func formatDate(t time.Time) string {
	return t.Format(dto.DateLayout)
}

// parseDate reads an optional YYYY-MM-DD value.
func parseDate(field, val string) (*time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date, expected YYYY-MM-DD", map[string]any{field: val})
	}
	date := domain.DateOf(t)
	return &date, nil
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}
