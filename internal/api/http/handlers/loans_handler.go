package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lending-service/internal/api/dto"
	"github.com/spec-kit/lending-service/internal/repository"
	"github.com/spec-kit/lending-service/internal/service"
	apperrors "github.com/spec-kit/lending-service/pkg/util/errorutil"
)

const maxPageSize = 200

// LoansHandler exposes borrow, return and ledger endpoints.
type LoansHandler struct {
	lending *service.LendingService
}

// NewLoansHandler constructs handler.
func NewLoansHandler(lending *service.LendingService) *LoansHandler {
	return &LoansHandler{lending: lending}
}

// Borrow handles POST /loans.
func (h *LoansHandler) Borrow(c *fiber.Ctx) error {
	var req dto.BorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	loan, err := h.lending.Borrow(c.UserContext(), req.PatronID, req.ItemID, req.StaffID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": loanResponse(loan)})
}

// ReturnLoan handles POST /loans/:id/return.
func (h *LoansHandler) ReturnLoan(c *fiber.Ctx) error {
	var req dto.ReturnLoanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidPayload()
		}
	}
	date, err := parseDate("return_date", req.ReturnDate)
	if err != nil {
		return err
	}
	receipt, err := h.lending.Return(c.UserContext(), service.ReturnInput{
		LoanID:     c.Params("id"),
		ReturnDate: date,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": returnResponse(receipt)})
}

// ReturnItem handles POST /returns, closing the open loan for a patron and item.
func (h *LoansHandler) ReturnItem(c *fiber.Ctx) error {
	var req dto.ReturnItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	date, err := parseDate("return_date", req.ReturnDate)
	if err != nil {
		return err
	}
	receipt, err := h.lending.Return(c.UserContext(), service.ReturnInput{
		PatronID:   req.PatronID,
		ItemID:     req.ItemID,
		ReturnDate: date,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": returnResponse(receipt)})
}

// ListOpen handles GET /loans/open.
func (h *LoansHandler) ListOpen(c *fiber.Ctx) error {
	loans, err := h.lending.ListOpenLoans(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loanResponses(loans)})
}

// List handles GET /loans?patron_id=&item_id=&open=&limit=&offset=.
func (h *LoansHandler) List(c *fiber.Ctx) error {
	filter, err := loanFilter(c)
	if err != nil {
		return err
	}
	loans, err := h.lending.ListLoans(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loanResponses(loans)})
}

func loanFilter(c *fiber.Ctx) (repository.LoanFilter, error) {
	var q dto.ListLoansQuery
	if err := c.QueryParser(&q); err != nil {
		return repository.LoanFilter{}, invalidPayload()
	}
	if q.Limit < 0 || q.Offset < 0 || q.Limit > maxPageSize {
		return repository.LoanFilter{}, apperrors.NewValidationError("invalid pagination",
			map[string]any{"limit": q.Limit, "offset": q.Offset, "max_limit": maxPageSize})
	}
	filter := repository.LoanFilter{OpenOnly: q.Open, Limit: q.Limit, Offset: q.Offset}
	if id := strings.TrimSpace(q.PatronID); id != "" {
		filter.PatronID = &id
	}
	if id := strings.TrimSpace(q.ItemID); id != "" {
		filter.ItemID = &id
	}
	return filter, nil
}

// Status handles GET /status.
func (h *LoansHandler) Status(c *fiber.Ctx) error {
	report, err := h.lending.Status(c.UserContext())
	if err != nil {
		return err
	}

	resp := dto.StatusResponse{
		AsOf:       formatDate(report.AsOf),
		Patrons:    make([]dto.PatronResponse, 0, len(report.Patrons)),
		Items:      make([]dto.ItemResponse, 0, len(report.Items)),
		OpenLoans:  loanResponses(report.OpenLoans),
		Counters:   report.Lending.Counters,
		FinesTotal: report.Lending.FinesTotal.StringFixed(2),
	}
	for i := range report.Patrons {
		resp.Patrons = append(resp.Patrons, patronResponse(&report.Patrons[i]))
	}
	for i := range report.Items {
		resp.Items = append(resp.Items, itemResponse(&report.Items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

func returnResponse(receipt *service.ReturnReceipt) dto.ReturnResponse {
	return dto.ReturnResponse{
		LoanID:     receipt.LoanID,
		ReturnedOn: formatDate(receipt.ReturnedOn),
		DaysLate:   receipt.DaysLate,
		Fine:       receipt.Fine.StringFixed(2),
	}
}
