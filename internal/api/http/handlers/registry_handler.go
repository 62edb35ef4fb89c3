package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lending-service/internal/api/dto"
	"github.com/spec-kit/lending-service/internal/service"
)

// RegistryHandler exposes item, patron and staff registration.
type RegistryHandler struct {
	registry *service.RegistryService
}

// NewRegistryHandler constructs handler.
func NewRegistryHandler(registry *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

// RegisterItem handles POST /items.
func (h *RegistryHandler) RegisterItem(c *fiber.Ctx) error {
	var req dto.RegisterItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	item, err := h.registry.RegisterItem(c.UserContext(), service.RegisterItemInput{
		ID:           req.ID,
		Title:        req.Title,
		Author:       req.Author,
		Kind:         req.Kind,
		RegisteredBy: req.RegisteredBy,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": itemResponse(item)})
}

// GetItem handles GET /items/:id.
func (h *RegistryHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.registry.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": itemResponse(item)})
}

// RegisterPatron handles POST /patrons.
func (h *RegistryHandler) RegisterPatron(c *fiber.Ctx) error {
	var req dto.RegisterPatronRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	patron, err := h.registry.RegisterPatron(c.UserContext(), service.RegisterPatronInput{
		ID:    req.ID,
		Name:  req.Name,
		TaxID: req.TaxID,
		Limit: req.Limit,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": patronResponse(&service.PatronSummary{Patron: *patron}),
	})
}

// GetPatron handles GET /patrons/:id.
func (h *RegistryHandler) GetPatron(c *fiber.Ctx) error {
	summary, err := h.registry.GetPatron(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": patronResponse(summary)})
}

// RegisterStaff handles POST /staff.
func (h *RegistryHandler) RegisterStaff(c *fiber.Ctx) error {
	var req dto.RegisterStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	staff, err := h.registry.RegisterStaff(c.UserContext(), service.RegisterStaffInput{
		ID:    req.ID,
		Name:  req.Name,
		TaxID: req.TaxID,
		Role:  req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(staff)})
}

// GetStaff handles GET /staff/:id.
func (h *RegistryHandler) GetStaff(c *fiber.Ctx) error {
	staff, err := h.registry.GetStaff(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(staff)})
}
