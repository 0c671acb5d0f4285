package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickitpro/ticket-service/internal/api/dto"
	"github.com/tickitpro/ticket-service/internal/service"
	apperrors "github.com/tickitpro/ticket-service/pkg/util"
)

// DepartmentHandler exposes department endpoints.
type DepartmentHandler struct {
	departments *service.DepartmentService
}

// NewDepartmentHandler builds the handler.
func NewDepartmentHandler(departments *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

// Create handles POST /departments.
func (h *DepartmentHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("malformed request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	dept, err := h.departments.Create(c.Context(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewDepartmentResponse(*dept))
}

// List handles GET /departments.
func (h *DepartmentHandler) List(c *fiber.Ctx) error {
	depts, err := h.departments.ListAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewDepartmentListResponse(depts))
}

// Get handles GET /departments/:id.
func (h *DepartmentHandler) Get(c *fiber.Ctx) error {
	dept, err := h.departments.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewDepartmentResponse(*dept))
}
