package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tickitpro/ticket-service/internal/api/dto"
	"github.com/tickitpro/ticket-service/internal/auth"
	"github.com/tickitpro/ticket-service/internal/domain"
	"github.com/tickitpro/ticket-service/internal/service"
	apperrors "github.com/tickitpro/ticket-service/pkg/util"
)

// UserHandler exposes user-management endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler builds the handler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register handles POST /auth/users/register.
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("malformed request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	profile, token, expiresAt, err := h.users.Register(c.Context(), service.UserRegisterInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(*profile),
	})
}

// Login handles POST /auth/users/login.
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("malformed request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, token, expiresAt, err := h.users.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user.Profile()),
	})
}

// List handles GET /users.
func (h *UserHandler) List(c *fiber.Ctx) error {
	profiles, err := h.users.ListAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserListResponse(profiles))
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	profile, err := h.users.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(*profile))
}

// Update handles PATCH /users/:id.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var req dto.EditUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("malformed request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	// only admins may change roles; self-service edits cover the rest
	if req.Role != nil && strings.TrimSpace(*req.Role) != "" {
		principal, ok := auth.PrincipalFromContext(c)
		if !ok || principal.User.Role != domain.RoleAdmin {
			return apperrors.NewForbidden("only admins may change roles")
		}
	}

	profile, err := h.users.Update(c.Context(), service.UserUpdateInput{
		ID:           c.Params("id"),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		Email:        req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(*profile))
}

// Remove handles DELETE /users/:id.
func (h *UserHandler) Remove(c *fiber.Ctx) error {
	if err := h.users.Remove(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RequestPasswordReset handles POST /auth/users/password-reset.
func (h *UserHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("malformed request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	if _, err := h.users.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "reset requested"})
}

// ConfirmPasswordReset handles POST /auth/users/password-reset/confirm.
func (h *UserHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("malformed request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	if err := h.users.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangePassword handles POST /users/:id/password.
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("malformed request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	if err := h.users.ChangePassword(c.Context(), c.Params("id"), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
