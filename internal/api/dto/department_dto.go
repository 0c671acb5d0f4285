package dto

import (
	"time"

	"github.com/tickitpro/ticket-service/internal/domain"
)

// CreateDepartmentRequest is the payload for department creation.
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// DepartmentResponse is the external department representation.
type DepartmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDepartmentResponse maps a department onto the wire shape.
func NewDepartmentResponse(dept domain.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:        dept.ID,
		Name:      dept.Name,
		CreatedAt: dept.CreatedAt,
		UpdatedAt: dept.UpdatedAt,
	}
}

// NewDepartmentListResponse maps a department slice onto the wire shape.
func NewDepartmentListResponse(depts []domain.Department) []DepartmentResponse {
	result := make([]DepartmentResponse, 0, len(depts))
	for _, dept := range depts {
		result = append(result, NewDepartmentResponse(dept))
	}
	return result
}
