package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tickitpro/ticket-service/internal/domain"
	"github.com/tickitpro/ticket-service/internal/persistence"
	"github.com/tickitpro/ticket-service/internal/repository"
	apperrors "github.com/tickitpro/ticket-service/pkg/util"
)

const departmentCacheTTL = 5 * time.Minute

// DepartmentService manages the department reference store. Point lookups
// read through a Redis cache when one is configured, since they sit on the
// hot path of user department resolution.
type DepartmentService struct {
	departments repository.DepartmentRepository
	cache       *persistence.Redis
}

// NewDepartmentService constructs the service. cache may be nil.
func NewDepartmentService(departments repository.DepartmentRepository, cache *persistence.Redis) *DepartmentService {
	return &DepartmentService{departments: departments, cache: cache}
}

// Create persists a new department.
func (s *DepartmentService) Create(ctx context.Context, name string) (*domain.Department, error) {
	dept := &domain.Department{Name: name}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListAll returns every department.
func (s *DepartmentService) ListAll(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// GetByID resolves a department reference.
func (s *DepartmentService) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	if dept := s.cacheGet(ctx, id); dept != nil {
		return dept, nil
	}

	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	s.cacheSet(ctx, dept)
	return dept, nil
}

func (s *DepartmentService) cacheGet(ctx context.Context, id string) *domain.Department {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, departmentCacheKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var dept domain.Department
	if err := json.Unmarshal(raw, &dept); err != nil {
		return nil
	}
	return &dept
}

func (s *DepartmentService) cacheSet(ctx context.Context, dept *domain.Department) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(dept)
	if err != nil {
		return
	}
	_ = s.cache.Client.Set(ctx, departmentCacheKey(dept.ID), raw, departmentCacheTTL).Err()
}

func departmentCacheKey(id string) string {
	return "department:" + id
}
