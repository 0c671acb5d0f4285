package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickitpro/ticket-service/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	ListAll(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name)
        VALUES ($1)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, dept.Name).
		Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, name, created_at, updated_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) ListAll(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, name, created_at, updated_at
        FROM departments ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
