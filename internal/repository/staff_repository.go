package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lending-service/internal/domain"
)

type staffRepository struct {
	db querier
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{db: pool}
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	const query = `
        INSERT INTO staff_members (id, name, tax_id, position)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`

	return translate(r.db.QueryRow(ctx, query,
		staff.ID,
		staff.Name,
		staff.TaxID,
		staff.Position,
	).Scan(&staff.CreatedAt))
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	const query = `
        SELECT id, name, tax_id, position, created_at
        FROM staff_members WHERE id=$1`

	staff := domain.Staff{Person: domain.Person{Role: domain.PersonRoleStaff}}
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&staff.ID,
		&staff.Name,
		&staff.TaxID,
		&staff.Position,
		&staff.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context) ([]domain.Staff, error) {
	const query = `
        SELECT id, name, tax_id, position, created_at
        FROM staff_members ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result := []domain.Staff{}
	for rows.Next() {
		staff := domain.Staff{Person: domain.Person{Role: domain.PersonRoleStaff}}
		if err := rows.Scan(&staff.ID, &staff.Name, &staff.TaxID, &staff.Position, &staff.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}
