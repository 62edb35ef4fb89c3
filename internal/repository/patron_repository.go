package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lending-service/internal/domain"
)

type patronRepository struct {
	db        querier
	forUpdate bool
}

// NewPatronRepository returns a Postgres-backed implementation.
func NewPatronRepository(pool *pgxpool.Pool) PatronRepository {
	return &patronRepository{db: pool}
}

func (r *patronRepository) Create(ctx context.Context, patron *domain.Patron) error {
	const query = `
        INSERT INTO patrons (id, name, tax_id, borrow_limit)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`

	return translate(r.db.QueryRow(ctx, query,
		patron.ID,
		patron.Name,
		patron.TaxID,
		patron.Limit,
	).Scan(&patron.CreatedAt))
}

func (r *patronRepository) GetByID(ctx context.Context, id string) (*domain.Patron, error) {
	query := `
        SELECT id, name, tax_id, borrow_limit, created_at
        FROM patrons WHERE id=$1` + lockClause(r.forUpdate)

	patron := domain.Patron{Person: domain.Person{Role: domain.PersonRolePatron}}
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&patron.ID,
		&patron.Name,
		&patron.TaxID,
		&patron.Limit,
		&patron.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &patron, nil
}

func (r *patronRepository) List(ctx context.Context) ([]domain.Patron, error) {
	const query = `
        SELECT id, name, tax_id, borrow_limit, created_at
        FROM patrons ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result := []domain.Patron{}
	for rows.Next() {
		patron := domain.Patron{Person: domain.Person{Role: domain.PersonRolePatron}}
		if err := rows.Scan(&patron.ID, &patron.Name, &patron.TaxID, &patron.Limit, &patron.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, patron)
	}
	return result, rows.Err()
}
