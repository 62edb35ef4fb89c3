package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lending-service/internal/domain"
)

type itemRepository struct {
	db        querier
	forUpdate bool
}

// NewItemRepository returns a Postgres-backed implementation.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{db: pool}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	const query = `
        INSERT INTO items (id, title, author, kind, available, registered_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at`

	return translate(r.db.QueryRow(ctx, query,
		item.ID,
		item.Title,
		item.Author,
		item.Kind,
		item.Available,
		item.RegisteredBy,
	).Scan(&item.CreatedAt))
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	const query = `
        UPDATE items SET title=$1, author=$2, kind=$3, available=$4
        WHERE id=$5`

	cmd, err := r.db.Exec(ctx, query,
		item.Title,
		item.Author,
		item.Kind,
		item.Available,
		item.ID,
	)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	query := `
        SELECT id, title, author, kind, available, registered_by, created_at
        FROM items WHERE id=$1` + lockClause(r.forUpdate)

	var item domain.Item
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Title,
		&item.Author,
		&item.Kind,
		&item.Available,
		&item.RegisteredBy,
		&item.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context) ([]domain.Item, error) {
	const query = `
        SELECT id, title, author, kind, available, registered_by, created_at
        FROM items ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result := []domain.Item{}
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Author,
			&item.Kind,
			&item.Available,
			&item.RegisteredBy,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
