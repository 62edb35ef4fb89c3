package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the registry and ledger in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an established pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Items() ItemRepository     { return NewItemRepository(s.pool) }
func (s *PostgresStore) Patrons() PatronRepository { return NewPatronRepository(s.pool) }
func (s *PostgresStore) Staff() StaffRepository    { return NewStaffRepository(s.pool) }
func (s *PostgresStore) Loans() LoanRepository     { return NewLoanRepository(s.pool) }

// Ping verifies connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

// Close is owned by persistence.Postgres; the store does not close the pool.
func (s *PostgresStore) Close() {}

// WithinTx runs fn in a database transaction. Item and patron reads inside fn
// take row locks that are held until commit or rollback.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	if err := fn(ctx, pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Items() ItemRepository     { return &itemRepository{db: t.tx, forUpdate: true} }
func (t pgTx) Patrons() PatronRepository { return &patronRepository{db: t.tx, forUpdate: true} }
func (t pgTx) Staff() StaffRepository    { return &staffRepository{db: t.tx} }
func (t pgTx) Loans() LoanRepository     { return &loanRepository{db: t.tx, forUpdate: true} }

// translate maps driver errors to repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}
