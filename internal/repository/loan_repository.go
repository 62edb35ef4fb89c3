package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/lending-service/internal/domain"
)

const (
	dialectPostgres = "postgres"
	tableLoans      = "loans"
	loanSelect      = `SELECT id, patron_id, item_id, staff_id, loan_date, due_date, returned_on, fine::text, created_at FROM loans`
)

type loanRepository struct {
	db        querier
	forUpdate bool
}

// NewLoanRepository returns a Postgres-backed ledger.
func NewLoanRepository(pool *pgxpool.Pool) LoanRepository {
	return &loanRepository{db: pool}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	const query = `
        INSERT INTO loans (id, patron_id, item_id, staff_id, loan_date, due_date, returned_on, fine)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric)
        RETURNING created_at`

	return translate(r.db.QueryRow(ctx, query,
		loan.ID,
		loan.PatronID,
		loan.ItemID,
		loan.StaffID,
		loan.LoanDate,
		loan.DueDate,
		loan.ReturnedOn,
		loan.Fine.StringFixed(2),
	).Scan(&loan.CreatedAt))
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	const query = `
        UPDATE loans SET returned_on=$1, fine=$2::numeric
        WHERE id=$3`

	cmd, err := r.db.Exec(ctx, query, loan.ReturnedOn, loan.Fine.StringFixed(2), loan.ID)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := loanSelect + ` WHERE id=$1` + lockClause(r.forUpdate)
	return scanLoan(r.db.QueryRow(ctx, query, id))
}

func (r *loanRepository) FindOpen(ctx context.Context, patronID, itemID string) (*domain.Loan, error) {
	query := loanSelect + `
        WHERE patron_id=$1 AND item_id=$2 AND returned_on IS NULL
        ORDER BY seq LIMIT 1` + lockClause(r.forUpdate)
	return scanLoan(r.db.QueryRow(ctx, query, patronID, itemID))
}

func (r *loanRepository) CountOpenByPatron(ctx context.Context, patronID string) (int, error) {
	const query = `SELECT COUNT(*) FROM loans WHERE patron_id=$1 AND returned_on IS NULL`
	var count int
	if err := r.db.QueryRow(ctx, query, patronID).Scan(&count); err != nil {
		return 0, translate(err)
	}
	return count, nil
}

func (r *loanRepository) List(ctx context.Context, filter LoanFilter) ([]domain.Loan, error) {
	query, args, err := buildLoanListQuery(filter)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result := []domain.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *loan)
	}
	return result, rows.Err()
}

func buildLoanListQuery(filter LoanFilter) (string, []any, error) {
	ds := goqu.Dialect(dialectPostgres).
		From(tableLoans).
		Select(
			"id", "patron_id", "item_id", "staff_id", "loan_date", "due_date", "returned_on",
			goqu.L("fine::text"), "created_at",
		).
		Order(goqu.C("seq").Asc()).
		Prepared(true)

	if filter.PatronID != nil {
		ds = ds.Where(goqu.C("patron_id").Eq(*filter.PatronID))
	}
	if filter.ItemID != nil {
		ds = ds.Where(goqu.C("item_id").Eq(*filter.ItemID))
	}
	if filter.OpenOnly {
		ds = ds.Where(goqu.C("returned_on").IsNull())
	}
	if filter.DueBefore != nil {
		ds = ds.Where(goqu.C("due_date").Lt(*filter.DueBefore))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build loan query: %w", err)
	}
	return query, args, nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan domain.Loan
		fine string
	)
	if err := row.Scan(
		&loan.ID,
		&loan.PatronID,
		&loan.ItemID,
		&loan.StaffID,
		&loan.LoanDate,
		&loan.DueDate,
		&loan.ReturnedOn,
		&fine,
		&loan.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	amount, err := decimal.NewFromString(fine)
	if err != nil {
		return nil, fmt.Errorf("parse fine %q: %w", fine, err)
	}
	loan.Fine = amount
	loan.LoanDate = domain.DateOf(loan.LoanDate)
	loan.DueDate = domain.DateOf(loan.DueDate)
	if loan.ReturnedOn != nil {
		returned := domain.DateOf(*loan.ReturnedOn)
		loan.ReturnedOn = &returned
	}
	return &loan, nil
}
