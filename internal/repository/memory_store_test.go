package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lending-service/internal/domain"
)

var day0 = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

func seedStore(t *testing.T) (*MemoryStore, *domain.Patron, *domain.Item, *domain.Staff) {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()

	patron := domain.NewPatron("L-1001", "Ada", "1", 0)
	item := domain.NewItem("978-1", "Emma", "Austen", domain.ItemKindStandard)
	staff := domain.NewStaff("F-101", "Grace", "2", "desk")
	require.NoError(t, store.Patrons().Create(ctx, patron))
	require.NoError(t, store.Items().Create(ctx, item))
	require.NoError(t, store.Staff().Create(ctx, staff))
	return store, patron, item, staff
}

func TestMemoryStoreRejectsDuplicates(t *testing.T) {
	store, patron, item, staff := seedStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Patrons().Create(ctx, domain.NewPatron(patron.ID, "Other", "", 0)), ErrDuplicate)
	assert.ErrorIs(t, store.Items().Create(ctx, domain.NewItem(item.ID, "Other", "", "")), ErrDuplicate)
	assert.ErrorIs(t, store.Staff().Create(ctx, domain.NewStaff(staff.ID, "Other", "", "")), ErrDuplicate)

	_, err := store.Items().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store, _, item, _ := seedStore(t)
	ctx := context.Background()

	got, err := store.Items().GetByID(ctx, item.ID)
	require.NoError(t, err)
	got.Available = false

	again, err := store.Items().GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, again.Available)
}

func TestMemoryStoreTxCommitsAllWrites(t *testing.T) {
	store, patron, item, staff := seedStore(t)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, tx Repositories) error {
		it, err := tx.Items().GetByID(ctx, item.ID)
		require.NoError(t, err)
		it.MarkBorrowed()
		require.NoError(t, tx.Items().Update(ctx, it))
		require.NoError(t, tx.Loans().Create(ctx, domain.NewLoan("LN-1", patron, it, staff, day0, 7)))

		// staged writes are visible inside the transaction only
		count, err := tx.Loans().CountOpenByPatron(ctx, patron.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		outside, err := store.Loans().CountOpenByPatron(ctx, patron.ID)
		require.NoError(t, err)
		assert.Zero(t, outside)
		return nil
	})
	require.NoError(t, err)

	it, err := store.Items().GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, it.Available)

	open, err := store.Loans().List(ctx, LoanFilter{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "LN-1", open[0].ID)
	assert.False(t, open[0].CreatedAt.IsZero())
}

func TestMemoryStoreTxRollsBackOnError(t *testing.T) {
	store, patron, item, staff := seedStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx Repositories) error {
		it, err := tx.Items().GetByID(ctx, item.ID)
		require.NoError(t, err)
		it.MarkBorrowed()
		require.NoError(t, tx.Items().Update(ctx, it))
		require.NoError(t, tx.Loans().Create(ctx, domain.NewLoan("LN-1", patron, it, staff, day0, 7)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	it, err := store.Items().GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, it.Available)

	all, err := store.Loans().List(ctx, LoanFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStoreLoanQueries(t *testing.T) {
	store, patron, item, staff := seedStore(t)
	ctx := context.Background()
	other := domain.NewItem("978-2", "Persuasion", "Austen", domain.ItemKindReference)
	require.NoError(t, store.Items().Create(ctx, other))

	first := domain.NewLoan("LN-1", patron, item, staff, day0, 7)
	second := domain.NewLoan("LN-2", patron, other, staff, day0.AddDate(0, 0, 3), 7)
	require.NoError(t, store.Loans().Create(ctx, first))
	require.NoError(t, store.Loans().Create(ctx, second))

	returned := day0.AddDate(0, 0, 5)
	first.ReturnedOn = &returned
	require.NoError(t, store.Loans().Update(ctx, first))

	found, err := store.Loans().FindOpen(ctx, patron.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "LN-2", found.ID)

	_, err = store.Loans().FindOpen(ctx, patron.ID, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := store.Loans().CountOpenByPatron(ctx, patron.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	all, err := store.Loans().List(ctx, LoanFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "LN-1", all[0].ID, "ledger keeps creation order")
	assert.Equal(t, "LN-2", all[1].ID)

	cutoff := day0.AddDate(0, 0, 9)
	due, err := store.Loans().List(ctx, LoanFilter{OpenOnly: true, DueBefore: &cutoff})
	require.NoError(t, err)
	assert.Empty(t, due)

	cutoff = day0.AddDate(0, 0, 11)
	due, err = store.Loans().List(ctx, LoanFilter{OpenOnly: true, DueBefore: &cutoff})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "LN-2", due[0].ID)

	page, err := store.Loans().List(ctx, LoanFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "LN-2", page[0].ID)

	assert.ErrorIs(t, store.Loans().Update(ctx, domain.NewLoan("LN-9", patron, item, staff, day0, 7)), ErrNotFound)
}
