package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/lending-service/internal/clock"
	"github.com/spec-kit/lending-service/internal/domain"
	"github.com/spec-kit/lending-service/internal/events"
	"github.com/spec-kit/lending-service/internal/idgen"
	"github.com/spec-kit/lending-service/internal/lock"
	"github.com/spec-kit/lending-service/internal/observability"
	"github.com/spec-kit/lending-service/internal/repository"
)

var openingDay = time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	store      *repository.MemoryStore
	clock      *clock.Fixed
	metrics    *observability.Metrics
	events     *recorder
	locker     *lock.KeyedLocker
	dispatcher events.Dispatcher
	registry   *RegistryService
	lending    *LendingService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   repository.NewMemoryStore(),
		clock:   clock.NewFixed(openingDay),
		metrics: observability.NewMetrics(),
		events:  &recorder{},
		locker:  lock.NewKeyedLocker(),
	}
	dispatcher := events.NewInMemoryDispatcher(nil)
	h.dispatcher = dispatcher
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, h.events.handle)
	}
	ids := idgen.NewSequential()
	h.registry = NewRegistryService(RegistryDependencies{
		Store:      h.store,
		IDs:        ids,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	h.lending = NewLendingService(LendingDependencies{
		Store:      h.store,
		Locker:     h.locker,
		Clock:      h.clock,
		IDs:        ids,
		Dispatcher: dispatcher,
		Metrics:    h.metrics,
		Logger:     zap.NewNop(),
	})
	return h
}

func (h *harness) patron(t *testing.T, limit int) *domain.Patron {
	t.Helper()
	patron, err := h.registry.RegisterPatron(context.Background(), RegisterPatronInput{Name: "Ada", TaxID: "111", Limit: limit})
	require.NoError(t, err)
	return patron
}

func (h *harness) staff(t *testing.T) *domain.Staff {
	t.Helper()
	staff, err := h.registry.RegisterStaff(context.Background(), RegisterStaffInput{Name: "Grace", TaxID: "222", Role: "librarian"})
	require.NoError(t, err)
	return staff
}

func (h *harness) item(t *testing.T, id string, kind domain.ItemKind) *domain.Item {
	t.Helper()
	item, err := h.registry.RegisterItem(context.Background(), RegisterItemInput{ID: id, Title: "Title " + id, Author: "Author", Kind: kind})
	require.NoError(t, err)
	return item
}

func (h *harness) getItem(t *testing.T, id string) *domain.Item {
	t.Helper()
	item, err := h.store.Items().GetByID(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (h *harness) activeLoans(t *testing.T, patronID string) int {
	t.Helper()
	count, err := h.store.Loans().CountOpenByPatron(context.Background(), patronID)
	require.NoError(t, err)
	return count
}

// requireConsistent checks that every item is unavailable exactly when one
// open loan references it, and that no patron exceeds its limit.
func (h *harness) requireConsistent(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	open, err := h.store.Loans().List(ctx, repository.LoanFilter{OpenOnly: true})
	require.NoError(t, err)

	perItem := map[string]int{}
	perPatron := map[string]int{}
	for _, loan := range open {
		perItem[loan.ItemID]++
		perPatron[loan.PatronID]++
	}

	items, err := h.store.Items().List(ctx)
	require.NoError(t, err)
	for _, item := range items {
		require.LessOrEqual(t, perItem[item.ID], 1, "item %s", item.ID)
		require.Equal(t, perItem[item.ID] == 1, !item.Available, "item %s", item.ID)
	}

	patrons, err := h.store.Patrons().List(ctx)
	require.NoError(t, err)
	for _, patron := range patrons {
		require.LessOrEqual(t, perPatron[patron.ID], patron.Limit, "patron %s", patron.ID)
	}
}
