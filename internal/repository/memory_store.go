package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/lending-service/internal/domain"
)

// MemoryStore keeps the registry and ledger in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]domain.Item
	patrons map[string]domain.Patron
	staff   map[string]domain.Staff
	loans   map[string]domain.Loan
	ledger  []string
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:   make(map[string]domain.Item),
		patrons: make(map[string]domain.Patron),
		staff:   make(map[string]domain.Staff),
		loans:   make(map[string]domain.Loan),
		now:     time.Now,
	}
}

func (s *MemoryStore) Items() ItemRepository     { return memItems{view: s.direct()} }
func (s *MemoryStore) Patrons() PatronRepository { return memPatrons{view: s.direct()} }
func (s *MemoryStore) Staff() StaffRepository    { return memStaff{view: s.direct()} }
func (s *MemoryStore) Loans() LoanRepository     { return memLoans{view: s.direct()} }

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() {}

// WithinTx runs fn against a staged view. Writes become visible only if fn
// returns nil and the commit finds no conflicting keys.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	tx := newMemTx(s)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

// memView abstracts over direct store access and a staged transaction.
type memView interface {
	getItem(id string) (domain.Item, bool)
	putItem(item domain.Item, create bool) error
	items() []domain.Item
	getPatron(id string) (domain.Patron, bool)
	putPatron(patron domain.Patron) error
	patrons() []domain.Patron
	getStaff(id string) (domain.Staff, bool)
	putStaff(staff domain.Staff) error
	staffMembers() []domain.Staff
	getLoan(id string) (domain.Loan, bool)
	putLoan(loan domain.Loan, create bool) error
	loans() []domain.Loan
	stamp() time.Time
}

type directView struct {
	s *MemoryStore
}

func (s *MemoryStore) direct() memView { return directView{s: s} }

func (v directView) stamp() time.Time { return v.s.now() }

func (v directView) getItem(id string) (domain.Item, bool) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	item, ok := v.s.items[id]
	return item, ok
}

func (v directView) putItem(item domain.Item, create bool) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	_, exists := v.s.items[item.ID]
	if create && exists {
		return ErrDuplicate
	}
	if !create && !exists {
		return ErrNotFound
	}
	v.s.items[item.ID] = item
	return nil
}

func (v directView) items() []domain.Item {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]domain.Item, 0, len(v.s.items))
	for _, item := range v.s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v directView) getPatron(id string) (domain.Patron, bool) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	patron, ok := v.s.patrons[id]
	return patron, ok
}

func (v directView) putPatron(patron domain.Patron) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, exists := v.s.patrons[patron.ID]; exists {
		return ErrDuplicate
	}
	v.s.patrons[patron.ID] = patron
	return nil
}

func (v directView) patrons() []domain.Patron {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]domain.Patron, 0, len(v.s.patrons))
	for _, patron := range v.s.patrons {
		out = append(out, patron)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v directView) getStaff(id string) (domain.Staff, bool) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	staff, ok := v.s.staff[id]
	return staff, ok
}

func (v directView) putStaff(staff domain.Staff) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, exists := v.s.staff[staff.ID]; exists {
		return ErrDuplicate
	}
	v.s.staff[staff.ID] = staff
	return nil
}

func (v directView) staffMembers() []domain.Staff {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]domain.Staff, 0, len(v.s.staff))
	for _, staff := range v.s.staff {
		out = append(out, staff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v directView) getLoan(id string) (domain.Loan, bool) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	loan, ok := v.s.loans[id]
	return loan, ok
}

func (v directView) putLoan(loan domain.Loan, create bool) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	_, exists := v.s.loans[loan.ID]
	if create && exists {
		return ErrDuplicate
	}
	if !create && !exists {
		return ErrNotFound
	}
	v.s.loans[loan.ID] = loan
	if create {
		v.s.ledger = append(v.s.ledger, loan.ID)
	}
	return nil
}

func (v directView) loans() []domain.Loan {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]domain.Loan, 0, len(v.s.ledger))
	for _, id := range v.s.ledger {
		out = append(out, v.s.loans[id])
	}
	return out
}

// memTx buffers writes until commit.
type memTx struct {
	s *MemoryStore

	mu           sync.Mutex
	stagedItems  map[string]domain.Item
	createdItems map[string]bool
	stagedLoans  map[string]domain.Loan
	createdLoans []string
}

func newMemTx(s *MemoryStore) *memTx {
	return &memTx{
		s:            s,
		stagedItems:  make(map[string]domain.Item),
		createdItems: make(map[string]bool),
		stagedLoans:  make(map[string]domain.Loan),
	}
}

func (t *memTx) Items() ItemRepository     { return memItems{view: t} }
func (t *memTx) Patrons() PatronRepository { return memPatrons{view: t} }
func (t *memTx) Staff() StaffRepository    { return memStaff{view: t} }
func (t *memTx) Loans() LoanRepository     { return memLoans{view: t} }

func (t *memTx) stamp() time.Time { return t.s.now() }

func (t *memTx) getItem(id string) (domain.Item, bool) {
	t.mu.Lock()
	item, ok := t.stagedItems[id]
	t.mu.Unlock()
	if ok {
		return item, true
	}
	return t.s.direct().getItem(id)
}

func (t *memTx) putItem(item domain.Item, create bool) error {
	_, exists := t.getItem(item.ID)
	if create && exists {
		return ErrDuplicate
	}
	if !create && !exists {
		return ErrNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stagedItems[item.ID] = item
	if create {
		t.createdItems[item.ID] = true
	}
	return nil
}

func (t *memTx) items() []domain.Item {
	base := t.s.direct().items()
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Item, 0, len(base)+len(t.createdItems))
	for _, item := range base {
		if staged, ok := t.stagedItems[item.ID]; ok {
			item = staged
		}
		out = append(out, item)
	}
	for id := range t.createdItems {
		out = append(out, t.stagedItems[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Registrations do not run inside lending transactions; patrons and staff
// are read straight from the store and written through it.
func (t *memTx) getPatron(id string) (domain.Patron, bool) { return t.s.direct().getPatron(id) }
func (t *memTx) putPatron(patron domain.Patron) error      { return t.s.direct().putPatron(patron) }
func (t *memTx) patrons() []domain.Patron                  { return t.s.direct().patrons() }
func (t *memTx) getStaff(id string) (domain.Staff, bool)   { return t.s.direct().getStaff(id) }
func (t *memTx) putStaff(staff domain.Staff) error         { return t.s.direct().putStaff(staff) }
func (t *memTx) staffMembers() []domain.Staff              { return t.s.direct().staffMembers() }

func (t *memTx) getLoan(id string) (domain.Loan, bool) {
	t.mu.Lock()
	loan, ok := t.stagedLoans[id]
	t.mu.Unlock()
	if ok {
		return loan, true
	}
	return t.s.direct().getLoan(id)
}

func (t *memTx) putLoan(loan domain.Loan, create bool) error {
	_, exists := t.getLoan(loan.ID)
	if create && exists {
		return ErrDuplicate
	}
	if !create && !exists {
		return ErrNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stagedLoans[loan.ID] = loan
	if create {
		t.createdLoans = append(t.createdLoans, loan.ID)
	}
	return nil
}

func (t *memTx) loans() []domain.Loan {
	base := t.s.direct().loans()
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Loan, 0, len(base)+len(t.createdLoans))
	for _, loan := range base {
		if staged, ok := t.stagedLoans[loan.ID]; ok {
			loan = staged
		}
		out = append(out, loan)
	}
	for _, id := range t.createdLoans {
		out = append(out, t.stagedLoans[id])
	}
	return out
}

// commit applies every staged write in one critical section, or none of them.
func (t *memTx) commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id := range t.createdItems {
		if _, exists := t.s.items[id]; exists {
			return ErrDuplicate
		}
	}
	for _, id := range t.createdLoans {
		if _, exists := t.s.loans[id]; exists {
			return ErrDuplicate
		}
	}

	for id, item := range t.stagedItems {
		t.s.items[id] = item
	}
	for id, loan := range t.stagedLoans {
		t.s.loans[id] = loan
	}
	t.s.ledger = append(t.s.ledger, t.createdLoans...)
	return nil
}

type memItems struct{ view memView }

func (r memItems) Create(_ context.Context, item *domain.Item) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.view.stamp()
	}
	return r.view.putItem(*item, true)
}

func (r memItems) Update(_ context.Context, item *domain.Item) error {
	return r.view.putItem(*item, false)
}

func (r memItems) GetByID(_ context.Context, id string) (*domain.Item, error) {
	item, ok := r.view.getItem(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (r memItems) List(context.Context) ([]domain.Item, error) {
	return r.view.items(), nil
}

type memPatrons struct{ view memView }

func (r memPatrons) Create(_ context.Context, patron *domain.Patron) error {
	if patron.CreatedAt.IsZero() {
		patron.CreatedAt = r.view.stamp()
	}
	return r.view.putPatron(*patron)
}

func (r memPatrons) GetByID(_ context.Context, id string) (*domain.Patron, error) {
	patron, ok := r.view.getPatron(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &patron, nil
}

func (r memPatrons) List(context.Context) ([]domain.Patron, error) {
	return r.view.patrons(), nil
}

type memStaff struct{ view memView }

func (r memStaff) Create(_ context.Context, staff *domain.Staff) error {
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = r.view.stamp()
	}
	return r.view.putStaff(*staff)
}

func (r memStaff) GetByID(_ context.Context, id string) (*domain.Staff, error) {
	staff, ok := r.view.getStaff(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &staff, nil
}

func (r memStaff) List(context.Context) ([]domain.Staff, error) {
	return r.view.staffMembers(), nil
}

type memLoans struct{ view memView }

func (r memLoans) Create(_ context.Context, loan *domain.Loan) error {
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = r.view.stamp()
	}
	return r.view.putLoan(*loan, true)
}

func (r memLoans) Update(_ context.Context, loan *domain.Loan) error {
	return r.view.putLoan(*loan, false)
}

func (r memLoans) GetByID(_ context.Context, id string) (*domain.Loan, error) {
	loan, ok := r.view.getLoan(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &loan, nil
}

func (r memLoans) FindOpen(_ context.Context, patronID, itemID string) (*domain.Loan, error) {
	for _, loan := range r.view.loans() {
		if loan.IsOpen() && loan.PatronID == patronID && loan.ItemID == itemID {
			return &loan, nil
		}
	}
	return nil, ErrNotFound
}

func (r memLoans) CountOpenByPatron(_ context.Context, patronID string) (int, error) {
	count := 0
	for _, loan := range r.view.loans() {
		if loan.IsOpen() && loan.PatronID == patronID {
			count++
		}
	}
	return count, nil
}

func (r memLoans) List(_ context.Context, filter LoanFilter) ([]domain.Loan, error) {
	all := r.view.loans()
	out := make([]domain.Loan, 0, len(all))
	for i := range all {
		if matchesLoan(&all[i], filter) {
			out = append(out, all[i])
		}
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}
