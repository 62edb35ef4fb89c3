package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/lending-service/internal/domain"
	"github.com/spec-kit/lending-service/internal/events"
	"github.com/spec-kit/lending-service/internal/idgen"
	"github.com/spec-kit/lending-service/internal/repository"
	apperrors "github.com/spec-kit/lending-service/pkg/util/errorutil"
)

// maxIDAttempts bounds retries when a generated id collides with a stored one.
const maxIDAttempts = 5

// RegistryService registers and looks up items, patrons and staff.
type RegistryService struct {
	store        repository.Store
	ids          idgen.Generator
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	defaultLimit int
}

// RegistryDependencies bundles collaborators for the registry service.
type RegistryDependencies struct {
	Store              repository.Store
	IDs                idgen.Generator
	Dispatcher         events.Dispatcher
	Logger             *zap.Logger
	DefaultBorrowLimit int
}

// RegisterItemInput describes a catalog registration.
type RegisterItemInput struct {
	ID           string
	Title        string
	Author       string
	Kind         domain.ItemKind
	RegisteredBy *string
}

// RegisterPatronInput describes a patron registration. An empty ID is generated.
type RegisterPatronInput struct {
	ID    string
	Name  string
	TaxID string
	Limit int
}

// RegisterStaffInput describes a staff registration. Role is a free-text position label.
type RegisterStaffInput struct {
	ID    string
	Name  string
	TaxID string
	Role  string
}

// PatronSummary pairs a patron with its live open-loan count.
type PatronSummary struct {
	Patron      domain.Patron
	ActiveLoans int
}

// NewRegistryService constructs the service.
func NewRegistryService(deps RegistryDependencies) *RegistryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := deps.DefaultBorrowLimit
	if limit <= 0 {
		limit = domain.DefaultBorrowLimit
	}
	return &RegistryService{
		store:        deps.Store,
		ids:          deps.IDs,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		defaultLimit: limit,
	}
}

// RegisterItem adds an item to the catalog.
func (s *RegistryService) RegisterItem(ctx context.Context, input RegisterItemInput) (*domain.Item, error) {
	id := strings.TrimSpace(input.ID)
	title := strings.TrimSpace(input.Title)
	if id == "" || title == "" {
		return nil, apperrors.NewValidationError("id and title are required", nil)
	}
	kind := domain.ItemKind(strings.ToUpper(string(input.Kind)))
	if kind == "" {
		kind = domain.ItemKindStandard
	}
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("unknown item kind", map[string]any{"kind": input.Kind})
	}

	registeredBy := optionalID(input.RegisteredBy)
	if registeredBy != nil {
		if _, err := s.store.Staff().GetByID(ctx, *registeredBy); err != nil {
			return nil, lookupErr(err, "staff", *registeredBy)
		}
	}

	item := domain.NewItem(id, title, strings.TrimSpace(input.Author), kind)
	item.RegisteredBy = registeredBy
	if err := s.store.Items().Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicateIdentifier("item", id)
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("item registered", zap.String("item_id", item.ID), zap.String("kind", string(item.Kind)))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:   events.EventItemRegistered,
		ItemID: item.ID,
		Actor:  optionalStaffActor(registeredBy),
		Payload: events.ItemRegisteredPayload{
			Title: item.Title,
			Kind:  item.Kind,
		},
	})
	return item, nil
}

// optionalID trims id; a blank value counts as absent.
func optionalID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// RegisterPatron adds a patron, generating an id when none is supplied.
func (s *RegistryService) RegisterPatron(ctx context.Context, input RegisterPatronInput) (*domain.Patron, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if input.Limit < 0 {
		return nil, apperrors.NewValidationError("limit must be positive", map[string]any{"limit": input.Limit})
	}
	limit := input.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}

	var patron *domain.Patron
	id, err := s.createWithID(strings.TrimSpace(input.ID), s.ids.PatronID, func(id string) error {
		patron = domain.NewPatron(id, name, strings.TrimSpace(input.TaxID), limit)
		return s.store.Patrons().Create(ctx, patron)
	})
	if err != nil {
		return nil, s.registrationErr(err, "patron", id)
	}

	s.logger.Info("patron registered", zap.String("patron_id", patron.ID), zap.Int("limit", patron.Limit))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventPatronRegistered,
		PatronID: patron.ID,
		Payload: events.PatronRegisteredPayload{
			Name:  patron.Name,
			Limit: patron.Limit,
		},
	})
	return patron, nil
}

// RegisterStaff adds a staff member, generating an id when none is supplied.
func (s *RegistryService) RegisterStaff(ctx context.Context, input RegisterStaffInput) (*domain.Staff, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}

	var staff *domain.Staff
	id, err := s.createWithID(strings.TrimSpace(input.ID), s.ids.StaffID, func(id string) error {
		staff = domain.NewStaff(id, name, strings.TrimSpace(input.TaxID), strings.TrimSpace(input.Role))
		return s.store.Staff().Create(ctx, staff)
	})
	if err != nil {
		return nil, s.registrationErr(err, "staff", id)
	}

	s.logger.Info("staff registered", zap.String("staff_id", staff.ID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:  events.EventStaffRegistered,
		Actor: staffActor(staff.ID),
		Payload: events.StaffRegisteredPayload{
			Name:     staff.Name,
			Position: staff.Position,
		},
	})
	return staff, nil
}

// GetItem looks up an item.
func (s *RegistryService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.store.Items().GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "item", id)
	}
	return item, nil
}

// GetPatron looks up a patron together with its open-loan count.
func (s *RegistryService) GetPatron(ctx context.Context, id string) (*PatronSummary, error) {
	patron, err := s.store.Patrons().GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "patron", id)
	}
	active, err := s.store.Loans().CountOpenByPatron(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &PatronSummary{Patron: *patron, ActiveLoans: active}, nil
}

// GetStaff looks up a staff member.
func (s *RegistryService) GetStaff(ctx context.Context, id string) (*domain.Staff, error) {
	staff, err := s.store.Staff().GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "staff", id)
	}
	return staff, nil
}

// createWithID calls create with the explicit id, or with generated ids until
// one does not collide. It returns the last id tried.
func (s *RegistryService) createWithID(explicit string, next func() string, create func(id string) error) (string, error) {
	if explicit != "" {
		return explicit, create(explicit)
	}
	var (
		id  string
		err error
	)
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id = next()
		if err = create(id); !errors.Is(err, repository.ErrDuplicate) {
			return id, err
		}
		s.logger.Debug("generated id collided", zap.String("id", id), zap.Int("attempt", attempt+1))
	}
	return id, err
}

func (s *RegistryService) registrationErr(err error, resource, id string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewDuplicateIdentifier(resource, id)
	}
	return apperrors.MapError(err)
}
