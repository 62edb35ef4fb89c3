package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/lending-service/internal/clock"
	"github.com/spec-kit/lending-service/internal/domain"
	"github.com/spec-kit/lending-service/internal/events"
	"github.com/spec-kit/lending-service/internal/idgen"
	"github.com/spec-kit/lending-service/internal/lock"
	"github.com/spec-kit/lending-service/internal/observability"
	"github.com/spec-kit/lending-service/internal/repository"
	apperrors "github.com/spec-kit/lending-service/pkg/util/errorutil"
)

const (
	opBorrow = "borrow"
	opReturn = "return"
)

// LendingService creates and closes loans. Every borrow and return holds the
// item and patron locks for its whole read-check-write sequence and writes
// through a single store transaction.
type LendingService struct {
	store      repository.Store
	locker     lock.Locker
	clock      clock.Clock
	ids        idgen.Generator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// LendingDependencies bundles collaborators for the lending service.
type LendingDependencies struct {
	Store      repository.Store
	Locker     lock.Locker
	Clock      clock.Clock
	IDs        idgen.Generator
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// ReturnInput identifies the loan to close, either by LoanID or by the
// PatronID and ItemID of its open loan. A nil ReturnDate means today.
type ReturnInput struct {
	LoanID     string
	PatronID   string
	ItemID     string
	ReturnDate *time.Time
}

// ReturnReceipt describes a closed loan.
type ReturnReceipt struct {
	LoanID     string
	ItemID     string
	PatronID   string
	ReturnedOn time.Time
	DaysLate   int
	Fine       decimal.Decimal
}

// StatusReport is a snapshot of patrons, items and open loans.
type StatusReport struct {
	AsOf      time.Time
	Patrons   []PatronSummary
	Items     []domain.Item
	OpenLoans []domain.Loan
	Lending   observability.LendingSnapshot
}

// NewLendingService constructs the service.
func NewLendingService(deps LendingDependencies) *LendingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &LendingService{
		store:      deps.Store,
		locker:     deps.Locker,
		clock:      clk,
		ids:        deps.IDs,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Borrow lends an item to a patron on behalf of a staff member. The loan
// starts today and is due after the patron loan term.
func (s *LendingService) Borrow(ctx context.Context, patronID, itemID, staffID string) (*domain.Loan, error) {
	patronID = strings.TrimSpace(patronID)
	itemID = strings.TrimSpace(itemID)
	staffID = strings.TrimSpace(staffID)
	if patronID == "" || itemID == "" || staffID == "" {
		return nil, apperrors.NewValidationError("patron_id, item_id and staff_id are required", nil)
	}

	unlock, err := s.locker.Lock(ctx, lock.ItemKey(itemID), lock.PatronKey(patronID))
	if err != nil {
		s.logger.Error("acquire lending locks", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	defer unlock()

	var loan *domain.Loan
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		patron, err := tx.Patrons().GetByID(ctx, patronID)
		if err != nil {
			return lookupErr(err, "patron", patronID)
		}
		item, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return lookupErr(err, "item", itemID)
		}
		staff, err := tx.Staff().GetByID(ctx, staffID)
		if err != nil {
			return lookupErr(err, "staff", staffID)
		}

		if !item.Available {
			return apperrors.NewItemUnavailable(item.ID, item.Title)
		}
		active, err := tx.Loans().CountOpenByPatron(ctx, patron.ID)
		if err != nil {
			return err
		}
		if !patron.CanBorrow(active) {
			return apperrors.NewLoanLimitExceeded(patron.ID, patron.Limit)
		}

		loan = domain.NewLoan(s.ids.LoanID(), patron, item, staff, s.clock.Today(), domain.LoanTermFor(patron.Role))
		item.MarkBorrowed()
		if err := tx.Items().Update(ctx, item); err != nil {
			return err
		}
		return tx.Loans().Create(ctx, loan)
	})
	// Subscribers may do network I/O; they run without the locks.
	unlock()
	if err != nil {
		return nil, s.reject(opBorrow, err)
	}

	s.metrics.RecordBorrow()
	s.logger.Info("loan created",
		zap.String("loan_id", loan.ID),
		zap.String("patron_id", loan.PatronID),
		zap.String("item_id", loan.ItemID),
		zap.String("staff_id", loan.StaffID),
		zap.Time("due_date", loan.DueDate))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventLoanCreated,
		LoanID:   loan.ID,
		ItemID:   loan.ItemID,
		PatronID: loan.PatronID,
		Actor:    staffActor(loan.StaffID),
		Payload: events.LoanCreatedPayload{
			LoanDate: loan.LoanDate,
			DueDate:  loan.DueDate,
		},
	})
	return loan, nil
}

// Return closes a loan and reports the fine owed for it.
func (s *LendingService) Return(ctx context.Context, input ReturnInput) (*ReturnReceipt, error) {
	input.LoanID = strings.TrimSpace(input.LoanID)
	input.PatronID = strings.TrimSpace(input.PatronID)
	input.ItemID = strings.TrimSpace(input.ItemID)
	if input.LoanID == "" && (input.PatronID == "" || input.ItemID == "") {
		return nil, apperrors.NewValidationError("loan_id or both patron_id and item_id are required", nil)
	}

	returnedOn := s.clock.Today()
	if input.ReturnDate != nil {
		returnedOn = domain.DateOf(*input.ReturnDate)
	}

	patronID, itemID := input.PatronID, input.ItemID
	if input.LoanID != "" {
		// Parties of a loan never change, so they can be read before locking.
		loan, err := s.store.Loans().GetByID(ctx, input.LoanID)
		if err != nil {
			return nil, s.reject(opReturn, lookupErr(err, "loan", input.LoanID))
		}
		patronID, itemID = loan.PatronID, loan.ItemID
	}

	unlock, err := s.locker.Lock(ctx, lock.ItemKey(itemID), lock.PatronKey(patronID))
	if err != nil {
		s.logger.Error("acquire lending locks", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	defer unlock()

	var receipt *ReturnReceipt
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		var (
			loan *domain.Loan
			err  error
		)
		if input.LoanID != "" {
			loan, err = tx.Loans().GetByID(ctx, input.LoanID)
			if err != nil {
				return lookupErr(err, "loan", input.LoanID)
			}
		} else {
			loan, err = tx.Loans().FindOpen(ctx, patronID, itemID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperrors.NewNotFound("open loan", map[string]any{"patron_id": patronID, "item_id": itemID})
				}
				return err
			}
		}
		item, err := tx.Items().GetByID(ctx, loan.ItemID)
		if err != nil {
			return lookupErr(err, "item", loan.ItemID)
		}

		fine, err := domain.CloseLoan(loan, item, returnedOn)
		if err != nil {
			return err
		}
		if err := tx.Items().Update(ctx, item); err != nil {
			return err
		}
		if err := tx.Loans().Update(ctx, loan); err != nil {
			return err
		}
		receipt = &ReturnReceipt{
			LoanID:     loan.ID,
			ItemID:     loan.ItemID,
			PatronID:   loan.PatronID,
			ReturnedOn: *loan.ReturnedOn,
			DaysLate:   loan.DaysLate(*loan.ReturnedOn),
			Fine:       fine,
		}
		return nil
	})
	unlock()
	if err != nil {
		return nil, s.reject(opReturn, err)
	}

	s.metrics.RecordReturn(receipt.Fine)
	s.logger.Info("loan returned",
		zap.String("loan_id", receipt.LoanID),
		zap.Int("days_late", receipt.DaysLate),
		zap.String("fine", receipt.Fine.StringFixed(2)))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventLoanReturned,
		LoanID:   receipt.LoanID,
		ItemID:   receipt.ItemID,
		PatronID: receipt.PatronID,
		Payload: events.LoanReturnedPayload{
			ReturnedOn: receipt.ReturnedOn,
			DaysLate:   receipt.DaysLate,
			Fine:       receipt.Fine,
		},
	})
	return receipt, nil
}

// ListOpenLoans returns every open loan in ledger order.
func (s *LendingService) ListOpenLoans(ctx context.Context) ([]domain.Loan, error) {
	loans, err := s.store.Loans().List(ctx, repository.LoanFilter{OpenOnly: true})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return loans, nil
}

// ListLoans returns ledger entries matching the filter.
func (s *LendingService) ListLoans(ctx context.Context, filter repository.LoanFilter) ([]domain.Loan, error) {
	loans, err := s.store.Loans().List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return loans, nil
}

// ScanOverdue publishes a loan_overdue event for every open loan past its due
// date and returns how many were found.
func (s *LendingService) ScanOverdue(ctx context.Context) (int, error) {
	today := s.clock.Today()
	loans, err := s.store.Loans().List(ctx, repository.LoanFilter{OpenOnly: true, DueBefore: &today})
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	rates := make(map[string]decimal.Decimal)
	for i := range loans {
		loan := &loans[i]
		rate, ok := rates[loan.ItemID]
		if !ok {
			item, err := s.store.Items().GetByID(ctx, loan.ItemID)
			if err != nil {
				return 0, lookupErr(err, "item", loan.ItemID)
			}
			rate = item.DailyFineRate()
			rates[loan.ItemID] = rate
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:     events.EventLoanOverdue,
			LoanID:   loan.ID,
			ItemID:   loan.ItemID,
			PatronID: loan.PatronID,
			Payload: events.LoanOverduePayload{
				DueDate:     loan.DueDate,
				DaysLate:    loan.DaysLate(today),
				AccruedFine: loan.FineOn(today, rate),
			},
		})
	}
	return len(loans), nil
}

// Status reports every patron with its open-loan count, every item and the
// open loans, all as of today.
func (s *LendingService) Status(ctx context.Context) (*StatusReport, error) {
	patrons, err := s.store.Patrons().List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	items, err := s.store.Items().List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	open, err := s.ListOpenLoans(ctx)
	if err != nil {
		return nil, err
	}

	active := make(map[string]int, len(patrons))
	for _, loan := range open {
		active[loan.PatronID]++
	}
	summaries := make([]PatronSummary, 0, len(patrons))
	for _, patron := range patrons {
		summaries = append(summaries, PatronSummary{Patron: patron, ActiveLoans: active[patron.ID]})
	}

	return &StatusReport{
		AsOf:      s.clock.Today(),
		Patrons:   summaries,
		Items:     items,
		OpenLoans: open,
		Lending:   s.metrics.Lending(),
	}, nil
}

// reject records a failed lending transaction and normalizes its error.
func (s *LendingService) reject(op string, err error) error {
	domainErr := apperrors.ToDomainError(err)
	s.metrics.RecordRejection(op, domainErr.Code)
	if domainErr.Code == apperrors.CodeInternal {
		s.logger.Error(op+" failed", zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.String("code", domainErr.Code), zap.String("reason", domainErr.Message))
	}
	return domainErr
}
