package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lending-service/internal/domain"
	apperrors "github.com/spec-kit/lending-service/pkg/util/errorutil"
)

var loanDay = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func newFixtureLoan(kind domain.ItemKind) (*domain.Loan, *domain.Item) {
	patron := domain.NewPatron("L-1001", "Ada", "123", 0)
	item := domain.NewItem("978-0", "Dune", "Herbert", kind)
	staff := domain.NewStaff("F-101", "Grace", "456", "librarian")
	item.MarkBorrowed()
	return domain.NewLoan("LN-0001", patron, item, staff, loanDay, domain.LoanTermFor(patron.Role)), item
}

func Test_NewLoan_SetsDueDateFromTerm(t *testing.T) {
	loan, _ := newFixtureLoan(domain.ItemKindStandard)

	assert.Equal(t, loanDay, loan.LoanDate)
	assert.Equal(t, loanDay.AddDate(0, 0, 7), loan.DueDate)
	assert.True(t, loan.IsOpen())
	assert.Equal(t, domain.LoanStatusOpen, loan.Status())
	assert.True(t, loan.Fine.IsZero())
}

func Test_NewLoan_NormalizesLoanDate(t *testing.T) {
	patron := domain.NewPatron("L-1001", "Ada", "123", 0)
	item := domain.NewItem("978-0", "Dune", "Herbert", "")
	staff := domain.NewStaff("F-101", "Grace", "456", "")
	afternoon := time.Date(2024, time.March, 1, 15, 30, 0, 0, time.UTC)

	loan := domain.NewLoan("LN-1", patron, item, staff, afternoon, 7)

	assert.Equal(t, loanDay, loan.LoanDate)
	assert.Equal(t, domain.ItemKindStandard, item.Kind)
}

func Test_LoanTermFor(t *testing.T) {
	assert.Equal(t, 7, domain.LoanTermFor(domain.PersonRolePatron))
	assert.Equal(t, 14, domain.LoanTermFor(domain.PersonRoleStaff))
}

func Test_CloseLoan_Fine(t *testing.T) {
	testCases := []struct {
		name         string
		kind         domain.ItemKind
		returnOffset int
		expectedFine string
		expectedLate int
	}{
		{name: "standard item returned three days late", kind: domain.ItemKindStandard, returnOffset: 10, expectedFine: "3", expectedLate: 3},
		{name: "reference item returned early", kind: domain.ItemKindReference, returnOffset: 2, expectedFine: "0", expectedLate: 0},
		{name: "returned exactly on the due date", kind: domain.ItemKindStandard, returnOffset: 7, expectedFine: "0", expectedLate: 0},
		{name: "reference item returned one day late", kind: domain.ItemKindReference, returnOffset: 8, expectedFine: "5", expectedLate: 1},
		{name: "backdated before the loan date", kind: domain.ItemKindReference, returnOffset: -5, expectedFine: "0", expectedLate: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			loan, item := newFixtureLoan(tc.kind)
			returnedOn := loanDay.AddDate(0, 0, tc.returnOffset)

			// act
			fine, err := domain.CloseLoan(loan, item, returnedOn)

			// assert
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.expectedFine).Equal(fine), "fine %s", fine)
			assert.True(t, fine.Equal(loan.Fine))
			assert.Equal(t, tc.expectedLate, loan.DaysLate(returnedOn))
			assert.True(t, item.Available)
			require.NotNil(t, loan.ReturnedOn)
			assert.Equal(t, returnedOn, *loan.ReturnedOn)
			assert.Equal(t, domain.LoanStatusClosed, loan.Status())
			assert.False(t, fine.IsNegative())
		})
	}
}

func Test_CloseLoan_AlreadyReturned(t *testing.T) {
	loan, item := newFixtureLoan(domain.ItemKindStandard)
	_, err := domain.CloseLoan(loan, item, loanDay.AddDate(0, 0, 9))
	require.NoError(t, err)
	firstReturn := *loan.ReturnedOn
	item.MarkBorrowed()

	fine, err := domain.CloseLoan(loan, item, loanDay.AddDate(0, 0, 20))

	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyReturned))
	assert.True(t, fine.IsZero())
	assert.Equal(t, firstReturn, *loan.ReturnedOn)
	assert.Equal(t, "2", loan.Fine.String())
	assert.False(t, item.Available, "a rejected return must not touch the item")
}

func Test_FineOn_IsLinearInDaysLate(t *testing.T) {
	loan, item := newFixtureLoan(domain.ItemKindReference)

	for days := 0; days <= 30; days++ {
		on := loan.DueDate.AddDate(0, 0, days)
		expected := item.DailyFineRate().Mul(decimal.NewFromInt(int64(days)))
		assert.True(t, expected.Equal(loan.FineOn(on, item.DailyFineRate())), "day %d", days)
	}
}
