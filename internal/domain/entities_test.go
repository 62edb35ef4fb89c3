package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestItemKind(t *testing.T) {
	assert.True(t, ItemKindStandard.Valid())
	assert.True(t, ItemKindReference.Valid())
	assert.False(t, ItemKind("MAGAZINE").Valid())

	assert.Equal(t, "1.00", ItemKindStandard.DailyFineRate().StringFixed(2))
	assert.Equal(t, "5.00", ItemKindReference.DailyFineRate().StringFixed(2))
}

func TestItemAvailabilityTransitions(t *testing.T) {
	item := NewItem("978-1", "Emma", "Austen", ItemKindStandard)
	assert.True(t, item.Available)

	assert.True(t, item.MarkBorrowed())
	assert.False(t, item.Available)

	assert.True(t, item.MarkReturned())
	assert.True(t, item.Available)
}

func TestNewPatron(t *testing.T) {
	patron := NewPatron("L-1234", "Ada", "tax", 0)
	assert.Equal(t, DefaultBorrowLimit, patron.Limit)
	assert.Equal(t, PersonRolePatron, patron.Role)

	custom := NewPatron("L-1235", "Bob", "tax", 5)
	assert.Equal(t, 5, custom.Limit)

	assert.True(t, patron.CanBorrow(2))
	assert.False(t, patron.CanBorrow(3))
	assert.False(t, patron.CanBorrow(4))
}

func TestNewStaff(t *testing.T) {
	staff := NewStaff("F-123", "Grace", "tax", "archivist")
	assert.Equal(t, PersonRoleStaff, staff.Role)
	assert.Equal(t, "archivist", staff.Position)
}

func TestDates(t *testing.T) {
	late := time.Date(2024, time.February, 28, 23, 59, 0, 0, time.FixedZone("X", 3600))

	assert.Equal(t, time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC), DateOf(late))
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), AddDays(late, 2))
	assert.Equal(t, 2, DaysBetween(late, AddDays(late, 2)))
	assert.Equal(t, -2, DaysBetween(AddDays(late, 2), late))
}
