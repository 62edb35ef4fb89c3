package clock

import (
	"sync"
	"time"

	"github.com/spec-kit/lending-service/internal/domain"
)

// Clock supplies the current calendar date.
type Clock interface {
	Today() time.Time
}

type systemClock struct{}

// System returns a Clock backed by time.Now.
func System() Clock {
	return systemClock{}
}

func (systemClock) Today() time.Time {
	return domain.DateOf(time.Now())
}

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu    sync.Mutex
	today time.Time
}

// NewFixed creates a clock pinned to the given date.
func NewFixed(today time.Time) *Fixed {
	return &Fixed{today: domain.DateOf(today)}
}

// Today returns the pinned date.
func (c *Fixed) Today() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today
}

// Set moves the clock to another date.
func (c *Fixed) Set(today time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = domain.DateOf(today)
}

// Advance moves the clock forward by n days.
func (c *Fixed) Advance(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = domain.AddDays(c.today, days)
}
