package idgen

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Generator produces identifiers for registered records and loans.
type Generator interface {
	PatronID() string
	StaffID() string
	LoanID() string
}

type randomGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom returns a generator using "L-####" and "F-###" ids and UUID loan ids.
func NewRandom(seed int64) Generator {
	return &randomGenerator{rnd: rand.New(rand.NewSource(seed))}
}

func (g *randomGenerator) PatronID() string {
	return fmt.Sprintf("L-%d", g.intn(1000, 9999))
}

func (g *randomGenerator) StaffID() string {
	return fmt.Sprintf("F-%d", g.intn(100, 999))
}

func (g *randomGenerator) LoanID() string {
	return uuid.NewString()
}

// intn returns a value in [lo, hi].
func (g *randomGenerator) intn(lo, hi int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.rnd.Intn(hi-lo+1)
}

// Sequential hands out predictable ids, useful for tests.
type Sequential struct {
	mu     sync.Mutex
	patron int
	staff  int
	loan   int
}

// NewSequential returns a generator starting at L-1001, F-101 and LN-0001.
func NewSequential() *Sequential {
	return &Sequential{patron: 1000, staff: 100}
}

func (s *Sequential) PatronID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patron++
	return fmt.Sprintf("L-%04d", s.patron)
}

func (s *Sequential) StaffID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff++
	return fmt.Sprintf("F-%03d", s.staff)
}

func (s *Sequential) LoanID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loan++
	return fmt.Sprintf("LN-%04d", s.loan)
}
