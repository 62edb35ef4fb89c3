package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingScanner struct {
	calls atomic.Int32
	err   error
}

func (s *countingScanner) ScanOverdue(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestRunOverdueWorkerScansUntilCancelled(t *testing.T) {
	scanner := &countingScanner{err: errors.New("transient")}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		RunOverdueWorker(ctx, scanner, 5*time.Millisecond, zap.NewNop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return scanner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunOverdueWorkerDisabled(t *testing.T) {
	scanner := &countingScanner{}

	RunOverdueWorker(context.Background(), scanner, 0, zap.NewNop())

	assert.Zero(t, scanner.calls.Load())
}
