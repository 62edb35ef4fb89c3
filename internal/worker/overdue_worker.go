package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OverdueScanner reports open loans past their due date.
type OverdueScanner interface {
	ScanOverdue(ctx context.Context) (int, error)
}

// RunOverdueWorker scans for overdue loans every interval until ctx is done.
// A non-positive interval returns immediately.
func RunOverdueWorker(ctx context.Context, scanner OverdueScanner, interval time.Duration, logger *zap.Logger) {
	if scanner == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("overdue worker started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("overdue worker stopped")
			return
		case <-ticker.C:
			count, err := scanner.ScanOverdue(ctx)
			if err != nil {
				logger.Error("overdue scan failed", zap.Error(err))
				continue
			}
			logger.Debug("overdue scan complete", zap.Int("overdue", count))
		}
	}
}
