// Package worker contains background deliveries driven by timers rather
// than inbound requests.
package worker

import (
	"context"
	"log/slog"
	"time"

	"gestor/internal/delivery"
	"gestor/internal/domain/lifecycle"
	"gestor/internal/usecase"

	"go.uber.org/fx"
)

// cleanupInterval is how often expired refresh rows are purged.
const cleanupInterval = 1 * time.Hour

// JanitorParams defines the required parameters
type JanitorParams struct {
	fx.In
	fx.Lifecycle

	Logger *slog.Logger
	AuthUC usecase.AuthUsecase
}

// janitor periodically deletes refresh credentials expired beyond the
// retention window.
type janitor struct {
	logger *slog.Logger
	authUC usecase.AuthUsecase
	stop   chan struct{}
}

// NewJanitor is the constructor for the cleanup worker.
func NewJanitor(params JanitorParams) (delivery.Delivery, error) {
	j := &janitor{
		logger: params.Logger,
		authUC: params.AuthUC,
		stop:   make(chan struct{}),
	}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			close(j.stop)

			return nil
		},
	})

	return j, nil
}

// Serve runs the cleanup loop until shutdown.
func (j *janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-j.stop:
			return nil
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *janitor) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	if err := j.authUC.CleanupExpiredCredentials(runCtx); err != nil {
		j.logger.Error("Refresh credential cleanup failed", slog.String("error", err.Error()))

		return
	}
	j.logger.Debug("Refresh credential cleanup completed")
}
