package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/domain"
	"eventhub/internal/metrics"
)

// Janitor periodically removes expired sessions and email verifications and
// expires stale pending invitations.
type Janitor struct {
	sessions      domain.SessionRepository
	verifications domain.EmailVerificationRepository
	invitations   domain.InvitationRepository
	interval      time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func NewJanitor(
	sessions domain.SessionRepository,
	verifications domain.EmailVerificationRepository,
	invitations domain.InvitationRepository,
	interval time.Duration,
	logger *slog.Logger,
) *Janitor {
	return &Janitor{
		sessions:      sessions,
		verifications: verifications,
		invitations:   invitations,
		interval:      interval,
		logger:        logger.With("component", "janitor"),
		now:           time.Now,
	}
}

// Run calls RunOnce immediately and then on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		j.logger.Info("janitor disabled")
		return
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if err := j.RunOnce(ctx); err != nil {
			j.logger.Error("cleanup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single cleanup pass. Every step runs even if an earlier one fails.
func (j *Janitor) RunOnce(ctx context.Context) error {
	now := j.now().UTC()
	var errs []error

	steps := []struct {
		kind string
		run  func(context.Context, time.Time) (int64, error)
	}{
		{"sessions", j.sessions.DeleteExpired},
		{"email_verifications", j.verifications.DeleteExpired},
		{"invitations", j.invitations.ExpirePending},
	}
	for _, step := range steps {
		n, err := step.run(ctx, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.kind, err))
			continue
		}
		if n > 0 {
			metrics.JanitorRemoved.WithLabelValues(step.kind).Add(float64(n))
			j.logger.Info("cleaned up", "kind", step.kind, "rows", n)
		}
	}
	return errors.Join(errs...)
}
