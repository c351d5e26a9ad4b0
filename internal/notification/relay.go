package notification

import (
	"context"
	"time"

	"aroma-tales/internal/config"
	"aroma-tales/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Relay drains the notifications outbox. Several relays may run against one
// database; row leases keep them from sending the same row concurrently.
type Relay struct {
	repo        repository.NotificationRepository
	sender      Sender
	from        string
	interval    time.Duration
	batchSize   int
	lease       time.Duration
	maxAttempts int
	logger      *zap.Logger
}

// NewRelay creates a Relay from the notification settings
func NewRelay(repo repository.NotificationRepository, sender Sender, cfg config.Config, logger *zap.Logger) *Relay {
	return &Relay{
		repo:        repo,
		sender:      sender,
		from:        cfg.Mail.From,
		interval:    cfg.Notification.PollInterval,
		batchSize:   cfg.Notification.BatchSize,
		lease:       cfg.Notification.Lease,
		maxAttempts: cfg.Notification.MaxAttempts,
		logger:      logger.Named("relay"),
	}
}

// Run polls until ctx is cancelled
func (r *Relay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.logger.Info("Notification relay started",
		zap.Duration("interval", r.interval),
		zap.Int("batch_size", r.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Notification relay stopping")
			return
		case <-t.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("Relay batch failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch leases one batch, sends each row and records the outcome.
// It returns the number of rows delivered.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	batch, err := r.repo.LockBatch(ctx, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	sent := make([]uuid.UUID, 0, len(batch))
	for _, n := range batch {
		msg, err := Render(n, r.from)
		if err == nil {
			err = r.sender.Send(ctx, msg)
		}

		if err != nil {
			r.logger.Warn("Notification delivery failed",
				zap.String("notification_id", n.ID.String()),
				zap.String("kind", string(n.Kind)),
				zap.Int("attempt", n.Attempts+1),
				zap.Error(err),
			)
			if markErr := r.repo.MarkFailed(ctx, n.ID, err.Error(), r.maxAttempts); markErr != nil {
				r.logger.Error("Failed to record delivery failure", zap.Error(markErr))
			}
			continue
		}

		sent = append(sent, n.ID)
	}

	if err := r.repo.MarkSent(ctx, sent); err != nil {
		return 0, err
	}

	if len(sent) > 0 {
		r.logger.Info("Notifications delivered", zap.Int("count", len(sent)))
	}
	return len(sent), nil
}
