package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aroma-tales/internal/domain"

	"github.com/google/uuid"
)

// NotificationRepository is the outbox of messages awaiting delivery
type NotificationRepository interface {
	Enqueue(ctx context.Context, n *domain.Notification) error
	// LockBatch leases up to batchSize pending rows (or rows whose lease expired) for delivery
	LockBatch(ctx context.Context, batchSize int, lease time.Duration) ([]*domain.Notification, error)
	MarkSent(ctx context.Context, ids []uuid.UUID) error
	// MarkFailed records a failed attempt; the row returns to pending until maxAttempts is reached
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxAttempts int) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error)
}

type notificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository
func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, order_id, kind, recipient, payload, status, attempts, last_error, lease_until, created_at`

// Enqueue inserts a pending notification
func (r *notificationRepository) Enqueue(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.Status = domain.NotificationPending

	var orderID uuid.NullUUID
	if n.OrderID != nil {
		orderID = uuid.NullUUID{UUID: *n.OrderID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, order_id, kind, recipient, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, orderID, n.Kind, n.Recipient, []byte(n.Payload), n.Status, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	return nil
}

// LockBatch claims rows with SKIP LOCKED so several relays never lease the same row
func (r *notificationRepository) LockBatch(ctx context.Context, batchSize int, lease time.Duration) ([]*domain.Notification, error) {
	query := `
		UPDATE notifications
		SET status = 'in_progress', lease_until = NOW() + make_interval(secs => $2)
		WHERE id IN (
			SELECT id FROM notifications
			WHERE status = 'pending'
			   OR (status = 'in_progress' AND lease_until < NOW())
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $1
		)
		RETURNING ` + notificationColumns

	rows, err := r.db.QueryContext(ctx, query, batchSize, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to lock notification batch: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// MarkSent marks delivered rows
func (r *notificationRepository) MarkSent(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = 'sent', attempts = attempts + 1, last_error = NULL, lease_until = NULL
		WHERE id = ANY($1::uuid[])
	`, strIDs)
	if err != nil {
		return fmt.Errorf("failed to mark notifications sent: %w", err)
	}

	return nil
}

// MarkFailed increments attempts and either re-queues the row or parks it as failed
func (r *notificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxAttempts int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET attempts = attempts + 1,
		    last_error = $2,
		    lease_until = NULL,
		    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1
	`, id, errMsg, maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}

	return nil
}

// ListByOrder returns the notifications queued for an order, oldest first
func (r *notificationRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE order_id = $1 ORDER BY created_at ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

func scanNotifications(rows *sql.Rows) ([]*domain.Notification, error) {
	notifications := []*domain.Notification{}
	for rows.Next() {
		n := &domain.Notification{}
		var orderID uuid.NullUUID
		var payload []byte
		var lastError sql.NullString
		var leaseUntil sql.NullTime

		err := rows.Scan(
			&n.ID,
			&orderID,
			&n.Kind,
			&n.Recipient,
			&payload,
			&n.Status,
			&n.Attempts,
			&lastError,
			&leaseUntil,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		n.Payload = payload
		if orderID.Valid {
			id := orderID.UUID
			n.OrderID = &id
		}
		if lastError.Valid {
			msg := lastError.String
			n.LastError = &msg
		}
		if leaseUntil.Valid {
			t := leaseUntil.Time
			n.LeaseUntil = &t
		}

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}
