package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// NotificationSink delivers an enqueued notification out of process
// (email, push). The core only enqueues; sink failures are logged and never
// fail the originating request.
type NotificationSink interface {
	Deliver(ctx context.Context, email string, n *models.Notification) error
}

// NoopSink drops deliveries; used when no sink is configured.
type NoopSink struct{}

func (NoopSink) Deliver(context.Context, string, *models.Notification) error { return nil }

// dedupWindow dampens notification storms: at most one sink delivery per
// (rule, item, user) within the window.
const dedupWindow = 5 * time.Minute

type dedupKey struct {
	RuleID uuid.UUID
	ItemID uuid.UUID
	UserID uuid.UUID
}

type dedupCache struct {
	mu   sync.Mutex
	seen map[dedupKey]time.Time
	now  func() time.Time
}

func newDedupCache() *dedupCache {
	return &dedupCache{seen: map[dedupKey]time.Time{}, now: time.Now}
}

// Allow reports whether a delivery for key may go out, recording it if so.
// Stale entries are evicted opportunistically.
func (c *dedupCache) Allow(key dedupKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.seen[key]; ok && now.Sub(at) < dedupWindow {
		return false
	}

	if len(c.seen) > 4096 {
		for k, at := range c.seen {
			if now.Sub(at) >= dedupWindow {
				delete(c.seen, k)
			}
		}
	}

	c.seen[key] = now
	return true
}

type NotificationService struct {
	db    *database.DB
	users *UserService
	sink  NotificationSink
	dedup *dedupCache
}

func NewNotificationService(db *database.DB, users *UserService, sink NotificationSink) *NotificationService {
	if sink == nil {
		sink = NoopSink{}
	}
	return &NotificationService{db: db, users: users, sink: sink, dedup: newDedupCache()}
}

const notificationColumns = `id, user_id, title, body, link_url, status, created_at, read_at`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.LinkURL, &n.Status, &n.CreatedAt, &n.ReadAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("notification: %w", ErrNotFound)
		}
		return nil, err
	}
	return &n, nil
}

// Enqueue persists a notification and hands it to the sink unless the
// (rule, item, user) delivery window already saw one. The row is always
// written; only sink delivery is dampened.
func (s *NotificationService) Enqueue(ctx context.Context, userID uuid.UUID, title, body, linkURL string, ruleID, itemID uuid.UUID) (*models.Notification, error) {
	var link *string
	if linkURL != "" {
		link = &linkURL
	}

	n, err := scanNotification(s.db.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, body, link_url)
		VALUES ($1, $2, $3, $4)
		RETURNING `+notificationColumns+`
	`, userID, title, body, link))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrInvalidReference)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !s.dedup.Allow(dedupKey{RuleID: ruleID, ItemID: itemID, UserID: userID}) {
		return n, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("notification %s: user lookup failed: %v", n.ID, err)
		return n, nil
	}
	if err := s.sink.Deliver(ctx, user.Email, n); err != nil {
		log.Printf("notification %s: sink delivery failed: %v", n.ID, err)
	}
	return n, nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR status = 'unread')
		ORDER BY created_at DESC
	`, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.LinkURL, &n.Status, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*models.Notification, error) {
	return scanNotification(s.db.Pool.QueryRow(ctx, `
		UPDATE notifications SET status = 'read', read_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+notificationColumns+`
	`, notificationID, userID))
}
