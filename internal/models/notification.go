package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	LinkURL   *string    `json:"link_url,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}
