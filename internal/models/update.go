package models

import (
	"time"

	"github.com/google/uuid"
)

// Update is an append-only comment on an item. Mentions are derived from the
// body at write time and never recomputed.
type Update struct {
	ID           uuid.UUID   `json:"id"`
	ItemID       uuid.UUID   `json:"item_id"`
	AuthorUserID *uuid.UUID  `json:"author_user_id,omitempty"`
	Body         string      `json:"body"`
	Mentions     []uuid.UUID `json:"mentions"`
	CreatedAt    time.Time   `json:"created_at"`
	Author       *User       `json:"author,omitempty"`
}
