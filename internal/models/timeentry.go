package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry is immutable after write. Corrections are compensating entries.
type TimeEntry struct {
	ID              uuid.UUID  `json:"id"`
	ItemID          uuid.UUID  `json:"item_id"`
	UserID          *uuid.UUID `json:"user_id,omitempty"`
	Minutes         int        `json:"minutes"`
	BillableMinutes int        `json:"billable_minutes"`
	WorkCategory    string     `json:"work_category"`
	Description     *string    `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
