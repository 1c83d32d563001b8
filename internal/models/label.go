package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LabelScopeGlobal = "global"
	LabelScopeBoard  = "board"
)

type StatusLabel struct {
	ID          uuid.UUID  `json:"id"`
	Scope       string     `json:"scope"`
	BoardID     *uuid.UUID `json:"board_id,omitempty"`
	Label       string     `json:"label"`
	Color       string     `json:"color"`
	OrderIndex  float64    `json:"order_index"`
	IsDoneState bool       `json:"is_done_state"`
	Archived    bool       `json:"archived"`
	CreatedAt   time.Time  `json:"created_at"`
}
