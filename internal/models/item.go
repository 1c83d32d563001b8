package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubitemStatusTodo = "todo"
	SubitemStatusDone = "done"
)

type Item struct {
	ID             uuid.UUID  `json:"id"`
	BoardID        uuid.UUID  `json:"board_id"`
	GroupID        uuid.UUID  `json:"group_id"`
	Name           string     `json:"name"`
	StatusLabelID  *uuid.UUID `json:"status_label_id,omitempty"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	IsVoicemail    bool       `json:"is_voicemail"`
	NeedsAttention bool       `json:"needs_attention"`
	OrderIndex     float64    `json:"order_index"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Subitem struct {
	ID         uuid.UUID `json:"id"`
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	OrderIndex float64   `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

type Assignee struct {
	ItemID     uuid.UUID `json:"item_id"`
	UserID     uuid.UUID `json:"user_id"`
	AssignedAt time.Time `json:"assigned_at"`
	User       *User     `json:"user,omitempty"`
}

type File struct {
	ID         uuid.UUID  `json:"id"`
	ItemID     uuid.UUID  `json:"item_id"`
	FileName   string     `json:"file_name"`
	FileURL    string     `json:"file_url"`
	Mime       string     `json:"mime"`
	UploadedBy *uuid.UUID `json:"uploaded_by,omitempty"`
	UploadedAt time.Time  `json:"uploaded_at"`
}
