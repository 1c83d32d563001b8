package dto

import "github.com/google/uuid"

type CreateItemRequest struct {
	Name string `json:"name"`
}

// PatchItemRequest is a partial field map; absent fields stay untouched.
// An empty due_date string clears the date.
type PatchItemRequest struct {
	Name            *string    `json:"name,omitempty"`
	Status          *string    `json:"status,omitempty"`
	DueDate         *string    `json:"due_date,omitempty"`
	NeedsAttention  *bool      `json:"needs_attention,omitempty"`
	IsVoicemail     *bool      `json:"is_voicemail,omitempty"`
	GroupID         *uuid.UUID `json:"group_id,omitempty"`
	AfterItemID     *uuid.UUID `json:"after_item_id,omitempty"`
	CreateIfMissing bool       `json:"create_if_missing,omitempty"`
}

type CreateSubitemRequest struct {
	Name string `json:"name"`
}

type PatchSubitemRequest struct {
	Name   *string `json:"name,omitempty"`
	Status *string `json:"status,omitempty"`
}

type AddAssigneeRequest struct {
	UserID uuid.UUID `json:"user_id"`
}
