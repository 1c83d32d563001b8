package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TriggerStatusChange  = "status_change"
	TriggerFieldChange   = "field_change"
	TriggerItemCreated   = "item_created"
	TriggerItemArchived  = "item_archived"
	TriggerDueSoon       = "due_soon"
	TriggerUpdateMention = "update_mention"

	ActionNotifyAdmins    = "notify_admins"
	ActionNotifyAssignees = "notify_assignees"
	ActionNotifyUsers     = "notify_users"
	ActionSetField        = "set_field"
	ActionMoveToGroup     = "move_to_group"
	ActionPostUpdate      = "post_update"

	OutcomeDelivered = "delivered"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

type AutomationRule struct {
	ID            uuid.UUID       `json:"id"`
	BoardID       uuid.UUID       `json:"board_id"`
	Name          string          `json:"name"`
	TriggerType   string          `json:"trigger_type"`
	TriggerConfig json.RawMessage `json:"trigger_config"`
	Condition     json.RawMessage `json:"condition,omitempty"`
	ActionType    string          `json:"action_type"`
	ActionConfig  json.RawMessage `json:"action_config"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

type AutomationLog struct {
	ID      uuid.UUID  `json:"id"`
	RuleID  uuid.UUID  `json:"rule_id"`
	ItemID  *uuid.UUID `json:"item_id,omitempty"`
	FiredAt time.Time  `json:"fired_at"`
	Outcome string     `json:"outcome"`
	Detail  string     `json:"detail"`
}
