package services

import (
	"context"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
)

const (
	EventItemCreated  = "item_created"
	EventItemPatched  = "item_patched"
	EventItemArchived = "item_archived"
	EventUpdatePosted = "update_posted"
)

// SystemActor is the author of automation-generated writes.
var SystemActor = uuid.Nil

// ChangeEvent describes one committed write. Events are delivered to
// consumers in commit order, after the transaction commits; a consumer
// failure never rolls back the originating write.
type ChangeEvent struct {
	Kind   string
	Item   *models.Item
	Before *models.Item
	Update *models.Update
	Actor  uuid.UUID
	At     time.Time

	// Fired carries the rule ids already fired within this causal chain.
	// Automation-triggered writes reuse the set so a rule cannot re-trigger
	// itself recursively.
	Fired map[uuid.UUID]bool
}

type ChangeConsumer interface {
	HandleChange(ctx context.Context, ev ChangeEvent)
}
