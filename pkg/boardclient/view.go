package boardclient

import (
	"time"

	"github.com/google/uuid"
)

// Board, Group and Item mirror the server's board view JSON. Unknown fields
// in the payload are ignored.
type Board struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

type Group struct {
	ID         uuid.UUID `json:"id"`
	BoardID    uuid.UUID `json:"board_id"`
	Name       string    `json:"name"`
	OrderIndex float64   `json:"order_index"`
}

type Item struct {
	ID             uuid.UUID  `json:"id"`
	BoardID        uuid.UUID  `json:"board_id"`
	GroupID        uuid.UUID  `json:"group_id"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	IsVoicemail    bool       `json:"is_voicemail"`
	NeedsAttention bool       `json:"needs_attention"`
	OrderIndex     float64    `json:"order_index"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BoardView is one immutable snapshot. Mutations produce a new snapshot;
// callers may hold a view across renders without locking.
type BoardView struct {
	Board        *Board                      `json:"board"`
	Groups       []Group                     `json:"groups"`
	ItemsByGroup map[uuid.UUID][]Item        `json:"items_by_group"`
}

// clone copies the snapshot deeply enough that item edits do not leak into
// the original.
func (v *BoardView) clone() *BoardView {
	if v == nil {
		return nil
	}
	c := &BoardView{
		Board:        v.Board,
		Groups:       append([]Group(nil), v.Groups...),
		ItemsByGroup: make(map[uuid.UUID][]Item, len(v.ItemsByGroup)),
	}
	for groupID, items := range v.ItemsByGroup {
		c.ItemsByGroup[groupID] = append([]Item(nil), items...)
	}
	return c
}

// findItem returns the item and its group, or nil when absent.
func (v *BoardView) findItem(itemID uuid.UUID) (*Item, uuid.UUID) {
	for groupID, items := range v.ItemsByGroup {
		for i := range items {
			if items[i].ID == itemID {
				return &items[i], groupID
			}
		}
	}
	return nil, uuid.Nil
}

// replaceItem swaps the item by id, moving it between groups when the server
// copy landed elsewhere. A new snapshot is returned; v is untouched.
func (v *BoardView) replaceItem(item Item) *BoardView {
	c := v.clone()
	for groupID, items := range c.ItemsByGroup {
		for i := range items {
			if items[i].ID == item.ID {
				if groupID == item.GroupID {
					items[i] = item
					return c
				}
				c.ItemsByGroup[groupID] = append(items[:i:i], items[i+1:]...)
				c.ItemsByGroup[item.GroupID] = append(c.ItemsByGroup[item.GroupID], item)
				return c
			}
		}
	}
	c.ItemsByGroup[item.GroupID] = append(c.ItemsByGroup[item.GroupID], item)
	return c
}
