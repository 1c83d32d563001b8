package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ItemService implements the editing protocol: field-level patches validated
// against the label catalog and member set, committed transactionally, with
// change events emitted in commit order.
type ItemService struct {
	db        *database.DB
	labels    *LabelService
	workspace *WorkspaceService
	consumers []ChangeConsumer
}

func NewItemService(db *database.DB, labels *LabelService, workspace *WorkspaceService) *ItemService {
	return &ItemService{db: db, labels: labels, workspace: workspace}
}

// RegisterConsumer adds a post-commit change event consumer. Consumers run
// synchronously in registration order.
func (s *ItemService) RegisterConsumer(c ChangeConsumer) {
	s.consumers = append(s.consumers, c)
}

func (s *ItemService) emit(ctx context.Context, ev ChangeEvent) {
	if ev.Fired == nil {
		ev.Fired = map[uuid.UUID]bool{}
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	for _, c := range s.consumers {
		c.HandleChange(ctx, ev)
	}
}

// ItemPatch is a partial field map. Nil pointers leave the field untouched.
type ItemPatch struct {
	Name           *string
	Status         *string
	DueDate        *string // "2006-01-02", empty string clears
	NeedsAttention *bool
	IsVoicemail    *bool
	GroupID        *uuid.UUID
	AfterItemID    *uuid.UUID

	// CreateIfMissing auto-creates an unknown status label; only honoured
	// when the caller has the manage_labels capability.
	CreateIfMissing bool
	CanManageLabels bool
}

func (s *ItemService) Create(ctx context.Context, groupID uuid.UUID, name string, actor uuid.UUID) (*models.Item, error) {
	group := struct {
		boardID uuid.UUID
	}{}
	err := s.db.Pool.QueryRow(ctx, `SELECT board_id FROM board_groups WHERE id = $1`, groupID).Scan(&group.boardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
		return nil, err
	}

	label, err := s.labels.Resolve(ctx, group.boardID, "To Do", false, false)
	if err != nil {
		return nil, fmt.Errorf("default label missing: %w", err)
	}

	item, err := scanItemRow(s.db.Pool.QueryRow(ctx, `
		INSERT INTO items (board_id, group_id, name, status_label_id, status, order_index)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(order_index), -1) + 1 FROM items WHERE group_id = $2))
		RETURNING `+itemColumns+`
	`, group.boardID, groupID, name, label.ID, label.Label))
	if err != nil {
		return nil, err
	}

	s.emit(ctx, ChangeEvent{Kind: EventItemCreated, Item: item, Actor: actor})
	return item, nil
}

func (s *ItemService) GetByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	return scanItemRow(s.db.Pool.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM items WHERE id = $1
	`, itemID))
}

// Patch applies a partial field map. Conflicting writes to the same field
// resolve last-write-wins by server clock.
func (s *ItemService) Patch(ctx context.Context, itemID uuid.UUID, patch ItemPatch, actor uuid.UUID) (*models.Item, error) {
	return s.patch(ctx, itemID, patch, actor, nil)
}

// patch is the internal variant carrying the automation fired-rule set so
// automation-triggered writes share their causal chain.
func (s *ItemService) patch(ctx context.Context, itemID uuid.UUID, patch ItemPatch, actor uuid.UUID, fired map[uuid.UUID]bool) (*models.Item, error) {
	before, err := s.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var statusLabel *models.StatusLabel
	if patch.Status != nil {
		statusLabel, err = s.labels.Resolve(ctx, before.BoardID, *patch.Status, patch.CanManageLabels, patch.CreateIfMissing)
		if err != nil {
			return nil, err
		}
	}

	var dueDate *time.Time
	clearDue := false
	if patch.DueDate != nil {
		if *patch.DueDate == "" {
			clearDue = true
		} else {
			d, err := time.Parse("2006-01-02", *patch.DueDate)
			if err != nil {
				return nil, fmt.Errorf("due_date %q is not a calendar date: %w", *patch.DueDate, ErrInvariant)
			}
			dueDate = &d
		}
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	targetGroup := before.GroupID
	if patch.GroupID != nil && *patch.GroupID != before.GroupID {
		var groupBoard uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT board_id FROM board_groups WHERE id = $1`, *patch.GroupID).Scan(&groupBoard); err != nil {
			return nil, fmt.Errorf("target group: %w", ErrInvalidReference)
		}
		if groupBoard != before.BoardID {
			return nil, fmt.Errorf("target group belongs to another board: %w", ErrInvalidReference)
		}
		targetGroup = *patch.GroupID
	}

	orderIndex := before.OrderIndex
	switch {
	case patch.AfterItemID != nil:
		orderIndex, err = itemOrderAfter(ctx, tx, targetGroup, patch.AfterItemID)
		if err != nil {
			return nil, err
		}
	case targetGroup != before.GroupID:
		// Moving between groups without an explicit position appends.
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(order_index), -1) + 1 FROM items WHERE group_id = $1
		`, targetGroup).Scan(&orderIndex); err != nil {
			return nil, err
		}
	}

	var statusID *uuid.UUID
	status := before.Status
	if statusLabel != nil {
		statusID = &statusLabel.ID
		status = statusLabel.Label
	} else {
		statusID = before.StatusLabelID
	}

	due := before.DueDate
	if clearDue {
		due = nil
	} else if dueDate != nil {
		due = dueDate
	}

	item, err := scanItemRow(tx.QueryRow(ctx, `
		UPDATE items SET
			name = COALESCE($1, name),
			status_label_id = $2,
			status = $3,
			due_date = $4,
			needs_attention = COALESCE($5, needs_attention),
			is_voicemail = COALESCE($6, is_voicemail),
			group_id = $7,
			order_index = $8,
			updated_at = NOW()
		WHERE id = $9
		RETURNING `+itemColumns+`
	`, patch.Name, statusID, status, due, patch.NeedsAttention, patch.IsVoicemail,
		targetGroup, orderIndex, itemID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.emit(ctx, ChangeEvent{Kind: EventItemPatched, Item: item, Before: before, Actor: actor, Fired: fired})
	return item, nil
}

func itemOrderAfter(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, afterItemID *uuid.UUID) (float64, error) {
	if afterItemID == nil {
		var min float64
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MIN(order_index), 0) FROM items WHERE group_id = $1
		`, groupID).Scan(&min); err != nil {
			return 0, err
		}
		return min - 1, nil
	}

	var after float64
	if err := tx.QueryRow(ctx, `
		SELECT order_index FROM items WHERE id = $1 AND group_id = $2
	`, *afterItemID, groupID).Scan(&after); err != nil {
		return 0, fmt.Errorf("after item: %w", ErrInvalidReference)
	}

	var next *float64
	if err := tx.QueryRow(ctx, `
		SELECT MIN(order_index) FROM items WHERE group_id = $1 AND order_index > $2
	`, groupID, after).Scan(&next); err != nil {
		return 0, err
	}
	if next == nil {
		return after + 1, nil
	}
	return (after + *next) / 2, nil
}

func (s *ItemService) Archive(ctx context.Context, itemID uuid.UUID, actor uuid.UUID) (*models.Item, error) {
	before, err := s.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item, err := scanItemRow(s.db.Pool.QueryRow(ctx, `
		UPDATE items SET archived_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL
		RETURNING `+itemColumns+`
	`, itemID))
	if err != nil {
		return nil, err
	}

	s.emit(ctx, ChangeEvent{Kind: EventItemArchived, Item: item, Before: before, Actor: actor})
	return item, nil
}

func (s *ItemService) HardDelete(ctx context.Context, itemID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item: %w", ErrNotFound)
	}
	return nil
}

// PurgeArchived hard-deletes items archived longer than the retention window
// ago. Called by the daily sweep.
func (s *ItemService) PurgeArchived(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM items WHERE archived_at IS NOT NULL AND archived_at < NOW() - $1::interval
	`, retention.String())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *ItemService) CreateSubitem(ctx context.Context, itemID uuid.UUID, name string) (*models.Subitem, error) {
	var sub models.Subitem
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO subitems (item_id, name, order_index)
		VALUES ($1, $2, (SELECT COALESCE(MAX(order_index), -1) + 1 FROM subitems WHERE item_id = $1))
		RETURNING id, item_id, name, status, order_index, created_at
	`, itemID, name).Scan(&sub.ID, &sub.ItemID, &sub.Name, &sub.Status, &sub.OrderIndex, &sub.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("item %s: %w", itemID, ErrInvalidReference)
		}
		return nil, err
	}
	return &sub, nil
}

func (s *ItemService) GetSubitem(ctx context.Context, subitemID uuid.UUID) (*models.Subitem, error) {
	var sub models.Subitem
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, item_id, name, status, order_index, created_at
		FROM subitems WHERE id = $1
	`, subitemID).Scan(&sub.ID, &sub.ItemID, &sub.Name, &sub.Status, &sub.OrderIndex, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subitem: %w", ErrNotFound)
		}
		return nil, err
	}
	return &sub, nil
}

func (s *ItemService) PatchSubitem(ctx context.Context, subitemID uuid.UUID, name, status *string) (*models.Subitem, error) {
	if status != nil && *status != models.SubitemStatusTodo && *status != models.SubitemStatusDone {
		return nil, fmt.Errorf("subitem status must be todo or done: %w", ErrInvariant)
	}

	var sub models.Subitem
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE subitems SET name = COALESCE($1, name), status = COALESCE($2, status)
		WHERE id = $3
		RETURNING id, item_id, name, status, order_index, created_at
	`, name, status, subitemID).Scan(&sub.ID, &sub.ItemID, &sub.Name, &sub.Status, &sub.OrderIndex, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subitem: %w", ErrNotFound)
		}
		return nil, err
	}
	return &sub, nil
}

func (s *ItemService) DeleteSubitem(ctx context.Context, subitemID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM subitems WHERE id = $1`, subitemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subitem: %w", ErrNotFound)
	}
	return nil
}

func (s *ItemService) ListSubitems(ctx context.Context, itemID uuid.UUID) ([]models.Subitem, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, item_id, name, status, order_index, created_at
		FROM subitems WHERE item_id = $1
		ORDER BY order_index, created_at, id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subitem
	for rows.Next() {
		var sub models.Subitem
		if err := rows.Scan(&sub.ID, &sub.ItemID, &sub.Name, &sub.Status, &sub.OrderIndex, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// AddAssignee is idempotent; assigning a user who is not a member of the
// board's workspace is rejected with InvalidReference and writes nothing.
func (s *ItemService) AddAssignee(ctx context.Context, itemID, userID uuid.UUID) (*models.Assignee, error) {
	item, err := s.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var workspaceID uuid.UUID
	if err := s.db.Pool.QueryRow(ctx, `SELECT workspace_id FROM boards WHERE id = $1`, item.BoardID).Scan(&workspaceID); err != nil {
		return nil, err
	}

	isMember, err := s.workspace.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("user %s is not a workspace member: %w", userID, ErrInvalidReference)
	}

	var a models.Assignee
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO item_assignees (item_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (item_id, user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING item_id, user_id, assigned_at
	`, itemID, userID).Scan(&a.ItemID, &a.UserID, &a.AssignedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ItemService) RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM item_assignees WHERE item_id = $1 AND user_id = $2
	`, itemID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assignee: %w", ErrNotFound)
	}
	return nil
}

func (s *ItemService) ListAssignees(ctx context.Context, itemID uuid.UUID) ([]models.Assignee, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT a.item_id, a.user_id, a.assigned_at,
		       u.id, u.email, u.name, u.handle, u.avatar_url, u.created_at, u.updated_at
		FROM item_assignees a
		JOIN users u ON a.user_id = u.id
		WHERE a.item_id = $1
		ORDER BY a.assigned_at
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignees []models.Assignee
	for rows.Next() {
		var a models.Assignee
		var u models.User
		if err := rows.Scan(
			&a.ItemID, &a.UserID, &a.AssignedAt,
			&u.ID, &u.Email, &u.Name, &u.Handle, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.User = &u
		assignees = append(assignees, a)
	}
	return assignees, nil
}

// AssigneeUserIDs returns the current assignee ids, used by automation
// notify_assignees actions.
func (s *ItemService) AssigneeUserIDs(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT user_id FROM item_assignees WHERE item_id = $1 ORDER BY assigned_at
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
