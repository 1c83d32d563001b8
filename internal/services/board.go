package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BoardService struct {
	db *database.DB
}

func NewBoardService(db *database.DB) *BoardService {
	return &BoardService{db: db}
}

// TimeTotal aggregates time entries for one item inside a board view.
type TimeTotal struct {
	Minutes         int `json:"minutes"`
	BillableMinutes int `json:"billable_minutes"`
}

// BoardView is the consistent snapshot behind GET /tasks/boards/{id}/view.
// All aggregates reflect the state at a single logical instant.
type BoardView struct {
	Board                 *models.Board                  `json:"board"`
	Groups                []models.Group                 `json:"groups"`
	ItemsByGroup          map[uuid.UUID][]models.Item    `json:"items_by_group"`
	AssigneesByItem       map[uuid.UUID][]models.Assignee `json:"assignees_by_item"`
	UpdateCountsByItem    map[uuid.UUID]int              `json:"update_counts_by_item"`
	TimeTotalsByItem      map[uuid.UUID]TimeTotal        `json:"time_totals_by_item"`
	LabelCatalog          []models.StatusLabel           `json:"label_catalog"`
	WorkspaceMembers      []models.WorkspaceMember       `json:"workspace_members"`
	AggregatesUnavailable []string                       `json:"aggregates_unavailable,omitempty"`
}

const boardColumns = `id, workspace_id, name, description, archived_at, created_at, updated_at`

func scanBoard(row pgx.Row) (*models.Board, error) {
	var b models.Board
	err := row.Scan(
		&b.ID, &b.WorkspaceID, &b.Name, &b.Description,
		&b.ArchivedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("board: %w", ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (s *BoardService) Create(ctx context.Context, workspaceID uuid.UUID, name, description string) (*models.Board, error) {
	board, err := scanBoard(s.db.Pool.QueryRow(ctx, `
		INSERT INTO boards (workspace_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING `+boardColumns+`
	`, workspaceID, name, description))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("workspace %s: %w", workspaceID, ErrInvalidReference)
		}
		return nil, err
	}
	return board, nil
}

func (s *BoardService) GetByID(ctx context.Context, boardID uuid.UUID) (*models.Board, error) {
	return scanBoard(s.db.Pool.QueryRow(ctx, `
		SELECT `+boardColumns+` FROM boards WHERE id = $1
	`, boardID))
}

func (s *BoardService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Board, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+boardColumns+` FROM boards
		WHERE workspace_id = $1 AND archived_at IS NULL
		ORDER BY created_at
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []models.Board
	for rows.Next() {
		var b models.Board
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &b.Name, &b.Description, &b.ArchivedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, nil
}

func (s *BoardService) Update(ctx context.Context, boardID uuid.UUID, name, description *string) (*models.Board, error) {
	board, err := scanBoard(s.db.Pool.QueryRow(ctx, `
		UPDATE boards
		SET name = COALESCE($1, name), description = COALESCE($2, description), updated_at = NOW()
		WHERE id = $3
		RETURNING `+boardColumns+`
	`, name, description, boardID))
	if err != nil {
		return nil, err
	}
	return board, nil
}

func (s *BoardService) Archive(ctx context.Context, boardID uuid.UUID) (*models.Board, error) {
	return scanBoard(s.db.Pool.QueryRow(ctx, `
		UPDATE boards SET archived_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL
		RETURNING `+boardColumns+`
	`, boardID))
}

// Delete cascades to groups, items, local labels and rules.
func (s *BoardService) Delete(ctx context.Context, boardID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, boardID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("board: %w", ErrNotFound)
	}
	return nil
}

func (s *BoardService) CreateGroup(ctx context.Context, boardID uuid.UUID, name string) (*models.Group, error) {
	var g models.Group
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO board_groups (board_id, name, order_index)
		VALUES ($1, $2, (SELECT COALESCE(MAX(order_index), -1) + 1 FROM board_groups WHERE board_id = $1))
		RETURNING id, board_id, name, order_index, created_at
	`, boardID, name).Scan(&g.ID, &g.BoardID, &g.Name, &g.OrderIndex, &g.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("board %s: %w", boardID, ErrInvalidReference)
		}
		return nil, err
	}
	return &g, nil
}

func (s *BoardService) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var g models.Group
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, board_id, name, order_index, created_at FROM board_groups WHERE id = $1
	`, groupID).Scan(&g.ID, &g.BoardID, &g.Name, &g.OrderIndex, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
		return nil, err
	}
	return &g, nil
}

func (s *BoardService) RenameGroup(ctx context.Context, groupID uuid.UUID, name string) (*models.Group, error) {
	var g models.Group
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE board_groups SET name = $1 WHERE id = $2
		RETURNING id, board_id, name, order_index, created_at
	`, name, groupID).Scan(&g.ID, &g.BoardID, &g.Name, &g.OrderIndex, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
		return nil, err
	}
	return &g, nil
}

// ReorderGroup moves a group after another group, or to the front when
// afterGroupID is nil. Fractional ordering: the new index is the midpoint of
// its neighbours.
func (s *BoardService) ReorderGroup(ctx context.Context, groupID uuid.UUID, afterGroupID *uuid.UUID) (*models.Group, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var boardID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT board_id FROM board_groups WHERE id = $1`, groupID).Scan(&boardID); err != nil {
		return nil, fmt.Errorf("group: %w", ErrNotFound)
	}

	newIndex, err := orderIndexAfter(ctx, tx, boardID, afterGroupID)
	if err != nil {
		return nil, err
	}

	var g models.Group
	err = tx.QueryRow(ctx, `
		UPDATE board_groups SET order_index = $1 WHERE id = $2
		RETURNING id, board_id, name, order_index, created_at
	`, newIndex, groupID).Scan(&g.ID, &g.BoardID, &g.Name, &g.OrderIndex, &g.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &g, nil
}

func orderIndexAfter(ctx context.Context, tx pgx.Tx, boardID uuid.UUID, afterGroupID *uuid.UUID) (float64, error) {
	if afterGroupID == nil {
		var min float64
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MIN(order_index), 0) FROM board_groups WHERE board_id = $1
		`, boardID).Scan(&min); err != nil {
			return 0, err
		}
		return min - 1, nil
	}

	var after float64
	if err := tx.QueryRow(ctx, `
		SELECT order_index FROM board_groups WHERE id = $1 AND board_id = $2
	`, *afterGroupID, boardID).Scan(&after); err != nil {
		return 0, fmt.Errorf("after group: %w", ErrInvalidReference)
	}

	var next *float64
	if err := tx.QueryRow(ctx, `
		SELECT MIN(order_index) FROM board_groups WHERE board_id = $1 AND order_index > $2
	`, boardID, after).Scan(&next); err != nil {
		return 0, err
	}
	if next == nil {
		return after + 1, nil
	}
	return (after + *next) / 2, nil
}

// DeleteGroup removes the group and, by cascade, its items.
func (s *BoardService) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM board_groups WHERE id = $1`, groupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("group: %w", ErrNotFound)
	}
	return nil
}

const itemColumns = `id, board_id, group_id, name, status_label_id, status, due_date,
		is_voicemail, needs_attention, order_index, archived_at, created_at, updated_at`

func scanItemRow(row pgx.Row) (*models.Item, error) {
	var it models.Item
	err := row.Scan(
		&it.ID, &it.BoardID, &it.GroupID, &it.Name, &it.StatusLabelID, &it.Status,
		&it.DueDate, &it.IsVoicemail, &it.NeedsAttention, &it.OrderIndex,
		&it.ArchivedAt, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item: %w", ErrNotFound)
		}
		return nil, err
	}
	return &it, nil
}

// View materializes the board snapshot inside a repeatable-read transaction
// so every aggregate reflects the same logical instant. Side aggregates
// degrade gracefully: on failure the snapshot is still returned with the
// aggregate listed in AggregatesUnavailable.
func (s *BoardService) View(ctx context.Context, boardID uuid.UUID, search string) (*BoardView, error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	board, err := scanBoard(tx.QueryRow(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = $1`, boardID))
	if err != nil {
		return nil, err
	}

	view := &BoardView{
		Board:              board,
		Groups:             []models.Group{},
		ItemsByGroup:       map[uuid.UUID][]models.Item{},
		AssigneesByItem:    map[uuid.UUID][]models.Assignee{},
		UpdateCountsByItem: map[uuid.UUID]int{},
		TimeTotalsByItem:   map[uuid.UUID]TimeTotal{},
	}

	groupRows, err := tx.Query(ctx, `
		SELECT id, board_id, name, order_index, created_at
		FROM board_groups WHERE board_id = $1
		ORDER BY order_index, created_at, id
	`, boardID)
	if err != nil {
		return nil, err
	}
	for groupRows.Next() {
		var g models.Group
		if err := groupRows.Scan(&g.ID, &g.BoardID, &g.Name, &g.OrderIndex, &g.CreatedAt); err != nil {
			groupRows.Close()
			return nil, err
		}
		view.Groups = append(view.Groups, g)
		view.ItemsByGroup[g.ID] = []models.Item{}
	}
	groupRows.Close()

	// Search filters the projection only; persisted order is untouched.
	itemRows, err := tx.Query(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE board_id = $1 AND archived_at IS NULL
			AND ($2 = '' OR POSITION(LOWER($2) IN LOWER(name)) > 0)
		ORDER BY order_index, created_at, id
	`, boardID, search)
	if err != nil {
		return nil, err
	}
	var itemIDs []uuid.UUID
	for itemRows.Next() {
		it, err := scanItemRow(itemRows)
		if err != nil {
			itemRows.Close()
			return nil, err
		}
		view.ItemsByGroup[it.GroupID] = append(view.ItemsByGroup[it.GroupID], *it)
		itemIDs = append(itemIDs, it.ID)
	}
	itemRows.Close()

	if len(itemIDs) > 0 {
		assigneeRows, err := tx.Query(ctx, `
			SELECT a.item_id, a.user_id, a.assigned_at,
			       u.id, u.email, u.name, u.handle, u.avatar_url, u.created_at, u.updated_at
			FROM item_assignees a
			JOIN users u ON a.user_id = u.id
			WHERE a.item_id = ANY($1)
			ORDER BY a.assigned_at
		`, itemIDs)
		if err != nil {
			return nil, err
		}
		for assigneeRows.Next() {
			var a models.Assignee
			var u models.User
			if err := assigneeRows.Scan(
				&a.ItemID, &a.UserID, &a.AssignedAt,
				&u.ID, &u.Email, &u.Name, &u.Handle, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
			); err != nil {
				assigneeRows.Close()
				return nil, err
			}
			a.User = &u
			view.AssigneesByItem[a.ItemID] = append(view.AssigneesByItem[a.ItemID], a)
		}
		assigneeRows.Close()

		if err := s.loadUpdateCounts(ctx, tx, itemIDs, view); err != nil {
			log.Printf("board view %s: update counts unavailable: %v", boardID, err)
			view.UpdateCountsByItem = nil
			view.AggregatesUnavailable = append(view.AggregatesUnavailable, "update_counts_by_item")
		}
		if err := s.loadTimeTotals(ctx, tx, itemIDs, view); err != nil {
			log.Printf("board view %s: time totals unavailable: %v", boardID, err)
			view.TimeTotalsByItem = nil
			view.AggregatesUnavailable = append(view.AggregatesUnavailable, "time_totals_by_item")
		}
	}

	catalog, err := s.catalogInTx(ctx, tx, boardID)
	if err != nil {
		return nil, err
	}
	view.LabelCatalog = catalog

	memberRows, err := tx.Query(ctx, `
		SELECT wm.id, wm.workspace_id, wm.user_id, wm.role, wm.created_at,
		       u.id, u.email, u.name, u.handle, u.avatar_url, u.created_at, u.updated_at
		FROM workspace_members wm
		JOIN users u ON wm.user_id = u.id
		WHERE wm.workspace_id = $1
		ORDER BY wm.created_at
	`, board.WorkspaceID)
	if err != nil {
		return nil, err
	}
	for memberRows.Next() {
		var m models.WorkspaceMember
		var u models.User
		if err := memberRows.Scan(
			&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt,
			&u.ID, &u.Email, &u.Name, &u.Handle, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			memberRows.Close()
			return nil, err
		}
		m.User = &u
		view.WorkspaceMembers = append(view.WorkspaceMembers, m)
	}
	memberRows.Close()

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return view, nil
}

func (s *BoardService) loadUpdateCounts(ctx context.Context, tx pgx.Tx, itemIDs []uuid.UUID, view *BoardView) error {
	rows, err := tx.Query(ctx, `
		SELECT item_id, COUNT(*) FROM item_updates WHERE item_id = ANY($1) GROUP BY item_id
	`, itemIDs)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return err
		}
		view.UpdateCountsByItem[id] = count
	}
	return rows.Err()
}

func (s *BoardService) loadTimeTotals(ctx context.Context, tx pgx.Tx, itemIDs []uuid.UUID, view *BoardView) error {
	rows, err := tx.Query(ctx, `
		SELECT item_id, COALESCE(SUM(minutes), 0), COALESCE(SUM(billable_minutes), 0)
		FROM time_entries WHERE item_id = ANY($1) GROUP BY item_id
	`, itemIDs)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var total TimeTotal
		if err := rows.Scan(&id, &total.Minutes, &total.BillableMinutes); err != nil {
			return err
		}
		view.TimeTotalsByItem[id] = total
	}
	return rows.Err()
}

func (s *BoardService) catalogInTx(ctx context.Context, tx pgx.Tx, boardID uuid.UUID) ([]models.StatusLabel, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+labelColumns+` FROM status_labels
		WHERE archived = FALSE AND (scope = 'global' OR board_id = $1)
		ORDER BY scope DESC, order_index, created_at
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []models.StatusLabel
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		labels = append(labels, *l)
	}
	return labels, nil
}

// MyWorkBoard groups a caller's assigned items under their board.
type MyWorkBoard struct {
	Board models.Board  `json:"board"`
	Items []models.Item `json:"items"`
}

// MyWork returns the caller's assigned, non-archived items grouped by board.
func (s *BoardService) MyWork(ctx context.Context, userID uuid.UUID) ([]MyWorkBoard, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT b.id, b.workspace_id, b.name, b.description, b.archived_at, b.created_at, b.updated_at,
		       i.id, i.board_id, i.group_id, i.name, i.status_label_id, i.status, i.due_date,
		       i.is_voicemail, i.needs_attention, i.order_index, i.archived_at, i.created_at, i.updated_at
		FROM item_assignees a
		JOIN items i ON a.item_id = i.id AND i.archived_at IS NULL
		JOIN boards b ON i.board_id = b.id
		WHERE a.user_id = $1
		ORDER BY b.created_at, i.order_index, i.created_at, i.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MyWorkBoard
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var b models.Board
		var it models.Item
		if err := rows.Scan(
			&b.ID, &b.WorkspaceID, &b.Name, &b.Description, &b.ArchivedAt, &b.CreatedAt, &b.UpdatedAt,
			&it.ID, &it.BoardID, &it.GroupID, &it.Name, &it.StatusLabelID, &it.Status, &it.DueDate,
			&it.IsVoicemail, &it.NeedsAttention, &it.OrderIndex, &it.ArchivedAt, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		i, ok := index[b.ID]
		if !ok {
			i = len(result)
			index[b.ID] = i
			result = append(result, MyWorkBoard{Board: b})
		}
		result[i].Items = append(result[i].Items, it)
	}
	return result, nil
}
