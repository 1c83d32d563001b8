package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	handle := fmt.Sprintf("user%d", f.counter)
	user := &models.User{
		Email:  fmt.Sprintf("user%d@example.com", f.counter),
		Name:   fmt.Sprintf("Test User %d", f.counter),
		Handle: &handle,
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, handle, avatar_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, handle, avatar_url, created_at, updated_at
	`, user.Email, user.Name, user.Handle, user.AvatarURL).Scan(
		&user.ID, &user.Email, &user.Name, &user.Handle, &user.AvatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithHandle sets the user's mention handle
func WithHandle(handle string) UserOption {
	return func(u *models.User) {
		u.Handle = &handle
	}
}

// CreateWorkspace creates a workspace owned by the given user
func (f *Fixtures) CreateWorkspace(t *testing.T, owner *models.User) *models.Workspace {
	t.Helper()
	f.counter++

	ws := &models.Workspace{Name: fmt.Sprintf("Test Workspace %d", f.counter)}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO workspaces (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, ws.Name).Scan(&ws.ID, &ws.Name, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
	`, ws.ID, owner.ID, models.RoleOwner)
	if err != nil {
		t.Fatalf("failed to add owner as member: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return ws
}

// AddMember adds a member to a workspace with the given role
func (f *Fixtures) AddMember(t *testing.T, ws *models.Workspace, user *models.User, role string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO NOTHING
	`, ws.ID, user.ID, role)
	if err != nil {
		t.Fatalf("failed to add workspace member: %v", err)
	}
}

// CreateBoard creates a board in a workspace
func (f *Fixtures) CreateBoard(t *testing.T, ws *models.Workspace) *models.Board {
	t.Helper()
	f.counter++

	board := &models.Board{
		WorkspaceID: ws.ID,
		Name:        fmt.Sprintf("Test Board %d", f.counter),
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO boards (workspace_id, name, description)
		VALUES ($1, $2, '')
		RETURNING id, workspace_id, name, description, archived_at, created_at, updated_at
	`, board.WorkspaceID, board.Name).Scan(
		&board.ID, &board.WorkspaceID, &board.Name, &board.Description,
		&board.ArchivedAt, &board.CreatedAt, &board.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create board: %v", err)
	}

	return board
}

// CreateGroup creates a group on a board
func (f *Fixtures) CreateGroup(t *testing.T, board *models.Board) *models.Group {
	t.Helper()
	f.counter++

	group := &models.Group{
		BoardID: board.ID,
		Name:    fmt.Sprintf("Test Group %d", f.counter),
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO board_groups (board_id, name, order_index)
		VALUES ($1, $2, (SELECT COALESCE(MAX(order_index), -1) + 1 FROM board_groups WHERE board_id = $1))
		RETURNING id, board_id, name, order_index, created_at
	`, group.BoardID, group.Name).Scan(
		&group.ID, &group.BoardID, &group.Name, &group.OrderIndex, &group.CreatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	return group
}

// CreateItem creates an item in a group with the default label
func (f *Fixtures) CreateItem(t *testing.T, board *models.Board, group *models.Group, name string) *models.Item {
	t.Helper()

	ctx := context.Background()

	var labelID uuid.UUID
	err := f.db.Pool.QueryRow(ctx, `
		SELECT id FROM status_labels WHERE scope = 'global' AND label = 'To Do'
	`).Scan(&labelID)
	if err != nil {
		t.Fatalf("default label missing: %v", err)
	}

	item := &models.Item{}
	err = f.db.Pool.QueryRow(ctx, `
		INSERT INTO items (board_id, group_id, name, status_label_id, status, order_index)
		VALUES ($1, $2, $3, $4, 'To Do',
			(SELECT COALESCE(MAX(order_index), -1) + 1 FROM items WHERE group_id = $2))
		RETURNING id, board_id, group_id, name, status_label_id, status, due_date,
			is_voicemail, needs_attention, order_index, archived_at, created_at, updated_at
	`, board.ID, group.ID, name, labelID).Scan(
		&item.ID, &item.BoardID, &item.GroupID, &item.Name, &item.StatusLabelID,
		&item.Status, &item.DueDate, &item.IsVoicemail, &item.NeedsAttention,
		&item.OrderIndex, &item.ArchivedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	return item
}
