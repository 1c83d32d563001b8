package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrCannotRemoveOwner = errors.New("cannot remove workspace owner")

type WorkspaceService struct {
	db *database.DB
}

func NewWorkspaceService(db *database.DB) *WorkspaceService {
	return &WorkspaceService{db: db}
}

func (s *WorkspaceService) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var workspace models.Workspace
	err = tx.QueryRow(ctx, `
		INSERT INTO workspaces (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, name).Scan(&workspace.ID, &workspace.Name, &workspace.CreatedAt, &workspace.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
	`, workspace.ID, ownerID, models.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &workspace, nil
}

func (s *WorkspaceService) GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	var workspace models.Workspace
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM workspaces WHERE id = $1
	`, workspaceID).Scan(&workspace.ID, &workspace.Name, &workspace.CreatedAt, &workspace.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("workspace: %w", ErrNotFound)
		}
		return nil, err
	}
	return &workspace, nil
}

func (s *WorkspaceService) GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT w.id, w.name, w.created_at, w.updated_at, wm.role
		FROM workspaces w
		JOIN workspace_members wm ON w.id = wm.workspace_id
		WHERE wm.user_id = $1
		ORDER BY w.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var workspaces []models.Workspace
	var roles []string
	for rows.Next() {
		var w models.Workspace
		var role string
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt, &w.UpdatedAt, &role); err != nil {
			return nil, nil, err
		}
		workspaces = append(workspaces, w)
		roles = append(roles, role)
	}
	return workspaces, roles, nil
}

func (s *WorkspaceService) IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM workspace_members WHERE workspace_id = $1 AND user_id = $2)
	`, workspaceID, userID).Scan(&exists)
	return exists, err
}

// MemberRole returns the caller's role in the workspace, or ErrForbidden when
// the caller is not a member.
func (s *WorkspaceService) MemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (string, error) {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("not a workspace member: %w", ErrForbidden)
		}
		return "", err
	}
	return role, nil
}

func (s *WorkspaceService) GetMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT wm.id, wm.workspace_id, wm.user_id, wm.role, wm.created_at,
		       u.id, u.email, u.name, u.handle, u.avatar_url, u.created_at, u.updated_at
		FROM workspace_members wm
		JOIN users u ON wm.user_id = u.id
		WHERE wm.workspace_id = $1
		ORDER BY wm.created_at
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.WorkspaceMember
	for rows.Next() {
		var member models.WorkspaceMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.WorkspaceID, &member.UserID, &member.Role, &member.CreatedAt,
			&user.ID, &user.Email, &user.Name, &user.Handle, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		member.User = &user
		members = append(members, member)
	}
	return members, nil
}

// AdminUserIDs returns members with role owner or admin.
func (s *WorkspaceService) AdminUserIDs(ctx context.Context, workspaceID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT user_id FROM workspace_members
		WHERE workspace_id = $1 AND role IN ('owner', 'admin')
		ORDER BY created_at
	`, workspaceID)
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

func (s *WorkspaceService) AddMember(ctx context.Context, workspaceID, userID uuid.UUID, role string) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO NOTHING
	`, workspaceID, userID, role)
	return err
}

func (s *WorkspaceService) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(&role)
	if err != nil {
		return fmt.Errorf("member: %w", ErrNotFound)
	}

	if role == models.RoleOwner {
		return fmt.Errorf("%w: %s", ErrInvariant, ErrCannotRemoveOwner)
	}

	_, err = s.db.Pool.Exec(ctx, `
		DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID)
	return err
}

// FindMemberByEmail resolves a mention handle against member emails
// (case-insensitive exact match).
func (s *WorkspaceService) FindMemberByEmail(ctx context.Context, workspaceID uuid.UUID, email string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.name, u.handle, u.avatar_url, u.created_at, u.updated_at
		FROM users u
		JOIN workspace_members wm ON wm.user_id = u.id
		WHERE wm.workspace_id = $1 AND LOWER(u.email) = LOWER($2)
	`, workspaceID, email))
}

// FindMemberByHandle resolves a mention handle against member display
// handles; tried only after email resolution fails.
func (s *WorkspaceService) FindMemberByHandle(ctx context.Context, workspaceID uuid.UUID, handle string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.name, u.handle, u.avatar_url, u.created_at, u.updated_at
		FROM users u
		JOIN workspace_members wm ON wm.user_id = u.id
		WHERE wm.workspace_id = $1 AND LOWER(u.handle) = LOWER($2)
	`, workspaceID, handle))
}
