package services

import (
	"context"
	"testing"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWorkspaceService(t *testing.T) (*WorkspaceService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewWorkspaceService(db), mock
}

func TestWorkspaceService_Create(t *testing.T) {
	svc, mock := setupWorkspaceService(t)
	ctx := context.Background()
	workspaceID := uuid.New()
	ownerID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO workspaces`).
		WithArgs("Acme").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(workspaceID, "Acme", now, now))
	mock.ExpectExec(`INSERT INTO workspace_members`).
		WithArgs(workspaceID, ownerID, models.RoleOwner).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ws, err := svc.Create(ctx, "Acme", ownerID)

	require.NoError(t, err)
	assert.Equal(t, workspaceID, ws.ID)
	assert.Equal(t, "Acme", ws.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_MemberRole(t *testing.T) {
	svc, mock := setupWorkspaceService(t)
	ctx := context.Background()
	workspaceID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT role FROM workspace_members`).
		WithArgs(workspaceID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(models.RoleMember))

	role, err := svc.MemberRole(ctx, workspaceID, userID)

	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_MemberRole_NotAMember(t *testing.T) {
	svc, mock := setupWorkspaceService(t)
	ctx := context.Background()
	workspaceID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT role FROM workspace_members`).
		WithArgs(workspaceID, userID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.MemberRole(ctx, workspaceID, userID)

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_RemoveMember_OwnerRejected(t *testing.T) {
	svc, mock := setupWorkspaceService(t)
	ctx := context.Background()
	workspaceID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT role FROM workspace_members`).
		WithArgs(workspaceID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(models.RoleOwner))

	err := svc.RemoveMember(ctx, workspaceID, userID)

	assert.ErrorIs(t, err, ErrInvariant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_RemoveMember(t *testing.T) {
	svc, mock := setupWorkspaceService(t)
	ctx := context.Background()
	workspaceID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT role FROM workspace_members`).
		WithArgs(workspaceID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(models.RoleMember))
	mock.ExpectExec(`DELETE FROM workspace_members`).
		WithArgs(workspaceID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := svc.RemoveMember(ctx, workspaceID, userID)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_AdminUserIDs(t *testing.T) {
	svc, mock := setupWorkspaceService(t)
	ctx := context.Background()
	workspaceID := uuid.New()
	ownerID := uuid.New()
	adminID := uuid.New()

	mock.ExpectQuery(`SELECT user_id FROM workspace_members`).
		WithArgs(workspaceID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(ownerID).AddRow(adminID))

	ids, err := svc.AdminUserIDs(ctx, workspaceID)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ownerID, adminID}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
