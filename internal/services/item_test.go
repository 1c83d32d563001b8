package services

import (
	"context"
	"testing"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupItemService(t *testing.T) (*ItemService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewItemService(db, NewLabelService(db), NewWorkspaceService(db)), mock
}

func itemRows(id, boardID, groupID uuid.UUID, name, status string) *pgxmock.Rows {
	labelID := uuid.New()
	return pgxmock.NewRows([]string{
		"id", "board_id", "group_id", "name", "status_label_id", "status", "due_date",
		"is_voicemail", "needs_attention", "order_index", "archived_at", "created_at", "updated_at",
	}).AddRow(id, boardID, groupID, name, &labelID, status, (*time.Time)(nil),
		false, false, 0.0, (*time.Time)(nil), time.Now(), time.Now())
}

func TestItemService_GetByID(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()
	itemID := uuid.New()
	boardID := uuid.New()
	groupID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WithArgs(itemID).
		WillReturnRows(itemRows(itemID, boardID, groupID, "Fix login", "To Do"))

	item, err := svc.GetByID(ctx, itemID)

	require.NoError(t, err)
	assert.Equal(t, itemID, item.ID)
	assert.Equal(t, "Fix login", item.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()
	itemID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WithArgs(itemID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(ctx, itemID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemService_Create_UnknownGroup(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()
	groupID := uuid.New()

	mock.ExpectQuery(`SELECT board_id FROM board_groups`).
		WithArgs(groupID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Create(ctx, groupID, "New item", uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemService_Patch_BadDueDate(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()
	itemID := uuid.New()
	bad := "next tuesday"

	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WithArgs(itemID).
		WillReturnRows(itemRows(itemID, uuid.New(), uuid.New(), "Fix login", "To Do"))

	_, err := svc.Patch(ctx, itemID, ItemPatch{DueDate: &bad}, uuid.New())

	assert.ErrorIs(t, err, ErrInvariant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemService_Patch_EmitsEvent(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()
	itemID := uuid.New()
	boardID := uuid.New()
	groupID := uuid.New()
	actor := uuid.New()
	name := "Renamed"

	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WithArgs(itemID).
		WillReturnRows(itemRows(itemID, boardID, groupID, "Original", "To Do"))
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE items SET`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(itemRows(itemID, boardID, groupID, name, "To Do"))
	mock.ExpectCommit()

	var events []ChangeEvent
	svc.RegisterConsumer(consumerFunc(func(_ context.Context, ev ChangeEvent) {
		events = append(events, ev)
	}))

	item, err := svc.Patch(ctx, itemID, ItemPatch{Name: &name}, actor)

	require.NoError(t, err)
	assert.Equal(t, name, item.Name)
	require.Len(t, events, 1)
	assert.Equal(t, EventItemPatched, events[0].Kind)
	assert.Equal(t, "Original", events[0].Before.Name)
	assert.Equal(t, name, events[0].Item.Name)
	assert.Equal(t, actor, events[0].Actor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type consumerFunc func(ctx context.Context, ev ChangeEvent)

func (f consumerFunc) HandleChange(ctx context.Context, ev ChangeEvent) { f(ctx, ev) }

func TestItemService_AddAssignee_NonMemberRejected(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()
	itemID := uuid.New()
	boardID := uuid.New()
	workspaceID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WithArgs(itemID).
		WillReturnRows(itemRows(itemID, boardID, uuid.New(), "Fix login", "To Do"))
	mock.ExpectQuery(`SELECT workspace_id FROM boards`).
		WithArgs(boardID).
		WillReturnRows(pgxmock.NewRows([]string{"workspace_id"}).AddRow(workspaceID))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(workspaceID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.AddAssignee(ctx, itemID, userID)

	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemService_AddAssignee(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()
	itemID := uuid.New()
	boardID := uuid.New()
	workspaceID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WithArgs(itemID).
		WillReturnRows(itemRows(itemID, boardID, uuid.New(), "Fix login", "To Do"))
	mock.ExpectQuery(`SELECT workspace_id FROM boards`).
		WithArgs(boardID).
		WillReturnRows(pgxmock.NewRows([]string{"workspace_id"}).AddRow(workspaceID))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(workspaceID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO item_assignees`).
		WithArgs(itemID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"item_id", "user_id", "assigned_at"}).
			AddRow(itemID, userID, time.Now()))

	a, err := svc.AddAssignee(ctx, itemID, userID)

	require.NoError(t, err)
	assert.Equal(t, userID, a.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemService_GetSubitem(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()
	subitemID := uuid.New()
	itemID := uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "item_id", "name", "status", "order_index", "created_at",
	}).AddRow(subitemID, itemID, "Write tests", "todo", 0.0, time.Now())

	mock.ExpectQuery(`SELECT id, item_id, name, status, order_index, created_at\s+FROM subitems WHERE id`).
		WithArgs(subitemID).
		WillReturnRows(rows)

	sub, err := svc.GetSubitem(ctx, subitemID)

	require.NoError(t, err)
	assert.Equal(t, itemID, sub.ItemID)
	assert.Equal(t, "todo", sub.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemService_GetSubitem_NotFound(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id, item_id, name, status, order_index, created_at\s+FROM subitems WHERE id`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetSubitem(ctx, uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemService_PatchSubitem_InvalidStatus(t *testing.T) {
	svc, _ := setupItemService(t)
	ctx := context.Background()
	status := "half-done"

	_, err := svc.PatchSubitem(ctx, uuid.New(), nil, &status)

	assert.ErrorIs(t, err, ErrInvariant)
}

func TestItemService_PurgeArchived(t *testing.T) {
	svc, mock := setupItemService(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM items WHERE archived_at IS NOT NULL`).
		WithArgs((30 * 24 * time.Hour).String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := svc.PurgeArchived(ctx, 30*24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
