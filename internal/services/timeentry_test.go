package services

import (
	"context"
	"testing"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTimeService(t *testing.T) (*TimeService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewTimeService(db), mock
}

func timeEntryRows(id, itemID uuid.UUID, userID *uuid.UUID, minutes, billableMinutes int, category string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "item_id", "user_id", "minutes", "billable_minutes", "work_category", "description", "created_at",
	}).AddRow(id, itemID, userID, minutes, billableMinutes, category, (*string)(nil), time.Now())
}

func TestTimeService_Create_Billable(t *testing.T) {
	svc, mock := setupTimeService(t)
	ctx := context.Background()
	itemID := uuid.New()
	userID := uuid.New()
	entryID := uuid.New()

	mock.ExpectQuery(`INSERT INTO time_entries`).
		WithArgs(itemID, &userID, 60, 60, "Web", (*string)(nil)).
		WillReturnRows(timeEntryRows(entryID, itemID, &userID, 60, 60, "Web"))

	entry, err := svc.Create(ctx, itemID, &userID, 60, true, "Web", nil)

	require.NoError(t, err)
	assert.Equal(t, 60, entry.Minutes)
	assert.Equal(t, 60, entry.BillableMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeService_Create_NonBillable(t *testing.T) {
	svc, mock := setupTimeService(t)
	ctx := context.Background()
	itemID := uuid.New()
	entryID := uuid.New()

	mock.ExpectQuery(`INSERT INTO time_entries`).
		WithArgs(itemID, (*uuid.UUID)(nil), 45, 0, "Support", (*string)(nil)).
		WillReturnRows(timeEntryRows(entryID, itemID, nil, 45, 0, "Support"))

	entry, err := svc.Create(ctx, itemID, nil, 45, false, "Support", nil)

	require.NoError(t, err)
	assert.Equal(t, 45, entry.Minutes)
	assert.Equal(t, 0, entry.BillableMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeService_Create_DefaultCategory(t *testing.T) {
	svc, mock := setupTimeService(t)
	ctx := context.Background()
	itemID := uuid.New()
	entryID := uuid.New()

	mock.ExpectQuery(`INSERT INTO time_entries`).
		WithArgs(itemID, (*uuid.UUID)(nil), 30, 0, DefaultWorkCategory, (*string)(nil)).
		WillReturnRows(timeEntryRows(entryID, itemID, nil, 30, 0, DefaultWorkCategory))

	entry, err := svc.Create(ctx, itemID, nil, 30, false, "", nil)

	require.NoError(t, err)
	assert.Equal(t, DefaultWorkCategory, entry.WorkCategory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeService_Create_NegativeMinutes(t *testing.T) {
	svc, _ := setupTimeService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), nil, -5, false, "Web", nil)

	assert.ErrorIs(t, err, ErrInvariant)
}

func TestTimeService_CreateSplit(t *testing.T) {
	svc, mock := setupTimeService(t)
	ctx := context.Background()
	itemID := uuid.New()
	entryID := uuid.New()

	mock.ExpectQuery(`INSERT INTO time_entries`).
		WithArgs(itemID, (*uuid.UUID)(nil), 90, 60, "Web", (*string)(nil)).
		WillReturnRows(timeEntryRows(entryID, itemID, nil, 90, 60, "Web"))

	entry, err := svc.CreateSplit(ctx, itemID, nil, 90, 60, "Web", nil)

	require.NoError(t, err)
	assert.Equal(t, 90, entry.Minutes)
	assert.Equal(t, 60, entry.BillableMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeService_CreateSplit_BillableExceedsTotal(t *testing.T) {
	svc, _ := setupTimeService(t)
	ctx := context.Background()

	_, err := svc.CreateSplit(ctx, uuid.New(), nil, 30, 45, "Web", nil)

	assert.ErrorIs(t, err, ErrInvariant)
}

func TestTimeService_CreateSplit_NegativeBillable(t *testing.T) {
	svc, _ := setupTimeService(t)
	ctx := context.Background()

	_, err := svc.CreateSplit(ctx, uuid.New(), nil, 30, -1, "Web", nil)

	assert.ErrorIs(t, err, ErrInvariant)
}

func TestTimeService_ListByItem(t *testing.T) {
	svc, mock := setupTimeService(t)
	ctx := context.Background()
	itemID := uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "item_id", "user_id", "minutes", "billable_minutes", "work_category", "description", "created_at",
	}).
		AddRow(uuid.New(), itemID, (*uuid.UUID)(nil), 60, 60, "Web", (*string)(nil), time.Now()).
		AddRow(uuid.New(), itemID, (*uuid.UUID)(nil), 30, 0, "Support", (*string)(nil), time.Now())

	mock.ExpectQuery(`SELECT .+ FROM time_entries`).
		WithArgs(itemID).
		WillReturnRows(rows)

	entries, err := svc.ListByItem(ctx, itemID)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Web", entries[0].WorkCategory)
	assert.Equal(t, 30, entries[1].Minutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
