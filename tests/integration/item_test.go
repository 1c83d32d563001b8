package integration

import (
	"context"
	"testing"

	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemService_Integration_PatchStatusCreatesLabel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.fixtures.CreateUser(t)
	ws := env.fixtures.CreateWorkspace(t, owner)
	board := env.fixtures.CreateBoard(t, ws)
	group := env.fixtures.CreateGroup(t, board)
	item := env.fixtures.CreateItem(t, board, group, "Fix login")

	status := "QA Review"
	patched, err := env.items.Patch(ctx, item.ID, services.ItemPatch{
		Status:          &status,
		CreateIfMissing: true,
		CanManageLabels: true,
	}, owner.ID)

	require.NoError(t, err)
	assert.Equal(t, "QA Review", patched.Status)
	require.NotNil(t, patched.StatusLabelID)

	// the new label joined the board catalog
	catalog, err := env.labels.Catalog(ctx, board.ID)
	require.NoError(t, err)
	found := false
	for _, label := range catalog {
		if label.Label == "QA Review" {
			found = true
			assert.Equal(t, "board", label.Scope)
		}
	}
	assert.True(t, found, "expected QA Review in the board catalog")
}

func TestItemService_Integration_PatchUnknownLabelWithoutManage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.fixtures.CreateUser(t)
	member := env.fixtures.CreateUser(t)
	ws := env.fixtures.CreateWorkspace(t, owner)
	env.fixtures.AddMember(t, ws, member, "member")
	board := env.fixtures.CreateBoard(t, ws)
	group := env.fixtures.CreateGroup(t, board)
	item := env.fixtures.CreateItem(t, board, group, "Fix login")

	status := "QA Review"
	_, err := env.items.Patch(ctx, item.ID, services.ItemPatch{
		Status:          &status,
		CreateIfMissing: true,
		CanManageLabels: false,
	}, member.ID)

	assert.ErrorIs(t, err, services.ErrInvariant)

	// the item is untouched
	reloaded, err := env.items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "To Do", reloaded.Status)
}

func TestItemService_Integration_ReorderAfterItem(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.fixtures.CreateUser(t)
	ws := env.fixtures.CreateWorkspace(t, owner)
	board := env.fixtures.CreateBoard(t, ws)
	group := env.fixtures.CreateGroup(t, board)

	first := env.fixtures.CreateItem(t, board, group, "First")
	second := env.fixtures.CreateItem(t, board, group, "Second")
	third := env.fixtures.CreateItem(t, board, group, "Third")

	// move Third directly after First
	_, err := env.items.Patch(ctx, third.ID, services.ItemPatch{AfterItemID: &first.ID}, owner.ID)
	require.NoError(t, err)

	view, err := env.boards.View(ctx, board.ID, "")
	require.NoError(t, err)
	items := view.ItemsByGroup[group.ID]
	require.Len(t, items, 3)
	assert.Equal(t, []uuid.UUID{first.ID, third.ID, second.ID},
		[]uuid.UUID{items[0].ID, items[1].ID, items[2].ID})
}

func TestItemService_Integration_MoveAcrossGroups(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.fixtures.CreateUser(t)
	ws := env.fixtures.CreateWorkspace(t, owner)
	board := env.fixtures.CreateBoard(t, ws)
	inbox := env.fixtures.CreateGroup(t, board)
	done := env.fixtures.CreateGroup(t, board)

	item := env.fixtures.CreateItem(t, board, inbox, "Fix login")
	existing := env.fixtures.CreateItem(t, board, done, "Shipped")

	moved, err := env.items.Patch(ctx, item.ID, services.ItemPatch{GroupID: &done.ID, AfterItemID: &existing.ID}, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, moved.GroupID)

	view, err := env.boards.View(ctx, board.ID, "")
	require.NoError(t, err)
	assert.Empty(t, view.ItemsByGroup[inbox.ID])

	target := view.ItemsByGroup[done.ID]
	require.Len(t, target, 2)
	assert.Equal(t, existing.ID, target[0].ID)
	assert.Equal(t, item.ID, target[1].ID)
}
