package integration

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutomationService_Integration_NotifyAdminsOnStatusChange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	sink := &countingSink{}
	env := newTestEnv(t, sink)
	ctx := context.Background()

	owner := env.fixtures.CreateUser(t)
	member := env.fixtures.CreateUser(t)
	ws := env.fixtures.CreateWorkspace(t, owner)
	env.fixtures.AddMember(t, ws, member, "member")
	board := env.fixtures.CreateBoard(t, ws)
	group := env.fixtures.CreateGroup(t, board)
	item := env.fixtures.CreateItem(t, board, group, "Fix login")

	rule, err := env.automations.Create(ctx, board.ID, "Done alert",
		models.TriggerStatusChange, json.RawMessage(`{"to_status":"Done"}`),
		nil, models.ActionNotifyAdmins, json.RawMessage(`{}`))
	require.NoError(t, err)

	status := "Done"
	_, err = env.items.Patch(ctx, item.ID, services.ItemPatch{Status: &status}, member.ID)
	require.NoError(t, err)

	// the owner is the only admin, so exactly one notification lands
	notifications, err := env.notifications.List(ctx, owner.ID, true)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Fix login", notifications[0].Title)
	assert.Contains(t, notifications[0].Body, "Done alert")

	logs, err := env.automations.Logs(ctx, rule.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.OutcomeDelivered, logs[0].Outcome)
	assert.Equal(t, "notified 1 users", logs[0].Detail)

	// the member's own edit generates nothing for them
	memberNotifications, err := env.notifications.List(ctx, member.ID, true)
	require.NoError(t, err)
	assert.Empty(t, memberNotifications)
}

func TestAutomationService_Integration_NonMatchingStatusIgnored(t *testing.T) {
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

	rule, err := env.automations.Create(ctx, board.ID, "Done alert",
		models.TriggerStatusChange, json.RawMessage(`{"to_status":"Done"}`),
		nil, models.ActionNotifyAdmins, json.RawMessage(`{}`))
	require.NoError(t, err)

	status := "Stuck"
	_, err = env.items.Patch(ctx, item.ID, services.ItemPatch{Status: &status}, owner.ID)
	require.NoError(t, err)

	logs, err := env.automations.Logs(ctx, rule.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAutomationService_Integration_SetFieldRecursionGuard(t *testing.T) {
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

	// any status change forces the item to Stuck; the resulting patch is
	// itself a status change, which must not re-fire the rule
	rule, err := env.automations.Create(ctx, board.ID, "Force stuck",
		models.TriggerStatusChange, json.RawMessage(`{}`),
		nil, models.ActionSetField, json.RawMessage(`{"field":"status","value":"Stuck"}`))
	require.NoError(t, err)

	status := "Done"
	_, err = env.items.Patch(ctx, item.ID, services.ItemPatch{Status: &status}, owner.ID)
	require.NoError(t, err)

	reloaded, err := env.items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stuck", reloaded.Status)

	logs, err := env.automations.Logs(ctx, rule.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	outcomes := map[string]string{}
	for _, entry := range logs {
		outcomes[entry.Outcome] = entry.Detail
	}
	assert.Equal(t, "set status=Stuck", outcomes[models.OutcomeDelivered])
	assert.Equal(t, "recursion guard", outcomes[models.OutcomeSkipped])
}

func TestAutomationService_Integration_MentionTriggerPostsUpdate(t *testing.T) {
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

	rule, err := env.automations.Create(ctx, board.ID, "Ack mentions",
		models.TriggerUpdateMention, json.RawMessage(`{}`),
		nil, models.ActionPostUpdate, json.RawMessage(`{"body":"{actor} pinged someone on {item.name}"}`))
	require.NoError(t, err)

	_, err = env.updates.Post(ctx, item.ID, &owner.ID, "over to you @user1")
	require.NoError(t, err)

	updates, err := env.updates.List(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Nil(t, updates[1].AuthorUserID)
	assert.Equal(t, owner.Name+" pinged someone on Fix login", updates[1].Body)

	logs, err := env.automations.Logs(ctx, rule.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.OutcomeDelivered, logs[0].Outcome)
}
