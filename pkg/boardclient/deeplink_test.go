package boardclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDeepLink_UnknownPane(t *testing.T) {
	client := New("http://localhost:0", "token", nil)

	link, err := client.ResolveDeepLink(context.Background(), "/tasks?pane=settings")
	require.NoError(t, err)
	assert.Equal(t, PaneHome, link.Pane)
	assert.Equal(t, "/tasks?pane=home", link.URL)
}

func TestResolveDeepLink_WorkspaceOnly(t *testing.T) {
	client := New("http://localhost:0", "token", nil)
	workspaceID := uuid.New()

	link, err := client.ResolveDeepLink(context.Background(), "/tasks?pane=boards&workspace="+workspaceID.String())
	require.NoError(t, err)
	assert.Equal(t, PaneBoards, link.Pane)
	require.NotNil(t, link.WorkspaceID)
	assert.Equal(t, workspaceID, *link.WorkspaceID)
	assert.Nil(t, link.BoardID)
}

func TestResolveDeepLink_BoardAndItem(t *testing.T) {
	view, item := testView()
	fake := &fakeServer{view: view}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := New(srv.URL, "token", nil)
	raw := "/tasks?pane=boards&board=" + view.Board.ID.String() + "&item=" + item.ID.String()

	link, err := client.ResolveDeepLink(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, link.BoardID)
	assert.Equal(t, view.Board.ID, *link.BoardID)
	require.NotNil(t, link.ItemID)
	assert.Equal(t, item.ID, *link.ItemID)

	// resolving also primes the local projection
	assert.NotNil(t, client.Local(view.Board.ID))
}

func TestResolveDeepLink_ItemNotInViewCleared(t *testing.T) {
	view, _ := testView()
	fake := &fakeServer{view: view}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := New(srv.URL, "token", nil)
	raw := "/tasks?pane=boards&board=" + view.Board.ID.String() + "&item=" + uuid.NewString()

	link, err := client.ResolveDeepLink(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, link.BoardID)
	assert.Nil(t, link.ItemID)
	assert.NotContains(t, link.URL, "item=")
}

func TestResolveDeepLink_BoardLoadFailureDropsBoardAndItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"kind":"NotFound","message":"board not found"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "token", nil)
	boardID := uuid.New()
	raw := "/tasks?pane=boards&board=" + boardID.String() + "&item=" + uuid.NewString()

	link, err := client.ResolveDeepLink(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, PaneBoards, link.Pane)
	assert.Nil(t, link.BoardID)
	assert.Nil(t, link.ItemID)

	rebuilt, err := url.Parse(link.URL)
	require.NoError(t, err)
	query := rebuilt.Query()
	assert.Equal(t, "boards", query.Get("pane"))
	assert.Empty(t, query.Get("board"))
	assert.Empty(t, query.Get("item"))
}

func TestResolveDeepLink_MalformedIDsCleared(t *testing.T) {
	client := New("http://localhost:0", "token", nil)

	link, err := client.ResolveDeepLink(context.Background(), "/tasks?pane=my-work&workspace=not-a-uuid&board=also-not")
	require.NoError(t, err)
	assert.Equal(t, PaneMyWork, link.Pane)
	assert.Nil(t, link.WorkspaceID)
	assert.Nil(t, link.BoardID)
	assert.Equal(t, "/tasks?pane=my-work", link.URL)
}
