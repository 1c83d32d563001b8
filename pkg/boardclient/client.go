package boardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Error is the decoded server error envelope.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ItemPatch is a partial item edit. Nil fields stay untouched; an empty
// DueDate string clears the date.
type ItemPatch struct {
	Name           *string    `json:"name,omitempty"`
	Status         *string    `json:"status,omitempty"`
	DueDate        *string    `json:"due_date,omitempty"`
	NeedsAttention *bool      `json:"needs_attention,omitempty"`
	IsVoicemail    *bool      `json:"is_voicemail,omitempty"`
	GroupID        *uuid.UUID `json:"group_id,omitempty"`
	AfterItemID    *uuid.UUID `json:"after_item_id,omitempty"`
}

// fields names the item fields this patch touches, used to key pending
// writes for latest-wins supersession.
func (p ItemPatch) fields() []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, "name")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.DueDate != nil {
		fields = append(fields, "due_date")
	}
	if p.NeedsAttention != nil {
		fields = append(fields, "needs_attention")
	}
	if p.IsVoicemail != nil {
		fields = append(fields, "is_voicemail")
	}
	if p.GroupID != nil {
		fields = append(fields, "group_id")
	}
	return fields
}

type fieldKey struct {
	ItemID uuid.UUID
	Field  string
}

type boardState struct {
	authoritative *BoardView
	local         *BoardView

	// pending maps each in-flight (item, field) to the correlation id of the
	// latest patch touching it. Responses for superseded patches are
	// discarded.
	pending map[fieldKey]uuid.UUID
}

// Client keeps an optimistic local projection per board: user edits render
// immediately against the local snapshot while the write is in flight, and
// the server response (or a reload on failure) reconciles by item id.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	mu     sync.Mutex
	boards map[uuid.UUID]*boardState
}

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		boards:     map[uuid.UUID]*boardState{},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error Error `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Kind == "" {
			return &Error{Kind: "Internal", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
		}
		return &envelope.Error
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// LoadBoard fetches the authoritative view and resets the local projection
// to it. Pending patches for the board are dropped.
func (c *Client) LoadBoard(ctx context.Context, boardID uuid.UUID) (*BoardView, error) {
	var view BoardView
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/tasks/boards/%s/view", boardID), nil, &view); err != nil {
		return nil, err
	}
	if view.ItemsByGroup == nil {
		view.ItemsByGroup = map[uuid.UUID][]Item{}
	}

	c.mu.Lock()
	c.boards[boardID] = &boardState{
		authoritative: &view,
		local:         &view,
		pending:       map[fieldKey]uuid.UUID{},
	}
	c.mu.Unlock()
	return &view, nil
}

// Local returns the current local snapshot, or nil when the board was never
// loaded.
func (c *Client) Local(boardID uuid.UUID) *BoardView {
	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.boards[boardID]; ok {
		return state.local
	}
	return nil
}

// Authoritative returns the last server-confirmed snapshot.
func (c *Client) Authoritative(boardID uuid.UUID) *BoardView {
	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.boards[boardID]; ok {
		return state.authoritative
	}
	return nil
}

// PatchItem applies the patch to the local snapshot immediately, then issues
// the write. On success the server's item replaces the local one unless a
// later patch superseded this one on every touched field; on failure the
// board view is reloaded and the server's error kind is returned.
func (c *Client) PatchItem(ctx context.Context, boardID, itemID uuid.UUID, patch ItemPatch) (*Item, error) {
	correlation := uuid.New()
	fields := patch.fields()

	c.mu.Lock()
	state, ok := c.boards[boardID]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("board %s not loaded", boardID)
	}
	state.local = applyLocal(state.local, itemID, patch)
	for _, field := range fields {
		state.pending[fieldKey{ItemID: itemID, Field: field}] = correlation
	}
	c.mu.Unlock()

	var item Item
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/items/%s", itemID), patch, &item)
	if err != nil {
		// The optimistic projection is now suspect; reload from the server.
		if _, loadErr := c.LoadBoard(ctx, boardID); loadErr != nil {
			return nil, fmt.Errorf("patch failed (%w) and reload failed: %v", err, loadErr)
		}
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok = c.boards[boardID]
	if !ok {
		return &item, nil
	}

	superseded := true
	for _, field := range fields {
		key := fieldKey{ItemID: itemID, Field: field}
		if state.pending[key] == correlation {
			superseded = false
			delete(state.pending, key)
		}
	}
	if !superseded {
		state.authoritative = state.authoritative.replaceItem(item)
		state.local = state.local.replaceItem(item)
	}
	return &item, nil
}

// applyLocal computes the optimistic snapshot for a patch.
func applyLocal(view *BoardView, itemID uuid.UUID, patch ItemPatch) *BoardView {
	c := view.clone()
	item, groupID := c.findItem(itemID)
	if item == nil {
		return c
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	if patch.DueDate != nil {
		if *patch.DueDate == "" {
			item.DueDate = nil
		} else if d, err := time.Parse("2006-01-02", *patch.DueDate); err == nil {
			item.DueDate = &d
		}
	}
	if patch.NeedsAttention != nil {
		item.NeedsAttention = *patch.NeedsAttention
	}
	if patch.IsVoicemail != nil {
		item.IsVoicemail = *patch.IsVoicemail
	}
	if patch.GroupID != nil && *patch.GroupID != groupID {
		moved := *item
		moved.GroupID = *patch.GroupID
		return c.replaceItem(moved)
	}
	return c
}
