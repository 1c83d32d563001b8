package boardclient

import (
	"context"
	"net/url"

	"github.com/google/uuid"
)

const (
	PaneHome        = "home"
	PaneBoards      = "boards"
	PaneMyWork      = "my-work"
	PaneAutomations = "automations"
	PaneReports     = "reports"
)

var knownPanes = map[string]bool{
	PaneHome:        true,
	PaneBoards:      true,
	PaneMyWork:      true,
	PaneAutomations: true,
	PaneReports:     true,
}

// DeepLink is a resolved navigation target. Parameters that did not resolve
// are cleared rather than reported as errors.
type DeepLink struct {
	Pane        string
	WorkspaceID *uuid.UUID
	BoardID     *uuid.UUID
	ItemID      *uuid.UUID

	// URL is the corrected link with unresolvable parameters removed.
	URL string
}

// ResolveDeepLink parses a /tasks?pane=&workspace=&board=&item= link, loads
// the referenced board and verifies the item exists in the loaded view.
// Unknown panes fall back to home; a board or item that cannot be resolved
// is silently dropped from the returned link.
func (c *Client) ResolveDeepLink(ctx context.Context, rawURL string) (*DeepLink, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	query := parsed.Query()

	link := &DeepLink{Pane: query.Get("pane")}
	if !knownPanes[link.Pane] {
		link.Pane = PaneHome
	}

	if raw := query.Get("workspace"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			link.WorkspaceID = &id
		}
	}

	if raw := query.Get("board"); raw != "" {
		if boardID, err := uuid.Parse(raw); err == nil {
			if view, err := c.LoadBoard(ctx, boardID); err == nil {
				link.BoardID = &boardID

				if rawItem := query.Get("item"); rawItem != "" {
					if itemID, err := uuid.Parse(rawItem); err == nil {
						if item, _ := view.findItem(itemID); item != nil {
							link.ItemID = &itemID
						}
					}
				}
			}
		}
	}

	rebuilt := url.Values{}
	rebuilt.Set("pane", link.Pane)
	if link.WorkspaceID != nil {
		rebuilt.Set("workspace", link.WorkspaceID.String())
	}
	if link.BoardID != nil {
		rebuilt.Set("board", link.BoardID.String())
	}
	if link.ItemID != nil {
		rebuilt.Set("item", link.ItemID.String())
	}
	parsed.RawQuery = rebuilt.Encode()
	link.URL = parsed.String()

	return link, nil
}
