package handlers

import (
	"context"

	"github.com/anchorhub/anchorhub-api/internal/middleware"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/anchorhub/anchorhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TimeEntryHandler struct {
	timeService      TimeServiceInterface
	itemService      ItemServiceInterface
	boardService     BoardServiceInterface
	workspaceService WorkspaceServiceInterface
}

func NewTimeEntryHandler(
	timeService TimeServiceInterface,
	itemService ItemServiceInterface,
	boardService BoardServiceInterface,
	workspaceService WorkspaceServiceInterface,
) *TimeEntryHandler {
	return &TimeEntryHandler{
		timeService:      timeService,
		itemService:      itemService,
		boardService:     boardService,
		workspaceService: workspaceService,
	}
}

func (h *TimeEntryHandler) itemRole(ctx context.Context, c *drift.Context, itemID, userID uuid.UUID) (string, bool) {
	item, err := h.itemService.GetByID(ctx, itemID)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	board, err := h.boardService.GetByID(ctx, item.BoardID)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	role, err := h.workspaceService.MemberRole(ctx, board.WorkspaceID, userID)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return role, true
}

func (h *TimeEntryHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		respondInvariant(c, "invalid item id")
		return
	}

	var req dto.CreateTimeEntryRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	role, ok := h.itemRole(ctx, c, itemID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	var entry *models.TimeEntry
	if req.BillableMinutes != nil {
		entry, err = h.timeService.CreateSplit(ctx, itemID, &userID, req.Minutes, *req.BillableMinutes, req.WorkCategory, req.Description)
	} else {
		entry, err = h.timeService.Create(ctx, itemID, &userID, req.Minutes, req.Billable, req.WorkCategory, req.Description)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, entry)
}

func (h *TimeEntryHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		respondInvariant(c, "invalid item id")
		return
	}

	ctx := c.Request.Context()
	if _, ok := h.itemRole(ctx, c, itemID, userID); !ok {
		return
	}

	entries, err := h.timeService.ListByItem(ctx, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []models.TimeEntry{}
	}
	_ = c.JSON(200, entries)
}
