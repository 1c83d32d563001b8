package handlers

import (
	"context"
	"strings"

	"github.com/anchorhub/anchorhub-api/internal/middleware"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/anchorhub/anchorhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type UpdateHandler struct {
	updateService    UpdateServiceInterface
	itemService      ItemServiceInterface
	boardService     BoardServiceInterface
	workspaceService WorkspaceServiceInterface
}

func NewUpdateHandler(
	updateService UpdateServiceInterface,
	itemService ItemServiceInterface,
	boardService BoardServiceInterface,
	workspaceService WorkspaceServiceInterface,
) *UpdateHandler {
	return &UpdateHandler{
		updateService:    updateService,
		itemService:      itemService,
		boardService:     boardService,
		workspaceService: workspaceService,
	}
}

func (h *UpdateHandler) itemRole(ctx context.Context, c *drift.Context, itemID, userID uuid.UUID) (string, bool) {
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

func (h *UpdateHandler) Post(c *drift.Context) {
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

	var req dto.PostUpdateRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		respondInvariant(c, "body is required")
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

	upd, err := h.updateService.Post(ctx, itemID, &userID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, upd)
}

func (h *UpdateHandler) List(c *drift.Context) {
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

	updates, err := h.updateService.List(ctx, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	if updates == nil {
		updates = []models.Update{}
	}
	_ = c.JSON(200, updates)
}

func (h *UpdateHandler) AddFile(c *drift.Context) {
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

	var req dto.AddFileRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}
	if req.FileName == "" || req.FileURL == "" {
		respondInvariant(c, "file_name and file_url are required")
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

	file, err := h.updateService.AddFile(ctx, itemID, req.FileName, req.FileURL, req.Mime, &userID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, file)
}

func (h *UpdateHandler) ListFiles(c *drift.Context) {
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

	files, err := h.updateService.ListFiles(ctx, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	if files == nil {
		files = []models.File{}
	}
	_ = c.JSON(200, files)
}
