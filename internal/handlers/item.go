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

type ItemHandler struct {
	itemService      ItemServiceInterface
	boardService     BoardServiceInterface
	workspaceService WorkspaceServiceInterface
}

func NewItemHandler(
	itemService ItemServiceInterface,
	boardService BoardServiceInterface,
	workspaceService WorkspaceServiceInterface,
) *ItemHandler {
	return &ItemHandler{
		itemService:      itemService,
		boardService:     boardService,
		workspaceService: workspaceService,
	}
}

// itemRole loads the item and the caller's role in the owning workspace,
// writing the error response itself when the chain fails.
func (h *ItemHandler) itemRole(ctx context.Context, c *drift.Context, itemID, userID uuid.UUID) (*models.Item, string, bool) {
	item, err := h.itemService.GetByID(ctx, itemID)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	board, err := h.boardService.GetByID(ctx, item.BoardID)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	role, err := h.workspaceService.MemberRole(ctx, board.WorkspaceID, userID)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	return item, role, true
}

func (h *ItemHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		respondInvariant(c, "invalid group id")
		return
	}

	var req dto.CreateItemRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}
	if req.Name == "" {
		respondInvariant(c, "name is required")
		return
	}

	ctx := c.Request.Context()

	group, err := h.boardService.GetGroup(ctx, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	board, err := h.boardService.GetByID(ctx, group.BoardID)
	if err != nil {
		respondError(c, err)
		return
	}
	role, err := h.workspaceService.MemberRole(ctx, board.WorkspaceID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	item, err := h.itemService.Create(ctx, groupID, req.Name, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, item)
}

func (h *ItemHandler) Patch(c *drift.Context) {
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

	var req dto.PatchItemRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.itemRole(ctx, c, itemID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	item, err := h.itemService.Patch(ctx, itemID, services.ItemPatch{
		Name:            req.Name,
		Status:          req.Status,
		DueDate:         req.DueDate,
		NeedsAttention:  req.NeedsAttention,
		IsVoicemail:     req.IsVoicemail,
		GroupID:         req.GroupID,
		AfterItemID:     req.AfterItemID,
		CreateIfMissing: req.CreateIfMissing,
		CanManageLabels: models.CanManage(role),
	}, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, item)
}

func (h *ItemHandler) Archive(c *drift.Context) {
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
	_, role, ok := h.itemRole(ctx, c, itemID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	item, err := h.itemService.Archive(ctx, itemID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, item)
}

func (h *ItemHandler) Delete(c *drift.Context) {
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
	_, role, ok := h.itemRole(ctx, c, itemID, userID)
	if !ok {
		return
	}
	if !models.CanManage(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	if err := h.itemService.HardDelete(ctx, itemID); err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, map[string]string{"message": "item deleted"})
}

func (h *ItemHandler) CreateSubitem(c *drift.Context) {
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

	var req dto.CreateSubitemRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}
	if req.Name == "" {
		respondInvariant(c, "name is required")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.itemRole(ctx, c, itemID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	sub, err := h.itemService.CreateSubitem(ctx, itemID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, sub)
}

func (h *ItemHandler) ListSubitems(c *drift.Context) {
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
	if _, _, ok := h.itemRole(ctx, c, itemID, userID); !ok {
		return
	}

	subs, err := h.itemService.ListSubitems(ctx, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	if subs == nil {
		subs = []models.Subitem{}
	}
	_ = c.JSON(200, subs)
}

func (h *ItemHandler) PatchSubitem(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	subitemID, err := uuid.Parse(c.Param("subitemId"))
	if err != nil {
		respondInvariant(c, "invalid subitem id")
		return
	}

	var req dto.PatchSubitemRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	existing, err := h.itemService.GetSubitem(ctx, subitemID)
	if err != nil {
		respondError(c, err)
		return
	}
	_, role, ok := h.itemRole(ctx, c, existing.ItemID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	sub, err := h.itemService.PatchSubitem(ctx, subitemID, req.Name, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, sub)
}

func (h *ItemHandler) DeleteSubitem(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	subitemID, err := uuid.Parse(c.Param("subitemId"))
	if err != nil {
		respondInvariant(c, "invalid subitem id")
		return
	}

	ctx := c.Request.Context()
	existing, err := h.itemService.GetSubitem(ctx, subitemID)
	if err != nil {
		respondError(c, err)
		return
	}
	_, role, ok := h.itemRole(ctx, c, existing.ItemID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	if err := h.itemService.DeleteSubitem(ctx, subitemID); err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, map[string]string{"message": "subitem deleted"})
}

func (h *ItemHandler) AddAssignee(c *drift.Context) {
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

	var req dto.AddAssigneeRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		respondInvariant(c, "user_id is required")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.itemRole(ctx, c, itemID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	assignee, err := h.itemService.AddAssignee(ctx, itemID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, assignee)
}

func (h *ItemHandler) RemoveAssignee(c *drift.Context) {
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
	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondInvariant(c, "invalid user id")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.itemRole(ctx, c, itemID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	if err := h.itemService.RemoveAssignee(ctx, itemID, targetID); err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, map[string]string{"message": "assignee removed"})
}

func (h *ItemHandler) ListAssignees(c *drift.Context) {
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
	if _, _, ok := h.itemRole(ctx, c, itemID, userID); !ok {
		return
	}

	assignees, err := h.itemService.ListAssignees(ctx, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	if assignees == nil {
		assignees = []models.Assignee{}
	}
	_ = c.JSON(200, assignees)
}
