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

type BoardHandler struct {
	boardService     BoardServiceInterface
	workspaceService WorkspaceServiceInterface
	labelService     LabelServiceInterface
}

func NewBoardHandler(
	boardService BoardServiceInterface,
	workspaceService WorkspaceServiceInterface,
	labelService LabelServiceInterface,
) *BoardHandler {
	return &BoardHandler{
		boardService:     boardService,
		workspaceService: workspaceService,
		labelService:     labelService,
	}
}

// boardRole loads the board and the caller's role in its workspace, writing
// the error response itself when either fails.
func (h *BoardHandler) boardRole(ctx context.Context, c *drift.Context, boardID, userID uuid.UUID) (*models.Board, string, bool) {
	board, err := h.boardService.GetByID(ctx, boardID)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	role, err := h.workspaceService.MemberRole(ctx, board.WorkspaceID, userID)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	return board, role, true
}

func (h *BoardHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	workspaceID, err := uuid.Parse(c.QueryParam("workspace"))
	if err != nil {
		respondInvariant(c, "workspace query parameter is required")
		return
	}

	ctx := c.Request.Context()

	if _, err := h.workspaceService.MemberRole(ctx, workspaceID, userID); err != nil {
		respondError(c, err)
		return
	}

	boards, err := h.boardService.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}
	if boards == nil {
		boards = []models.Board{}
	}
	_ = c.JSON(200, boards)
}

func (h *BoardHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateBoardRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}
	if req.Name == "" {
		respondInvariant(c, "name is required")
		return
	}

	ctx := c.Request.Context()

	role, err := h.workspaceService.MemberRole(ctx, req.WorkspaceID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	board, err := h.boardService.Create(ctx, req.WorkspaceID, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, board)
}

func (h *BoardHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondInvariant(c, "invalid board id")
		return
	}

	ctx := c.Request.Context()
	board, _, ok := h.boardRole(ctx, c, boardID, userID)
	if !ok {
		return
	}
	_ = c.JSON(200, board)
}

func (h *BoardHandler) Update(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondInvariant(c, "invalid board id")
		return
	}

	var req dto.UpdateBoardRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.boardRole(ctx, c, boardID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	board, err := h.boardService.Update(ctx, boardID, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, board)
}

func (h *BoardHandler) Archive(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondInvariant(c, "invalid board id")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.boardRole(ctx, c, boardID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	board, err := h.boardService.Archive(ctx, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, board)
}

func (h *BoardHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondInvariant(c, "invalid board id")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.boardRole(ctx, c, boardID, userID)
	if !ok {
		return
	}
	if !models.CanManage(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	if err := h.boardService.Delete(ctx, boardID); err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, map[string]string{"message": "board deleted"})
}

func (h *BoardHandler) View(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondInvariant(c, "invalid board id")
		return
	}

	ctx := c.Request.Context()
	if _, _, ok := h.boardRole(ctx, c, boardID, userID); !ok {
		return
	}

	view, err := h.boardService.View(ctx, boardID, c.QueryParam("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, view)
}

func (h *BoardHandler) CreateGroup(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondInvariant(c, "invalid board id")
		return
	}

	var req dto.CreateGroupRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}
	if req.Name == "" {
		respondInvariant(c, "name is required")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.boardRole(ctx, c, boardID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	group, err := h.boardService.CreateGroup(ctx, boardID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, group)
}

func (h *BoardHandler) UpdateGroup(c *drift.Context) {
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

	var req dto.UpdateGroupRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()

	group, err := h.boardService.GetGroup(ctx, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	_, role, ok := h.boardRole(ctx, c, group.BoardID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	if req.Name != nil {
		group, err = h.boardService.RenameGroup(ctx, groupID, *req.Name)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	if req.AfterGroupID != nil || req.MoveToFront {
		group, err = h.boardService.ReorderGroup(ctx, groupID, req.AfterGroupID)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	_ = c.JSON(200, group)
}

func (h *BoardHandler) DeleteGroup(c *drift.Context) {
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

	ctx := c.Request.Context()

	group, err := h.boardService.GetGroup(ctx, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	_, role, ok := h.boardRole(ctx, c, group.BoardID, userID)
	if !ok {
		return
	}
	if !models.CanWrite(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	if err := h.boardService.DeleteGroup(ctx, groupID); err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, map[string]string{"message": "group deleted"})
}

func (h *BoardHandler) ListLabels(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondInvariant(c, "invalid board id")
		return
	}

	ctx := c.Request.Context()
	if _, _, ok := h.boardRole(ctx, c, boardID, userID); !ok {
		return
	}

	labels, err := h.labelService.Catalog(ctx, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	if labels == nil {
		labels = []models.StatusLabel{}
	}
	_ = c.JSON(200, labels)
}

func (h *BoardHandler) CreateLabel(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondInvariant(c, "invalid board id")
		return
	}

	var req dto.CreateLabelRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}
	if req.Label == "" {
		respondInvariant(c, "label is required")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.boardRole(ctx, c, boardID, userID)
	if !ok {
		return
	}
	if !models.CanManage(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	label, err := h.labelService.Create(ctx, boardID, req.Label, req.Color, req.IsDoneState)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, label)
}

func (h *BoardHandler) MyWork(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boards, err := h.boardService.MyWork(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if boards == nil {
		boards = []services.MyWorkBoard{}
	}
	_ = c.JSON(200, boards)
}
