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

type AutomationHandler struct {
	automationService AutomationServiceInterface
	boardService      BoardServiceInterface
	workspaceService  WorkspaceServiceInterface
}

func NewAutomationHandler(
	automationService AutomationServiceInterface,
	boardService BoardServiceInterface,
	workspaceService WorkspaceServiceInterface,
) *AutomationHandler {
	return &AutomationHandler{
		automationService: automationService,
		boardService:      boardService,
		workspaceService:  workspaceService,
	}
}

func (h *AutomationHandler) boardRole(ctx context.Context, c *drift.Context, boardID, userID uuid.UUID) (string, bool) {
	board, err := h.boardService.GetByID(ctx, boardID)
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

func (h *AutomationHandler) List(c *drift.Context) {
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
	if _, ok := h.boardRole(ctx, c, boardID, userID); !ok {
		return
	}

	rules, err := h.automationService.ListByBoard(ctx, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	if rules == nil {
		rules = []models.AutomationRule{}
	}
	_ = c.JSON(200, rules)
}

func (h *AutomationHandler) Create(c *drift.Context) {
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

	var req dto.CreateAutomationRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}
	if req.Name == "" {
		respondInvariant(c, "name is required")
		return
	}

	ctx := c.Request.Context()
	role, ok := h.boardRole(ctx, c, boardID, userID)
	if !ok {
		return
	}
	if !models.CanManage(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	rule, err := h.automationService.Create(ctx, boardID, req.Name, req.TriggerType, req.TriggerConfig, req.Condition, req.ActionType, req.ActionConfig)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, rule)
}

func (h *AutomationHandler) ruleRole(ctx context.Context, c *drift.Context, ruleID, userID uuid.UUID) (*models.AutomationRule, string, bool) {
	rule, err := h.automationService.GetByID(ctx, ruleID)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	role, ok := h.boardRole(ctx, c, rule.BoardID, userID)
	if !ok {
		return nil, "", false
	}
	return rule, role, true
}

func (h *AutomationHandler) Patch(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	ruleID, err := uuid.Parse(c.Param("ruleId"))
	if err != nil {
		respondInvariant(c, "invalid automation id")
		return
	}

	var req dto.PatchAutomationRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.ruleRole(ctx, c, ruleID, userID)
	if !ok {
		return
	}
	if !models.CanManage(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	rule, err := h.automationService.Patch(ctx, ruleID, req.Name, req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, rule)
}

func (h *AutomationHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	ruleID, err := uuid.Parse(c.Param("ruleId"))
	if err != nil {
		respondInvariant(c, "invalid automation id")
		return
	}

	ctx := c.Request.Context()
	_, role, ok := h.ruleRole(ctx, c, ruleID, userID)
	if !ok {
		return
	}
	if !models.CanManage(role) {
		respondError(c, services.ErrForbidden)
		return
	}

	if err := h.automationService.Delete(ctx, ruleID); err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, map[string]string{"message": "automation deleted"})
}

func (h *AutomationHandler) Logs(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	ruleID, err := uuid.Parse(c.Param("ruleId"))
	if err != nil {
		respondInvariant(c, "invalid automation id")
		return
	}

	ctx := c.Request.Context()
	if _, _, ok := h.ruleRole(ctx, c, ruleID, userID); !ok {
		return
	}

	logs, err := h.automationService.Logs(ctx, ruleID)
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []models.AutomationLog{}
	}
	_ = c.JSON(200, logs)
}
