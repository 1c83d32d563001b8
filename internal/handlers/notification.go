package handlers

import (
	"github.com/anchorhub/anchorhub-api/internal/middleware"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	unreadOnly := c.QueryParam("unread") == "true"

	notifications, err := h.notificationService.List(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	_ = c.JSON(200, notifications)
}

func (h *NotificationHandler) MarkRead(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	notificationID, err := uuid.Parse(c.Param("notificationId"))
	if err != nil {
		respondInvariant(c, "invalid notification id")
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), notificationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, n)
}
