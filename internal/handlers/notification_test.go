package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anchorhub/anchorhub-api/internal/middleware"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/anchorhub/anchorhub-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupNotificationTest(t *testing.T) (*testutil.MockNotificationService, *NotificationHandler, *services.JWTService) {
	t.Helper()
	mockNotificationService := new(testutil.MockNotificationService)
	handler := NewNotificationHandler(mockNotificationService)
	return mockNotificationService, handler, newTestJWTService()
}

func TestNotificationHandler_List(t *testing.T) {
	mockNotificationService, handler, jwtSvc := setupNotificationTest(t)

	userID := uuid.New()
	notifications := []models.Notification{
		{ID: uuid.New(), UserID: userID, Title: "Login fix", Status: "unread"},
	}

	mockNotificationService.On("List", mock.Anything, userID, false).Return(notifications, nil)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/notifications", handler.List)

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login fix")

	mockNotificationService.AssertExpectations(t)
}

func TestNotificationHandler_List_UnreadFilter(t *testing.T) {
	mockNotificationService, handler, jwtSvc := setupNotificationTest(t)

	userID := uuid.New()

	mockNotificationService.On("List", mock.Anything, userID, true).Return([]models.Notification(nil), nil)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/notifications", handler.List)

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	mockNotificationService.AssertExpectations(t)
}

func TestNotificationHandler_MarkRead_NotFound(t *testing.T) {
	mockNotificationService, handler, jwtSvc := setupNotificationTest(t)

	userID := uuid.New()
	notificationID := uuid.New()

	mockNotificationService.On("MarkRead", mock.Anything, notificationID, userID).Return(nil, services.ErrNotFound)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/notifications/:notificationId/read", handler.MarkRead)

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodPost, "/notifications/"+notificationID.String()+"/read", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	mockNotificationService.AssertExpectations(t)
}
