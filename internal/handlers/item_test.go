package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anchorhub/anchorhub-api/internal/middleware"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/anchorhub/anchorhub-api/pkg/dto"
	"github.com/anchorhub/anchorhub-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupItemTest(t *testing.T) (*testutil.MockItemService, *testutil.MockBoardService, *testutil.MockWorkspaceService, *ItemHandler, *services.JWTService) {
	t.Helper()
	mockItemService := new(testutil.MockItemService)
	mockBoardService := new(testutil.MockBoardService)
	mockWorkspaceService := new(testutil.MockWorkspaceService)
	handler := NewItemHandler(mockItemService, mockBoardService, mockWorkspaceService)
	return mockItemService, mockBoardService, mockWorkspaceService, handler, newTestJWTService()
}

func TestItemHandler_Patch_StatusAsMember(t *testing.T) {
	mockItemService, mockBoardService, mockWorkspaceService, handler, jwtSvc := setupItemTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	boardID := uuid.New()
	itemID := uuid.New()
	status := "Done"

	item := &models.Item{ID: itemID, BoardID: boardID, GroupID: uuid.New(), Name: "Fix login", Status: "To Do"}
	board := &models.Board{ID: boardID, WorkspaceID: workspaceID, Name: "Client Projects"}
	patched := &models.Item{ID: itemID, BoardID: boardID, GroupID: item.GroupID, Name: "Fix login", Status: status}

	mockItemService.On("GetByID", mock.Anything, itemID).Return(item, nil)
	mockBoardService.On("GetByID", mock.Anything, boardID).Return(board, nil)
	mockWorkspaceService.On("MemberRole", mock.Anything, workspaceID, userID).Return(models.RoleMember, nil)
	mockItemService.On("Patch", mock.Anything, itemID, services.ItemPatch{
		Status:          &status,
		CreateIfMissing: true,
		// a plain member cannot auto-create labels
		CanManageLabels: false,
	}, userID).Return(patched, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Patch("/tasks/items/:itemId", handler.Patch)

	body := dto.PatchItemRequest{Status: &status, CreateIfMissing: true}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodPatch, "/tasks/items/"+itemID.String(), bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Done", response.Status)

	mockItemService.AssertExpectations(t)
	mockBoardService.AssertExpectations(t)
	mockWorkspaceService.AssertExpectations(t)
}

func TestItemHandler_Patch_ViewerForbidden(t *testing.T) {
	mockItemService, mockBoardService, mockWorkspaceService, handler, jwtSvc := setupItemTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	boardID := uuid.New()
	itemID := uuid.New()
	name := "Renamed"

	item := &models.Item{ID: itemID, BoardID: boardID, GroupID: uuid.New(), Name: "Fix login"}
	board := &models.Board{ID: boardID, WorkspaceID: workspaceID, Name: "Client Projects"}

	mockItemService.On("GetByID", mock.Anything, itemID).Return(item, nil)
	mockBoardService.On("GetByID", mock.Anything, boardID).Return(board, nil)
	mockWorkspaceService.On("MemberRole", mock.Anything, workspaceID, userID).Return(models.RoleViewer, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Patch("/tasks/items/:itemId", handler.Patch)

	jsonBody, _ := json.Marshal(dto.PatchItemRequest{Name: &name})

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodPatch, "/tasks/items/"+itemID.String(), bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	mockItemService.AssertExpectations(t)
	mockWorkspaceService.AssertExpectations(t)
}

func TestItemHandler_Patch_UnknownLabelInvariant(t *testing.T) {
	mockItemService, mockBoardService, mockWorkspaceService, handler, jwtSvc := setupItemTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	boardID := uuid.New()
	itemID := uuid.New()
	status := "Mystery"

	item := &models.Item{ID: itemID, BoardID: boardID, GroupID: uuid.New(), Name: "Fix login"}
	board := &models.Board{ID: boardID, WorkspaceID: workspaceID, Name: "Client Projects"}

	mockItemService.On("GetByID", mock.Anything, itemID).Return(item, nil)
	mockBoardService.On("GetByID", mock.Anything, boardID).Return(board, nil)
	mockWorkspaceService.On("MemberRole", mock.Anything, workspaceID, userID).Return(models.RoleMember, nil)
	mockItemService.On("Patch", mock.Anything, itemID, mock.Anything, userID).Return(nil, services.ErrInvariant)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Patch("/tasks/items/:itemId", handler.Patch)

	jsonBody, _ := json.Marshal(dto.PatchItemRequest{Status: &status})

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodPatch, "/tasks/items/"+itemID.String(), bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invariant")

	mockItemService.AssertExpectations(t)
}

func TestItemHandler_PatchSubitem_AsMember(t *testing.T) {
	mockItemService, mockBoardService, mockWorkspaceService, handler, jwtSvc := setupItemTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	boardID := uuid.New()
	itemID := uuid.New()
	subitemID := uuid.New()
	status := "done"

	sub := &models.Subitem{ID: subitemID, ItemID: itemID, Name: "Write tests", Status: "todo"}
	item := &models.Item{ID: itemID, BoardID: boardID, GroupID: uuid.New(), Name: "Fix login"}
	board := &models.Board{ID: boardID, WorkspaceID: workspaceID, Name: "Client Projects"}
	patched := &models.Subitem{ID: subitemID, ItemID: itemID, Name: "Write tests", Status: status}

	mockItemService.On("GetSubitem", mock.Anything, subitemID).Return(sub, nil)
	mockItemService.On("GetByID", mock.Anything, itemID).Return(item, nil)
	mockBoardService.On("GetByID", mock.Anything, boardID).Return(board, nil)
	mockWorkspaceService.On("MemberRole", mock.Anything, workspaceID, userID).Return(models.RoleMember, nil)
	mockItemService.On("PatchSubitem", mock.Anything, subitemID, (*string)(nil), &status).Return(patched, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Patch("/tasks/subitems/:subitemId", handler.PatchSubitem)

	jsonBody, _ := json.Marshal(dto.PatchSubitemRequest{Status: &status})

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodPatch, "/tasks/subitems/"+subitemID.String(), bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.Subitem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "done", response.Status)

	mockItemService.AssertExpectations(t)
	mockWorkspaceService.AssertExpectations(t)
}

func TestItemHandler_PatchSubitem_ViewerForbidden(t *testing.T) {
	mockItemService, mockBoardService, mockWorkspaceService, handler, jwtSvc := setupItemTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	boardID := uuid.New()
	itemID := uuid.New()
	subitemID := uuid.New()
	status := "done"

	sub := &models.Subitem{ID: subitemID, ItemID: itemID, Name: "Write tests", Status: "todo"}
	item := &models.Item{ID: itemID, BoardID: boardID, GroupID: uuid.New(), Name: "Fix login"}
	board := &models.Board{ID: boardID, WorkspaceID: workspaceID, Name: "Client Projects"}

	mockItemService.On("GetSubitem", mock.Anything, subitemID).Return(sub, nil)
	mockItemService.On("GetByID", mock.Anything, itemID).Return(item, nil)
	mockBoardService.On("GetByID", mock.Anything, boardID).Return(board, nil)
	mockWorkspaceService.On("MemberRole", mock.Anything, workspaceID, userID).Return(models.RoleViewer, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Patch("/tasks/subitems/:subitemId", handler.PatchSubitem)

	jsonBody, _ := json.Marshal(dto.PatchSubitemRequest{Status: &status})

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodPatch, "/tasks/subitems/"+subitemID.String(), bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	mockItemService.AssertNotCalled(t, "PatchSubitem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockWorkspaceService.AssertExpectations(t)
}

func TestItemHandler_DeleteSubitem_NonMemberForbidden(t *testing.T) {
	mockItemService, mockBoardService, mockWorkspaceService, handler, jwtSvc := setupItemTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	boardID := uuid.New()
	itemID := uuid.New()
	subitemID := uuid.New()

	sub := &models.Subitem{ID: subitemID, ItemID: itemID, Name: "Write tests", Status: "todo"}
	item := &models.Item{ID: itemID, BoardID: boardID, GroupID: uuid.New(), Name: "Fix login"}
	board := &models.Board{ID: boardID, WorkspaceID: workspaceID, Name: "Client Projects"}

	mockItemService.On("GetSubitem", mock.Anything, subitemID).Return(sub, nil)
	mockItemService.On("GetByID", mock.Anything, itemID).Return(item, nil)
	mockBoardService.On("GetByID", mock.Anything, boardID).Return(board, nil)
	mockWorkspaceService.On("MemberRole", mock.Anything, workspaceID, userID).Return("", services.ErrForbidden)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Delete("/tasks/subitems/:subitemId", handler.DeleteSubitem)

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodDelete, "/tasks/subitems/"+subitemID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	mockItemService.AssertNotCalled(t, "DeleteSubitem", mock.Anything, mock.Anything)
	mockWorkspaceService.AssertExpectations(t)
}

func TestItemHandler_AddAssignee_NonMemberReference(t *testing.T) {
	mockItemService, mockBoardService, mockWorkspaceService, handler, jwtSvc := setupItemTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	boardID := uuid.New()
	itemID := uuid.New()
	assigneeID := uuid.New()

	item := &models.Item{ID: itemID, BoardID: boardID, GroupID: uuid.New(), Name: "Fix login"}
	board := &models.Board{ID: boardID, WorkspaceID: workspaceID, Name: "Client Projects"}

	mockItemService.On("GetByID", mock.Anything, itemID).Return(item, nil)
	mockBoardService.On("GetByID", mock.Anything, boardID).Return(board, nil)
	mockWorkspaceService.On("MemberRole", mock.Anything, workspaceID, userID).Return(models.RoleMember, nil)
	mockItemService.On("AddAssignee", mock.Anything, itemID, assigneeID).Return(nil, services.ErrInvalidReference)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/tasks/items/:itemId/assignees", handler.AddAssignee)

	jsonBody, _ := json.Marshal(dto.AddAssigneeRequest{UserID: assigneeID})

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodPost, "/tasks/items/"+itemID.String()+"/assignees", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidReference")

	mockItemService.AssertExpectations(t)
}

func TestItemHandler_Delete_RequiresManage(t *testing.T) {
	mockItemService, mockBoardService, mockWorkspaceService, handler, jwtSvc := setupItemTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	boardID := uuid.New()
	itemID := uuid.New()

	item := &models.Item{ID: itemID, BoardID: boardID, GroupID: uuid.New(), Name: "Fix login"}
	board := &models.Board{ID: boardID, WorkspaceID: workspaceID, Name: "Client Projects"}

	mockItemService.On("GetByID", mock.Anything, itemID).Return(item, nil)
	mockBoardService.On("GetByID", mock.Anything, boardID).Return(board, nil)
	mockWorkspaceService.On("MemberRole", mock.Anything, workspaceID, userID).Return(models.RoleMember, nil)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Delete("/tasks/items/:itemId", handler.Delete)

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodDelete, "/tasks/items/"+itemID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	mockItemService.AssertExpectations(t)
	mockWorkspaceService.AssertExpectations(t)
}
