package testutil

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockWorkspaceService is a mock implementation of WorkspaceServiceInterface
type MockWorkspaceService struct {
	mock.Mock
}

func (m *MockWorkspaceService) MemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.String(0), args.Error(1)
}

// MockBoardService is a mock implementation of BoardServiceInterface
type MockBoardService struct {
	mock.Mock
}

func (m *MockBoardService) Create(ctx context.Context, workspaceID uuid.UUID, name, description string) (*models.Board, error) {
	args := m.Called(ctx, workspaceID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Board), args.Error(1)
}

func (m *MockBoardService) GetByID(ctx context.Context, boardID uuid.UUID) (*models.Board, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Board), args.Error(1)
}

func (m *MockBoardService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Board, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Board), args.Error(1)
}

func (m *MockBoardService) Update(ctx context.Context, boardID uuid.UUID, name, description *string) (*models.Board, error) {
	args := m.Called(ctx, boardID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Board), args.Error(1)
}

func (m *MockBoardService) Archive(ctx context.Context, boardID uuid.UUID) (*models.Board, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Board), args.Error(1)
}

func (m *MockBoardService) Delete(ctx context.Context, boardID uuid.UUID) error {
	args := m.Called(ctx, boardID)
	return args.Error(0)
}

func (m *MockBoardService) View(ctx context.Context, boardID uuid.UUID, search string) (*services.BoardView, error) {
	args := m.Called(ctx, boardID, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BoardView), args.Error(1)
}

func (m *MockBoardService) CreateGroup(ctx context.Context, boardID uuid.UUID, name string) (*models.Group, error) {
	args := m.Called(ctx, boardID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockBoardService) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockBoardService) RenameGroup(ctx context.Context, groupID uuid.UUID, name string) (*models.Group, error) {
	args := m.Called(ctx, groupID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockBoardService) ReorderGroup(ctx context.Context, groupID uuid.UUID, afterGroupID *uuid.UUID) (*models.Group, error) {
	args := m.Called(ctx, groupID, afterGroupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockBoardService) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *MockBoardService) MyWork(ctx context.Context, userID uuid.UUID) ([]services.MyWorkBoard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.MyWorkBoard), args.Error(1)
}

// MockItemService is a mock implementation of ItemServiceInterface
type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) Create(ctx context.Context, groupID uuid.UUID, name string, actor uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, groupID, name, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemService) GetByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemService) Patch(ctx context.Context, itemID uuid.UUID, patch services.ItemPatch, actor uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, itemID, patch, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemService) Archive(ctx context.Context, itemID uuid.UUID, actor uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, itemID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemService) HardDelete(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockItemService) CreateSubitem(ctx context.Context, itemID uuid.UUID, name string) (*models.Subitem, error) {
	args := m.Called(ctx, itemID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subitem), args.Error(1)
}

func (m *MockItemService) GetSubitem(ctx context.Context, subitemID uuid.UUID) (*models.Subitem, error) {
	args := m.Called(ctx, subitemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subitem), args.Error(1)
}

func (m *MockItemService) PatchSubitem(ctx context.Context, subitemID uuid.UUID, name, status *string) (*models.Subitem, error) {
	args := m.Called(ctx, subitemID, name, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subitem), args.Error(1)
}

func (m *MockItemService) DeleteSubitem(ctx context.Context, subitemID uuid.UUID) error {
	args := m.Called(ctx, subitemID)
	return args.Error(0)
}

func (m *MockItemService) ListSubitems(ctx context.Context, itemID uuid.UUID) ([]models.Subitem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subitem), args.Error(1)
}

func (m *MockItemService) AddAssignee(ctx context.Context, itemID, userID uuid.UUID) (*models.Assignee, error) {
	args := m.Called(ctx, itemID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignee), args.Error(1)
}

func (m *MockItemService) RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	args := m.Called(ctx, itemID, userID)
	return args.Error(0)
}

func (m *MockItemService) ListAssignees(ctx context.Context, itemID uuid.UUID) ([]models.Assignee, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Assignee), args.Error(1)
}

// MockLabelService is a mock implementation of LabelServiceInterface
type MockLabelService struct {
	mock.Mock
}

func (m *MockLabelService) Catalog(ctx context.Context, boardID uuid.UUID) ([]models.StatusLabel, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusLabel), args.Error(1)
}

func (m *MockLabelService) Create(ctx context.Context, boardID uuid.UUID, label, color string, isDoneState bool) (*models.StatusLabel, error) {
	args := m.Called(ctx, boardID, label, color, isDoneState)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatusLabel), args.Error(1)
}

// MockUpdateService is a mock implementation of UpdateServiceInterface
type MockUpdateService struct {
	mock.Mock
}

func (m *MockUpdateService) Post(ctx context.Context, itemID uuid.UUID, author *uuid.UUID, body string) (*models.Update, error) {
	args := m.Called(ctx, itemID, author, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Update), args.Error(1)
}

func (m *MockUpdateService) List(ctx context.Context, itemID uuid.UUID) ([]models.Update, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Update), args.Error(1)
}

func (m *MockUpdateService) AddFile(ctx context.Context, itemID uuid.UUID, fileName, fileURL, mime string, uploadedBy *uuid.UUID) (*models.File, error) {
	args := m.Called(ctx, itemID, fileName, fileURL, mime, uploadedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.File), args.Error(1)
}

func (m *MockUpdateService) ListFiles(ctx context.Context, itemID uuid.UUID) ([]models.File, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.File), args.Error(1)
}

// MockTimeService is a mock implementation of TimeServiceInterface
type MockTimeService struct {
	mock.Mock
}

func (m *MockTimeService) Create(ctx context.Context, itemID uuid.UUID, userID *uuid.UUID, minutes int, billable bool, workCategory string, description *string) (*models.TimeEntry, error) {
	args := m.Called(ctx, itemID, userID, minutes, billable, workCategory, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeEntry), args.Error(1)
}

func (m *MockTimeService) CreateSplit(ctx context.Context, itemID uuid.UUID, userID *uuid.UUID, minutes, billableMinutes int, workCategory string, description *string) (*models.TimeEntry, error) {
	args := m.Called(ctx, itemID, userID, minutes, billableMinutes, workCategory, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeEntry), args.Error(1)
}

func (m *MockTimeService) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.TimeEntry, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TimeEntry), args.Error(1)
}

// MockAutomationService is a mock implementation of AutomationServiceInterface
type MockAutomationService struct {
	mock.Mock
}

func (m *MockAutomationService) Create(ctx context.Context, boardID uuid.UUID, name, triggerType string, triggerConfig json.RawMessage, condition json.RawMessage, actionType string, actionConfig json.RawMessage) (*models.AutomationRule, error) {
	args := m.Called(ctx, boardID, name, triggerType, triggerConfig, condition, actionType, actionConfig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AutomationRule), args.Error(1)
}

func (m *MockAutomationService) GetByID(ctx context.Context, ruleID uuid.UUID) (*models.AutomationRule, error) {
	args := m.Called(ctx, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AutomationRule), args.Error(1)
}

func (m *MockAutomationService) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]models.AutomationRule, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AutomationRule), args.Error(1)
}

func (m *MockAutomationService) Patch(ctx context.Context, ruleID uuid.UUID, name *string, isActive *bool) (*models.AutomationRule, error) {
	args := m.Called(ctx, ruleID, name, isActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AutomationRule), args.Error(1)
}

func (m *MockAutomationService) Delete(ctx context.Context, ruleID uuid.UUID) error {
	args := m.Called(ctx, ruleID)
	return args.Error(0)
}

func (m *MockAutomationService) Logs(ctx context.Context, ruleID uuid.UUID) ([]models.AutomationLog, error) {
	args := m.Called(ctx, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AutomationLog), args.Error(1)
}

// MockReportService is a mock implementation of ReportServiceInterface
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Run(ctx context.Context, boardIDs []uuid.UUID, start, end *time.Time) ([]services.ReportRow, error) {
	args := m.Called(ctx, boardIDs, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.ReportRow), args.Error(1)
}

func (m *MockReportService) BillingRows(ctx context.Context, boardID uuid.UUID, start, end *time.Time) ([]services.BillingRow, error) {
	args := m.Called(ctx, boardID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.BillingRow), args.Error(1)
}

// MockNotificationService is a mock implementation of NotificationServiceInterface
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*models.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}
