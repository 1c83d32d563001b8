package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/google/uuid"
)

// WorkspaceServiceInterface defines the methods used by handlers from WorkspaceService
type WorkspaceServiceInterface interface {
	MemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (string, error)
}

// BoardServiceInterface defines the methods used by handlers from BoardService
type BoardServiceInterface interface {
	Create(ctx context.Context, workspaceID uuid.UUID, name, description string) (*models.Board, error)
	GetByID(ctx context.Context, boardID uuid.UUID) (*models.Board, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Board, error)
	Update(ctx context.Context, boardID uuid.UUID, name, description *string) (*models.Board, error)
	Archive(ctx context.Context, boardID uuid.UUID) (*models.Board, error)
	Delete(ctx context.Context, boardID uuid.UUID) error
	View(ctx context.Context, boardID uuid.UUID, search string) (*services.BoardView, error)
	CreateGroup(ctx context.Context, boardID uuid.UUID, name string) (*models.Group, error)
	GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
	RenameGroup(ctx context.Context, groupID uuid.UUID, name string) (*models.Group, error)
	ReorderGroup(ctx context.Context, groupID uuid.UUID, afterGroupID *uuid.UUID) (*models.Group, error)
	DeleteGroup(ctx context.Context, groupID uuid.UUID) error
	MyWork(ctx context.Context, userID uuid.UUID) ([]services.MyWorkBoard, error)
}

// ItemServiceInterface defines the methods used by handlers from ItemService
type ItemServiceInterface interface {
	Create(ctx context.Context, groupID uuid.UUID, name string, actor uuid.UUID) (*models.Item, error)
	GetByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	Patch(ctx context.Context, itemID uuid.UUID, patch services.ItemPatch, actor uuid.UUID) (*models.Item, error)
	Archive(ctx context.Context, itemID uuid.UUID, actor uuid.UUID) (*models.Item, error)
	HardDelete(ctx context.Context, itemID uuid.UUID) error
	CreateSubitem(ctx context.Context, itemID uuid.UUID, name string) (*models.Subitem, error)
	GetSubitem(ctx context.Context, subitemID uuid.UUID) (*models.Subitem, error)
	PatchSubitem(ctx context.Context, subitemID uuid.UUID, name, status *string) (*models.Subitem, error)
	DeleteSubitem(ctx context.Context, subitemID uuid.UUID) error
	ListSubitems(ctx context.Context, itemID uuid.UUID) ([]models.Subitem, error)
	AddAssignee(ctx context.Context, itemID, userID uuid.UUID) (*models.Assignee, error)
	RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) error
	ListAssignees(ctx context.Context, itemID uuid.UUID) ([]models.Assignee, error)
}

// LabelServiceInterface defines the methods used by handlers from LabelService
type LabelServiceInterface interface {
	Catalog(ctx context.Context, boardID uuid.UUID) ([]models.StatusLabel, error)
	Create(ctx context.Context, boardID uuid.UUID, label, color string, isDoneState bool) (*models.StatusLabel, error)
}

// UpdateServiceInterface defines the methods used by handlers from UpdateService
type UpdateServiceInterface interface {
	Post(ctx context.Context, itemID uuid.UUID, author *uuid.UUID, body string) (*models.Update, error)
	List(ctx context.Context, itemID uuid.UUID) ([]models.Update, error)
	AddFile(ctx context.Context, itemID uuid.UUID, fileName, fileURL, mime string, uploadedBy *uuid.UUID) (*models.File, error)
	ListFiles(ctx context.Context, itemID uuid.UUID) ([]models.File, error)
}

// TimeServiceInterface defines the methods used by handlers from TimeService
type TimeServiceInterface interface {
	Create(ctx context.Context, itemID uuid.UUID, userID *uuid.UUID, minutes int, billable bool, workCategory string, description *string) (*models.TimeEntry, error)
	CreateSplit(ctx context.Context, itemID uuid.UUID, userID *uuid.UUID, minutes, billableMinutes int, workCategory string, description *string) (*models.TimeEntry, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.TimeEntry, error)
}

// AutomationServiceInterface defines the methods used by handlers from AutomationService
type AutomationServiceInterface interface {
	Create(ctx context.Context, boardID uuid.UUID, name, triggerType string, triggerConfig json.RawMessage, condition json.RawMessage, actionType string, actionConfig json.RawMessage) (*models.AutomationRule, error)
	GetByID(ctx context.Context, ruleID uuid.UUID) (*models.AutomationRule, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]models.AutomationRule, error)
	Patch(ctx context.Context, ruleID uuid.UUID, name *string, isActive *bool) (*models.AutomationRule, error)
	Delete(ctx context.Context, ruleID uuid.UUID) error
	Logs(ctx context.Context, ruleID uuid.UUID) ([]models.AutomationLog, error)
}

// ReportServiceInterface defines the methods used by handlers from ReportService
type ReportServiceInterface interface {
	Run(ctx context.Context, boardIDs []uuid.UUID, start, end *time.Time) ([]services.ReportRow, error)
	BillingRows(ctx context.Context, boardID uuid.UUID, start, end *time.Time) ([]services.BillingRow, error)
}

// NotificationServiceInterface defines the methods used by handlers from NotificationService
type NotificationServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*models.Notification, error)
}
