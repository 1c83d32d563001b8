package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
)

// notificationBodyLimit caps the update excerpt carried in a notification.
const notificationBodyLimit = 280

type UpdateService struct {
	db            *database.DB
	workspace     *WorkspaceService
	items         *ItemService
	notifications *NotificationService
}

func NewUpdateService(db *database.DB, workspace *WorkspaceService, items *ItemService, notifications *NotificationService) *UpdateService {
	return &UpdateService{db: db, workspace: workspace, items: items, notifications: notifications}
}

// Post appends an update, resolves mentions against the workspace member
// directory and notifies each target. Unresolved handles are dropped from the
// mention set; the body is stored verbatim.
func (s *UpdateService) Post(ctx context.Context, itemID uuid.UUID, author *uuid.UUID, body string) (*models.Update, error) {
	return s.post(ctx, itemID, author, body, nil)
}

func (s *UpdateService) post(ctx context.Context, itemID uuid.UUID, author *uuid.UUID, body string, fired map[uuid.UUID]bool) (*models.Update, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var workspaceID uuid.UUID
	if err := s.db.Pool.QueryRow(ctx, `SELECT workspace_id FROM boards WHERE id = $1`, item.BoardID).Scan(&workspaceID); err != nil {
		return nil, err
	}

	mentions := s.resolveMentions(ctx, workspaceID, body)

	var upd models.Update
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO item_updates (item_id, author_user_id, body, mentions)
		VALUES ($1, $2, $3, $4)
		RETURNING id, item_id, author_user_id, body, mentions, created_at
	`, itemID, author, body, mentions).Scan(
		&upd.ID, &upd.ItemID, &upd.AuthorUserID, &upd.Body, &upd.Mentions, &upd.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if upd.Mentions == nil {
		upd.Mentions = []uuid.UUID{}
	}

	link := fmt.Sprintf("/tasks?board=%s&item=%s", item.BoardID, item.ID)
	for _, target := range upd.Mentions {
		if _, err := s.notifications.Enqueue(ctx, target, item.Name, truncate(body, notificationBodyLimit), link, uuid.Nil, item.ID); err != nil {
			// Mention notifications are best-effort; the update stands.
			continue
		}
	}

	actor := SystemActor
	if author != nil {
		actor = *author
	}
	s.items.emit(ctx, ChangeEvent{Kind: EventUpdatePosted, Item: item, Update: &upd, Actor: actor, Fired: fired})
	return &upd, nil
}

// resolveMentions maps handle candidates onto member user ids: email match
// first, then display handle. Duplicate targets collapse.
func (s *UpdateService) resolveMentions(ctx context.Context, workspaceID uuid.UUID, body string) []uuid.UUID {
	targets := []uuid.UUID{}
	seen := map[uuid.UUID]bool{}

	for _, handle := range ParseMentions(body) {
		user, err := s.workspace.FindMemberByEmail(ctx, workspaceID, handle)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				continue
			}
			user, err = s.workspace.FindMemberByHandle(ctx, workspaceID, handle)
			if err != nil {
				continue
			}
		}
		if !seen[user.ID] {
			seen[user.ID] = true
			targets = append(targets, user.ID)
		}
	}
	return targets
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func (s *UpdateService) List(ctx context.Context, itemID uuid.UUID) ([]models.Update, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT u.id, u.item_id, u.author_user_id, u.body, u.mentions, u.created_at
		FROM item_updates u
		WHERE u.item_id = $1
		ORDER BY u.created_at, u.id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []models.Update
	for rows.Next() {
		var u models.Update
		if err := rows.Scan(&u.ID, &u.ItemID, &u.AuthorUserID, &u.Body, &u.Mentions, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.Mentions == nil {
			u.Mentions = []uuid.UUID{}
		}
		updates = append(updates, u)
	}
	return updates, nil
}

func (s *UpdateService) AddFile(ctx context.Context, itemID uuid.UUID, fileName, fileURL, mime string, uploadedBy *uuid.UUID) (*models.File, error) {
	var f models.File
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO item_files (item_id, file_name, file_url, mime, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, item_id, file_name, file_url, mime, uploaded_by, uploaded_at
	`, itemID, fileName, fileURL, mime, uploadedBy).Scan(
		&f.ID, &f.ItemID, &f.FileName, &f.FileURL, &f.Mime, &f.UploadedBy, &f.UploadedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("item %s: %w", itemID, ErrInvalidReference)
		}
		return nil, err
	}
	return &f, nil
}

func (s *UpdateService) ListFiles(ctx context.Context, itemID uuid.UUID) ([]models.File, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, item_id, file_name, file_url, mime, uploaded_by, uploaded_at
		FROM item_files WHERE item_id = $1
		ORDER BY uploaded_at, id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var f models.File
		if err := rows.Scan(&f.ID, &f.ItemID, &f.FileName, &f.FileURL, &f.Mime, &f.UploadedBy, &f.UploadedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
