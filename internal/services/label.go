package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Canonical report buckets. Arbitrary labels map onto these for the report
// counters; is_done_state wins over the name mapping.
const (
	BucketTodo           = "todo"
	BucketWorking        = "working"
	BucketBlocked        = "blocked"
	BucketDone           = "done"
	BucketNeedsAttention = "needs_attention"
)

var canonicalBuckets = map[string]string{
	"to do":           BucketTodo,
	"todo":            BucketTodo,
	"open":            BucketTodo,
	"new":             BucketTodo,
	"backlog":         BucketTodo,
	"working":         BucketWorking,
	"working on it":   BucketWorking,
	"in progress":     BucketWorking,
	"doing":           BucketWorking,
	"stuck":           BucketBlocked,
	"blocked":         BucketBlocked,
	"waiting":         BucketBlocked,
	"done":            BucketDone,
	"complete":        BucketDone,
	"completed":       BucketDone,
	"needs attention": BucketNeedsAttention,
}

// CanonicalBucket maps a label to its report bucket. Labels flagged as a done
// state are always "done"; unknown labels count as "working".
func CanonicalBucket(label string, isDoneState bool) string {
	if isDoneState {
		return BucketDone
	}
	if bucket, ok := canonicalBuckets[strings.ToLower(strings.TrimSpace(label))]; ok {
		return bucket
	}
	return BucketWorking
}

type LabelService struct {
	db *database.DB
}

func NewLabelService(db *database.DB) *LabelService {
	return &LabelService{db: db}
}

const labelColumns = `id, scope, board_id, label, color, order_index, is_done_state, archived, created_at`

func scanLabel(row pgx.Row) (*models.StatusLabel, error) {
	var l models.StatusLabel
	err := row.Scan(
		&l.ID, &l.Scope, &l.BoardID, &l.Label, &l.Color,
		&l.OrderIndex, &l.IsDoneState, &l.Archived, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Catalog returns the board's effective label catalog: board-local labels
// plus the global defaults, unarchived, in display order.
func (s *LabelService) Catalog(ctx context.Context, boardID uuid.UUID) ([]models.StatusLabel, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+labelColumns+` FROM status_labels
		WHERE archived = FALSE AND (scope = 'global' OR board_id = $1)
		ORDER BY scope DESC, order_index, created_at
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []models.StatusLabel
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		labels = append(labels, *l)
	}
	return labels, nil
}

// Resolve maps a status input (label id or label string) onto a catalog
// entry. Unknown strings are auto-created as board labels when the caller has
// the manage capability and asked for it; otherwise the write is rejected.
func (s *LabelService) Resolve(ctx context.Context, boardID uuid.UUID, input string, canManage, createIfMissing bool) (*models.StatusLabel, error) {
	if id, err := uuid.Parse(input); err == nil {
		label, err := scanLabel(s.db.Pool.QueryRow(ctx, `
			SELECT `+labelColumns+` FROM status_labels
			WHERE id = $1 AND archived = FALSE AND (scope = 'global' OR board_id = $2)
		`, id, boardID))
		if err == nil {
			return label, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("status label %s not in catalog: %w", input, ErrInvariant)
	}

	label, err := scanLabel(s.db.Pool.QueryRow(ctx, `
		SELECT `+labelColumns+` FROM status_labels
		WHERE archived = FALSE AND (scope = 'global' OR board_id = $1) AND LOWER(label) = LOWER($2)
		ORDER BY scope DESC
		LIMIT 1
	`, boardID, input))
	if err == nil {
		return label, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if createIfMissing && canManage {
		return s.Create(ctx, boardID, input, "#C4C4C4FF", false)
	}
	return nil, fmt.Errorf("status label %q not in catalog: %w", input, ErrInvariant)
}

func (s *LabelService) Create(ctx context.Context, boardID uuid.UUID, label, color string, isDoneState bool) (*models.StatusLabel, error) {
	created, err := scanLabel(s.db.Pool.QueryRow(ctx, `
		INSERT INTO status_labels (scope, board_id, label, color, order_index, is_done_state)
		VALUES ('board', $1, $2, $3,
			(SELECT COALESCE(MAX(order_index), 0) + 1 FROM status_labels WHERE board_id = $1), $4)
		RETURNING `+labelColumns+`
	`, boardID, label, color, isDoneState))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("label %q already exists: %w", label, ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

// Archive soft-deletes a label so historical items keep resolving.
func (s *LabelService) Archive(ctx context.Context, labelID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE status_labels SET archived = TRUE WHERE id = $1 AND scope = 'board'
	`, labelID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("label: %w", ErrNotFound)
	}
	return nil
}
