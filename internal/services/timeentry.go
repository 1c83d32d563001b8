package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
)

// TimeService records per-item work minutes. Entries are immutable after
// write; a correction is a new compensating entry.
type TimeService struct {
	db *database.DB
}

func NewTimeService(db *database.DB) *TimeService {
	return &TimeService{db: db}
}

const DefaultWorkCategory = "Other"

func (s *TimeService) Create(ctx context.Context, itemID uuid.UUID, userID *uuid.UUID, minutes int, billable bool, workCategory string, description *string) (*models.TimeEntry, error) {
	if minutes < 0 {
		return nil, fmt.Errorf("minutes must be >= 0: %w", ErrInvariant)
	}
	billableMinutes := 0
	if billable {
		billableMinutes = minutes
	}
	if workCategory == "" {
		workCategory = DefaultWorkCategory
	}

	var entry models.TimeEntry
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO time_entries (item_id, user_id, minutes, billable_minutes, work_category, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, item_id, user_id, minutes, billable_minutes, work_category, description, created_at
	`, itemID, userID, minutes, billableMinutes, workCategory, description).Scan(
		&entry.ID, &entry.ItemID, &entry.UserID, &entry.Minutes, &entry.BillableMinutes,
		&entry.WorkCategory, &entry.Description, &entry.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("item %s: %w", itemID, ErrInvalidReference)
		}
		return nil, err
	}
	return &entry, nil
}

// CreateSplit records an entry with an explicit billable split, used when
// only part of the time is billable.
func (s *TimeService) CreateSplit(ctx context.Context, itemID uuid.UUID, userID *uuid.UUID, minutes, billableMinutes int, workCategory string, description *string) (*models.TimeEntry, error) {
	if minutes < 0 || billableMinutes < 0 || billableMinutes > minutes {
		return nil, fmt.Errorf("billable_minutes must be between 0 and minutes: %w", ErrInvariant)
	}
	if workCategory == "" {
		workCategory = DefaultWorkCategory
	}

	var entry models.TimeEntry
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO time_entries (item_id, user_id, minutes, billable_minutes, work_category, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, item_id, user_id, minutes, billable_minutes, work_category, description, created_at
	`, itemID, userID, minutes, billableMinutes, workCategory, description).Scan(
		&entry.ID, &entry.ItemID, &entry.UserID, &entry.Minutes, &entry.BillableMinutes,
		&entry.WorkCategory, &entry.Description, &entry.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("item %s: %w", itemID, ErrInvalidReference)
		}
		return nil, err
	}
	return &entry, nil
}

func (s *TimeService) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.TimeEntry, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, item_id, user_id, minutes, billable_minutes, work_category, description, created_at
		FROM time_entries WHERE item_id = $1
		ORDER BY created_at, id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TimeEntry
	for rows.Next() {
		var e models.TimeEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.UserID, &e.Minutes, &e.BillableMinutes, &e.WorkCategory, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// TimeAggregate is the rollup over a set of entries.
type TimeAggregate struct {
	TotalMinutes    int `json:"total_minutes"`
	BillableMinutes int `json:"billable_minutes"`
	EntryCount      int `json:"entry_count"`
}

// CategoryRollup is a per-work-category aggregate.
type CategoryRollup struct {
	WorkCategory string `json:"work_category"`
	TimeAggregate
}

// Aggregate rolls up entries over items, an optional created_at window, an
// optional category and optional users.
func (s *TimeService) Aggregate(ctx context.Context, itemIDs []uuid.UUID, start, end *time.Time, workCategory string, userIDs []uuid.UUID) (*TimeAggregate, []CategoryRollup, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT work_category, COALESCE(SUM(minutes), 0), COALESCE(SUM(billable_minutes), 0), COUNT(*)
		FROM time_entries
		WHERE item_id = ANY($1)
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at < $3)
			AND ($4 = '' OR work_category = $4)
			AND (cardinality($5::uuid[]) = 0 OR user_id = ANY($5))
		GROUP BY work_category
		ORDER BY work_category
	`, itemIDs, start, end, workCategory, userIDs)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	total := &TimeAggregate{}
	var rollups []CategoryRollup
	for rows.Next() {
		var r CategoryRollup
		if err := rows.Scan(&r.WorkCategory, &r.TotalMinutes, &r.BillableMinutes, &r.EntryCount); err != nil {
			return nil, nil, err
		}
		total.TotalMinutes += r.TotalMinutes
		total.BillableMinutes += r.BillableMinutes
		total.EntryCount += r.EntryCount
		rollups = append(rollups, r)
	}
	return total, rollups, nil
}
