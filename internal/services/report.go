package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
)

// UncategorizedLabel is the display name for entries without a work category.
const UncategorizedLabel = "Uncategorized"

// ReportRow is the per-board counter set in a report run.
type ReportRow struct {
	BoardID             uuid.UUID `json:"board_id"`
	BoardName           string    `json:"board_name"`
	TotalItems          int       `json:"total_items"`
	Todo                int       `json:"todo"`
	Working             int       `json:"working"`
	Blocked             int       `json:"blocked"`
	Done                int       `json:"done"`
	NeedsAttention      int       `json:"needs_attention"`
	UpdatesInRange      int       `json:"updates_in_range"`
	TimeMinutesInRange  int       `json:"time_minutes_in_range"`
	ItemsUpdatedInRange int       `json:"items_updated_in_range"`
}

// BillingRow aggregates one item's entries within one work category.
type BillingRow struct {
	ItemID          uuid.UUID          `json:"item_id"`
	ItemName        string             `json:"item_name"`
	WorkCategory    string             `json:"work_category"`
	TotalMinutes    int                `json:"total_minutes"`
	BillableMinutes int                `json:"billable_minutes"`
	Entries         []models.TimeEntry `json:"entries"`
}

type ReportService struct {
	db *database.DB
}

func NewReportService(db *database.DB) *ReportService {
	return &ReportService{db: db}
}

// Run computes the counter row for each board, preserving the input order.
// An empty board list yields an empty (non-nil) result.
func (s *ReportService) Run(ctx context.Context, boardIDs []uuid.UUID, start, end *time.Time) ([]ReportRow, error) {
	rows := []ReportRow{}
	for _, boardID := range boardIDs {
		row, err := s.boardRow(ctx, boardID, start, end)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

func (s *ReportService) boardRow(ctx context.Context, boardID uuid.UUID, start, end *time.Time) (*ReportRow, error) {
	row := &ReportRow{BoardID: boardID}

	err := s.db.Pool.QueryRow(ctx, `SELECT name FROM boards WHERE id = $1`, boardID).Scan(&row.BoardName)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, ErrNotFound)
	}

	if err := s.countBuckets(ctx, boardID, row); err != nil {
		return nil, err
	}

	err = s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM item_updates u
		JOIN items i ON u.item_id = i.id
		WHERE i.board_id = $1
			AND ($2::timestamptz IS NULL OR u.created_at >= $2)
			AND ($3::timestamptz IS NULL OR u.created_at < $3)
	`, boardID, start, end).Scan(&row.UpdatesInRange)
	if err != nil {
		return nil, err
	}

	err = s.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(te.minutes), 0)
		FROM time_entries te
		JOIN items i ON te.item_id = i.id
		WHERE i.board_id = $1
			AND ($2::timestamptz IS NULL OR te.created_at >= $2)
			AND ($3::timestamptz IS NULL OR te.created_at < $3)
	`, boardID, start, end).Scan(&row.TimeMinutesInRange)
	if err != nil {
		return nil, err
	}

	// An item counts as updated if any write touched it in the window: a
	// field change, a posted update or a time entry.
	err = s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT i.id FROM items i
			WHERE i.board_id = $1
				AND ($2::timestamptz IS NULL OR i.updated_at >= $2)
				AND ($3::timestamptz IS NULL OR i.updated_at < $3)
			UNION
			SELECT u.item_id FROM item_updates u
			JOIN items i ON u.item_id = i.id
			WHERE i.board_id = $1
				AND ($2::timestamptz IS NULL OR u.created_at >= $2)
				AND ($3::timestamptz IS NULL OR u.created_at < $3)
			UNION
			SELECT te.item_id FROM time_entries te
			JOIN items i ON te.item_id = i.id
			WHERE i.board_id = $1
				AND ($2::timestamptz IS NULL OR te.created_at >= $2)
				AND ($3::timestamptz IS NULL OR te.created_at < $3)
		) touched
	`, boardID, start, end).Scan(&row.ItemsUpdatedInRange)
	if err != nil {
		return nil, err
	}

	return row, nil
}

// countBuckets tallies open items into the canonical status buckets. The
// needs_attention flag overrides the label bucket.
func (s *ReportService) countBuckets(ctx context.Context, boardID uuid.UUID, row *ReportRow) error {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT i.status, COALESCE(l.is_done_state, FALSE), i.needs_attention
		FROM items i
		LEFT JOIN status_labels l ON i.status_label_id = l.id
		WHERE i.board_id = $1 AND i.archived_at IS NULL
	`, boardID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var isDone, needsAttention bool
		if err := rows.Scan(&status, &isDone, &needsAttention); err != nil {
			return err
		}
		row.TotalItems++

		bucket := CanonicalBucket(status, isDone)
		if needsAttention {
			bucket = BucketNeedsAttention
		}
		switch bucket {
		case BucketTodo:
			row.Todo++
		case BucketWorking:
			row.Working++
		case BucketBlocked:
			row.Blocked++
		case BucketDone:
			row.Done++
		case BucketNeedsAttention:
			row.NeedsAttention++
		}
	}
	return rows.Err()
}

// BillingRows builds the per-item per-category rollup for one board's billing
// export. Rows sort by category (empty category last, as "Uncategorized"),
// then item name; entries within a row keep created_at order.
func (s *ReportService) BillingRows(ctx context.Context, boardID uuid.UUID, start, end *time.Time) ([]BillingRow, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT te.id, te.item_id, te.user_id, te.minutes, te.billable_minutes,
		       te.work_category, te.description, te.created_at, i.name
		FROM time_entries te
		JOIN items i ON te.item_id = i.id
		WHERE i.board_id = $1
			AND ($2::timestamptz IS NULL OR te.created_at >= $2)
			AND ($3::timestamptz IS NULL OR te.created_at < $3)
		ORDER BY te.created_at, te.id
	`, boardID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type rowKey struct {
		ItemID   uuid.UUID
		Category string
	}
	grouped := map[rowKey]*BillingRow{}
	var order []rowKey

	for rows.Next() {
		var e models.TimeEntry
		var itemName string
		if err := rows.Scan(&e.ID, &e.ItemID, &e.UserID, &e.Minutes, &e.BillableMinutes,
			&e.WorkCategory, &e.Description, &e.CreatedAt, &itemName); err != nil {
			return nil, err
		}

		key := rowKey{ItemID: e.ItemID, Category: e.WorkCategory}
		br, ok := grouped[key]
		if !ok {
			br = &BillingRow{ItemID: e.ItemID, ItemName: itemName, WorkCategory: e.WorkCategory}
			grouped[key] = br
			order = append(order, key)
		}
		br.TotalMinutes += e.Minutes
		br.BillableMinutes += e.BillableMinutes
		br.Entries = append(br.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]BillingRow, 0, len(order))
	for _, key := range order {
		br := grouped[key]
		if br.WorkCategory == "" {
			br.WorkCategory = UncategorizedLabel
		}
		result = append(result, *br)
	}

	sort.SliceStable(result, func(i, j int) bool {
		ci, cj := result[i].WorkCategory, result[j].WorkCategory
		if (ci == UncategorizedLabel) != (cj == UncategorizedLabel) {
			return cj == UncategorizedLabel
		}
		if ci != cj {
			return ci < cj
		}
		return strings.ToLower(result[i].ItemName) < strings.ToLower(result[j].ItemName)
	})
	return result, nil
}

// WriteCSV streams billing rows as RFC 4180 CSV with a header row.
func WriteCSV(w io.Writer, rows []BillingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"category", "item", "entries", "minutes", "billable_minutes"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.WorkCategory,
			row.ItemName,
			strconv.Itoa(len(row.Entries)),
			strconv.Itoa(row.TotalMinutes),
			strconv.Itoa(row.BillableMinutes),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// BillingFileName builds the export filename from the board name and a date.
func BillingFileName(boardName string, at time.Time) string {
	return fmt.Sprintf("billing-report-%s-%s.csv", slugify(boardName), at.Format("2006-01-02"))
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "board"
	}
	return slug
}
