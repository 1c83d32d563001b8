package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/database"
	"github.com/anchorhub/anchorhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var validTriggers = map[string]bool{
	models.TriggerStatusChange:  true,
	models.TriggerFieldChange:   true,
	models.TriggerItemCreated:   true,
	models.TriggerItemArchived:  true,
	models.TriggerDueSoon:       true,
	models.TriggerUpdateMention: true,
}

var validActions = map[string]bool{
	models.ActionNotifyAdmins:    true,
	models.ActionNotifyAssignees: true,
	models.ActionNotifyUsers:     true,
	models.ActionSetField:        true,
	models.ActionMoveToGroup:     true,
	models.ActionPostUpdate:      true,
}

// TriggerConfig is the union of per-trigger settings; unused fields are
// ignored by the matcher.
type TriggerConfig struct {
	ToStatus    string      `json:"to_status,omitempty"`
	FromStatus  string      `json:"from_status,omitempty"`
	Field       string      `json:"field,omitempty"`
	From        string      `json:"from,omitempty"`
	To          string      `json:"to,omitempty"`
	WindowHours int         `json:"window_hours,omitempty"`
	UserIDs     []uuid.UUID `json:"user_ids,omitempty"`
}

// ActionConfig is the union of per-action settings.
type ActionConfig struct {
	UserIDs []uuid.UUID `json:"user_ids,omitempty"`
	Field   string      `json:"field,omitempty"`
	Value   string      `json:"value,omitempty"`
	GroupID uuid.UUID   `json:"group_id,omitempty"`
	Body    string      `json:"body,omitempty"`
}

// Condition optionally gates a matched rule on a current item field value.
type Condition struct {
	Field  string `json:"field"`
	Equals string `json:"equals"`
}

// AutomationService evaluates board rules against change events. It never
// fails the originating request: every evaluation lands in automation_logs
// and errors stop at the log.
type AutomationService struct {
	db            *database.DB
	workspace     *WorkspaceService
	notifications *NotificationService

	// Bound after construction; automation actions re-enter these services.
	items   *ItemService
	updates *UpdateService
}

func NewAutomationService(db *database.DB, workspace *WorkspaceService, notifications *NotificationService) *AutomationService {
	return &AutomationService{db: db, workspace: workspace, notifications: notifications}
}

// Bind wires the services automation actions write through. Split from the
// constructor because item/update services consume automation events.
func (s *AutomationService) Bind(items *ItemService, updates *UpdateService) {
	s.items = items
	s.updates = updates
}

const ruleColumns = `id, board_id, name, trigger_type, trigger_config, condition, action_type, action_config, is_active, created_at`

func scanRule(row pgx.Row) (*models.AutomationRule, error) {
	var r models.AutomationRule
	err := row.Scan(
		&r.ID, &r.BoardID, &r.Name, &r.TriggerType, &r.TriggerConfig,
		&r.Condition, &r.ActionType, &r.ActionConfig, &r.IsActive, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("automation rule: %w", ErrNotFound)
		}
		return nil, err
	}
	return &r, nil
}

func (s *AutomationService) Create(ctx context.Context, boardID uuid.UUID, name, triggerType string, triggerConfig json.RawMessage, condition json.RawMessage, actionType string, actionConfig json.RawMessage) (*models.AutomationRule, error) {
	if !validTriggers[triggerType] {
		return nil, fmt.Errorf("unknown trigger_type %q: %w", triggerType, ErrInvariant)
	}
	if !validActions[actionType] {
		return nil, fmt.Errorf("unknown action_type %q: %w", actionType, ErrInvariant)
	}
	if triggerConfig == nil {
		triggerConfig = json.RawMessage("{}")
	}
	if actionConfig == nil {
		actionConfig = json.RawMessage("{}")
	}

	rule, err := scanRule(s.db.Pool.QueryRow(ctx, `
		INSERT INTO automation_rules (board_id, name, trigger_type, trigger_config, condition, action_type, action_config)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+ruleColumns+`
	`, boardID, name, triggerType, triggerConfig, condition, actionType, actionConfig))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("board %s: %w", boardID, ErrInvalidReference)
		}
		return nil, err
	}
	return rule, nil
}

func (s *AutomationService) GetByID(ctx context.Context, ruleID uuid.UUID) (*models.AutomationRule, error) {
	return scanRule(s.db.Pool.QueryRow(ctx, `
		SELECT `+ruleColumns+` FROM automation_rules WHERE id = $1
	`, ruleID))
}

func (s *AutomationService) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]models.AutomationRule, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+ruleColumns+` FROM automation_rules WHERE board_id = $1 ORDER BY created_at
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.AutomationRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	return rules, nil
}

func (s *AutomationService) Patch(ctx context.Context, ruleID uuid.UUID, name *string, isActive *bool) (*models.AutomationRule, error) {
	return scanRule(s.db.Pool.QueryRow(ctx, `
		UPDATE automation_rules
		SET name = COALESCE($1, name), is_active = COALESCE($2, is_active)
		WHERE id = $3
		RETURNING `+ruleColumns+`
	`, name, isActive, ruleID))
}

func (s *AutomationService) Delete(ctx context.Context, ruleID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM automation_rules WHERE id = $1`, ruleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("automation rule: %w", ErrNotFound)
	}
	return nil
}

func (s *AutomationService) Logs(ctx context.Context, ruleID uuid.UUID) ([]models.AutomationLog, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, rule_id, item_id, fired_at, outcome, detail
		FROM automation_logs WHERE rule_id = $1
		ORDER BY fired_at DESC
	`, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AutomationLog
	for rows.Next() {
		var l models.AutomationLog
		if err := rows.Scan(&l.ID, &l.RuleID, &l.ItemID, &l.FiredAt, &l.Outcome, &l.Detail); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// HandleChange implements ChangeConsumer. Inactive rules are skipped at
// matching time; every matched rule produces exactly one log entry.
func (s *AutomationService) HandleChange(ctx context.Context, ev ChangeEvent) {
	if ev.Item == nil {
		return
	}

	rules, err := s.ListByBoard(ctx, ev.Item.BoardID)
	if err != nil {
		log.Printf("automation: rule lookup for board %s failed: %v", ev.Item.BoardID, err)
		return
	}

	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive {
			continue
		}
		if !s.matches(rule, ev) {
			continue
		}
		s.fire(ctx, rule, ev.Item, ev)
	}
}

func (s *AutomationService) matches(rule *models.AutomationRule, ev ChangeEvent) bool {
	var cfg TriggerConfig
	if err := json.Unmarshal(rule.TriggerConfig, &cfg); err != nil {
		return false
	}

	switch rule.TriggerType {
	case models.TriggerStatusChange:
		if ev.Kind != EventItemPatched || ev.Before == nil || ev.Before.Status == ev.Item.Status {
			return false
		}
		if cfg.ToStatus != "" && !statusEquals(cfg.ToStatus, ev.Item) {
			return false
		}
		if cfg.FromStatus != "" && !statusEquals(cfg.FromStatus, ev.Before) {
			return false
		}
		return true

	case models.TriggerFieldChange:
		if ev.Kind != EventItemPatched || ev.Before == nil || cfg.Field == "" {
			return false
		}
		before, after := itemFieldValue(ev.Before, cfg.Field), itemFieldValue(ev.Item, cfg.Field)
		if before == after {
			return false
		}
		if cfg.From != "" && !strings.EqualFold(cfg.From, before) {
			return false
		}
		if cfg.To != "" && !strings.EqualFold(cfg.To, after) {
			return false
		}
		return true

	case models.TriggerItemCreated:
		return ev.Kind == EventItemCreated

	case models.TriggerItemArchived:
		return ev.Kind == EventItemArchived

	case models.TriggerUpdateMention:
		if ev.Kind != EventUpdatePosted || ev.Update == nil {
			return false
		}
		if len(cfg.UserIDs) == 0 {
			return len(ev.Update.Mentions) > 0
		}
		for _, want := range cfg.UserIDs {
			for _, got := range ev.Update.Mentions {
				if want == got {
					return true
				}
			}
		}
		return false

	default:
		// due_soon is only evaluated by the periodic sweep.
		return false
	}
}

func statusEquals(want string, item *models.Item) bool {
	if strings.EqualFold(want, item.Status) {
		return true
	}
	return item.StatusLabelID != nil && want == item.StatusLabelID.String()
}

func itemFieldValue(item *models.Item, field string) string {
	switch field {
	case "status":
		return item.Status
	case "name":
		return item.Name
	case "group_id":
		return item.GroupID.String()
	case "due_date":
		if item.DueDate == nil {
			return ""
		}
		return item.DueDate.Format("2006-01-02")
	case "needs_attention":
		return strconv.FormatBool(item.NeedsAttention)
	case "is_voicemail":
		return strconv.FormatBool(item.IsVoicemail)
	default:
		return ""
	}
}

// fire evaluates the condition and executes the action for one matched rule,
// appending exactly one log entry.
func (s *AutomationService) fire(ctx context.Context, rule *models.AutomationRule, item *models.Item, ev ChangeEvent) {
	if ev.Fired == nil {
		ev.Fired = map[uuid.UUID]bool{}
	}
	if ev.Fired[rule.ID] {
		s.logResult(ctx, rule.ID, &item.ID, models.OutcomeSkipped, "recursion guard")
		return
	}
	ev.Fired[rule.ID] = true

	if len(rule.Condition) > 0 && string(rule.Condition) != "null" {
		var cond Condition
		if err := json.Unmarshal(rule.Condition, &cond); err != nil {
			s.logResult(ctx, rule.ID, &item.ID, models.OutcomeSkipped, "invalid condition: "+err.Error())
			return
		}
		if cond.Field != "" && !strings.EqualFold(cond.Equals, itemFieldValue(item, cond.Field)) {
			s.logResult(ctx, rule.ID, &item.ID, models.OutcomeSkipped, "condition not met")
			return
		}
	}

	detail, err := s.execute(ctx, rule, item, ev)
	if err != nil {
		s.logResult(ctx, rule.ID, &item.ID, models.OutcomeFailed, err.Error())
		return
	}
	s.logResult(ctx, rule.ID, &item.ID, models.OutcomeDelivered, detail)
}

func (s *AutomationService) execute(ctx context.Context, rule *models.AutomationRule, item *models.Item, ev ChangeEvent) (string, error) {
	var cfg ActionConfig
	if err := json.Unmarshal(rule.ActionConfig, &cfg); err != nil {
		return "", fmt.Errorf("invalid action config: %w", err)
	}

	var workspaceID uuid.UUID
	if err := s.db.Pool.QueryRow(ctx, `SELECT workspace_id FROM boards WHERE id = $1`, item.BoardID).Scan(&workspaceID); err != nil {
		return "", err
	}

	switch rule.ActionType {
	case models.ActionNotifyAdmins:
		targets, err := s.workspace.AdminUserIDs(ctx, workspaceID)
		if err != nil {
			return "", err
		}
		return s.notify(ctx, rule, item, targets)

	case models.ActionNotifyAssignees:
		targets, err := s.items.AssigneeUserIDs(ctx, item.ID)
		if err != nil {
			return "", err
		}
		return s.notify(ctx, rule, item, targets)

	case models.ActionNotifyUsers:
		// Notifications never cross the workspace boundary.
		var targets []uuid.UUID
		for _, id := range cfg.UserIDs {
			isMember, err := s.workspace.IsMember(ctx, workspaceID, id)
			if err != nil {
				return "", err
			}
			if isMember {
				targets = append(targets, id)
			}
		}
		return s.notify(ctx, rule, item, targets)

	case models.ActionSetField:
		patch, err := setFieldPatch(cfg)
		if err != nil {
			return "", err
		}
		if _, err := s.items.patch(ctx, item.ID, patch, SystemActor, ev.Fired); err != nil {
			return "", err
		}
		return fmt.Sprintf("set %s=%s", cfg.Field, cfg.Value), nil

	case models.ActionMoveToGroup:
		if cfg.GroupID == uuid.Nil {
			return "", fmt.Errorf("move_to_group requires group_id: %w", ErrInvariant)
		}
		groupID := cfg.GroupID
		if _, err := s.items.patch(ctx, item.ID, ItemPatch{GroupID: &groupID}, SystemActor, ev.Fired); err != nil {
			return "", err
		}
		return "moved to group " + groupID.String(), nil

	case models.ActionPostUpdate:
		body := s.renderTemplate(ctx, cfg.Body, item, ev.Actor)
		if _, err := s.updates.post(ctx, item.ID, nil, body, ev.Fired); err != nil {
			return "", err
		}
		return "posted update", nil

	default:
		return "", fmt.Errorf("unknown action_type %q: %w", rule.ActionType, ErrInvariant)
	}
}

func setFieldPatch(cfg ActionConfig) (ItemPatch, error) {
	value := cfg.Value
	switch cfg.Field {
	case "status":
		return ItemPatch{Status: &value}, nil
	case "name":
		return ItemPatch{Name: &value}, nil
	case "due_date":
		return ItemPatch{DueDate: &value}, nil
	case "needs_attention":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return ItemPatch{}, fmt.Errorf("needs_attention value %q: %w", value, ErrInvariant)
		}
		return ItemPatch{NeedsAttention: &b}, nil
	case "is_voicemail":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return ItemPatch{}, fmt.Errorf("is_voicemail value %q: %w", value, ErrInvariant)
		}
		return ItemPatch{IsVoicemail: &b}, nil
	default:
		return ItemPatch{}, fmt.Errorf("set_field cannot target %q: %w", cfg.Field, ErrInvariant)
	}
}

func (s *AutomationService) notify(ctx context.Context, rule *models.AutomationRule, item *models.Item, targets []uuid.UUID) (string, error) {
	link := fmt.Sprintf("/tasks?board=%s&item=%s", item.BoardID, item.ID)
	body := fmt.Sprintf("%s (automation: %s)", item.Status, rule.Name)

	delivered := 0
	for _, target := range targets {
		if _, err := s.notifications.Enqueue(ctx, target, item.Name, body, link, rule.ID, item.ID); err != nil {
			return "", err
		}
		delivered++
	}
	return fmt.Sprintf("notified %d users", delivered), nil
}

// renderTemplate substitutes {item.name}, {actor}, {status} and {due_date}
// in a post_update body template.
func (s *AutomationService) renderTemplate(ctx context.Context, tmpl string, item *models.Item, actor uuid.UUID) string {
	if tmpl == "" {
		tmpl = "Automation updated {item.name}"
	}

	actorName := "Automation"
	if actor != SystemActor {
		var name string
		if err := s.db.Pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, actor).Scan(&name); err == nil {
			actorName = name
		}
	}

	due := ""
	if item.DueDate != nil {
		due = item.DueDate.Format("2006-01-02")
	}

	r := strings.NewReplacer(
		"{item.name}", item.Name,
		"{actor}", actorName,
		"{status}", item.Status,
		"{due_date}", due,
	)
	return r.Replace(tmpl)
}

func (s *AutomationService) logResult(ctx context.Context, ruleID uuid.UUID, itemID *uuid.UUID, outcome, detail string) {
	if _, err := s.db.Pool.Exec(ctx, `
		INSERT INTO automation_logs (rule_id, item_id, outcome, detail)
		VALUES ($1, $2, $3, $4)
	`, ruleID, itemID, outcome, detail); err != nil {
		log.Printf("automation: failed to log rule %s outcome %s: %v", ruleID, outcome, err)
	}
}

// RunDueSoonSweep evaluates every active due_soon rule against its board's
// open items. Called periodically; the caller caps the cycle with a context
// deadline.
func (s *AutomationService) RunDueSoonSweep(ctx context.Context) error {
	rules, err := s.activeDueSoonRules(ctx)
	if err != nil {
		return err
	}

	for i := range rules {
		rule := &rules[i]

		var cfg TriggerConfig
		if err := json.Unmarshal(rule.TriggerConfig, &cfg); err != nil {
			s.logResult(ctx, rule.ID, nil, models.OutcomeSkipped, "invalid trigger config: "+err.Error())
			continue
		}
		window := cfg.WindowHours
		if window <= 0 {
			window = 24
		}

		items, err := s.dueSoonItems(ctx, rule.BoardID, time.Duration(window)*time.Hour)
		if err != nil {
			s.logResult(ctx, rule.ID, nil, models.OutcomeFailed, err.Error())
			continue
		}

		for j := range items {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			item := &items[j]
			s.fire(ctx, rule, item, ChangeEvent{
				Kind:  models.TriggerDueSoon,
				Item:  item,
				Actor: SystemActor,
				At:    time.Now().UTC(),
				Fired: map[uuid.UUID]bool{},
			})
		}
	}
	return nil
}

func (s *AutomationService) activeDueSoonRules(ctx context.Context) ([]models.AutomationRule, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+ruleColumns+` FROM automation_rules
		WHERE trigger_type = 'due_soon' AND is_active = TRUE
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.AutomationRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	return rules, nil
}

// dueSoonItems returns open items due within the window, excluding items
// whose label is a done state.
func (s *AutomationService) dueSoonItems(ctx context.Context, boardID uuid.UUID, window time.Duration) ([]models.Item, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT i.id, i.board_id, i.group_id, i.name, i.status_label_id, i.status, i.due_date,
		       i.is_voicemail, i.needs_attention, i.order_index, i.archived_at, i.created_at, i.updated_at
		FROM items i
		LEFT JOIN status_labels l ON i.status_label_id = l.id
		WHERE i.board_id = $1
			AND i.archived_at IS NULL
			AND i.due_date IS NOT NULL
			AND i.due_date <= (NOW() + $2::interval)::date
			AND COALESCE(l.is_done_state, FALSE) = FALSE
		ORDER BY i.due_date
	`, boardID, window.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		it, err := scanItemRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, nil
}
