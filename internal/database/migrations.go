package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	// The member directory is maintained by the external auth service; this
	// table is its local projection.
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		handle VARCHAR(100),
		avatar_url VARCHAR(500),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS workspaces (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS workspace_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(50) NOT NULL DEFAULT 'member',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(workspace_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS boards (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		archived_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS board_groups (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		board_id UUID NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		order_index DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS status_labels (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		scope VARCHAR(20) NOT NULL DEFAULT 'board',
		board_id UUID REFERENCES boards(id) ON DELETE CASCADE,
		label VARCHAR(255) NOT NULL,
		color VARCHAR(9) NOT NULL DEFAULT '#C4C4C4FF',
		order_index DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_done_state BOOLEAN NOT NULL DEFAULT FALSE,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE NULLS NOT DISTINCT (scope, board_id, label)
	)`,

	`CREATE TABLE IF NOT EXISTS items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		board_id UUID NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		group_id UUID NOT NULL REFERENCES board_groups(id) ON DELETE CASCADE,
		name VARCHAR(500) NOT NULL,
		status_label_id UUID REFERENCES status_labels(id),
		status VARCHAR(255) NOT NULL DEFAULT 'To Do',
		due_date DATE,
		is_voicemail BOOLEAN NOT NULL DEFAULT FALSE,
		needs_attention BOOLEAN NOT NULL DEFAULT FALSE,
		order_index DOUBLE PRECISION NOT NULL DEFAULT 0,
		archived_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS subitems (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		item_id UUID NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		name VARCHAR(500) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'todo',
		order_index DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS item_assignees (
		item_id UUID NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		assigned_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (item_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS item_updates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		item_id UUID NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		author_user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		body TEXT NOT NULL,
		mentions UUID[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS item_files (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		item_id UUID NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		file_name VARCHAR(500) NOT NULL,
		file_url VARCHAR(1000) NOT NULL,
		mime VARCHAR(255) NOT NULL DEFAULT 'application/octet-stream',
		uploaded_by UUID REFERENCES users(id) ON DELETE SET NULL,
		uploaded_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS time_entries (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		item_id UUID NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		minutes INTEGER NOT NULL CHECK (minutes >= 0),
		billable_minutes INTEGER NOT NULL CHECK (billable_minutes >= 0 AND billable_minutes <= minutes),
		work_category VARCHAR(255) NOT NULL DEFAULT 'Other',
		description TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS automation_rules (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		board_id UUID NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		trigger_type VARCHAR(50) NOT NULL,
		trigger_config JSONB NOT NULL DEFAULT '{}',
		condition JSONB,
		action_type VARCHAR(50) NOT NULL,
		action_config JSONB NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS automation_logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		rule_id UUID NOT NULL REFERENCES automation_rules(id) ON DELETE CASCADE,
		item_id UUID REFERENCES items(id) ON DELETE SET NULL,
		fired_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		outcome VARCHAR(20) NOT NULL,
		detail TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(500) NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		link_url VARCHAR(1000),
		status VARCHAR(20) NOT NULL DEFAULT 'unread',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		read_at TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_workspace_members_workspace_id ON workspace_members(workspace_id)`,
	`CREATE INDEX IF NOT EXISTS idx_workspace_members_user_id ON workspace_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_workspace_id ON boards(workspace_id)`,
	`CREATE INDEX IF NOT EXISTS idx_board_groups_board_id ON board_groups(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_status_labels_board_id ON status_labels(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_board_id ON items(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_group_id ON items(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_due_date ON items(due_date) WHERE due_date IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_subitems_item_id ON subitems(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_item_assignees_user_id ON item_assignees(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_item_updates_item_id ON item_updates(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_item_files_item_id ON item_files(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_item_id ON time_entries(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_created_at ON time_entries(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_automation_rules_board_id ON automation_rules(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_automation_logs_rule_id ON automation_logs(rule_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE status = 'unread'`,

	// Global default label catalog. Every board sees these in addition to its
	// own labels.
	`INSERT INTO status_labels (scope, board_id, label, color, order_index, is_done_state)
	VALUES
		('global', NULL, 'To Do', '#C4C4C4FF', 0, FALSE),
		('global', NULL, 'Working On It', '#FDAB3DFF', 1, FALSE),
		('global', NULL, 'Stuck', '#E2445CFF', 2, FALSE),
		('global', NULL, 'Needs Attention', '#A25DDCFF', 3, FALSE),
		('global', NULL, 'Done', '#00C875FF', 4, TRUE)
	ON CONFLICT (scope, board_id, label) DO NOTHING`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
