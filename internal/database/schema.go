package database

import (
	"context"
	"fmt"
	"strings"
)

// schemaSQL is shared by both drivers; {{pk}}, {{ts}} and {{bool}} are
// replaced with dialect-specific column types. Step references carry no
// foreign keys: their scoping is checked by the store.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS contacts (
	id         {{pk}},
	client_id  BIGINT NOT NULL,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contacts_client ON contacts(client_id);
CREATE INDEX IF NOT EXISTS idx_contacts_phone ON contacts(client_id, phone);

CREATE TABLE IF NOT EXISTS tags (
	id         {{pk}},
	client_id  BIGINT NOT NULL,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	ai_profile TEXT NOT NULL DEFAULT '',
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL,
	UNIQUE(client_id, name)
);

CREATE TABLE IF NOT EXISTS contact_tags (
	contact_id BIGINT NOT NULL,
	tag_id     BIGINT NOT NULL,
	PRIMARY KEY (contact_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_contact_tags_tag ON contact_tags(tag_id);

CREATE TABLE IF NOT EXISTS flow_folders (
	id         {{pk}},
	client_id  BIGINT NOT NULL,
	name       TEXT NOT NULL,
	created_at {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_flow_folders_client ON flow_folders(client_id);

CREATE TABLE IF NOT EXISTS flows (
	id         {{pk}},
	client_id  BIGINT NOT NULL,
	folder_id  BIGINT,
	name       TEXT NOT NULL,
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_flows_client_folder ON flows(client_id, folder_id);

CREATE TABLE IF NOT EXISTS flow_steps (
	id                 {{pk}},
	client_id          BIGINT NOT NULL,
	flow_id            BIGINT NOT NULL,
	title              TEXT NOT NULL DEFAULT '',
	message            TEXT NOT NULL DEFAULT '',
	type               TEXT NOT NULL DEFAULT 'message',
	next_step_id       BIGINT,
	condition_true_id  BIGINT,
	condition_false_id BIGINT,
	position           INTEGER NOT NULL DEFAULT 0,
	created_at         {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_flow_steps_flow ON flow_steps(client_id, flow_id);

CREATE TABLE IF NOT EXISTS kanban_boards (
	id         {{pk}},
	client_id  BIGINT NOT NULL,
	title      TEXT NOT NULL,
	created_at {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kanban_boards_client ON kanban_boards(client_id);

CREATE TABLE IF NOT EXISTS kanban_columns (
	id         {{pk}},
	board_id   BIGINT NOT NULL,
	title      TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL DEFAULT 0,
	created_at {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kanban_columns_board ON kanban_columns(board_id);

CREATE TABLE IF NOT EXISTS kanban_cards (
	id          {{pk}},
	column_id   BIGINT NOT NULL,
	contact_id  BIGINT,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL DEFAULT 0,
	created_at  {{ts}} NOT NULL,
	updated_at  {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kanban_cards_column ON kanban_cards(column_id);

CREATE TABLE IF NOT EXISTS conversations (
	id              {{pk}},
	client_id       BIGINT NOT NULL,
	contact_id      BIGINT,
	lead_name       TEXT NOT NULL DEFAULT '',
	lead_phone      TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'open',
	is_unread       {{bool}} NOT NULL DEFAULT FALSE,
	is_pinned       {{bool}} NOT NULL DEFAULT FALSE,
	assigned_to     TEXT NOT NULL DEFAULT '',
	last_message    TEXT NOT NULL DEFAULT '',
	last_message_at {{ts}},
	created_at      {{ts}} NOT NULL,
	updated_at      {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_client ON conversations(client_id, status);
CREATE INDEX IF NOT EXISTS idx_conversations_phone ON conversations(client_id, lead_phone);

CREATE TABLE IF NOT EXISTS conversation_events (
	id              {{pk}},
	client_id       BIGINT NOT NULL,
	conversation_id BIGINT NOT NULL,
	type            TEXT NOT NULL,
	body            TEXT NOT NULL DEFAULT '',
	actor           TEXT NOT NULL DEFAULT '',
	external_id     TEXT NOT NULL DEFAULT '',
	created_at      {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversation_events_conv ON conversation_events(conversation_id);
DROP INDEX IF EXISTS idx_conversation_events_ext;
CREATE UNIQUE INDEX IF NOT EXISTS idx_conversation_events_ext_unique ON conversation_events(client_id, external_id) WHERE external_id <> '';
`

var dialects = map[string]*strings.Replacer{
	DriverSQLite: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "DATETIME",
		"{{bool}}", "BOOLEAN",
	),
	DriverPostgres: strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ts}}", "TIMESTAMPTZ",
		"{{bool}}", "BOOLEAN",
	),
}

func (db *DB) migrate(ctx context.Context) error {
	ddl := dialects[db.driver].Replace(schemaSQL)
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database: apply schema: %w", err)
		}
	}
	return nil
}
