// Package sqlite keeps sessions in a local SQLite database. It backs
// single-binary development runs; production deployments use DynamoDB.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"specmap/application/ports"
	"specmap/domain/chat"
	"specmap/domain/spec"
	"specmap/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	folder_id     TEXT NOT NULL DEFAULT '',
	template_id   TEXT NOT NULL DEFAULT '',
	graph_json    TEXT NOT NULL,
	messages_json TEXT NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0,
	node_count    INTEGER NOT NULL DEFAULT 0,
	preview       TEXT NOT NULL DEFAULT '',
	version       INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_folder ON sessions(folder_id);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
`

// Store implements ports.SessionStore on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writes itself; one connection avoids
	// SQLITE_BUSY under concurrent autosaves.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new session record.
func (s *Store) Create(ctx context.Context, rec *ports.SessionRecord) error {
	graphJSON, messagesJSON, err := encode(rec)
	if err != nil {
		return errors.NewPersistenceError("encode session", err)
	}
	now := time.Now()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, folder_id, template_id, graph_json, messages_json,
			message_count, node_count, preview, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.FolderID, rec.TemplateID, graphJSON, messagesJSON,
		rec.MessageCount, len(rec.Graph.Nodes), rec.Preview, rec.Version, createdAt, now,
	)
	if err != nil {
		return errors.NewPersistenceError("create session", err)
	}
	return nil
}

// Get loads a session record by id.
func (s *Store) Get(ctx context.Context, id string) (*ports.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, folder_id, template_id, graph_json, messages_json,
			message_count, preview, version, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var rec ports.SessionRecord
	var graphJSON, messagesJSON string
	err := row.Scan(
		&rec.ID, &rec.Title, &rec.FolderID, &rec.TemplateID, &graphJSON, &messagesJSON,
		&rec.MessageCount, &rec.Preview, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("session")
	}
	if err != nil {
		return nil, errors.NewPersistenceError("load session", err)
	}
	if err := json.Unmarshal([]byte(graphJSON), &rec.Graph); err != nil {
		return nil, errors.NewPersistenceError("decode graph", err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &rec.Messages); err != nil {
		return nil, errors.NewPersistenceError("decode messages", err)
	}
	return &rec, nil
}

// List returns session summaries, most recently updated first.
func (s *Store) List(ctx context.Context, filter ports.ListFilter) ([]ports.SessionSummary, error) {
	query := `
		SELECT id, title, folder_id, template_id, message_count, node_count, preview, updated_at
		FROM sessions`
	var args []any
	if filter.FolderID != "" {
		query += ` WHERE folder_id = ?`
		args = append(args, filter.FolderID)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewPersistenceError("list sessions", err)
	}
	defer rows.Close()

	var out []ports.SessionSummary
	for rows.Next() {
		var sum ports.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.FolderID, &sum.TemplateID,
			&sum.MessageCount, &sum.NodeCount, &sum.Preview, &sum.UpdatedAt); err != nil {
			return nil, errors.NewPersistenceError("scan session row", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("list sessions", err)
	}
	return out, nil
}

// Save overwrites a session record. The write is version-guarded: a
// record whose version is not newer than the stored one is rejected with
// a conflict, implementing last-write-wins.
func (s *Store) Save(ctx context.Context, rec *ports.SessionRecord) error {
	graphJSON, messagesJSON, err := encode(rec)
	if err != nil {
		return errors.NewPersistenceError("encode session", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET title = ?, folder_id = ?, template_id = ?, graph_json = ?, messages_json = ?,
			message_count = ?, node_count = ?, preview = ?, version = ?, updated_at = ?
		WHERE id = ? AND version < ?`,
		rec.Title, rec.FolderID, rec.TemplateID, graphJSON, messagesJSON,
		rec.MessageCount, len(rec.Graph.Nodes), rec.Preview, rec.Version, time.Now(),
		rec.ID, rec.Version,
	)
	if err != nil {
		return errors.NewPersistenceError("save session", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewPersistenceError("save session", err)
	}
	if affected == 0 {
		if _, getErr := s.Get(ctx, rec.ID); errors.IsNotFound(getErr) {
			return getErr
		}
		return errors.NewConflictError("a newer version of the session is already stored")
	}
	return nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return errors.NewPersistenceError("delete session", err)
	}
	return nil
}

func encode(rec *ports.SessionRecord) (string, string, error) {
	graph := rec.Graph
	if graph.Nodes == nil {
		graph.Nodes = []spec.NodeView{}
	}
	if graph.Edges == nil {
		graph.Edges = []spec.EdgeView{}
	}
	messages := rec.Messages
	if messages == nil {
		messages = []chat.Message{}
	}
	graphJSON, err := json.Marshal(graph)
	if err != nil {
		return "", "", err
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return "", "", err
	}
	return string(graphJSON), string(messagesJSON), nil
}
