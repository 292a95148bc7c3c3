// Package memory persists operator notes between assistant sessions in a
// local SQLite database.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category, created_at);
`

// DefaultCategory is used when a note is saved without an explicit category.
const DefaultCategory = "general"

// Note is one persisted operator note.
type Note struct {
	ID        string
	Category  string
	Content   string
	CreatedAt time.Time
}

// Store persists notes in a SQLite database file.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and ensures the schema
// exists.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("memory database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open memory database %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids lock contention.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize memory schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Remember saves a note and returns it with its generated ID.
func (s *Store) Remember(ctx context.Context, category, content string) (Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Note{}, fmt.Errorf("note content is required")
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = DefaultCategory
	}

	note := Note{
		ID:        uuid.NewString(),
		Category:  category,
		Content:   content,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notes (id, category, content, created_at) VALUES (?, ?, ?, ?)",
		note.ID, note.Category, note.Content, note.CreatedAt.Unix())
	if err != nil {
		return Note{}, fmt.Errorf("save note: %w", err)
	}
	return note, nil
}

// Recall returns notes newest first, optionally filtered by category. A
// non-positive limit returns all matching notes.
func (s *Store) Recall(ctx context.Context, category string, limit int) ([]Note, error) {
	query := "SELECT id, category, content, created_at FROM notes"
	var args []any

	category = strings.ToLower(strings.TrimSpace(category))
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var note Note
		var createdAt int64
		if err := rows.Scan(&note.ID, &note.Category, &note.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		note.CreatedAt = time.Unix(createdAt, 0).UTC()
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

// Forget deletes a note by ID and reports whether it existed.
func (s *Store) Forget(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("note id is required")
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete note %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete note %s: %w", id, err)
	}
	return affected > 0, nil
}
