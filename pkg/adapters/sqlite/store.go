// Package sqlite stores module records in a SQLite database (pure Go driver, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/nestflow/pkg/domain"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so timestamps sort lexically in ORDER BY.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS modules (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	thumbnail_url TEXT NOT NULL DEFAULT '',
	visibility    TEXT NOT NULL DEFAULT 'draft',
	views         INTEGER NOT NULL DEFAULT 0,
	content       TEXT NOT NULL DEFAULT '{"nodes":[]}',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
`

// Store implements ports.ModuleStore on a SQLite database. The graph is kept in the
// content column as the same JSON document the other stores use.
type Store struct {
	conn *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer at a time.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Load reads a module row.
func (s *Store) Load(ctx context.Context, moduleID string) (*domain.Module, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, title, description, thumbnail_url, visibility, views, content, created_at, updated_at
		FROM modules WHERE id = ?`, moduleID)

	var (
		m                  domain.Module
		visibility         string
		content            string
		createdAt, updated string
	)
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.ThumbnailURL, &visibility, &m.Views, &content, &createdAt, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrModuleNotFound
		}
		return nil, fmt.Errorf("querying module %s: %w", moduleID, err)
	}
	m.Visibility = domain.Visibility(visibility)

	if err := json.Unmarshal([]byte(content), &m.Content); err != nil {
		return nil, fmt.Errorf("decoding graph of %s: %w", moduleID, err)
	}
	if m.Content.Nodes == nil {
		m.Content.Nodes = []domain.Node{}
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of %s: %w", moduleID, err)
	}
	if m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at of %s: %w", moduleID, err)
	}
	return &m, nil
}

// Save upserts a module row.
func (s *Store) Save(ctx context.Context, module *domain.Module) error {
	content, err := json.Marshal(module.Content)
	if err != nil {
		return fmt.Errorf("marshaling graph: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO modules (id, title, description, thumbnail_url, visibility, views, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			thumbnail_url = excluded.thumbnail_url,
			visibility = excluded.visibility,
			views = excluded.views,
			content = excluded.content,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		module.ID, module.Title, module.Description, module.ThumbnailURL, string(module.Visibility), module.Views,
		string(content),
		module.CreatedAt.UTC().Format(timeLayout),
		module.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving module %s: %w", module.ID, err)
	}
	return nil
}

// Delete removes a module row.
func (s *Store) Delete(ctx context.Context, moduleID string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM modules WHERE id = ?`, moduleID); err != nil {
		return fmt.Errorf("deleting module %s: %w", moduleID, err)
	}
	return nil
}

// List returns module ids, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id FROM modules ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning module id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
