package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when the registry holds no artifact under a name.
var ErrNotFound = errors.New("artifact not found")

// Registry stores versioned artifact blobs in SQLite. The latest row for a
// name wins.
type Registry struct {
	database *sql.DB
}

// ArtifactRecord is one stored artifact version.
type ArtifactRecord struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Payload   []byte    `json:"-"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// OpenRegistry opens (and if needed creates) the registry database.
func OpenRegistry(path string) (*Registry, error) {
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	query := `
    CREATE TABLE IF NOT EXISTS artifacts (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name VARCHAR(50) NOT NULL,
        version VARCHAR(50) NOT NULL,
        payload BLOB NOT NULL,
        created_at DATETIME NOT NULL,
        UNIQUE(name, version)
    );
    CREATE INDEX IF NOT EXISTS idx_artifacts_name ON artifacts(name, id);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create registry tables: %w", err)
	}
	return &Registry{database: database}, nil
}

func (r *Registry) Close() error {
	return r.database.Close()
}

// SaveArtifact stores payload under name/version, replacing an existing row
// with the same version.
func (r *Registry) SaveArtifact(name, version string, payload []byte) error {
	if name == "" || version == "" {
		return errors.New("artifact name and version are required")
	}
	if len(payload) == 0 {
		return errors.New("artifact payload is empty")
	}
	tx, err := r.database.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM artifacts WHERE name = ? AND version = ?`, name, version)
	if err != nil {
		tx.Rollback()
		return err
	}
	_, err = tx.Exec(`
        INSERT INTO artifacts (name, version, payload, created_at)
        VALUES (?, ?, ?, ?)`,
		name, version, payload, time.Now().UTC())
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// LatestArtifact returns the most recently saved version of name.
func (r *Registry) LatestArtifact(name string) (*ArtifactRecord, error) {
	var rec ArtifactRecord
	err := r.database.QueryRow(`
        SELECT name, version, payload, created_at
        FROM artifacts
        WHERE name = ?
        ORDER BY id DESC
        LIMIT 1`, name).Scan(&rec.Name, &rec.Version, &rec.Payload, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	rec.Size = len(rec.Payload)
	return &rec, nil
}

// ListArtifacts returns every stored version without payloads, newest first.
func (r *Registry) ListArtifacts() ([]ArtifactRecord, error) {
	rows, err := r.database.Query(`
        SELECT name, version, length(payload), created_at
        FROM artifacts
        ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]ArtifactRecord, 0)
	for rows.Next() {
		var rec ArtifactRecord
		if err := rows.Scan(&rec.Name, &rec.Version, &rec.Size, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
