package resume

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	"github.com/ManuGH/mediadeck/internal/persistence/sqlite"
)

const schemaVersion = 1

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("resume store closed")

// SqliteStore implements ports.ResumeStore using SQLite.
type SqliteStore struct {
	DB *sql.DB
}

// NewSqliteStore opens or creates the resume database at dbPath.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	issues, err := sqlite.QuickCheck(context.Background(), db)
	if err == nil && len(issues) > 0 {
		err = fmt.Errorf("corrupt database: %s", strings.Join(issues, "; "))
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resume store: %w", err)
	}

	s := &SqliteStore{DB: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resume store: migration failed: %w", err)
	}
	return s, nil
}

func (s *SqliteStore) migrate() error {
	var currentVersion int
	if err := s.DB.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS resume_points (
		track_id TEXT PRIMARY KEY,
		position_ms INTEGER NOT NULL CHECK (position_ms >= 0),
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resume_updated ON resume_points(updated_at);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SqliteStore) Put(ctx context.Context, trackID string, point *ports.ResumePoint) error {
	if point == nil {
		return fmt.Errorf("resume: nil point for %q", trackID)
	}
	query := `
	INSERT INTO resume_points (track_id, position_ms, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(track_id) DO UPDATE SET
		position_ms = excluded.position_ms,
		updated_at = excluded.updated_at
	`
	_, err := s.DB.ExecContext(ctx, query, trackID, point.PositionMillis, point.UpdatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SqliteStore) Get(ctx context.Context, trackID string) (*ports.ResumePoint, error) {
	var point ports.ResumePoint
	var updatedAt string
	err := s.DB.QueryRowContext(ctx,
		`SELECT position_ms, updated_at FROM resume_points WHERE track_id = ?`, trackID,
	).Scan(&point.PositionMillis, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	point.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &point, nil
}

func (s *SqliteStore) Delete(ctx context.Context, trackID string) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM resume_points WHERE track_id = ?", trackID)
	return err
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}

var _ ports.ResumeStore = (*SqliteStore)(nil)
