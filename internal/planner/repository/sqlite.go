package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"secureplan/internal/planner/models"

	"github.com/ncruces/go-sqlite3"
)

// ============================================================
// SQLite Project Library
// ============================================================

var (
	ErrNotFound    = errors.New("project not found")
	ErrStorageFull = errors.New("project library storage is full")
)

//go:embed migrations/001_init_library.sql
var initLibrarySQL string

type Repository struct {
	db       *sql.DB
	maxBytes int64
}

// New создает репозиторий; maxBytes <= 0 снимает ограничение размера.
func New(db *sql.DB, maxBytes int64) *Repository {
	return &Repository{db: db, maxBytes: maxBytes}
}

// Init применяет миграции.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, initLibrarySQL); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// ListAll возвращает все проекты, самые новые первыми.
func (r *Repository) ListAll(ctx context.Context) ([]models.SavedProject, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT payload
        FROM projects
        ORDER BY position ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]models.SavedProject, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var p models.SavedProject
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Get возвращает проект по timestamp.
func (r *Repository) Get(ctx context.Context, timestamp string) (*models.SavedProject, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT payload
        FROM projects
        WHERE timestamp = ?
    `, timestamp)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var p models.SavedProject
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	return &p, nil
}

// Save добавляет проект в начало библиотеки или обновляет существующий
// с тем же timestamp на его месте. Запись атомарна: при ошибке
// библиотека не меняется.
func (r *Repository) Save(ctx context.Context, project models.SavedProject) error {
	if project.Timestamp == "" {
		return fmt.Errorf("project timestamp is empty")
	}

	payload, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	size := int64(len(payload))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return mapWriteError(err)
	}
	defer tx.Rollback()

	var existing sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT size_bytes FROM projects WHERE timestamp = ?`, project.Timestamp).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if r.maxBytes > 0 {
		var total int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(size_bytes), 0) FROM projects`).Scan(&total); err != nil {
			return err
		}
		if total-existing.Int64+size > r.maxBytes {
			return fmt.Errorf("%w: %d of %d bytes used, project needs %d", ErrStorageFull, total, r.maxBytes, size)
		}
	}

	savedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if existing.Valid {
		_, err = tx.ExecContext(ctx, `
            UPDATE projects
            SET name = ?, payload = ?, size_bytes = ?, saved_at = ?
            WHERE timestamp = ?
        `, project.Name, string(payload), size, savedAt, project.Timestamp)
	} else {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO projects (timestamp, position, name, payload, size_bytes, saved_at)
            VALUES (?, (SELECT COALESCE(MIN(position), 0) - 1 FROM projects), ?, ?, ?, ?)
        `, project.Timestamp, project.Name, string(payload), size, savedAt)
	}
	if err != nil {
		return mapWriteError(err)
	}

	return mapWriteError(tx.Commit())
}

// Delete удаляет проект; отсутствие записи не ошибка.
func (r *Repository) Delete(ctx context.Context, timestamp string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE timestamp = ?`, timestamp)
	return err
}

// Usage возвращает занятый объем и лимит библиотеки в байтах.
func (r *Repository) Usage(ctx context.Context) (used, limit int64, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size_bytes), 0) FROM projects`).Scan(&used)
	return used, r.maxBytes, err
}

// Ping проверяет соединение с базой.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sqlite3.FULL) {
		return fmt.Errorf("%w: %v", ErrStorageFull, err)
	}
	return err
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
