package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const buildColumns = `id, ip_path, output_path, status, error_message,
    progress_stage, progress_message, report_json, created_at, updated_at`

// Create inserts a new pending build for the given information package path.
func (s *Store) Create(ctx context.Context, ipPath string) (*Build, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO builds (
            id, ip_path, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?)`,
		id,
		ipPath,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert build: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a build by identifier. It returns nil when no build
// matches.
func (s *Store) GetByID(ctx context.Context, id string) (*Build, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buildColumns+` FROM builds WHERE id = ?`, id)
	build, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get build: %w", err)
	}
	return build, nil
}

// Update persists changes to an existing build.
func (s *Store) Update(ctx context.Context, build *Build) error {
	if build == nil {
		return errors.New("build is nil")
	}
	if !ValidStatus(build.Status) {
		return fmt.Errorf("invalid build status %q", build.Status)
	}
	build.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE builds SET
            ip_path = ?, output_path = ?, status = ?, error_message = ?,
            progress_stage = ?, progress_message = ?, report_json = ?, updated_at = ?
        WHERE id = ?`,
		build.IPPath,
		nullableString(build.OutputPath),
		build.Status,
		nullableString(build.ErrorMessage),
		nullableString(build.ProgressStage),
		nullableString(build.ProgressMessage),
		nullableString(build.ReportJSON),
		build.UpdatedAt.Format(time.RFC3339Nano),
		build.ID,
	)
	if err != nil {
		return fmt.Errorf("update build: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("build %s not found", build.ID)
	}
	return nil
}

// List returns builds ordered newest first, up to limit. A non-positive
// limit returns all builds.
func (s *Store) List(ctx context.Context, limit int) ([]*Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var builds []*Build
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, build)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

// ListByStatus returns builds in the given status, oldest first.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Build, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("invalid build status %q", status)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+buildColumns+` FROM builds WHERE status = ? ORDER BY created_at ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("list builds by status: %w", err)
	}
	defer rows.Close()

	var builds []*Build
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, build)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

// Delete removes a build record.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM builds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete build: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(scanner rowScanner) (*Build, error) {
	var (
		build           Build
		outputPath      sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressMessage sql.NullString
		reportJSON      sql.NullString
		createdAt       string
		updatedAt       string
	)
	if err := scanner.Scan(
		&build.ID,
		&build.IPPath,
		&outputPath,
		&build.Status,
		&errorMessage,
		&progressStage,
		&progressMessage,
		&reportJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	build.OutputPath = outputPath.String
	build.ErrorMessage = errorMessage.String
	build.ProgressStage = progressStage.String
	build.ProgressMessage = progressMessage.String
	build.ReportJSON = reportJSON.String

	var err error
	if build.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if build.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &build, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
