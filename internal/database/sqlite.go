// Package database persists sync schedules. The SQLite store is the durable
// production backend; the memory store backs tests and ephemeral runs.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"csync-go/internal/database/migrations"
	"csync-go/internal/schedule"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements schedule.Store on a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a schedule database at path and brings
// its schema up to date. path can be ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs and runs pending migrations. Exported for tools and tests that
// need a properly configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite defaults foreign keys to OFF for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

const scheduleColumns = `
	id, name, is_enabled,
	source_remote, source_path, destination_remote, destination_path,
	sync_type, encrypt_source, encrypt_destination,
	frequency, custom_interval_minutes, scheduled_hour, scheduled_minute, scheduled_days,
	last_run_at, last_run_success, last_run_error, next_run_at,
	run_count, failure_count, created_at, modified_at`

// List returns all schedules in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]schedule.SyncSchedule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+scheduleColumns+" FROM schedules ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	defer rows.Close()

	var out []schedule.SyncSchedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	return out, nil
}

// Put inserts or replaces a schedule by ID. Upserting keeps the original
// rowid, which preserves insertion order for List.
func (s *SQLiteStore) Put(ctx context.Context, sched schedule.SyncSchedule) error {
	days, err := encodeDays(sched.ScheduledDays)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			is_enabled = excluded.is_enabled,
			source_remote = excluded.source_remote,
			source_path = excluded.source_path,
			destination_remote = excluded.destination_remote,
			destination_path = excluded.destination_path,
			sync_type = excluded.sync_type,
			encrypt_source = excluded.encrypt_source,
			encrypt_destination = excluded.encrypt_destination,
			frequency = excluded.frequency,
			custom_interval_minutes = excluded.custom_interval_minutes,
			scheduled_hour = excluded.scheduled_hour,
			scheduled_minute = excluded.scheduled_minute,
			scheduled_days = excluded.scheduled_days,
			last_run_at = excluded.last_run_at,
			last_run_success = excluded.last_run_success,
			last_run_error = excluded.last_run_error,
			next_run_at = excluded.next_run_at,
			run_count = excluded.run_count,
			failure_count = excluded.failure_count,
			created_at = excluded.created_at,
			modified_at = excluded.modified_at`,
		sched.ID, sched.Name, sched.IsEnabled,
		sched.SourceRemote, sched.SourcePath, sched.DestinationRemote, sched.DestinationPath,
		string(sched.SyncType), sched.EncryptSource, sched.EncryptDestination,
		string(sched.Frequency), nullInt(sched.CustomIntervalMinutes),
		nullInt(sched.ScheduledHour), nullInt(sched.ScheduledMinute), days,
		nullTime(sched.LastRunAt), nullBool(sched.LastRunSuccess),
		nullString(sched.LastRunError), nullTime(sched.NextRunAt),
		sched.RunCount, sched.FailureCount, sched.CreatedAt, sched.ModifiedAt)
	if err != nil {
		return fmt.Errorf("storing schedule %s: %w", sched.ID, err)
	}
	return nil
}

// Delete removes a schedule by ID. Deleting a missing ID is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting schedule %s: %w", id, err)
	}
	return nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanSchedule(rows *sql.Rows) (schedule.SyncSchedule, error) {
	var (
		sched               schedule.SyncSchedule
		syncType, frequency string
		interval, hour, min sql.NullInt64
		days                sql.NullString
		lastRunAt           sql.NullTime
		lastRunSuccess      sql.NullBool
		lastRunError        sql.NullString
		nextRunAt           sql.NullTime
	)

	err := rows.Scan(
		&sched.ID, &sched.Name, &sched.IsEnabled,
		&sched.SourceRemote, &sched.SourcePath, &sched.DestinationRemote, &sched.DestinationPath,
		&syncType, &sched.EncryptSource, &sched.EncryptDestination,
		&frequency, &interval, &hour, &min, &days,
		&lastRunAt, &lastRunSuccess, &lastRunError, &nextRunAt,
		&sched.RunCount, &sched.FailureCount, &sched.CreatedAt, &sched.ModifiedAt)
	if err != nil {
		return schedule.SyncSchedule{}, fmt.Errorf("scanning schedule: %w", err)
	}

	sched.SyncType = schedule.SyncType(syncType)
	sched.Frequency = schedule.Frequency(frequency)
	sched.CustomIntervalMinutes = intFromNull(interval)
	sched.ScheduledHour = intFromNull(hour)
	sched.ScheduledMinute = intFromNull(min)
	if days.Valid {
		if err := json.Unmarshal([]byte(days.String), &sched.ScheduledDays); err != nil {
			return schedule.SyncSchedule{}, fmt.Errorf("decoding weekdays for %s: %w", sched.ID, err)
		}
	}
	if lastRunAt.Valid {
		t := lastRunAt.Time
		sched.LastRunAt = &t
	}
	if lastRunSuccess.Valid {
		b := lastRunSuccess.Bool
		sched.LastRunSuccess = &b
	}
	if lastRunError.Valid {
		s := lastRunError.String
		sched.LastRunError = &s
	}
	if nextRunAt.Valid {
		t := nextRunAt.Time
		sched.NextRunAt = &t
	}

	return sched, nil
}

// encodeDays serializes the weekday set as JSON, keeping an absent set NULL
// rather than an empty array so it round-trips as configured.
func encodeDays(days []int) (any, error) {
	if days == nil {
		return nil, nil
	}
	b, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("encoding weekdays: %w", err)
	}
	return string(b), nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Compile-time check that SQLiteStore implements schedule.Store.
var _ schedule.Store = (*SQLiteStore)(nil)
