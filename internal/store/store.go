// Package store provides the course repository backends.
//
// Courses live in SQLite or PostgreSQL and are read through the dbx query builder.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pocketbase/dbx"

	"github.com/BTreeMap/TripConcierge/internal/course"
	"github.com/BTreeMap/TripConcierge/internal/models"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	coursesTable = "courses"
)

var courseColumns = []string{"id", "name", "venue", "venue_address", "start_date", "end_date"}

// Opts holds configuration options for the stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for the stores.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType returns the database driver a DSN is meant for: "postgres" for
// URLs and key=value connection strings, "sqlite3" for everything else.
func DetectDSNType(dsn string) string {
	d := strings.TrimSpace(dsn)
	if strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://") {
		return DriverPostgres
	}
	for _, key := range []string{"host=", "user=", "dbname=", "sslmode="} {
		if strings.Contains(d, key) {
			return DriverPostgres
		}
	}
	return DriverSQLite
}

// CourseRepository stores courses.
type CourseRepository interface {
	course.Provider
	SaveCourse(ctx context.Context, c models.Course) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	Close() error
}

// Open connects to the backend matching dsn.
func Open(dsn string) (CourseRepository, error) {
	if DetectDSNType(dsn) == DriverPostgres {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		return NewPostgresStore(WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return NewSQLiteStore(WithSQLiteDSN(dsn))
}

// courseRepo is the dbx implementation shared by both backends.
type courseRepo struct {
	db *dbx.DB
}

// Course implements course.Provider.
func (r *courseRepo) Course(ctx context.Context, id string) (models.Course, error) {
	var c models.Course
	err := r.db.Select(courseColumns...).
		From(coursesTable).
		Where(dbx.HashExp{"id": id}).
		WithContext(ctx).
		One(&c)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("courseRepo.Course: not found", "id", id)
		return models.Course{}, fmt.Errorf("%w: %s", course.ErrNotFound, id)
	}
	if err != nil {
		slog.Error("courseRepo.Course query failed", "error", err, "id", id)
		return models.Course{}, fmt.Errorf("failed to query course %s: %w", id, err)
	}
	slog.Debug("courseRepo.Course succeeded", "id", id, "name", c.Name)
	return c, nil
}

// SaveCourse inserts c or replaces the course with the same id.
func (r *courseRepo) SaveCourse(ctx context.Context, c models.Course) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("course id cannot be empty")
	}
	params := dbx.Params{
		"name":          c.Name,
		"venue":         c.Venue,
		"venue_address": c.VenueAddress,
		"start_date":    c.StartDate.UTC(),
		"end_date":      c.EndDate.UTC(),
	}
	res, err := r.db.Update(coursesTable, params, dbx.HashExp{"id": c.ID}).WithContext(ctx).Execute()
	if err != nil {
		slog.Error("courseRepo.SaveCourse update failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to update course %s: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Debug("courseRepo.SaveCourse updated", "id", c.ID)
		return nil
	}

	params["id"] = c.ID
	if _, err := r.db.Insert(coursesTable, params).WithContext(ctx).Execute(); err != nil {
		slog.Error("courseRepo.SaveCourse insert failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to insert course %s: %w", c.ID, err)
	}
	slog.Debug("courseRepo.SaveCourse inserted", "id", c.ID)
	return nil
}

// ListCourses returns every course ordered by start date.
func (r *courseRepo) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.Select(courseColumns...).
		From(coursesTable).
		OrderBy("start_date", "id").
		WithContext(ctx).
		All(&courses)
	if err != nil {
		slog.Error("courseRepo.ListCourses query failed", "error", err)
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	slog.Debug("courseRepo.ListCourses succeeded", "count", len(courses))
	return courses, nil
}

// Close closes the database connection.
func (r *courseRepo) Close() error {
	return r.db.Close()
}
