package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/model"
	"classtrack/internal/store"
)

// dayConstraint is the unique index enforcing one record per
// (student, course, day). Kept in sync with the migration files.
const dayConstraint = "attendance_student_course_day"

// Repository persists attendance records in Postgres. It implements
// RecordStore; both Insert and UpsertByDay lean on the unique day index for
// atomicity under concurrent writers.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, student_id, course_id, occurred_at, status, notes, marked_by, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := row.Scan(&rec.ID, &rec.StudentID, &rec.CourseID, &rec.Date, &rec.Status,
		&rec.Notes, &rec.MarkedBy, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

// Insert writes a new record, failing with ErrDuplicateDay when one already
// exists for the same (student, course, day).
func (r *Repository) Insert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now().UTC()
	}
	out, err := scanRecord(r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, student_id, course_id, day, occurred_at, status, notes, marked_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+recordColumns,
		rec.ID, rec.StudentID, rec.CourseID, model.Day(rec.Date), rec.Date, rec.Status, rec.Notes, rec.MarkedBy))
	if store.IsUniqueViolation(err, dayConstraint) {
		return model.AttendanceRecord{}, ErrDuplicateDay
	}
	return out, err
}

// UpsertByDay inserts a record or, when the day key collides, updates the
// existing row in place. Notes are only overwritten when non-empty. This is
// a single statement, so two concurrent calls cannot produce two rows.
func (r *Repository) UpsertByDay(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now().UTC()
	}
	return scanRecord(r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, student_id, course_id, day, occurred_at, status, notes, marked_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (student_id, course_id, day) DO UPDATE SET
			status = EXCLUDED.status,
			notes = CASE WHEN EXCLUDED.notes <> '' THEN EXCLUDED.notes ELSE attendance_records.notes END,
			marked_by = EXCLUDED.marked_by,
			updated_at = NOW()
		RETURNING `+recordColumns,
		rec.ID, rec.StudentID, rec.CourseID, model.Day(rec.Date), rec.Date, rec.Status, rec.Notes, rec.MarkedBy))
}

// Get returns a raw record by id.
func (r *Repository) Get(ctx context.Context, id string) (model.AttendanceRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.AttendanceRecord{}, apperr.NotFoundf("attendance record not found with id of %s", id)
	}
	return rec, err
}

const populatedSelect = `
	SELECT a.id, a.occurred_at, a.status, a.notes, a.created_at, a.updated_at,
	       s.id, s.name, s.email,
	       c.id, c.name, c.code,
	       m.id, m.name, m.role
	FROM attendance_records a
	JOIN users s ON s.id = a.student_id
	JOIN courses c ON c.id = a.course_id
	JOIN users m ON m.id = a.marked_by`

func scanPopulated(row interface{ Scan(...any) error }) (model.PopulatedRecord, error) {
	var rec model.PopulatedRecord
	err := row.Scan(&rec.ID, &rec.Date, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.Student.ID, &rec.Student.Name, &rec.Student.Email,
		&rec.Course.ID, &rec.Course.Name, &rec.Course.Code,
		&rec.MarkedBy.ID, &rec.MarkedBy.Name, &rec.MarkedBy.Role)
	return rec, err
}

// GetPopulated returns a record with student, course and marker resolved.
func (r *Repository) GetPopulated(ctx context.Context, id string) (model.PopulatedRecord, error) {
	rec, err := scanPopulated(r.db.QueryRowContext(ctx, populatedSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.PopulatedRecord{}, apperr.NotFoundf("attendance record not found with id of %s", id)
	}
	return rec, err
}

// Update patches status and notes; marked_by always records the last writer.
func (r *Repository) Update(ctx context.Context, id string, status *model.AttendanceStatus, notes *string, markedBy string) (model.AttendanceRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, `
		UPDATE attendance_records SET
			status = COALESCE($2, status),
			notes = COALESCE($3, notes),
			marked_by = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+recordColumns,
		id, status, notes, markedBy))
	if errors.Is(err, sql.ErrNoRows) {
		return model.AttendanceRecord{}, apperr.NotFoundf("attendance record not found with id of %s", id)
	}
	return rec, err
}

// Delete removes a record permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("attendance record not found with id of %s", id)
	}
	return nil
}

// whereFor renders the scope and filters of q as SQL clauses. The scope is
// part of the query itself; rows outside it never leave the database.
func whereFor(q Query) (string, []any) {
	clauses := []string{}
	args := []any{}
	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	switch {
	case q.Scope.All:
	case q.Scope.TeacherID != "":
		args = append(args, q.Scope.TeacherID)
		clauses = append(clauses, "a.course_id IN (SELECT id FROM courses WHERE teacher_id = "+next()+")")
	case q.Scope.StudentID != "":
		args = append(args, q.Scope.StudentID)
		clauses = append(clauses, "a.student_id = "+next())
	default:
		// No scope means no rows, not all rows.
		clauses = append(clauses, "FALSE")
	}

	if q.StartDay != nil {
		args = append(args, *q.StartDay)
		clauses = append(clauses, "a.day >= "+next())
	}
	if q.EndDay != nil {
		args = append(args, *q.EndDay)
		clauses = append(clauses, "a.day <= "+next())
	}
	if q.CourseID != "" {
		args = append(args, q.CourseID)
		clauses = append(clauses, "a.course_id = "+next())
	}
	if q.StudentID != "" {
		args = append(args, q.StudentID)
		clauses = append(clauses, "a.student_id = "+next())
	}
	if q.Status != "" {
		args = append(args, q.Status)
		clauses = append(clauses, "a.status = "+next())
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns populated records matching the query, newest first.
func (r *Repository) List(ctx context.Context, q Query) ([]model.PopulatedRecord, error) {
	where, args := whereFor(q)
	rows, err := r.db.QueryContext(ctx, populatedSelect+where+` ORDER BY a.occurred_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []model.PopulatedRecord{}
	for rows.Next() {
		rec, err := scanPopulated(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats aggregates counts by status for the query. Totals and the rate are
// derived by the service.
func (r *Repository) Stats(ctx context.Context, q Query) (Stats, error) {
	where, args := whereFor(q)
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.status, COUNT(*) FROM attendance_records a`+where+` GROUP BY a.status`, args...)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	var st Stats
	for rows.Next() {
		var status model.AttendanceStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		switch status {
		case model.Present:
			st.Present = count
		case model.Absent:
			st.Absent = count
		case model.Late:
			st.Late = count
		case model.Excused:
			st.Excused = count
		}
	}
	return st, rows.Err()
}
