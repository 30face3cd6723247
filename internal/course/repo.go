package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/model"
	"classtrack/internal/store"
)

const courseColumns = `id, name, code, description, teacher_id, start_date, end_date, schedule, is_active, created_at, updated_at`

// selfCodePrefix marks system-provisioned private self-attendance courses.
const selfCodePrefix = "SELF-"

// Repository persists courses and enrollment in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SelfCode returns the deterministic private-course code for a user.
func SelfCode(userID string) string {
	code := selfCodePrefix + userID
	if len(code) > 32 {
		code = code[:32]
	}
	return strings.ToUpper(code)
}

func scanCourse(row interface{ Scan(...any) error }) (model.Course, error) {
	var (
		c        model.Course
		endDate  sql.NullTime
		schedule []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Description, &c.TeacherID,
		&c.StartDate, &endDate, &schedule, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Course{}, err
	}
	if endDate.Valid {
		t := endDate.Time
		c.EndDate = &t
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &c.Schedule); err != nil {
			return model.Course{}, err
		}
	}
	if c.Schedule == nil {
		c.Schedule = []model.ScheduleSlot{}
	}
	return c, nil
}

func (r *Repository) loadStudents(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT student_id FROM course_students WHERE course_id = $1 ORDER BY student_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Get returns a course with its enrolled student ids.
func (r *Repository) Get(ctx context.Context, id string) (model.Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Course{}, apperr.NotFoundf("course not found with id of %s", id)
	}
	if err != nil {
		return model.Course{}, err
	}
	c.StudentIDs, err = r.loadStudents(ctx, id)
	return c, err
}

// Scope restricts List to courses visible to an actor.
type Scope struct {
	TeacherID string // only courses taught by this user
	StudentID string // only courses enrolling this user
}

// List returns courses within the scope, each with its student ids.
func (r *Repository) List(ctx context.Context, scope Scope) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses`
	var args []any
	switch {
	case scope.TeacherID != "":
		query += ` WHERE teacher_id = $1`
		args = append(args, scope.TeacherID)
	case scope.StudentID != "":
		query += ` WHERE id IN (SELECT course_id FROM course_students WHERE student_id = $1)`
		args = append(args, scope.StudentID)
	}
	query += ` ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range courses {
		if courses[i].StudentIDs, err = r.loadStudents(ctx, courses[i].ID); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// Create inserts a course and its initial memberships in one transaction.
func (r *Repository) Create(ctx context.Context, c model.Course) (model.Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Schedule == nil {
		c.Schedule = []model.ScheduleSlot{}
	}
	schedule, err := json.Marshal(c.Schedule)
	if err != nil {
		return model.Course{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Course{}, err
	}
	defer tx.Rollback()

	created, err := scanCourse(tx.QueryRowContext(ctx, `
		INSERT INTO courses (id, name, code, description, teacher_id, start_date, end_date, schedule, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+courseColumns,
		c.ID, c.Name, c.Code, c.Description, c.TeacherID, c.StartDate, c.EndDate, schedule, c.IsActive))
	if store.IsUniqueViolation(err, "") {
		return model.Course{}, apperr.Conflictf("course with code %s already exists", c.Code)
	}
	if err != nil {
		return model.Course{}, err
	}
	for _, sid := range c.StudentIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO course_students (course_id, student_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, created.ID, sid); err != nil {
			return model.Course{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Course{}, err
	}
	created.StudentIDs = c.StudentIDs
	if created.StudentIDs == nil {
		created.StudentIDs = []string{}
	}
	return created, nil
}

// Patch holds optional course fields for Update.
type Patch struct {
	Name        *string
	Code        *string
	Description *string
	TeacherID   *string
	StartDate   *time.Time
	EndDate     *time.Time
	Schedule    []model.ScheduleSlot
	IsActive    *bool
}

// Update patches a course. Missing fields keep their value.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (model.Course, error) {
	var schedule []byte
	if p.Schedule != nil {
		b, err := json.Marshal(p.Schedule)
		if err != nil {
			return model.Course{}, err
		}
		schedule = b
	}
	if p.Code != nil {
		upper := strings.ToUpper(strings.TrimSpace(*p.Code))
		p.Code = &upper
	}
	c, err := scanCourse(r.db.QueryRowContext(ctx, `
		UPDATE courses SET
			name = COALESCE($2, name),
			code = COALESCE($3, code),
			description = COALESCE($4, description),
			teacher_id = COALESCE($5, teacher_id),
			start_date = COALESCE($6, start_date),
			end_date = COALESCE($7, end_date),
			schedule = COALESCE($8, schedule),
			is_active = COALESCE($9, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+courseColumns,
		id, p.Name, p.Code, p.Description, p.TeacherID, p.StartDate, p.EndDate, schedule, p.IsActive))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Course{}, apperr.NotFoundf("course not found with id of %s", id)
	}
	if store.IsUniqueViolation(err, "") {
		return model.Course{}, apperr.Conflictf("course code already in use")
	}
	if err != nil {
		return model.Course{}, err
	}
	c.StudentIDs, err = r.loadStudents(ctx, id)
	return c, err
}

// Delete removes a course, its memberships and its attendance records.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("course not found with id of %s", id)
	}
	return nil
}

// AddStudents enrolls students; already-enrolled ids are no-ops.
func (r *Repository) AddStudents(ctx context.Context, courseID string, studentIDs []string) error {
	for _, sid := range studentIDs {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO course_students (course_id, student_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, courseID, sid); err != nil {
			return err
		}
	}
	return nil
}

// RemoveStudents unenrolls students; absent ids are no-ops.
func (r *Repository) RemoveStudents(ctx context.Context, courseID string, studentIDs []string) error {
	for _, sid := range studentIDs {
		if _, err := r.db.ExecContext(ctx, `
			DELETE FROM course_students WHERE course_id = $1 AND student_id = $2`,
			courseID, sid); err != nil {
			return err
		}
	}
	return nil
}

// IsEnrolled reports whether the student is enrolled in the course.
func (r *Repository) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM course_students WHERE course_id = $1 AND student_id = $2)`,
		courseID, studentID).Scan(&exists)
	return exists, err
}

// IsTeacherOf reports whether the user teaches the course.
func (r *Repository) IsTeacherOf(ctx context.Context, teacherID, courseID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1 AND teacher_id = $2)`,
		courseID, teacherID).Scan(&exists)
	return exists, err
}

// EnsureSelfCourse returns the user's private self-attendance course,
// creating it on first use. The upsert is keyed on the deterministic unique
// code, so concurrent first calls converge on one course. The owning user is
// both teacher and sole enrolled student.
func (r *Repository) EnsureSelfCourse(ctx context.Context, userID string) (model.Course, error) {
	code := SelfCode(userID)
	c, err := scanCourse(r.db.QueryRowContext(ctx, `
		INSERT INTO courses (id, name, code, description, teacher_id, start_date, schedule, is_active)
		VALUES ($1, 'Self Attendance', $2, 'Auto-created self-attendance course', $3, NOW(), '[]', TRUE)
		ON CONFLICT (code) DO UPDATE SET updated_at = courses.updated_at
		RETURNING `+courseColumns,
		uuid.NewString(), code, userID))
	if err != nil {
		return model.Course{}, err
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO course_students (course_id, student_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, c.ID, userID); err != nil {
		return model.Course{}, err
	}
	c.StudentIDs = []string{userID}
	return c, nil
}
