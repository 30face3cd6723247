package attendance

import (
	"context"
	"errors"
	"math"
	"time"

	"classtrack/internal/apperr"
	"classtrack/internal/metrics"
	"classtrack/internal/model"
)

// ErrDuplicateDay is returned by RecordStore.Insert when a record already
// exists for the same (student, course, day) triple.
var ErrDuplicateDay = errors.New("attendance record exists for this day")

// Query is a scoped, filtered record selection. Scope is mandatory; the
// remaining fields intersect with it.
type Query struct {
	Scope     ReadScope
	StartDay  *time.Time
	EndDay    *time.Time
	CourseID  string
	StudentID string
	Status    model.AttendanceStatus
}

// Stats aggregates record counts by status.
type Stats struct {
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	Total          int     `json:"total"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// RecordStore is the persistence contract for attendance records. Insert and
// UpsertByDay are atomic against the (student, course, day) uniqueness
// constraint; correctness under concurrent writers comes from the store, not
// from callers serializing access.
type RecordStore interface {
	Insert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	UpsertByDay(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	Get(ctx context.Context, id string) (model.AttendanceRecord, error)
	GetPopulated(ctx context.Context, id string) (model.PopulatedRecord, error)
	Update(ctx context.Context, id string, status *model.AttendanceStatus, notes *string, markedBy string) (model.AttendanceRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q Query) ([]model.PopulatedRecord, error)
	Stats(ctx context.Context, q Query) (Stats, error)
}

// CourseStore is the membership oracle the service consults.
type CourseStore interface {
	Get(ctx context.Context, id string) (model.Course, error)
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
	IsTeacherOf(ctx context.Context, teacherID, courseID string) (bool, error)
	EnsureSelfCourse(ctx context.Context, userID string) (model.Course, error)
}

// UserStore resolves referenced users.
type UserStore interface {
	Get(ctx context.Context, id string) (model.User, error)
}

// Publisher receives committed mutations for realtime fan-out.
type Publisher interface {
	RecordUpserted(rec model.PopulatedRecord)
	RecordDeleted(id, studentID string)
}

// NopPublisher drops events; used when no realtime channel is wired.
type NopPublisher struct{}

func (NopPublisher) RecordUpserted(model.PopulatedRecord) {}
func (NopPublisher) RecordDeleted(string, string)         {}

// Service orchestrates attendance operations over the stores, applying the
// authorization policy and publishing committed mutations.
type Service struct {
	records RecordStore
	courses CourseStore
	users   UserStore
	pub     Publisher
}

// NewService creates a service backed by the given stores.
func NewService(records RecordStore, courses CourseStore, users UserStore, pub Publisher) *Service {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Service{records: records, courses: courses, users: users, pub: pub}
}

// CreateInput is the explicit (teacher/admin) create request.
type CreateInput struct {
	StudentID string
	CourseID  string
	Date      *time.Time
	Status    model.AttendanceStatus
	Notes     string
}

// Create records attendance for a student in a course. A record already
// present for the same calendar day fails with Conflict.
func (s *Service) Create(ctx context.Context, actor model.User, in CreateInput) (model.PopulatedRecord, error) {
	if in.StudentID == "" || in.CourseID == "" || in.Status == "" {
		return model.PopulatedRecord{}, apperr.BadRequestf("please provide student, course, and status")
	}
	if !in.Status.Valid() {
		return model.PopulatedRecord{}, apperr.BadRequestf("invalid status %q", in.Status)
	}

	student, err := s.users.Get(ctx, in.StudentID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return model.PopulatedRecord{}, apperr.BadRequestf("student not found")
		}
		return model.PopulatedRecord{}, err
	}
	if student.Role != model.RoleStudent {
		return model.PopulatedRecord{}, apperr.BadRequestf("user is not a student")
	}

	course, err := s.courses.Get(ctx, in.CourseID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return model.PopulatedRecord{}, apperr.BadRequestf("course not found")
		}
		return model.PopulatedRecord{}, err
	}

	enrolled, err := s.courses.IsEnrolled(ctx, in.StudentID, in.CourseID)
	if err != nil {
		return model.PopulatedRecord{}, err
	}
	if !enrolled {
		return model.PopulatedRecord{}, apperr.BadRequestf("student is not enrolled in this course")
	}

	if err := CanMutate(actor, course.TeacherID == actor.ID); err != nil {
		return model.PopulatedRecord{}, err
	}

	date := time.Now().UTC()
	if in.Date != nil {
		date = in.Date.UTC()
	}
	rec, err := s.records.Insert(ctx, model.AttendanceRecord{
		StudentID: in.StudentID,
		CourseID:  in.CourseID,
		Date:      date,
		Status:    in.Status,
		Notes:     in.Notes,
		MarkedBy:  actor.ID,
	})
	if errors.Is(err, ErrDuplicateDay) {
		return model.PopulatedRecord{}, apperr.Conflictf("attendance record already exists for this student, course, and date")
	}
	if err != nil {
		return model.PopulatedRecord{}, err
	}

	populated, err := s.records.GetPopulated(ctx, rec.ID)
	if err != nil {
		return model.PopulatedRecord{}, err
	}
	metrics.Mutations.WithLabelValues("create").Inc()
	s.pub.RecordUpserted(populated)
	return populated, nil
}

// Update patches status and notes of a record the actor is authorized for.
func (s *Service) Update(ctx context.Context, actor model.User, id string, status *model.AttendanceStatus, notes *string) (model.PopulatedRecord, error) {
	if status != nil && !status.Valid() {
		return model.PopulatedRecord{}, apperr.BadRequestf("invalid status %q", *status)
	}
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return model.PopulatedRecord{}, err
	}
	if err := s.authorizeMutation(ctx, actor, rec.CourseID); err != nil {
		return model.PopulatedRecord{}, err
	}
	if _, err := s.records.Update(ctx, id, status, notes, actor.ID); err != nil {
		return model.PopulatedRecord{}, err
	}
	populated, err := s.records.GetPopulated(ctx, id)
	if err != nil {
		return model.PopulatedRecord{}, err
	}
	metrics.Mutations.WithLabelValues("update").Inc()
	s.pub.RecordUpserted(populated)
	return populated, nil
}

// Delete removes a record the actor is authorized for. Hard removal.
func (s *Service) Delete(ctx context.Context, actor model.User, id string) error {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(ctx, actor, rec.CourseID); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	metrics.Mutations.WithLabelValues("delete").Inc()
	s.pub.RecordDeleted(id, rec.StudentID)
	return nil
}

// SelfMark upserts today's record in the actor's private self-attendance
// course. Repeat calls within the same UTC day update in place; the upsert is
// a single atomic store operation, so concurrent duplicate calls converge on
// one record.
func (s *Service) SelfMark(ctx context.Context, actor model.User, status model.AttendanceStatus, notes string) (model.PopulatedRecord, error) {
	if status == "" {
		status = model.Present
	}
	if !status.Valid() {
		return model.PopulatedRecord{}, apperr.BadRequestf("invalid status %q", status)
	}
	course, err := s.courses.EnsureSelfCourse(ctx, actor.ID)
	if err != nil {
		return model.PopulatedRecord{}, err
	}
	rec, err := s.records.UpsertByDay(ctx, model.AttendanceRecord{
		StudentID: actor.ID,
		CourseID:  course.ID,
		Date:      time.Now().UTC(),
		Status:    status,
		Notes:     notes,
		MarkedBy:  actor.ID,
	})
	if err != nil {
		return model.PopulatedRecord{}, err
	}
	populated, err := s.records.GetPopulated(ctx, rec.ID)
	if err != nil {
		return model.PopulatedRecord{}, err
	}
	metrics.Mutations.WithLabelValues("self_mark").Inc()
	s.pub.RecordUpserted(populated)
	return populated, nil
}

// Get returns a single populated record, enforcing read scoping. A record
// outside the actor's scope yields Forbidden, never a leak of its content.
func (s *Service) Get(ctx context.Context, actor model.User, id string) (model.PopulatedRecord, error) {
	populated, err := s.records.GetPopulated(ctx, id)
	if err != nil {
		return model.PopulatedRecord{}, err
	}
	teaches := false
	if actor.Role == model.RoleTeacher {
		if teaches, err = s.courses.IsTeacherOf(ctx, actor.ID, populated.Course.ID); err != nil {
			return model.PopulatedRecord{}, err
		}
	}
	if err := CanReadRecord(actor, populated.Student.ID, teaches); err != nil {
		return model.PopulatedRecord{}, err
	}
	return populated, nil
}

// Filters are the caller-supplied list/stats constraints.
type Filters struct {
	StartDate *time.Time
	EndDate   *time.Time
	CourseID  string
	StudentID string
	Status    model.AttendanceStatus
}

func (s *Service) buildQuery(actor model.User, f Filters) Query {
	q := Query{
		Scope:     ScopeFor(actor),
		CourseID:  f.CourseID,
		StudentID: f.StudentID,
		Status:    f.Status,
	}
	if f.StartDate != nil {
		d := model.Day(*f.StartDate)
		q.StartDay = &d
	}
	if f.EndDate != nil {
		d := model.Day(*f.EndDate)
		q.EndDay = &d
	}
	return q
}

// List returns records visible to the actor, intersected with filters.
func (s *Service) List(ctx context.Context, actor model.User, f Filters) ([]model.PopulatedRecord, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.BadRequestf("invalid status %q", f.Status)
	}
	return s.records.List(ctx, s.buildQuery(actor, f))
}

// StatsFor aggregates counts by status over the actor's visible records.
// Days with no record are excluded from the denominator.
func (s *Service) StatsFor(ctx context.Context, actor model.User, f Filters) (Stats, error) {
	if f.Status != "" && !f.Status.Valid() {
		return Stats{}, apperr.BadRequestf("invalid status %q", f.Status)
	}
	st, err := s.records.Stats(ctx, s.buildQuery(actor, f))
	if err != nil {
		return Stats{}, err
	}
	st.Total = st.Present + st.Absent + st.Late + st.Excused
	st.AttendanceRate = Rate(st.Present, st.Late, st.Total)
	return st, nil
}

// Rate computes the attendance rate in percent, rounded to two decimals.
func Rate(present, late, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present+late)/float64(total)*100*100) / 100
}

func (s *Service) authorizeMutation(ctx context.Context, actor model.User, courseID string) error {
	teaches := false
	if actor.Role == model.RoleTeacher {
		var err error
		if teaches, err = s.courses.IsTeacherOf(ctx, actor.ID, courseID); err != nil {
			return err
		}
	}
	return CanMutate(actor, teaches)
}
