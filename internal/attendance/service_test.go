package attendance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classtrack/internal/apperr"
	"classtrack/internal/course"
	"classtrack/internal/model"
)

// ── in-memory stores ──

type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]model.User)}
}

func (m *memUsers) add(u model.User) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return u
}

func (m *memUsers) Get(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return model.User{}, apperr.NotFoundf("user not found with id of %s", id)
}

type memCourses struct {
	mu      sync.Mutex
	courses map[string]model.Course
	nextID  int
}

func newMemCourses() *memCourses {
	return &memCourses{courses: make(map[string]model.Course)}
}

func (m *memCourses) add(c model.Course) model.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return c
}

func (m *memCourses) Get(_ context.Context, id string) (model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return model.Course{}, apperr.NotFoundf("course not found with id of %s", id)
}

func (m *memCourses) IsEnrolled(_ context.Context, studentID, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return false, nil
	}
	for _, sid := range c.StudentIDs {
		if sid == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCourses) IsTeacherOf(_ context.Context, teacherID, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	return ok && c.TeacherID == teacherID, nil
}

func (m *memCourses) EnsureSelfCourse(_ context.Context, userID string) (model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code := course.SelfCode(userID)
	for _, c := range m.courses {
		if c.Code == code {
			return c, nil
		}
	}
	m.nextID++
	c := model.Course{
		ID:         fmt.Sprintf("self-course-%d", m.nextID),
		Name:       "Self Attendance",
		Code:       code,
		TeacherID:  userID,
		StudentIDs: []string{userID},
		StartDate:  time.Now().UTC(),
		IsActive:   true,
	}
	m.courses[c.ID] = c
	return c, nil
}

// memRecords mirrors the Postgres repository's semantics: a unique
// (student, course, day) key guards Insert and backs the atomic upsert.
type memRecords struct {
	mu      sync.Mutex
	byID    map[string]model.AttendanceRecord
	byDay   map[string]string // day key -> record id
	nextID  int
	users   *memUsers
	courses *memCourses
}

func newMemRecords(users *memUsers, courses *memCourses) *memRecords {
	return &memRecords{
		byID:    make(map[string]model.AttendanceRecord),
		byDay:   make(map[string]string),
		users:   users,
		courses: courses,
	}
}

func dayKey(rec model.AttendanceRecord) string {
	return rec.StudentID + "|" + rec.CourseID + "|" + model.Day(rec.Date).Format("2006-01-02")
}

func (m *memRecords) Insert(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dayKey(rec)
	if _, exists := m.byDay[key]; exists {
		return model.AttendanceRecord{}, ErrDuplicateDay
	}
	m.nextID++
	rec.ID = fmt.Sprintf("rec-%d", m.nextID)
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	m.byID[rec.ID] = rec
	m.byDay[key] = rec.ID
	return rec, nil
}

func (m *memRecords) UpsertByDay(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dayKey(rec)
	if id, exists := m.byDay[key]; exists {
		existing := m.byID[id]
		existing.Status = rec.Status
		if rec.Notes != "" {
			existing.Notes = rec.Notes
		}
		existing.MarkedBy = rec.MarkedBy
		existing.UpdatedAt = time.Now().UTC()
		m.byID[id] = existing
		return existing, nil
	}
	m.nextID++
	rec.ID = fmt.Sprintf("rec-%d", m.nextID)
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	m.byID[rec.ID] = rec
	m.byDay[key] = rec.ID
	return rec, nil
}

func (m *memRecords) Get(_ context.Context, id string) (model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.byID[id]; ok {
		return rec, nil
	}
	return model.AttendanceRecord{}, apperr.NotFoundf("attendance record not found with id of %s", id)
}

func (m *memRecords) populate(rec model.AttendanceRecord) model.PopulatedRecord {
	student := m.users.users[rec.StudentID]
	marker := m.users.users[rec.MarkedBy]
	c := m.courses.courses[rec.CourseID]
	return model.PopulatedRecord{
		ID:        rec.ID,
		Student:   model.UserRef{ID: student.ID, Name: student.Name, Email: student.Email},
		Course:    model.CourseRef{ID: c.ID, Name: c.Name, Code: c.Code},
		Date:      rec.Date,
		Status:    rec.Status,
		Notes:     rec.Notes,
		MarkedBy:  model.UserRef{ID: marker.ID, Name: marker.Name, Role: marker.Role},
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func (m *memRecords) GetPopulated(_ context.Context, id string) (model.PopulatedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return model.PopulatedRecord{}, apperr.NotFoundf("attendance record not found with id of %s", id)
	}
	return m.populate(rec), nil
}

func (m *memRecords) Update(_ context.Context, id string, status *model.AttendanceStatus, notes *string, markedBy string) (model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return model.AttendanceRecord{}, apperr.NotFoundf("attendance record not found with id of %s", id)
	}
	if status != nil {
		rec.Status = *status
	}
	if notes != nil {
		rec.Notes = *notes
	}
	rec.MarkedBy = markedBy
	rec.UpdatedAt = time.Now().UTC()
	m.byID[id] = rec
	return rec, nil
}

func (m *memRecords) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return apperr.NotFoundf("attendance record not found with id of %s", id)
	}
	delete(m.byID, id)
	delete(m.byDay, dayKey(rec))
	return nil
}

func (m *memRecords) matches(rec model.AttendanceRecord, q Query) bool {
	switch {
	case q.Scope.All:
	case q.Scope.TeacherID != "":
		c, ok := m.courses.courses[rec.CourseID]
		if !ok || c.TeacherID != q.Scope.TeacherID {
			return false
		}
	case q.Scope.StudentID != "":
		if rec.StudentID != q.Scope.StudentID {
			return false
		}
	default:
		return false
	}
	day := model.Day(rec.Date)
	if q.StartDay != nil && day.Before(*q.StartDay) {
		return false
	}
	if q.EndDay != nil && day.After(*q.EndDay) {
		return false
	}
	if q.CourseID != "" && rec.CourseID != q.CourseID {
		return false
	}
	if q.StudentID != "" && rec.StudentID != q.StudentID {
		return false
	}
	if q.Status != "" && rec.Status != q.Status {
		return false
	}
	return true
}

func (m *memRecords) List(_ context.Context, q Query) ([]model.PopulatedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.PopulatedRecord{}
	for _, rec := range m.byID {
		if m.matches(rec, q) {
			out = append(out, m.populate(rec))
		}
	}
	return out, nil
}

func (m *memRecords) Stats(_ context.Context, q Query) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st Stats
	for _, rec := range m.byID {
		if !m.matches(rec, q) {
			continue
		}
		switch rec.Status {
		case model.Present:
			st.Present++
		case model.Absent:
			st.Absent++
		case model.Late:
			st.Late++
		case model.Excused:
			st.Excused++
		}
	}
	return st, nil
}

// capturePublisher records fan-out calls.
type capturePublisher struct {
	mu       sync.Mutex
	upserted []model.PopulatedRecord
	deleted  []string
}

func (p *capturePublisher) RecordUpserted(rec model.PopulatedRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upserted = append(p.upserted, rec)
}

func (p *capturePublisher) RecordDeleted(id, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, id)
}

// ── fixture ──

type env struct {
	users   *memUsers
	courses *memCourses
	records *memRecords
	pub     *capturePublisher
	svc     *Service

	admin   model.User
	teacher model.User
	student model.User
	other   model.User
	courseX model.Course
}

func newEnv(t *testing.T) *env {
	t.Helper()
	users := newMemUsers()
	courses := newMemCourses()
	records := newMemRecords(users, courses)
	pub := &capturePublisher{}

	e := &env{
		users:   users,
		courses: courses,
		records: records,
		pub:     pub,
		svc:     NewService(records, courses, users, pub),
	}
	e.admin = users.add(model.User{ID: "u-admin", Name: "Ada", Email: "ada@school.test", Role: model.RoleAdmin, Status: model.StatusActive})
	e.teacher = users.add(model.User{ID: "u-teacher", Name: "Tom", Email: "tom@school.test", Role: model.RoleTeacher, Status: model.StatusActive})
	e.student = users.add(model.User{ID: "u-student", Name: "Sam", Email: "sam@school.test", Role: model.RoleStudent, Status: model.StatusActive})
	e.other = users.add(model.User{ID: "u-other", Name: "Ola", Email: "ola@school.test", Role: model.RoleStudent, Status: model.StatusActive})
	e.courseX = courses.add(model.Course{
		ID:         "course-x",
		Name:       "Algebra",
		Code:       "ALG-101",
		TeacherID:  e.teacher.ID,
		StudentIDs: []string{e.student.ID, e.other.ID},
		StartDate:  time.Now().UTC(),
		IsActive:   true,
	})
	return e
}

// ── tests ──

func TestCreateInsertsPopulatedRecord(t *testing.T) {
	e := newEnv(t)
	rec, err := e.svc.Create(context.Background(), e.teacher, CreateInput{
		StudentID: e.student.ID,
		CourseID:  e.courseX.ID,
		Status:    model.Present,
		Notes:     "front row",
	})
	require.NoError(t, err)
	assert.Equal(t, e.student.ID, rec.Student.ID)
	assert.Equal(t, "Sam", rec.Student.Name)
	assert.Equal(t, "ALG-101", rec.Course.Code)
	assert.Equal(t, e.teacher.ID, rec.MarkedBy.ID)
	assert.Equal(t, model.Present, rec.Status)
	assert.Len(t, e.pub.upserted, 1)
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, e.teacher, CreateInput{CourseID: e.courseX.ID, Status: model.Present})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	_, err = e.svc.Create(ctx, e.teacher, CreateInput{StudentID: "nope", CourseID: e.courseX.ID, Status: model.Present})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	// Target user is a teacher, not a student.
	_, err = e.svc.Create(ctx, e.admin, CreateInput{StudentID: e.teacher.ID, CourseID: e.courseX.ID, Status: model.Present})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	_, err = e.svc.Create(ctx, e.teacher, CreateInput{StudentID: e.student.ID, CourseID: "nope", Status: model.Present})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	_, err = e.svc.Create(ctx, e.teacher, CreateInput{StudentID: e.student.ID, CourseID: e.courseX.ID, Status: "asleep"})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	// Not enrolled.
	outsider := e.users.add(model.User{ID: "u-out", Name: "Out", Role: model.RoleStudent, Status: model.StatusActive})
	_, err = e.svc.Create(ctx, e.teacher, CreateInput{StudentID: outsider.ID, CourseID: e.courseX.ID, Status: model.Present})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestCreateDuplicateDayConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first, err := e.svc.Create(ctx, e.teacher, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Present,
	})
	require.NoError(t, err)

	_, err = e.svc.Create(ctx, e.teacher, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Late,
	})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	// Original record unchanged.
	got, err := e.records.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Present, got.Status)
	assert.Len(t, e.records.byID, 1)
}

func TestCreateAuthorization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// A student never creates through the explicit path.
	_, err := e.svc.Create(ctx, e.student, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Present,
	})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	// A teacher of a different course is denied.
	stranger := e.users.add(model.User{ID: "u-t2", Name: "Tia", Role: model.RoleTeacher, Status: model.StatusActive})
	_, err = e.svc.Create(ctx, stranger, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Present,
	})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	assert.Empty(t, e.records.byID)
}

func TestUpdateByForeignTeacherForbidden(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rec, err := e.svc.Create(ctx, e.teacher, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Present,
	})
	require.NoError(t, err)

	stranger := e.users.add(model.User{ID: "u-t2", Name: "Tia", Role: model.RoleTeacher, Status: model.StatusActive})
	late := model.Late
	_, err = e.svc.Update(ctx, stranger, rec.ID, &late, nil)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	got, err := e.records.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Present, got.Status)
}

func TestUpdatePatchesAndRemarks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rec, err := e.svc.Create(ctx, e.teacher, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Present,
	})
	require.NoError(t, err)

	excused := model.Excused
	notes := "doctor's appointment"
	updated, err := e.svc.Update(ctx, e.admin, rec.ID, &excused, &notes)
	require.NoError(t, err)
	assert.Equal(t, model.Excused, updated.Status)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, e.admin.ID, updated.MarkedBy.ID)
}

func TestDeleteRemovesAndPublishes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rec, err := e.svc.Create(ctx, e.teacher, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Present,
	})
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(ctx, e.teacher, rec.ID))
	assert.Empty(t, e.records.byID)
	assert.Equal(t, []string{rec.ID}, e.pub.deleted)

	err = e.svc.Delete(ctx, e.teacher, rec.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestSelfMarkUpsertsWithinSameDay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.svc.SelfMark(ctx, e.student, model.Present, "")
	require.NoError(t, err)
	second, err := e.svc.SelfMark(ctx, e.student, model.Late, "overslept")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.Late, second.Status)
	assert.Equal(t, "overslept", second.Notes)
	assert.Len(t, e.records.byID, 1)
}

func TestSelfMarkDefaultsToPresent(t *testing.T) {
	e := newEnv(t)
	rec, err := e.svc.SelfMark(context.Background(), e.student, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.Present, rec.Status)
}

func TestSelfMarkAutoProvisionsPrivateCourse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	rec, err := e.svc.SelfMark(ctx, e.student, model.Present, "")
	require.NoError(t, err)

	c, err := e.courses.Get(ctx, rec.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, e.student.ID, c.TeacherID)
	assert.Equal(t, []string{e.student.ID}, c.StudentIDs)

	// A second user gets their own private course.
	rec2, err := e.svc.SelfMark(ctx, e.other, model.Present, "")
	require.NoError(t, err)
	assert.NotEqual(t, rec.Course.ID, rec2.Course.ID)

	// Repeat use reuses the same course.
	rec3, err := e.svc.SelfMark(ctx, e.student, model.Absent, "")
	require.NoError(t, err)
	assert.Equal(t, rec.Course.ID, rec3.Course.ID)
}

func TestSelfMarkConcurrentCallsYieldOneRecord(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := e.svc.SelfMark(ctx, e.student, model.Present, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, e.records.byID, 1)
}

func TestSelfMarkRejectsInvalidStatus(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.SelfMark(context.Background(), e.student, "asleep", "")
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestListScopingMatrix(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rec, err := e.svc.Create(ctx, e.teacher, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Present,
	})
	require.NoError(t, err)

	contains := func(actor model.User) bool {
		records, err := e.svc.List(ctx, actor, Filters{})
		require.NoError(t, err)
		for _, r := range records {
			if r.ID == rec.ID {
				return true
			}
		}
		return false
	}

	assert.True(t, contains(e.admin), "admin sees all records")
	assert.True(t, contains(e.teacher), "course teacher sees course records")
	assert.True(t, contains(e.student), "student sees own records")

	stranger := e.users.add(model.User{ID: "u-t2", Name: "Tia", Role: model.RoleTeacher, Status: model.StatusActive})
	assert.False(t, contains(stranger), "unrelated teacher sees nothing")
	assert.False(t, contains(e.other), "other student does not see it")
}

func TestGetRecordScoping(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rec, err := e.svc.Create(ctx, e.teacher, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Present,
	})
	require.NoError(t, err)

	_, err = e.svc.Get(ctx, e.admin, rec.ID)
	assert.NoError(t, err)
	_, err = e.svc.Get(ctx, e.teacher, rec.ID)
	assert.NoError(t, err)
	_, err = e.svc.Get(ctx, e.student, rec.ID)
	assert.NoError(t, err)

	// Another student gets Forbidden, not a hint the record exists elsewhere.
	_, err = e.svc.Get(ctx, e.other, rec.ID)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	_, err = e.svc.Get(ctx, e.admin, "missing")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestListFiltersIntersectScope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.svc.Create(ctx, e.teacher, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Status: model.Present,
	})
	require.NoError(t, err)

	// A student filtering for another student's records gets nothing: the
	// filter intersects the mandatory scope instead of widening it.
	records, err := e.svc.List(ctx, e.other, Filters{StudentID: e.student.ID})
	require.NoError(t, err)
	assert.Empty(t, records)

	// Status filter applies within scope.
	records, err = e.svc.List(ctx, e.student, Filters{Status: model.Late})
	require.NoError(t, err)
	assert.Empty(t, records)
	records, err = e.svc.List(ctx, e.student, Filters{Status: model.Present})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListDateRangeInclusive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	today := time.Now().UTC()
	_, err := e.svc.Create(ctx, e.teacher, CreateInput{
		StudentID: e.student.ID, CourseID: e.courseX.ID, Date: &today, Status: model.Present,
	})
	require.NoError(t, err)

	day := model.Day(today)
	records, err := e.svc.List(ctx, e.admin, Filters{StartDate: &day, EndDate: &day})
	require.NoError(t, err)
	assert.Len(t, records, 1, "both bounds inclusive")

	yesterday := day.AddDate(0, 0, -1)
	records, err = e.svc.List(ctx, e.admin, Filters{EndDate: &yesterday})
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = e.svc.List(ctx, e.admin, Filters{StartDate: &yesterday})
	require.NoError(t, err)
	assert.Len(t, records, 1, "open-ended upper bound")
}

func TestStatsCounts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	statuses := []model.AttendanceStatus{model.Present, model.Present, model.Present, model.Absent, model.Late}
	base := time.Now().UTC().AddDate(0, 0, -len(statuses))
	for i, status := range statuses {
		date := base.AddDate(0, 0, i)
		_, err := e.svc.Create(ctx, e.teacher, CreateInput{
			StudentID: e.student.ID, CourseID: e.courseX.ID, Date: &date, Status: status,
		})
		require.NoError(t, err)
	}

	stats, err := e.svc.StatsFor(ctx, e.admin, Filters{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Present: 3, Absent: 1, Late: 1, Excused: 0, Total: 5, AttendanceRate: 80.00}, stats)
}

func TestStatsEmptyScope(t *testing.T) {
	e := newEnv(t)
	stats, err := e.svc.StatsFor(context.Background(), e.student, Filters{})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Zero(t, stats.AttendanceRate)
}

func TestRateRounding(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0, 0))
	assert.Equal(t, 100.0, Rate(3, 0, 3))
	assert.Equal(t, 66.67, Rate(2, 0, 3))
	assert.Equal(t, 80.0, Rate(3, 1, 5))
	assert.Equal(t, 33.33, Rate(1, 0, 3))
}
