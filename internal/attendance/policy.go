package attendance

import (
	"classtrack/internal/apperr"
	"classtrack/internal/model"
)

// ReadScope is the mandatory visibility constraint attached to every list
// and aggregate query. It is translated into a WHERE clause by the store,
// never applied as a post-filter.
type ReadScope struct {
	All       bool   // admin: every record
	TeacherID string // teacher: records in courses they teach
	StudentID string // student: their own records
}

// ScopeFor computes the read scope for an actor. Unknown roles fall through
// to the most restrictive scope.
func ScopeFor(actor model.User) ReadScope {
	switch actor.Role {
	case model.RoleAdmin:
		return ReadScope{All: true}
	case model.RoleTeacher:
		return ReadScope{TeacherID: actor.ID}
	case model.RoleStudent:
		return ReadScope{StudentID: actor.ID}
	}
	return ReadScope{StudentID: actor.ID}
}

// CanReadRecord decides whether the actor may read a single record.
// teaches must hold the precomputed fact that the actor teaches the
// record's course.
func CanReadRecord(actor model.User, recordStudentID string, teaches bool) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTeacher:
		if teaches {
			return nil
		}
	case model.RoleStudent:
		if actor.ID == recordStudentID {
			return nil
		}
	}
	return apperr.Forbiddenf("not authorized to access this attendance record")
}

// CanMutate decides whether the actor may create, update or delete a record
// in the target course. Students are always denied here; their only write
// path is self-marking.
func CanMutate(actor model.User, teaches bool) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTeacher:
		if teaches {
			return nil
		}
		return apperr.Forbiddenf("not authorized to mark attendance for this course")
	case model.RoleStudent:
		return apperr.Forbiddenf("students can only mark their own attendance")
	}
	return apperr.Forbiddenf("not authorized")
}

// CanManageCourse decides whether the actor may update or delete a course.
func CanManageCourse(actor model.User, teacherID string) error {
	if actor.Role == model.RoleAdmin || actor.ID == teacherID {
		return nil
	}
	return apperr.Forbiddenf("not authorized to manage this course")
}
