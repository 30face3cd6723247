package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/apperr"
	"classtrack/internal/attendance"
	"classtrack/internal/course"
	"classtrack/internal/model"
)

func (s *Server) listCourses(c *gin.Context) {
	actor := actorFrom(c)
	scope := course.Scope{}
	switch actor.Role {
	case model.RoleTeacher:
		scope.TeacherID = actor.ID
	case model.RoleStudent:
		scope.StudentID = actor.ID
	}
	courses, err := s.courses.List(c.Request.Context(), scope)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, courses)
}

func (s *Server) getCourse(c *gin.Context) {
	actor := actorFrom(c)
	found, err := s.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleTeacher:
		if found.TeacherID != actor.ID {
			s.fail(c, apperr.Forbiddenf("not authorized to access this course"))
			return
		}
	case model.RoleStudent:
		enrolled := false
		for _, sid := range found.StudentIDs {
			if sid == actor.ID {
				enrolled = true
				break
			}
		}
		if !enrolled {
			s.fail(c, apperr.Forbiddenf("not authorized to access this course"))
			return
		}
	}
	respond(c, http.StatusOK, found)
}

type courseRequest struct {
	Name        string               `json:"name"`
	Code        string               `json:"code"`
	Description string               `json:"description"`
	Teacher     string               `json:"teacher"`
	Students    []string             `json:"students"`
	StartDate   string               `json:"startDate"`
	EndDate     string               `json:"endDate"`
	Schedule    []model.ScheduleSlot `json:"schedule"`
	IsActive    *bool                `json:"isActive"`
}

// validateRoster checks that referenced users exist with the right roles.
func (s *Server) validateRoster(c *gin.Context, teacherID string, studentIDs []string) error {
	ctx := c.Request.Context()
	if teacherID != "" {
		teacher, err := s.users.Get(ctx, teacherID)
		if err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				return apperr.BadRequestf("teacher not found")
			}
			return err
		}
		if teacher.Role != model.RoleTeacher && teacher.Role != model.RoleAdmin {
			return apperr.BadRequestf("assigned user must be a teacher or admin")
		}
	}
	for _, sid := range studentIDs {
		student, err := s.users.Get(ctx, sid)
		if err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				return apperr.BadRequestf("one or more students not found")
			}
			return err
		}
		if student.Role != model.RoleStudent {
			return apperr.BadRequestf("one or more users are not students")
		}
	}
	return nil
}

func (s *Server) createCourse(c *gin.Context) {
	actor := actorFrom(c)
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.BadRequestf("invalid request body"))
		return
	}
	if req.Name == "" || req.Code == "" || req.StartDate == "" {
		s.fail(c, apperr.BadRequestf("please provide name, code, and startDate"))
		return
	}
	teacherID := req.Teacher
	if teacherID == "" {
		teacherID = actor.ID
	}
	if err := s.validateRoster(c, teacherID, req.Students); err != nil {
		s.fail(c, err)
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		s.fail(c, err)
		return
	}
	var endDate *time.Time
	if req.EndDate != "" {
		if endDate, err = parseDate(req.EndDate); err != nil {
			s.fail(c, err)
			return
		}
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	created, err := s.courses.Create(c.Request.Context(), model.Course{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		TeacherID:   teacherID,
		StudentIDs:  req.Students,
		StartDate:   *startDate,
		EndDate:     endDate,
		Schedule:    req.Schedule,
		IsActive:    isActive,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, created)
}

func (s *Server) updateCourse(c *gin.Context) {
	actor := actorFrom(c)
	found, err := s.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := attendance.CanManageCourse(actor, found.TeacherID); err != nil {
		s.fail(c, err)
		return
	}
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.BadRequestf("invalid request body"))
		return
	}
	if err := s.validateRoster(c, req.Teacher, req.Students); err != nil {
		s.fail(c, err)
		return
	}
	patch := course.Patch{Schedule: req.Schedule, IsActive: req.IsActive}
	if req.Name != "" {
		patch.Name = &req.Name
	}
	if req.Code != "" {
		patch.Code = &req.Code
	}
	if req.Description != "" {
		patch.Description = &req.Description
	}
	if req.Teacher != "" {
		patch.TeacherID = &req.Teacher
	}
	if req.StartDate != "" {
		start, err := parseDate(req.StartDate)
		if err != nil {
			s.fail(c, err)
			return
		}
		patch.StartDate = start
	}
	if req.EndDate != "" {
		end, err := parseDate(req.EndDate)
		if err != nil {
			s.fail(c, err)
			return
		}
		patch.EndDate = end
	}
	updated, err := s.courses.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(req.Students) > 0 {
		// Replace semantics: the supplied set becomes the roster.
		if err := s.courses.RemoveStudents(c.Request.Context(), updated.ID, diff(updated.StudentIDs, req.Students)); err != nil {
			s.fail(c, err)
			return
		}
		if err := s.courses.AddStudents(c.Request.Context(), updated.ID, req.Students); err != nil {
			s.fail(c, err)
			return
		}
		if updated, err = s.courses.Get(c.Request.Context(), updated.ID); err != nil {
			s.fail(c, err)
			return
		}
	}
	respond(c, http.StatusOK, updated)
}

// diff returns the elements of have missing from want.
func diff(have, want []string) []string {
	keep := make(map[string]bool, len(want))
	for _, id := range want {
		keep[id] = true
	}
	var out []string
	for _, id := range have {
		if !keep[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *Server) deleteCourse(c *gin.Context) {
	actor := actorFrom(c)
	found, err := s.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := attendance.CanManageCourse(actor, found.TeacherID); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.courses.Delete(c.Request.Context(), found.ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "course deleted successfully"})
}

type membersRequest struct {
	Students []string `json:"students"`
}

func (s *Server) addCourseStudents(c *gin.Context) {
	actor := actorFrom(c)
	found, err := s.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := attendance.CanManageCourse(actor, found.TeacherID); err != nil {
		s.fail(c, err)
		return
	}
	var req membersRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Students) == 0 {
		s.fail(c, apperr.BadRequestf("please provide students"))
		return
	}
	if err := s.validateRoster(c, "", req.Students); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.courses.AddStudents(c.Request.Context(), found.ID, req.Students); err != nil {
		s.fail(c, err)
		return
	}
	updated, err := s.courses.Get(c.Request.Context(), found.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, updated)
}

func (s *Server) removeCourseStudents(c *gin.Context) {
	actor := actorFrom(c)
	found, err := s.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := attendance.CanManageCourse(actor, found.TeacherID); err != nil {
		s.fail(c, err)
		return
	}
	var req membersRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Students) == 0 {
		s.fail(c, apperr.BadRequestf("please provide students"))
		return
	}
	if err := s.courses.RemoveStudents(c.Request.Context(), found.ID, req.Students); err != nil {
		s.fail(c, err)
		return
	}
	updated, err := s.courses.Get(c.Request.Context(), found.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, updated)
}
