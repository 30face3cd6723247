package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/apperr"
	"classtrack/internal/attendance"
	"classtrack/internal/model"
)

// parseDate accepts calendar dates and RFC 3339 timestamps.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.BadRequestf("invalid date %q", s)
}

func filtersFrom(c *gin.Context) (attendance.Filters, error) {
	start, err := parseDate(c.Query("startDate"))
	if err != nil {
		return attendance.Filters{}, err
	}
	end, err := parseDate(c.Query("endDate"))
	if err != nil {
		return attendance.Filters{}, err
	}
	return attendance.Filters{
		StartDate: start,
		EndDate:   end,
		CourseID:  c.Query("course"),
		StudentID: c.Query("student"),
		Status:    model.AttendanceStatus(c.Query("status")),
	}, nil
}

func (s *Server) listAttendance(c *gin.Context) {
	filters, err := filtersFrom(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	records, err := s.attendance.List(c.Request.Context(), actorFrom(c), filters)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, records)
}

func (s *Server) attendanceStats(c *gin.Context) {
	filters, err := filtersFrom(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	stats, err := s.attendance.StatsFor(c.Request.Context(), actorFrom(c), filters)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

func (s *Server) getAttendance(c *gin.Context) {
	record, err := s.attendance.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, record)
}

type selfMarkRequest struct {
	Status model.AttendanceStatus `json:"status"`
	Notes  string                 `json:"notes"`
}

func (s *Server) selfMarkAttendance(c *gin.Context) {
	var req selfMarkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, apperr.BadRequestf("invalid request body"))
			return
		}
	}
	record, err := s.attendance.SelfMark(c.Request.Context(), actorFrom(c), req.Status, req.Notes)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, record)
}

type createAttendanceRequest struct {
	Student string                 `json:"student"`
	Course  string                 `json:"course"`
	Date    string                 `json:"date"`
	Status  model.AttendanceStatus `json:"status"`
	Notes   string                 `json:"notes"`
}

// createAttendance serves POST /attendance. Student actors are routed to the
// self-mark path so a roster client posting here still works for them.
func (s *Server) createAttendance(c *gin.Context) {
	actor := actorFrom(c)
	if actor.Role == model.RoleStudent {
		s.selfMarkAttendance(c)
		return
	}
	var req createAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.BadRequestf("invalid request body"))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		s.fail(c, err)
		return
	}
	record, err := s.attendance.Create(c.Request.Context(), actor, attendance.CreateInput{
		StudentID: req.Student,
		CourseID:  req.Course,
		Date:      date,
		Status:    req.Status,
		Notes:     req.Notes,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, record)
}

type updateAttendanceRequest struct {
	Status *model.AttendanceStatus `json:"status"`
	Notes  *string                 `json:"notes"`
}

func (s *Server) updateAttendance(c *gin.Context) {
	var req updateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.BadRequestf("invalid request body"))
		return
	}
	record, err := s.attendance.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, record)
}

func (s *Server) deleteAttendance(c *gin.Context) {
	if err := s.attendance.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "attendance record deleted successfully"})
}
