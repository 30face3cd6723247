package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/apperr"
	"classtrack/internal/model"
	"classtrack/internal/user"
)

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, users)
}

func (s *Server) getUser(c *gin.Context) {
	found, err := s.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, found)
}

type userUpdateRequest struct {
	Name   *string       `json:"name"`
	Role   *model.Role   `json:"role"`
	Status *model.Status `json:"status"`
}

func (s *Server) updateUser(c *gin.Context) {
	var req userUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.BadRequestf("invalid request body"))
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		s.fail(c, apperr.BadRequestf("invalid role %q", *req.Role))
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		s.fail(c, apperr.BadRequestf("invalid status %q", *req.Status))
		return
	}
	updated, err := s.users.Update(c.Request.Context(), c.Param("id"), user.Patch{
		Name:   req.Name,
		Role:   req.Role,
		Status: req.Status,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, updated)
}

func (s *Server) deleteUser(c *gin.Context) {
	if c.Param("id") == actorFrom(c).ID {
		s.fail(c, apperr.BadRequestf("cannot delete your own account"))
		return
	}
	if err := s.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user deleted successfully"})
}
