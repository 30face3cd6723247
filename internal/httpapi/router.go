package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classtrack/internal/attendance"
	"classtrack/internal/config"
	"classtrack/internal/course"
	"classtrack/internal/httpmiddleware"
	"classtrack/internal/identity"
	"classtrack/internal/realtime"
	"classtrack/internal/store"
	"classtrack/internal/user"
)

// Server wires handlers to their collaborators.
type Server struct {
	cfg        config.App
	db         *store.DB
	redis      *store.Redis
	attendance *attendance.Service
	courses    *course.Repository
	users      *user.Repository
	resolver   identity.Resolver
	hub        *realtime.Hub
}

// NewServer creates the HTTP server wiring.
func NewServer(cfg config.App, db *store.DB, redis *store.Redis, att *attendance.Service,
	courses *course.Repository, users *user.Repository, resolver identity.Resolver, hub *realtime.Hub) *Server {
	return &Server{
		cfg:        cfg,
		db:         db,
		redis:      redis,
		attendance: att,
		courses:    courses,
		users:      users,
		resolver:   resolver,
		hub:        hub,
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	fail(c, err, s.cfg.Dev())
}

// Router builds the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	dev := s.cfg.Dev()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(s.cfg.RateLimitPerMin, s.cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.healthz)

	// The websocket handshake authenticates like any request but is not
	// gated on db readiness; a browser holding a connection open should not
	// lose it during a short store blip.
	r.GET("/ws", authMiddleware(s.resolver, dev), s.serveWS)

	api := r.Group("/api", dbReady(s.db, dev), authMiddleware(s.resolver, dev))

	att := api.Group("/attendance")
	att.GET("", s.listAttendance)
	att.GET("/stats", s.attendanceStats)
	att.GET("/:id", s.getAttendance)
	att.POST("/self", s.selfMarkAttendance)
	att.POST("", s.createAttendance) // students are routed to self-mark inside
	att.PUT("/:id", requireTeacherOrAdmin(dev), s.updateAttendance)
	att.DELETE("/:id", requireTeacherOrAdmin(dev), s.deleteAttendance)

	courses := api.Group("/courses")
	courses.GET("", s.listCourses)
	courses.GET("/:id", s.getCourse)
	courses.POST("", requireTeacherOrAdmin(dev), s.createCourse)
	courses.PUT("/:id", requireTeacherOrAdmin(dev), s.updateCourse)
	courses.DELETE("/:id", requireTeacherOrAdmin(dev), s.deleteCourse)
	courses.POST("/:id/students", requireTeacherOrAdmin(dev), s.addCourseStudents)
	courses.DELETE("/:id/students", requireTeacherOrAdmin(dev), s.removeCourseStudents)

	users := api.Group("/users", requireAdmin(dev))
	users.GET("", s.listUsers)
	users.GET("/:id", s.getUser)
	users.PUT("/:id", s.updateUser)
	users.DELETE("/:id", s.deleteUser)

	return r
}

func (s *Server) healthz(c *gin.Context) {
	dbHealthy := s.db.Healthy(c.Request.Context())
	redisHealthy := s.redis.Healthy(c.Request.Context())
	status := http.StatusOK
	if !dbHealthy || !redisHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
}

// serveWS hands the authenticated connection to the realtime hub.
func (s *Server) serveWS(c *gin.Context) {
	realtime.ServeConn(s.hub, actorFrom(c), c.Writer, c.Request)
}
