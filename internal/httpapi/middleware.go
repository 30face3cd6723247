package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"classtrack/internal/apperr"
	"classtrack/internal/identity"
	"classtrack/internal/model"
	"classtrack/internal/store"
)

const actorKey = "actor"

// bearerToken extracts the credential from the Authorization header, falling
// back to the token query parameter for websocket handshakes.
func bearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if authz != "" && strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return c.Query("token")
}

// authMiddleware resolves the bearer credential to an active identity and
// stores it in the request context.
func authMiddleware(resolver identity.Resolver, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			fail(c, apperr.Unauthenticatedf("authentication required"), dev)
			return
		}
		actor, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			fail(c, err, dev)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// actorFrom returns the authenticated identity set by authMiddleware.
func actorFrom(c *gin.Context) model.User {
	actor, _ := c.MustGet(actorKey).(model.User)
	return actor
}

// dbReady gates endpoints while the store is unreachable so they fail fast
// with a distinct condition instead of hanging or returning generic 500s.
func dbReady(db *store.DB, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !db.Healthy(c.Request.Context()) {
			fail(c, apperr.Storage(nil), dev)
			return
		}
		c.Next()
	}
}

// requireAdmin allows only admin actors past.
func requireAdmin(dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorFrom(c).Role != model.RoleAdmin {
			fail(c, apperr.Forbiddenf("admin access required"), dev)
			return
		}
		c.Next()
	}
}

// requireTeacherOrAdmin allows teachers and admins past.
func requireTeacherOrAdmin(dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := actorFrom(c).Role
		if role != model.RoleTeacher && role != model.RoleAdmin {
			fail(c, apperr.Forbiddenf("teacher or admin access required"), dev)
			return
		}
		c.Next()
	}
}

// corsMiddleware handles browser preflight and cross-origin headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// securityHeaders sets conservative browser protections.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
