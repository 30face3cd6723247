package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/apperr"
)

// respond writes the success envelope.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondList writes the success envelope with a count.
func respondList[T any](c *gin.Context, items []T) {
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "data": items})
}

// statusFor maps the error taxonomy to HTTP status codes. Conflict is a 400
// like the other client errors; its message keeps it distinguishable.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.BadRequest, apperr.Conflict:
		return http.StatusBadRequest
	case apperr.StorageUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail is the single error boundary: taxonomy in, stable envelope out.
// Untyped errors become a 500 with detail suppressed outside dev mode.
func fail(c *gin.Context, err error, dev bool) {
	kind := apperr.KindOf(err)
	message := apperr.MessageOf(err)
	if kind == apperr.Unknown {
		log.Printf("unhandled error: %v", err)
		message = "internal server error"
		if dev {
			message = err.Error()
		}
	}
	c.AbortWithStatusJSON(statusFor(kind), gin.H{"success": false, "message": message})
}
