package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classtrack/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFor(apperr.Unauthenticated))
	assert.Equal(t, http.StatusForbidden, statusFor(apperr.Forbidden))
	assert.Equal(t, http.StatusNotFound, statusFor(apperr.NotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(apperr.BadRequest))
	assert.Equal(t, http.StatusBadRequest, statusFor(apperr.Conflict))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(apperr.StorageUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(apperr.Unknown))
}

func TestFailEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fail(c, apperr.Forbiddenf("not authorized to access this attendance record"), false)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"not authorized to access this attendance record"}`, w.Body.String())
}

func TestFailSuppressesUnknownDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fail(c, errors.New("pq: column vanished"), false)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal server error"}`, w.Body.String())

	// Dev mode surfaces the cause.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	fail(c, errors.New("pq: column vanished"), true)
	assert.JSONEq(t, `{"success":false,"message":"pq: column vanished"}`, w.Body.String())
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), got.UTC())

	got, err = parseDate("2026-03-09T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 14, got.UTC().Hour())

	got, err = parseDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseDate("03/09/2026")
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestBearerToken(t *testing.T) {
	newCtx := func(header, query string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?token="+query, nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		return c
	}

	assert.Equal(t, "abc", bearerToken(newCtx("Bearer abc", "")))
	assert.Equal(t, "abc", bearerToken(newCtx("bearer abc", "")), "scheme is case-insensitive")
	assert.Equal(t, "qqq", bearerToken(newCtx("", "qqq")), "websocket handshakes pass the token as a query param")
	assert.Equal(t, "abc", bearerToken(newCtx("Bearer abc", "qqq")), "header wins over query")
	assert.Empty(t, bearerToken(newCtx("Basic abc", "")))
}
