package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
)

func TestTimeout_SetsRequestDeadline(t *testing.T) {
	app := drift.New()

	var deadline time.Time
	var hasDeadline bool

	app.Use(Timeout(5 * time.Second))
	app.Get("/test", func(c *drift.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
		_ = c.JSON(http.StatusOK, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}
