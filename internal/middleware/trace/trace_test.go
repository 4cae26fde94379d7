package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"lifeledger/internal/log"
)

func TestMiddleware_LogsStartAndCompletion(t *testing.T) {
	var buf bytes.Buffer
	cfg := log.ConfigFromStrings("debug", "text", log.ComponentHTTP)
	cfg.Output = &buf
	logger := log.New(cfg)

	tm := NewMiddleware(func(*http.Request) string { return "9.9.9.9" })
	h := log.Middleware(logger)(log.RequestIDMiddleware(tm.Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}),
	)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transactions/x", nil))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "HTTP request started")
	assert.Contains(t, lines[1], "HTTP request completed")
	assert.Contains(t, lines[1], "status_code=404")
	assert.Contains(t, lines[1], "level=WARN")
	assert.Contains(t, out, "request_id="+rec.Header().Get(log.RequestIDHeader))
	assert.Contains(t, out, "client_ip=9.9.9.9")
	assert.Equal(t, int64(1), tm.TotalRequests())
}

func TestResponseWriter_KeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	_, _ = rw.Write([]byte("ok"))
	rw.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusOK, rw.statusCode)
}
