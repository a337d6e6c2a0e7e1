package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRequestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})
	return r
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	r := newRequestIDRouter()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	got := w.Header().Get(RequestIDHeader)
	if got == "" {
		t.Fatal("expected a generated request ID header")
	}
	if w.Body.String() != got {
		t.Fatalf("context value %q did not match header %q", w.Body.String(), got)
	}
}

func TestRequestID_ReusesCallerSupplied(t *testing.T) {
	r := newRequestIDRouter()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "caller-supplied-id" {
		t.Fatalf("expected caller-supplied-id, got %q", got)
	}
}
