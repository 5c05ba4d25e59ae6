package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinLogger_GeneratesRequestID(t *testing.T) {
	router := gin.New()
	router.Use(GinLogger())
	var seen string
	router.GET("/ping", func(c *gin.Context) {
		seen = c.GetString(ContextRequestID)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	if seen == "" {
		t.Fatal("request id should be set on the context")
	}
	if got := w.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("response header = %q, expected %q", got, seen)
	}
}

func TestGinLogger_KeepsIncomingRequestID(t *testing.T) {
	router := gin.New()
	router.Use(GinLogger())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	router.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderRequestID); got != "req-123" {
		t.Errorf("response header = %q, expected req-123", got)
	}
}

func TestGinRecovery_Returns500(t *testing.T) {
	router := gin.New()
	router.Use(GinLogger(), GinRecovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boom", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}
