package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestObserveStage(t *testing.T) {
	m := New()
	m.ObserveStage("describe", time.Now(), nil)
	m.ObserveStage("describe", time.Now(), errors.New("boom"))
	m.ObserveStage("generate", time.Now(), nil)

	if got := testutil.CollectAndCount(m.StageDuration); got != 3 {
		t.Errorf("expected 3 label combinations, got %d", got)
	}
}

func TestAddImages(t *testing.T) {
	m := New()
	m.AddImages("variation", 2)
	m.AddImages("variation", 0)
	m.AddImages("course", 1)

	if got := testutil.ToFloat64(m.ImagesGenerated.WithLabelValues("variation")); got != 2 {
		t.Errorf("expected 2 variation images, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveStage("x", time.Now(), nil)
	m.AddImages("x", 1)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"1", "2"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/items/"+id, nil))
	}

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/items/:id", "200")); got != 2 {
		t.Errorf("expected 2 requests on route pattern, got %v", got)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "thumbnail_http_requests_total") {
		t.Error("expected request counter in exposition output")
	}
}
