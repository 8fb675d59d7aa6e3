package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gymcore/license-server/pkg/metrics"
)

func TestStatusRecorderCapturesExplicitStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr}

	rec.WriteHeader(http.StatusTeapot)
	if _, err := rec.Write([]byte("short and stout")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if rec.status != http.StatusTeapot {
		t.Fatalf("expected recorded status 418, got %d", rec.status)
	}
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected underlying status 418, got %d", rr.Code)
	}
}

func TestStatusRecorderDefaultsToOKOnWrite(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}

	if _, err := rec.Write([]byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec.status != http.StatusOK {
		t.Fatalf("expected implicit 200, got %d", rec.status)
	}
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	handler := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anything", nil))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
}

func TestMetricsMiddlewareRecordsRoutePatternAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	api := metrics.NewAPIMetrics(reg)

	r := chi.NewRouter()
	r.Use(Metrics(api))
	r.Get("/licenses/{id}", func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/licenses/abc123", nil))

	count := testutil.CollectAndCount(reg, "http_requests_total")
	if count != 1 {
		t.Fatalf("expected one request series, got %d", count)
	}
}
