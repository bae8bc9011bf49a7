package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCommand(t *testing.T) {
	m := New()
	m.ObserveCommand("order", "transition", OutcomeOK, 20*time.Millisecond)
	m.ObserveCommand("order", "transition", OutcomeOK, 10*time.Millisecond)
	m.ObserveCommand("order", "transition", OutcomeDenied, time.Millisecond)

	if got := testutil.ToFloat64(m.commands.WithLabelValues("order", "transition", OutcomeOK)); got != 2 {
		t.Fatalf("expected 2 ok commands, got %v", got)
	}
	if got := testutil.ToFloat64(m.commands.WithLabelValues("order", "transition", OutcomeDenied)); got != 1 {
		t.Fatalf("expected 1 denied command, got %v", got)
	}
}

func TestStoreVersionAndFetches(t *testing.T) {
	m := New()
	m.SetStoreVersion("orders", 7)
	m.ObserveFetch("orders", OutcomeOK)
	m.ObserveInvoice(OutcomeOK)

	if got := testutil.ToFloat64(m.storeVersion.WithLabelValues("orders")); got != 7 {
		t.Fatalf("expected version 7, got %v", got)
	}
	if got := testutil.ToFloat64(m.fetches.WithLabelValues("orders", OutcomeOK)); got != 1 {
		t.Fatalf("expected one fetch, got %v", got)
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCommand("farmer", "create", OutcomeOK, time.Second)
	m.ObserveLockWait("farmers", time.Second)
	m.ObserveFetch("farmers", OutcomeOK)
	m.SetStoreVersion("farmers", 1)
	m.ObserveInvoice(OutcomeOK)
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.ObserveLockWait("orders", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "farmsupply_collection_lock_wait_seconds") {
		t.Fatalf("expected lock wait histogram in output")
	}
}
