package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordRefresh("ok", 1.2)
	r.RecordRefresh("ok", 0.8)
	r.RecordRefresh("error", 3)
	r.RecordSnapshotRows(5123)
	r.RecordConsecutiveErrors(2)
	r.RecordError("schema")
	r.RecordSignalPublished("600519")

	if got := testutil.ToFloat64(r.refreshTotal.WithLabelValues("ok")); got != 2 {
		t.Fatalf("refresh ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.snapshotRows); got != 5123 {
		t.Fatalf("rows = %v", got)
	}
	if got := testutil.ToFloat64(r.consecutiveErrors); got != 2 {
		t.Fatalf("consecutive = %v", got)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("schema")); got != 1 {
		t.Fatalf("errors = %v", got)
	}

	// a second recorder on its own registry must not collide
	_ = New(prometheus.NewRegistry())
}
