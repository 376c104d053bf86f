package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("test")
	b := NewCollector("test")

	a.RecordCycle("written", time.Second)
	a.RecordCycle("written", time.Second)
	a.RecordCycleError("transport")

	if got := testutil.ToFloat64(a.CyclesTotal.WithLabelValues("written")); got != 2 {
		t.Fatalf("expected 2 written cycles, got %v", got)
	}
	if got := testutil.ToFloat64(b.CyclesTotal.WithLabelValues("written")); got != 0 {
		t.Fatalf("expected second collector to be untouched, got %v", got)
	}
	if got := testutil.ToFloat64(a.CycleErrors.WithLabelValues("transport")); got != 1 {
		t.Fatalf("expected 1 transport error, got %v", got)
	}
}
