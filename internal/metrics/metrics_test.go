package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.IncQuote("padrao")
	r.IncQuote("padrao")
	r.IncQuote("")
	r.IncTaxEstimate("III", 2)
	r.ObserveHTTP("POST", "/api/quotes", 200, 15*time.Millisecond)

	if got := testutil.ToFloat64(r.quotes.WithLabelValues("padrao")); got != 2 {
		t.Fatalf("quotes padrao=%v", got)
	}
	if got := testutil.ToFloat64(r.quotes.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("quotes unknown=%v", got)
	}
	if got := testutil.ToFloat64(r.taxEstimates.WithLabelValues("III", "2")); got != 1 {
		t.Fatalf("tax estimates=%v", got)
	}
	if n := testutil.CollectAndCount(r.httpDuration); n != 1 {
		t.Fatalf("histogram series=%d", n)
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.IncQuote("x")
	r.IncTaxEstimate("II", 1)
	r.ObserveHTTP("GET", "/", 200, time.Millisecond)

	empty := New(nil)
	empty.IncQuote("x")
}
