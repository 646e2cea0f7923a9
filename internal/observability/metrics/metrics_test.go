package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHelpersAreSafeBeforeInit(t *testing.T) {
	ObserveTransaction("addition", "", 10, time.Millisecond)
	ObserveReport("", "", time.Millisecond)
	IncReferenceCache(true)
}

func TestObserveTransactionCountsLiters(t *testing.T) {
	Init(nil, nil)
	before := testutil.ToFloat64(litersTotal.WithLabelValues("withdrawal"))
	ObserveTransaction("withdrawal", ResultSuccess, 12.5, time.Millisecond)
	ObserveTransaction("withdrawal", ResultError, 99, time.Millisecond)
	after := testutil.ToFloat64(litersTotal.WithLabelValues("withdrawal"))
	if after-before != 12.5 {
		t.Fatalf("expected 12.5 liters counted, got %v", after-before)
	}
	if got := testutil.ToFloat64(transactionsTotal.WithLabelValues("withdrawal", ResultError)); got < 1 {
		t.Fatalf("expected error counted, got %v", got)
	}
}
