package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsScrape(t *testing.T) {
	m := New()
	m.RecordProcessed("matched")
	m.RecordProcessed("matched")
	m.RecordProcessed("failed")
	m.PayeeVerdict("yes")
	m.BatchCompleted(3 * time.Second)

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body := recorder.Body.String()
	for _, want := range []string{
		`recheck_records_processed_total{outcome="matched"} 2`,
		`recheck_records_processed_total{outcome="failed"} 1`,
		`recheck_payee_verdicts_total{verdict="yes"} 1`,
		`recheck_batches_completed_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestSeparateRegistries(t *testing.T) {
	first := New()
	second := New()
	first.RecordProcessed("matched")

	recorder := httptest.NewRecorder()
	second.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	if strings.Contains(recorder.Body.String(), `outcome="matched"} 1`) {
		t.Error("registries are not isolated")
	}
}
