package executor

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleResults() []Result {
	return []Result{
		{CourseName: "go101", Data: 1, Duration: 100 * time.Millisecond},
		{CourseName: "net201", Error: errors.New("users fetch failed"), Duration: 50 * time.Millisecond},
		{CourseName: "ds301", Data: 3, Duration: 300 * time.Millisecond},
	}
}

func TestCounts(t *testing.T) {
	results := sampleResults()

	if got := CountSuccessful(results); got != 2 {
		t.Errorf("CountSuccessful: expected 2, got %d", got)
	}
	if got := CountFailed(results); got != 1 {
		t.Errorf("CountFailed: expected 1, got %d", got)
	}
	if !HasErrors(results) {
		t.Error("HasErrors: expected true")
	}
	if HasErrors(nil) {
		t.Error("HasErrors on empty: expected false")
	}
}

func TestFilters(t *testing.T) {
	results := sampleResults()

	successful := FilterSuccessful(results)
	if len(successful) != 2 {
		t.Fatalf("expected 2 successful, got %d", len(successful))
	}
	for _, r := range successful {
		if r.Error != nil {
			t.Errorf("successful result %q carries error %v", r.CourseName, r.Error)
		}
	}

	failed := FilterFailed(results)
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed, got %d", len(failed))
	}
	if failed[0].CourseName != "net201" {
		t.Errorf("expected failed course net201, got %q", failed[0].CourseName)
	}

	errs := GetErrors(results)
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "users fetch failed") {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestDurations(t *testing.T) {
	results := sampleResults()

	if got := AverageDuration(results); got != 150*time.Millisecond {
		t.Errorf("AverageDuration: expected 150ms, got %v", got)
	}
	if got := MaxDuration(results); got != 300*time.Millisecond {
		t.Errorf("MaxDuration: expected 300ms, got %v", got)
	}
	if got := AverageDuration(nil); got != 0 {
		t.Errorf("AverageDuration on empty: expected 0, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleResults())

	if summary.Total != 3 || summary.Successful != 2 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	s := summary.String()
	for _, want := range []string{"Total: 3", "Successful: 2", "Failed: 1", "Avg:", "Max:"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected summary string to contain %q, got %q", want, s)
		}
	}

	empty := Summarize(nil)
	if strings.Contains(empty.String(), "Avg") {
		t.Errorf("empty summary should omit durations, got %q", empty.String())
	}
}
