package service

import (
	"github.com/textmill/textmill/internal/model"
)

// progressTranslator converts the engine's raw per-page percentage stream
// into the page-aware progress clients poll for. The engine restarts its
// percentage for every page without any page-change marker, so a reported
// value lower than the previous one is taken as the start of the next page.
type progressTranslator struct {
	status      *model.JobStatus
	lastPercent int
}

func newProgressTranslator(status *model.JobStatus) *progressTranslator {
	return &progressTranslator{
		status:      status,
		lastPercent: -1,
	}
}

// Report is the engine's progress callback. It returns false once an abort
// has been requested, which asks the engine to stop at its next checkpoint.
func (t *progressTranslator) Report(percent int) bool {
	if t.status.AbortRequested() {
		return false
	}
	if t.lastPercent >= 0 && percent < t.lastPercent {
		t.status.AdvancePage()
	}
	t.status.SetProgress(percent)
	t.lastPercent = percent
	return true
}
