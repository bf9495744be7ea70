package model

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Phase is the position of a recognition job in its lifecycle state machine.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseRecognitionStarted
	PhaseRecognitionFinished
	PhaseResultSavingStarted
	PhaseResultSavingFinished
	PhaseFinished
	PhaseAborted
)

var phaseNames = map[Phase]string{
	PhaseNotStarted:           "NotStarted",
	PhaseRecognitionStarted:   "RecognitionStarted",
	PhaseRecognitionFinished:  "RecognitionFinished",
	PhaseResultSavingStarted:  "ResultSavingStarted",
	PhaseResultSavingFinished: "ResultSavingFinished",
	PhaseFinished:             "Finished",
	PhaseAborted:              "Aborted",
}

// String returns the wire name of the phase as polling clients see it.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalJSON encodes the phase as its wire name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a phase from its wire name.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for phase, phaseName := range phaseNames {
		if phaseName == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}

// Terminal reports whether the registry may evict a job in this phase on poll.
// Aborted is deliberately not terminal: the runner may still be cleaning up.
func (p Phase) Terminal() bool {
	return p == PhaseFinished
}

// JobStatus is the mutable record for one in-flight or just-finished
// recognition job. It is created by the registry, mutated only by the single
// background runner that owns the job, and snapshotted by status polls.
type JobStatus struct {
	mu sync.Mutex

	phase            Phase
	abortRequested   bool
	progress         int
	pageCount        int
	currentPageIndex int
	resultPath       string
	recognizedText   string
	errorMessage     string
}

// NewJobStatus returns a fresh status record in the NotStarted phase.
func NewJobStatus() *JobStatus {
	return &JobStatus{
		phase:            PhaseNotStarted,
		currentPageIndex: -1,
	}
}

// Phase returns the current lifecycle phase.
func (s *JobStatus) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Advance moves the job to the next phase. The move is refused when an abort
// has been requested or when next does not follow the current phase in the
// linear state machine; the runner uses the returned value to bail out of the
// remaining transitions.
func (s *JobStatus) Advance(next Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.abortRequested || s.phase == PhaseAborted {
		return false
	}
	if next != s.phase+1 {
		return false
	}
	s.phase = next
	return true
}

// Fail records an abnormal termination. The job is still driven to Finished
// so that a later poll can evict it.
func (s *JobStatus) Fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorMessage = message
	s.phase = PhaseFinished
}

// Finish forces the Finished phase. Called from the runner's cleanup path
// when no error and no abort were observed.
func (s *JobStatus) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseFinished
}

// RequestAbort flips the cooperative cancellation flag and makes the Aborted
// phase visible to pollers. No-op once the job is terminal.
func (s *JobStatus) RequestAbort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseFinished {
		return
	}
	s.abortRequested = true
	s.phase = PhaseAborted
}

// AbortRequested reports whether a client asked for cancellation.
func (s *JobStatus) AbortRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abortRequested
}

// StartRecognition records the page count and resets the page cursor as the
// engine call begins.
func (s *JobStatus) StartRecognition(pageCount int) bool {
	if !s.Advance(PhaseRecognitionStarted) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageCount = pageCount
	s.currentPageIndex = 0
	return true
}

// SetProgress overwrites the latest engine-reported percentage.
func (s *JobStatus) SetProgress(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = percent
}

// AdvancePage increments the zero-based index of the page being processed.
func (s *JobStatus) AdvancePage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPageIndex++
}

// SetResult publishes the relative path of the written artifact and, for text
// formats, the concatenated recognized text.
func (s *JobStatus) SetResult(path, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultPath = path
	s.recognizedText = text
}

// JobSnapshot is the immutable view of a JobStatus returned by status polls.
type JobSnapshot struct {
	Phase            Phase  `json:"phase"`
	Progress         int    `json:"progress"`
	PageCount        int    `json:"pageCount"`
	CurrentPageIndex int    `json:"currentPageIndex"`
	ResultPath       string `json:"resultPath,omitempty"`
	RecognizedText   string `json:"recognizedText,omitempty"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
}

// Snapshot returns a consistent copy of the status fields.
func (s *JobStatus) Snapshot() JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return JobSnapshot{
		Phase:            s.phase,
		Progress:         s.progress,
		PageCount:        s.pageCount,
		CurrentPageIndex: s.currentPageIndex,
		ResultPath:       s.resultPath,
		RecognizedText:   s.recognizedText,
		ErrorMessage:     s.errorMessage,
	}
}
