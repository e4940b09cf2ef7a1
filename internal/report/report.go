package report

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sipbuilder/internal/compile"
	"sipbuilder/internal/services"
)

// Level classifies a report entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Entry is one appended diagnostic. Entries are never modified after append.
type Entry struct {
	Time     time.Time `json:"time"`
	Level    Level     `json:"level"`
	Stage    string    `json:"stage"`
	Document string    `json:"document,omitempty"`
	Locator  string    `json:"locator,omitempty"`
	Message  string    `json:"message"`
}

// DocumentResult captures the terminal state of one generated document.
type DocumentResult struct {
	Kind        compile.Kind    `json:"kind"`
	Synthesized bool            `json:"synthesized"`
	Outcome     compile.Outcome `json:"outcome"`
	Error       string          `json:"error,omitempty"`
}

// Report is the append-only record of a single build. A report accepts
// entries and document results until it is finalized exactly once with the
// terminal build state; any append after finalization is a programming error
// and is rejected.
type Report struct {
	mu        sync.Mutex
	buildID   string
	started   time.Time
	finished  time.Time
	state     string
	success   bool
	finalized bool
	entries   []Entry
	documents []DocumentResult
}

func New(buildID string) *Report {
	return &Report{buildID: buildID, started: time.Now().UTC()}
}

// Append records one diagnostic entry.
func (r *Report) Append(level Level, stage, document, locator, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return services.Wrap(services.ErrValidation, stage, "append report entry",
			"report already finalized", nil)
	}
	r.entries = append(r.entries, Entry{
		Time:     time.Now().UTC(),
		Level:    level,
		Stage:    stage,
		Document: document,
		Locator:  locator,
		Message:  message,
	})
	return nil
}

// Info appends an informational entry, ignoring appends after finalization.
func (r *Report) Info(stage, message string) { _ = r.Append(LevelInfo, stage, "", "", message) }

// Warning appends a warning entry.
func (r *Report) Warning(stage, document, message string) {
	_ = r.Append(LevelWarning, stage, document, "", message)
}

// Error appends an error entry.
func (r *Report) Error(stage, document, message string) {
	_ = r.Append(LevelError, stage, document, "", message)
}

// SetDocument records the terminal result for one document kind, replacing
// any earlier result for the same kind.
func (r *Report) SetDocument(result DocumentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return services.Wrap(services.ErrValidation, "report", "set document result",
			"report already finalized", nil)
	}
	for i := range r.documents {
		if r.documents[i].Kind == result.Kind {
			r.documents[i] = result
			return nil
		}
	}
	r.documents = append(r.documents, result)
	return nil
}

// Finalize seals the report with the terminal build state and the overall
// success flag. Calling it a second time is an error and leaves the first
// finalization intact.
func (r *Report) Finalize(state string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return services.Wrap(services.ErrValidation, "report", "finalize",
			fmt.Sprintf("report already finalized with state %s", r.state), nil)
	}
	r.finalized = true
	r.state = state
	r.success = success
	r.finished = time.Now().UTC()
	return nil
}

// Success reports whether the build finished successfully. It is false until
// the report is finalized.
func (r *Report) Success() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalized && r.success
}

// Finalized reports whether the report has been sealed.
func (r *Report) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalized
}

// Snapshot is a point-in-time serializable view of a report.
type Snapshot struct {
	BuildID   string           `json:"build_id"`
	Started   time.Time        `json:"started"`
	Finished  *time.Time       `json:"finished,omitempty"`
	State     string           `json:"state,omitempty"`
	Success   bool             `json:"success"`
	Finalized bool             `json:"finalized"`
	Entries   []Entry          `json:"entries"`
	Documents []DocumentResult `json:"documents"`
}

// Snapshot returns a copy of the current report contents, safe to serialize
// while the build continues appending.
func (r *Report) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{
		BuildID:   r.buildID,
		Started:   r.started,
		State:     r.state,
		Success:   r.success,
		Finalized: r.finalized,
		Entries:   append([]Entry(nil), r.entries...),
		Documents: append([]DocumentResult(nil), r.documents...),
	}
	if r.finalized {
		finished := r.finished
		snap.Finished = &finished
	}
	return snap
}

// MarshalJSON serializes the report snapshot.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Snapshot())
}

// FromSnapshot reconstructs a report from a stored snapshot, preserving its
// finalization state.
func FromSnapshot(snap Snapshot) *Report {
	r := &Report{
		buildID:   snap.BuildID,
		started:   snap.Started,
		state:     snap.State,
		success:   snap.Success,
		finalized: snap.Finalized,
		entries:   append([]Entry(nil), snap.Entries...),
		documents: append([]DocumentResult(nil), snap.Documents...),
	}
	if snap.Finished != nil {
		r.finished = *snap.Finished
	}
	return r
}
