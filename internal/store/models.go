package store

import (
	"encoding/json"
	"fmt"
	"time"

	"sipbuilder/internal/report"
)

// Status represents the lifecycle of a build.
type Status string

const (
	StatusPending      Status = "pending"
	StatusExtracting   Status = "extracting"
	StatusSynthesizing Status = "synthesizing"
	StatusValidating   Status = "validating"
	StatusAssembling   Status = "assembling"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusSynthesizing,
	StatusValidating,
	StatusAssembling,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ValidStatus reports whether status is a known build status.
func ValidStatus(status Status) bool {
	_, ok := statusSet[status]
	return ok
}

// Terminal reports whether the status ends the build lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Build is one persisted SIP build.
type Build struct {
	ID           string
	IPPath       string
	OutputPath   string
	Status       Status
	ErrorMessage string

	ProgressStage   string
	ProgressMessage string

	// ReportJSON is the serialized report snapshot as last pushed by the
	// builder.
	ReportJSON string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetReport stores a report snapshot on the build.
func (b *Build) SetReport(snap report.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	b.ReportJSON = string(data)
	return nil
}

// Report decodes the stored report snapshot. It returns a zero snapshot when
// no report has been pushed yet.
func (b *Build) Report() (report.Snapshot, error) {
	var snap report.Snapshot
	if b.ReportJSON == "" {
		return snap, nil
	}
	if err := json.Unmarshal([]byte(b.ReportJSON), &snap); err != nil {
		return snap, fmt.Errorf("unmarshal report: %w", err)
	}
	return snap, nil
}
