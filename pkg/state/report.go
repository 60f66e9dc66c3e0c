package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportDir is where run reports are kept, relative to the export output.
const ReportDir = ".mps-export"

// RunStatus is the outcome of an export run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunReport summarises one export run for later inspection
type RunReport struct {
	RunID       string        `json:"runId"`
	ProjectName string        `json:"projectName"`
	Status      RunStatus     `json:"status"`
	Stages      []string      `json:"stages"`
	FailedStage string        `json:"failedStage,omitempty"`
	LastError   string        `json:"lastError,omitempty"`
	Layouts     []string      `json:"layouts,omitempty"`
	Archives    []string      `json:"archives,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
	ProcessID   int           `json:"processId"`
}

// NewRunReport starts a report for the current process
func NewRunReport(runID, project string) *RunReport {
	return &RunReport{
		RunID:       runID,
		ProjectName: project,
		Status:      RunStatusRunning,
		StartedAt:   time.Now(),
		ProcessID:   os.Getpid(),
	}
}

// StageDone appends a completed stage
func (r *RunReport) StageDone(stage string) {
	r.Stages = append(r.Stages, stage)
}

// Finish stamps the outcome and duration
func (r *RunReport) Finish(stage string, err error) {
	r.Duration = time.Since(r.StartedAt)
	if err != nil {
		r.Status = RunStatusFailed
		r.FailedStage = stage
		r.LastError = err.Error()
		return
	}
	r.Status = RunStatusSucceeded
}

// ReportPath returns the report file for outputDir
func ReportPath(outputDir string) string {
	return filepath.Join(outputDir, ReportDir, "last-run.json")
}

// SaveReport writes r atomically under outputDir
func SaveReport(outputDir string, r *RunReport) error {
	path := ReportPath(outputDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to replace run report: %w", err)
	}
	return nil
}

// LoadReport reads the last report written under outputDir
func LoadReport(outputDir string) (*RunReport, error) {
	data, err := os.ReadFile(ReportPath(outputDir))
	if err != nil {
		return nil, err
	}
	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}
	return &r, nil
}
