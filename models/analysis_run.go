package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalysisRunStatus represents the status of an analysis run.
type AnalysisRunStatus string

const (
	RunStatusPending    AnalysisRunStatus = "pending"
	RunStatusInProgress AnalysisRunStatus = "in_progress"
	RunStatusCompleted  AnalysisRunStatus = "completed"
	RunStatusFailed     AnalysisRunStatus = "failed"
)

// AnalysisStep is one coarse stage of the pipeline as shown to the UI.
type AnalysisStep struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "pending", "in_progress", "completed", "failed"
	Percent int    `json:"percent"`
}

// AnalysisSteps is a list of pipeline stages stored as JSONB.
type AnalysisSteps []AnalysisStep

// Value implements driver.Valuer for JSONB
func (s AnalysisSteps) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *AnalysisSteps) Scan(value interface{}) error {
	if value == nil {
		*s = make(AnalysisSteps, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = make(AnalysisSteps, 0)
		return nil
	}

	if len(bytes) == 0 {
		*s = make(AnalysisSteps, 0)
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// ReportColumn wraps a ComplianceReport for JSONB storage.
type ReportColumn struct {
	Report *ComplianceReport
}

// MarshalJSON renders the wrapped report directly (null when absent).
func (r ReportColumn) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Report)
}

// UnmarshalJSON accepts a bare report object or null.
func (r *ReportColumn) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		r.Report = nil
		return nil
	}
	report := &ComplianceReport{}
	if err := json.Unmarshal(data, report); err != nil {
		return err
	}
	r.Report = report
	return nil
}

// Value implements driver.Valuer for JSONB
func (r ReportColumn) Value() (driver.Value, error) {
	if r.Report == nil {
		return nil, nil
	}
	return json.Marshal(r.Report)
}

// Scan implements sql.Scanner for JSONB
func (r *ReportColumn) Scan(value interface{}) error {
	if value == nil {
		r.Report = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		r.Report = nil
		return nil
	}

	report := &ComplianceReport{}
	if err := json.Unmarshal(bytes, report); err != nil {
		return err
	}
	r.Report = report
	return nil
}

// AnalysisRun represents one execution of the compliance pipeline against a
// contract. A run is created pending, processed in the background, and ends
// in exactly one of completed or failed.
type AnalysisRun struct {
	ID                  uuid.UUID         `json:"id"`
	ContractID          uuid.UUID         `json:"contract_id"`
	Status              AnalysisRunStatus `json:"status"`
	CurrentStep         *string           `json:"current_step,omitempty"`
	Steps               AnalysisSteps     `json:"steps"`
	Report              ReportColumn      `json:"report,omitempty"`
	PatchedDocumentPath *string           `json:"patched_document_path,omitempty"`
	AnnotationsPath     *string           `json:"annotations_path,omitempty"`
	ErrorMessage        *string           `json:"error_message,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
}
