package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractStatus represents the lifecycle status of a contract.
type ContractStatus string

const (
	ContractStatusUploaded ContractStatus = "uploaded"
	ContractStatusAnalyzed ContractStatus = "analyzed"
	ContractStatusArchived ContractStatus = "archived"
)

// Contract represents a contract document under analysis. Text holds the
// already-extracted plain text (binary parsing happens upstream); Header is
// the externally-derived original header paragraph.
type Contract struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	Name         string         `json:"name"`
	Status       ContractStatus `json:"status"`
	SourceFileID *uuid.UUID     `json:"source_file_id,omitempty"`
	Jurisdiction *string        `json:"jurisdiction,omitempty"`
	Text         string         `json:"text"`
	Header       string         `json:"header,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
