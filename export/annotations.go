// Package export renders analysis results into reviewer-facing files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"contractguard-backend/models"
)

var annotationHeader = []string{
	"clause_id",
	"clause_type",
	"clause_text",
	"risk_score",
	"severity",
}

// WriteAnnotationsCSV writes one row per assessed clause in extraction order.
// The column set is the external annotation contract consumed by reviewers'
// spreadsheets.
func WriteAnnotationsCSV(w io.Writer, assessed []models.AssessedClause) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(annotationHeader); err != nil {
		return fmt.Errorf("failed to write annotations header: %w", err)
	}

	for _, c := range assessed {
		severity := string(c.Risk.Severity)
		if severity == "" {
			severity = c.Risk.RawLevel
		}
		row := []string{
			c.Clause.ID,
			string(c.Clause.Type),
			c.Clause.Text,
			strconv.Itoa(c.Risk.Score),
			severity,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write annotation row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
