package repository

import (
	"context"
	"time"

	"contractguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalysisRunRepository handles database operations for analysis runs
type AnalysisRunRepository struct {
	db *pgxpool.Pool
}

// NewAnalysisRunRepository creates a new analysis run repository
func NewAnalysisRunRepository(db *pgxpool.Pool) *AnalysisRunRepository {
	return &AnalysisRunRepository{db: db}
}

// Create creates a new analysis run
func (r *AnalysisRunRepository) Create(ctx context.Context, run *models.AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (
			contract_id, status, current_step, steps, error_message
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		run.ContractID,
		run.Status,
		run.CurrentStep,
		run.Steps,
		run.ErrorMessage,
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)

	return err
}

// GetByID retrieves an analysis run by ID
func (r *AnalysisRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{}
	query := `
		SELECT id, contract_id, status, current_step, steps, report,
			patched_document_path, annotations_path, error_message,
			created_at, updated_at, completed_at
		FROM analysis_runs
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.ContractID,
		&run.Status,
		&run.CurrentStep,
		&run.Steps,
		&run.Report,
		&run.PatchedDocumentPath,
		&run.AnnotationsPath,
		&run.ErrorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	if run.Steps == nil {
		run.Steps = make(models.AnalysisSteps, 0)
	}

	return run, nil
}

// GetByContractID retrieves the latest analysis run for a contract
func (r *AnalysisRunRepository) GetByContractID(ctx context.Context, contractID uuid.UUID) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{}
	query := `
		SELECT id, contract_id, status, current_step, steps, report,
			patched_document_path, annotations_path, error_message,
			created_at, updated_at, completed_at
		FROM analysis_runs
		WHERE contract_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, contractID).Scan(
		&run.ID,
		&run.ContractID,
		&run.Status,
		&run.CurrentStep,
		&run.Steps,
		&run.Report,
		&run.PatchedDocumentPath,
		&run.AnnotationsPath,
		&run.ErrorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	if run.Steps == nil {
		run.Steps = make(models.AnalysisSteps, 0)
	}

	return run, nil
}

// UpdateStatus updates the status of an analysis run
func (r *AnalysisRunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisRunStatus) error {
	query := `
		UPDATE analysis_runs SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// UpdateProgress updates the progress of an analysis run
func (r *AnalysisRunRepository) UpdateProgress(ctx context.Context, id uuid.UUID, currentStep string, steps models.AnalysisSteps) error {
	query := `
		UPDATE analysis_runs SET
			current_step = $2,
			steps = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, currentStep, steps)
	return err
}

// SetReport stores the compliance report produced by a run
func (r *AnalysisRunRepository) SetReport(ctx context.Context, id uuid.UUID, report models.ReportColumn) error {
	query := `
		UPDATE analysis_runs SET
			report = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, report)
	return err
}

// SetArtifactPaths records where the patched contract and annotations were stored
func (r *AnalysisRunRepository) SetArtifactPaths(ctx context.Context, id uuid.UUID, patchedDocumentPath, annotationsPath string) error {
	query := `
		UPDATE analysis_runs SET
			patched_document_path = $2,
			annotations_path = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, patchedDocumentPath, annotationsPath)
	return err
}

// Complete marks an analysis run as completed
func (r *AnalysisRunRepository) Complete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	query := `
		UPDATE analysis_runs SET
			status = $2,
			completed_at = $3,
			updated_at = $3
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusCompleted, now)
	return err
}

// Fail marks an analysis run as failed
func (r *AnalysisRunRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE analysis_runs SET
			status = $2,
			error_message = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusFailed, errorMessage)
	return err
}
