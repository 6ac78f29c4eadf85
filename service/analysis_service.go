package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"contractguard-backend/export"
	"contractguard-backend/models"
	"contractguard-backend/pipeline"
	"contractguard-backend/repository"
	"contractguard-backend/storage"

	"github.com/google/uuid"
)

var (
	ErrContractNotFound    = errors.New("contract not found")
	ErrMissingContractData = errors.New("contract missing required data for analysis")
	ErrRunCreationFailed   = errors.New("failed to create analysis run")
	ErrRunNotFound         = errors.New("analysis run not found")
)

// PipelineRunner abstracts the compliance pipeline for the service layer.
type PipelineRunner interface {
	RunWithProgress(ctx context.Context, req pipeline.RunRequest, progress pipeline.ProgressFunc) (*pipeline.RunResult, error)
}

// analysisStages are the coarse pipeline stages shown to the UI, keyed by the
// progress percentage the pipeline reports when each stage begins.
var analysisStages = []struct {
	Name    string
	Percent int
}{
	{"Extracting text", 10},
	{"Extracting Clauses", 30},
	{"Analysing Risks", 50},
	{"Suggesting Improvements", 70},
	{"Rewriting Contract", 90},
}

// AnalysisService coordinates analysis runs: fast creation for the HTTP
// layer, heavy pipeline work in the background.
type AnalysisService struct {
	contractRepo *repository.ContractRepository
	runRepo      *repository.AnalysisRunRepository
	runner       PipelineRunner
	store        storage.Storage
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithContractRepository sets the contract repository
func AnalysisWithContractRepository(repo *repository.ContractRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.contractRepo = repo
	}
}

// AnalysisWithRunRepository sets the analysis run repository
func AnalysisWithRunRepository(repo *repository.AnalysisRunRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.runRepo = repo
	}
}

// AnalysisWithPipeline sets the pipeline runner
func AnalysisWithPipeline(runner PipelineRunner) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.runner = runner
	}
}

// AnalysisWithStorage sets the artifact storage backend
func AnalysisWithStorage(store storage.Storage) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.store = store
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartAnalysisRequest represents a request to start an analysis run
type StartAnalysisRequest struct {
	ContractID uuid.UUID
}

// StartAnalysisResult represents the result of starting an analysis run
type StartAnalysisResult struct {
	RunID uuid.UUID
}

// StartAnalysis validates the contract and creates a pending run, returning
// immediately. The heavy pipeline work happens in ProcessAnalysis, which the
// caller launches in a goroutine.
func (s *AnalysisService) StartAnalysis(ctx context.Context, req StartAnalysisRequest) (*StartAnalysisResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}
	if s.runRepo == nil {
		return nil, errors.New("analysis run repository not set")
	}

	contract, err := s.contractRepo.GetByID(ctx, req.ContractID)
	if err != nil {
		return nil, ErrContractNotFound
	}

	if strings.TrimSpace(contract.Text) == "" {
		return nil, ErrMissingContractData
	}

	run := &models.AnalysisRun{
		ContractID: req.ContractID,
		Status:     models.RunStatusPending,
		Steps:      initialSteps(),
	}

	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, ErrRunCreationFailed
	}

	return &StartAnalysisResult{RunID: run.ID}, nil
}

// GetRunStatusRequest represents a request to get run status
type GetRunStatusRequest struct {
	RunID uuid.UUID
}

// GetRunStatusResult represents the result of getting run status
type GetRunStatusResult struct {
	Run *models.AnalysisRun
}

// GetRunStatus retrieves the status of an analysis run
func (s *AnalysisService) GetRunStatus(ctx context.Context, req GetRunStatusRequest) (*GetRunStatusResult, error) {
	if s.runRepo == nil {
		return nil, errors.New("analysis run repository not set")
	}

	run, err := s.runRepo.GetByID(ctx, req.RunID)
	if err != nil {
		return nil, ErrRunNotFound
	}

	return &GetRunStatusResult{Run: run}, nil
}

func initialSteps() models.AnalysisSteps {
	steps := make(models.AnalysisSteps, 0, len(analysisStages))
	for _, stage := range analysisStages {
		steps = append(steps, models.AnalysisStep{
			Name:    stage.Name,
			Status:  "pending",
			Percent: stage.Percent,
		})
	}
	return steps
}

// ProcessAnalysis performs the actual pipeline run in the background. It runs
// in a goroutine and can take minutes for large contracts.
func (s *AnalysisService) ProcessAnalysis(ctx context.Context, runID uuid.UUID) error {
	if s.runRepo == nil {
		return errors.New("analysis run repository not set")
	}
	if s.contractRepo == nil {
		return errors.New("contract repository not set")
	}
	if s.runner == nil {
		return errors.New("pipeline runner not set")
	}

	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load analysis run: %w", err)
	}

	contract, err := s.contractRepo.GetByID(ctx, run.ContractID)
	if err != nil {
		s.markRunFailed(ctx, runID, "failed to load contract: "+err.Error())
		return err
	}

	if err := s.runRepo.UpdateStatus(ctx, runID, models.RunStatusInProgress); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	jurisdiction := ""
	if contract.Jurisdiction != nil {
		jurisdiction = *contract.Jurisdiction
	}

	result, err := s.runner.RunWithProgress(ctx, pipeline.RunRequest{
		RunID:        runID.String(),
		ContractName: contract.Name,
		Jurisdiction: jurisdiction,
		Text:         contract.Text,
	}, func(percent int, message string) {
		s.recordProgress(ctx, runID, percent, message)
	})
	if err != nil {
		s.markRunFailed(ctx, runID, err.Error())
		return err
	}

	if err := s.runRepo.SetReport(ctx, runID, models.ReportColumn{Report: &result.Report}); err != nil {
		s.markRunFailed(ctx, runID, "failed to store report: "+err.Error())
		return err
	}

	if err := s.storeArtifacts(ctx, runID, contract, result); err != nil {
		s.markRunFailed(ctx, runID, "failed to store artifacts: "+err.Error())
		return err
	}

	if result.Header != "" && result.Header != contract.Header {
		if err := s.contractRepo.UpdateHeader(ctx, contract.ID, result.Header); err != nil {
			log.Printf("Warning: failed to update contract header: %v", err)
		}
	}
	if err := s.contractRepo.UpdateStatus(ctx, contract.ID, models.ContractStatusAnalyzed); err != nil {
		log.Printf("Warning: failed to update contract status: %v", err)
	}

	if err := s.runRepo.Complete(ctx, runID); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	return nil
}

// recordProgress maps a pipeline percentage onto the stored step list:
// stages at or below the reported percentage are completed, the reported
// stage is in progress.
func (s *AnalysisService) recordProgress(ctx context.Context, runID uuid.UUID, percent int, message string) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		log.Printf("Warning: failed to load run for progress update: %v", err)
		return
	}

	steps := run.Steps
	currentStep := message
	for i := range steps {
		switch {
		case percent >= 100 || steps[i].Percent < percent:
			steps[i].Status = "completed"
		case steps[i].Percent == percent:
			steps[i].Status = "in_progress"
		}
	}

	if err := s.runRepo.UpdateProgress(ctx, runID, currentStep, steps); err != nil {
		log.Printf("Warning: failed to record progress: %v", err)
	}
}

// storeArtifacts uploads the patched contract and the annotations CSV, then
// records their storage paths on the run.
func (s *AnalysisService) storeArtifacts(ctx context.Context, runID uuid.UUID, contract *models.Contract, result *pipeline.RunResult) error {
	if s.store == nil {
		return nil
	}

	patchedPath, err := s.store.Upload(
		ctx,
		uuid.New(),
		storage.ArtifactFilename(contract.Name, "updated_contract.txt"),
		strings.NewReader(result.PatchedText),
	)
	if err != nil {
		return fmt.Errorf("failed to upload patched contract: %w", err)
	}

	var csvBuf strings.Builder
	if err := export.WriteAnnotationsCSV(&csvBuf, result.Clauses); err != nil {
		return fmt.Errorf("failed to render annotations: %w", err)
	}
	annotationsPath, err := s.store.Upload(
		ctx,
		uuid.New(),
		storage.ArtifactFilename(contract.Name, "annotations.csv"),
		strings.NewReader(csvBuf.String()),
	)
	if err != nil {
		return fmt.Errorf("failed to upload annotations: %w", err)
	}

	return s.runRepo.SetArtifactPaths(ctx, runID, patchedPath, annotationsPath)
}

// markRunFailed marks a run as failed with an error message
func (s *AnalysisService) markRunFailed(ctx context.Context, runID uuid.UUID, errorMessage string) {
	if err := s.runRepo.Fail(ctx, runID, errorMessage); err != nil {
		log.Printf("Warning: failed to mark run %s failed: %v", runID, err)
	}
}
