package service

import (
	"context"
	"errors"

	"contractguard-backend/models"
	"contractguard-backend/repository"
	"contractguard-backend/textutil"

	"github.com/google/uuid"
)

// ContractService handles business logic for contracts
type ContractService struct {
	contractRepo *repository.ContractRepository
	runRepo      *repository.AnalysisRunRepository
}

// ContractServiceOption is a functional option for ContractService
type ContractServiceOption func(*ContractService)

// WithContractRepository sets the contract repository
func WithContractRepository(repo *repository.ContractRepository) ContractServiceOption {
	return func(s *ContractService) {
		s.contractRepo = repo
	}
}

// WithAnalysisRunRepository sets the analysis run repository
func WithAnalysisRunRepository(repo *repository.AnalysisRunRepository) ContractServiceOption {
	return func(s *ContractService) {
		s.runRepo = repo
	}
}

// NewContractService creates a new contract service
func NewContractService(opts ...ContractServiceOption) *ContractService {
	s := &ContractService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateContractRequest represents a request to register a contract
type CreateContractRequest struct {
	UserID       uuid.UUID
	Name         string
	Text         string
	Jurisdiction *string
	SourceFileID *uuid.UUID
}

// CreateContractResult represents the result of registering a contract
type CreateContractResult struct {
	Contract *models.Contract
}

// CreateContract registers a contract from already-extracted text. The text
// is normalized on the way in so every downstream consumer sees one canonical
// form.
func (s *ContractService) CreateContract(ctx context.Context, req CreateContractRequest) (*CreateContractResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	text := textutil.NormalizeText(req.Text)
	if req.Name == "" || text == "" {
		return nil, ErrMissingContractData
	}

	contract := &models.Contract{
		UserID:       req.UserID,
		Name:         req.Name,
		Status:       models.ContractStatusUploaded,
		SourceFileID: req.SourceFileID,
		Jurisdiction: req.Jurisdiction,
		Text:         text,
		Header:       textutil.FirstParagraph(text),
	}

	err := s.contractRepo.Create(ctx, contract)
	if err != nil {
		return nil, err
	}

	return &CreateContractResult{Contract: contract}, nil
}

// GetContractRequest represents a request to get a contract
type GetContractRequest struct {
	ID uuid.UUID
}

// GetContractResult represents the result of getting a contract
type GetContractResult struct {
	Contract *models.Contract
}

// GetContract retrieves a contract by ID
func (s *ContractService) GetContract(ctx context.Context, req GetContractRequest) (*GetContractResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	contract, err := s.contractRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, ErrContractNotFound
	}

	return &GetContractResult{Contract: contract}, nil
}

// ListContractsRequest represents a request to list contracts
type ListContractsRequest struct {
	UserID uuid.UUID
	Status *models.ContractStatus
	Limit  int
	Offset int
}

// ListContractsResult represents the result of listing contracts
type ListContractsResult struct {
	Contracts []*models.Contract
}

// ListContracts lists contracts for a user
func (s *ContractService) ListContracts(ctx context.Context, req ListContractsRequest) (*ListContractsResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	contracts, err := s.contractRepo.ListByUserID(ctx, req.UserID, req.Status, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	return &ListContractsResult{Contracts: contracts}, nil
}

// ArchiveContractRequest represents a request to archive a contract
type ArchiveContractRequest struct {
	ID uuid.UUID
}

// ArchiveContractResult represents the result of archiving a contract
type ArchiveContractResult struct{}

// ArchiveContract marks a contract as archived
func (s *ContractService) ArchiveContract(ctx context.Context, req ArchiveContractRequest) (*ArchiveContractResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	if _, err := s.contractRepo.GetByID(ctx, req.ID); err != nil {
		return nil, ErrContractNotFound
	}

	err := s.contractRepo.UpdateStatus(ctx, req.ID, models.ContractStatusArchived)
	if err != nil {
		return nil, err
	}

	return &ArchiveContractResult{}, nil
}
