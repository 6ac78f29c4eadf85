package repository

import (
	"context"
	"fmt"

	"contractguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContractRepository handles database operations for contracts
type ContractRepository struct {
	db *pgxpool.Pool
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create creates a new contract
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	query := `
		INSERT INTO contracts (
			user_id, name, status, source_file_id, jurisdiction, text, header
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		contract.UserID,
		contract.Name,
		contract.Status,
		contract.SourceFileID,
		contract.Jurisdiction,
		contract.Text,
		contract.Header,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt)

	return err
}

// GetByID retrieves a contract by ID
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	contract := &models.Contract{}
	query := `
		SELECT id, user_id, name, status, source_file_id, jurisdiction, text, header,
			created_at, updated_at
		FROM contracts
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&contract.ID,
		&contract.UserID,
		&contract.Name,
		&contract.Status,
		&contract.SourceFileID,
		&contract.Jurisdiction,
		&contract.Text,
		&contract.Header,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return contract, nil
}

// UpdateStatus updates the status of a contract
func (r *ContractRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContractStatus) error {
	query := `
		UPDATE contracts SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// UpdateHeader updates the derived header paragraph of a contract
func (r *ContractRepository) UpdateHeader(ctx context.Context, id uuid.UUID, header string) error {
	query := `
		UPDATE contracts SET
			header = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, header)
	return err
}

// UpdateSourceFileID links a contract to the uploaded file it came from
func (r *ContractRepository) UpdateSourceFileID(ctx context.Context, id uuid.UUID, fileID uuid.UUID) error {
	query := `
		UPDATE contracts SET
			source_file_id = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, fileID)
	return err
}

// ListByUserID retrieves all contracts for a user
func (r *ContractRepository) ListByUserID(ctx context.Context, userID uuid.UUID, status *models.ContractStatus, limit, offset int) ([]*models.Contract, error) {
	query := `
		SELECT id, user_id, name, status, source_file_id, jurisdiction, text, header,
			created_at, updated_at
		FROM contracts
		WHERE user_id = $1`

	args := []interface{}{userID}
	argIndex := 2

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		contract := &models.Contract{}
		err := rows.Scan(
			&contract.ID,
			&contract.UserID,
			&contract.Name,
			&contract.Status,
			&contract.SourceFileID,
			&contract.Jurisdiction,
			&contract.Text,
			&contract.Header,
			&contract.CreatedAt,
			&contract.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}

	return contracts, rows.Err()
}

// Delete deletes a contract
func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM contracts WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
