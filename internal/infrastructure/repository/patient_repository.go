package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/account"
	domainerrors "github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

// patientRepository implements ledger.PatientRepository using PostgreSQL
type patientRepository struct {
	db *sql.DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *sql.DB) ledger.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Patient, error) {
	query := `
		SELECT id, name, phone, balance, transactions
		FROM patients
		WHERE id = $1
	`

	var (
		p            account.Patient
		balance      values.Money
		transactions []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Phone, &balance, &transactions,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	var txIDs []uuid.UUID
	if err := json.Unmarshal(transactions, &txIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patient transactions: %w", err)
	}

	p.Restore(balance, txIDs)
	return &p, nil
}

func (r *patientRepository) Save(ctx context.Context, p *account.Patient) error {
	transactions, err := json.Marshal(p.TransactionIDs())
	if err != nil {
		return fmt.Errorf("failed to marshal patient transactions: %w", err)
	}

	query := `
		INSERT INTO patients (id, name, phone, balance, transactions)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			balance = EXCLUDED.balance,
			transactions = EXCLUDED.transactions
	`

	if _, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Phone, p.Balance(), transactions,
	); err != nil {
		return fmt.Errorf("failed to save patient: %w", err)
	}
	return nil
}
