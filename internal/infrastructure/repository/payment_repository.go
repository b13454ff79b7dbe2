package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domainerrors "github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

// paymentRepository implements ledger.PaymentRepository using PostgreSQL.
// Methods are stored as a jsonb array: a split payment has a small,
// bounded number of legs and they are only ever read back whole.
type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB) ledger.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT id, date, purpose_kind, purpose_detail, methods, subject_id, created_by
		FROM payments
		WHERE id = $1
	`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

func (r *paymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	methods, err := json.Marshal(p.Methods)
	if err != nil {
		return fmt.Errorf("failed to marshal payment methods: %w", err)
	}

	query := `
		INSERT INTO payments (
			id, date, purpose_kind, purpose_detail, methods, subject_id, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			purpose_kind = EXCLUDED.purpose_kind,
			purpose_detail = EXCLUDED.purpose_detail,
			methods = EXCLUDED.methods
	`

	if _, err := r.db.ExecContext(ctx, query,
		p.ID, p.Date, string(p.Purpose.Kind), p.Purpose.Detail,
		methods, p.SubjectID, p.CreatedBy,
	); err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPayment reads one payment row in the column order used by every
// payment query in this package.
func scanPayment(row rowScanner) (*payment.Payment, error) {
	var (
		p           payment.Payment
		purposeKind string
		methods     []byte
		subjectID   uuid.NullUUID
	)
	if err := row.Scan(
		&p.ID, &p.Date, &purposeKind, &p.Purpose.Detail,
		&methods, &subjectID, &p.CreatedBy,
	); err != nil {
		return nil, err
	}

	p.Purpose.Kind = payment.PurposeKind(purposeKind)
	if subjectID.Valid {
		id := subjectID.UUID
		p.SubjectID = &id
	}
	if err := json.Unmarshal(methods, &p.Methods); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment methods: %w", err)
	}
	return &p, nil
}
