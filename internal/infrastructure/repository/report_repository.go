package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/report"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

// reportRepository implements ledger.ReportRepository using PostgreSQL.
// The report's payment list is a positioned join table so that removal
// by cancellation keeps the recording order of the survivors.
type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB) ledger.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) FindByDateRange(ctx context.Context, from, to time.Time) (*report.Report, error) {
	query := `
		SELECT id, date, starting_cash
		FROM reports
		WHERE date >= $1 AND date < $2
		ORDER BY date
		LIMIT 1
	`
	return r.queryOne(ctx, query, from, to)
}

func (r *reportRepository) Latest(ctx context.Context) (*report.Report, error) {
	query := `
		SELECT id, date, starting_cash
		FROM reports
		ORDER BY date DESC
		LIMIT 1
	`
	return r.queryOne(ctx, query)
}

func (r *reportRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) (*report.Report, error) {
	query := `
		SELECT rep.id, rep.date, rep.starting_cash
		FROM reports rep
		JOIN report_payments rp ON rp.report_id = rep.id
		WHERE rp.payment_id = $1
	`
	return r.queryOne(ctx, query, paymentID)
}

func (r *reportRepository) Save(ctx context.Context, rep *report.Report) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO reports (id, date, starting_cash)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET starting_cash = EXCLUDED.starting_cash
	`
	if _, err := tx.ExecContext(ctx, upsert, rep.ID, rep.Date, rep.StartingCash); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	// Rewrite the membership list wholesale; it is bounded by one
	// day's payment volume.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM report_payments WHERE report_id = $1`, rep.ID); err != nil {
		return fmt.Errorf("failed to clear report payments: %w", err)
	}
	insert := `
		INSERT INTO report_payments (report_id, payment_id, position)
		VALUES ($1, $2, $3)
	`
	for i, p := range rep.Payments() {
		if _, err := tx.ExecContext(ctx, insert, rep.ID, p.ID, i); err != nil {
			return fmt.Errorf("failed to link payment to report: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

func (r *reportRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*report.Report, error) {
	var (
		rep          report.Report
		startingCash values.Money
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&rep.ID, &rep.Date, &startingCash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	rep.StartingCash = startingCash

	payments, err := r.loadPayments(ctx, rep.ID)
	if err != nil {
		return nil, err
	}
	rep.Restore(payments)
	return &rep, nil
}

func (r *reportRepository) loadPayments(ctx context.Context, reportID uuid.UUID) ([]*payment.Payment, error) {
	query := `
		SELECT p.id, p.date, p.purpose_kind, p.purpose_detail,
			p.methods, p.subject_id, p.created_by
		FROM payments p
		JOIN report_payments rp ON rp.payment_id = p.id
		WHERE rp.report_id = $1
		ORDER BY rp.position
	`

	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report payments: %w", err)
	}
	return payments, nil
}
