package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/billing"
	domainerrors "github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/pricelist"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

// checkRepository implements ledger.CheckRepository using PostgreSQL.
// A check row owns its service rows; a refund row references the same
// service identities through a join table rather than copying them.
type checkRepository struct {
	db *sql.DB
}

// NewCheckRepository creates a new check repository
func NewCheckRepository(db *sql.DB) ledger.CheckRepository {
	return &checkRepository{db: db}
}

func (r *checkRepository) GetByID(ctx context.Context, id uuid.UUID) (*billing.Check, error) {
	query := `
		SELECT id, patient_id, discount, promotion_id, payment_id
		FROM checks
		WHERE id = $1
	`

	var (
		c           billing.Check
		discount    values.Money
		promotionID uuid.NullUUID
		paymentID   uuid.NullUUID
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.PatientID, &discount, &promotionID, &paymentID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.ErrCheckNotFound
		}
		return nil, fmt.Errorf("failed to get check: %w", err)
	}

	services, byID, err := r.loadServices(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.SetServices(services)
	c.SetDiscount(discount)
	if promotionID.Valid {
		v := promotionID.UUID
		c.PromotionID = &v
	}
	if paymentID.Valid {
		v := paymentID.UUID
		c.PaymentID = &v
	}

	refund, err := r.loadRefund(ctx, c.ID, byID)
	if err != nil {
		return nil, err
	}
	if refund != nil {
		if err := c.AttachRefund(refund); err != nil {
			return nil, fmt.Errorf("failed to rehydrate refund: %w", err)
		}
	}

	return &c, nil
}

func (r *checkRepository) Save(ctx context.Context, c *billing.Check) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO checks (id, patient_id, discount, promotion_id, payment_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			discount = EXCLUDED.discount,
			promotion_id = EXCLUDED.promotion_id,
			payment_id = EXCLUDED.payment_id
	`
	if _, err := tx.ExecContext(ctx, upsert,
		c.ID, c.PatientID, c.Discount(), c.PromotionID, c.PaymentID,
	); err != nil {
		return fmt.Errorf("failed to save check: %w", err)
	}

	if err := r.saveServices(ctx, tx, c); err != nil {
		return err
	}
	if c.Refund != nil {
		if err := r.saveRefund(ctx, tx, c.ID, c.Refund); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit check: %w", err)
	}
	return nil
}

func (r *checkRepository) saveServices(ctx context.Context, tx *sql.Tx, c *billing.Check) error {
	upsert := `
		INSERT INTO check_services (
			id, check_id, position, snapshot, performer_id, agent_id,
			treatment_plan_price, state, billed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position,
			performer_id = EXCLUDED.performer_id,
			agent_id = EXCLUDED.agent_id,
			treatment_plan_price = EXCLUDED.treatment_plan_price,
			state = EXCLUDED.state,
			billed_at = EXCLUDED.billed_at
	`

	for i, svc := range c.Services() {
		snapshot, err := json.Marshal(svc.Snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal service snapshot: %w", err)
		}

		var planPrice interface{}
		if svc.TreatmentPlanPrice != nil {
			planPrice = svc.TreatmentPlanPrice.Amount().String()
		}

		if _, err := tx.ExecContext(ctx, upsert,
			svc.ID, c.ID, i, snapshot, svc.PerformerID, svc.AgentID,
			planPrice, string(svc.State), svc.BilledAt,
		); err != nil {
			return fmt.Errorf("failed to save check service: %w", err)
		}
	}
	return nil
}

func (r *checkRepository) saveRefund(ctx context.Context, tx *sql.Tx, checkID uuid.UUID, refund *billing.Refund) error {
	upsert := `
		INSERT INTO refunds (id, check_id, date)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, upsert, refund.ID, checkID, refund.Date); err != nil {
		return fmt.Errorf("failed to save refund: %w", err)
	}

	link := `
		INSERT INTO refund_services (refund_id, service_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, svc := range refund.Services {
		if _, err := tx.ExecContext(ctx, link, refund.ID, svc.ID); err != nil {
			return fmt.Errorf("failed to link refund service: %w", err)
		}
	}
	return nil
}

func (r *checkRepository) loadServices(ctx context.Context, checkID uuid.UUID) ([]*billing.BillableService, map[uuid.UUID]*billing.BillableService, error) {
	query := `
		SELECT id, snapshot, performer_id, agent_id,
			treatment_plan_price, state, billed_at
		FROM check_services
		WHERE check_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, checkID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load check services: %w", err)
	}
	defer rows.Close()

	var services []*billing.BillableService
	byID := make(map[uuid.UUID]*billing.BillableService)
	for rows.Next() {
		var (
			svc         billing.BillableService
			snapshot    []byte
			performerID uuid.NullUUID
			agentID     uuid.NullUUID
			planPrice   sql.NullString
			state       string
			billedAt    sql.NullTime
		)
		if err := rows.Scan(
			&svc.ID, &snapshot, &performerID, &agentID,
			&planPrice, &state, &billedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan check service: %w", err)
		}

		var snap pricelist.ItemSnapshot
		if err := json.Unmarshal(snapshot, &snap); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal service snapshot: %w", err)
		}
		svc.Snapshot = snap
		svc.State = billing.ChargeState(state)
		if performerID.Valid {
			v := performerID.UUID
			svc.PerformerID = &v
		}
		if agentID.Valid {
			v := agentID.UUID
			svc.AgentID = &v
		}
		if planPrice.Valid {
			price, err := values.NewMoneyFromString(planPrice.String)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse treatment plan price: %w", err)
			}
			svc.TreatmentPlanPrice = &price
		}
		if billedAt.Valid {
			at := billedAt.Time
			svc.BilledAt = &at
		}

		services = append(services, &svc)
		byID[svc.ID] = &svc
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate check services: %w", err)
	}
	return services, byID, nil
}

func (r *checkRepository) loadRefund(ctx context.Context, checkID uuid.UUID, services map[uuid.UUID]*billing.BillableService) (*billing.Refund, error) {
	var (
		refundID uuid.UUID
		date     time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, date FROM refunds WHERE check_id = $1`, checkID,
	).Scan(&refundID, &date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT service_id FROM refund_services WHERE refund_id = $1`, refundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund services: %w", err)
	}
	defer rows.Close()

	refund := &billing.Refund{ID: refundID, Date: date}
	for rows.Next() {
		var serviceID uuid.UUID
		if err := rows.Scan(&serviceID); err != nil {
			return nil, fmt.Errorf("failed to scan refund service: %w", err)
		}
		// Refund services point at the check's own service objects.
		if svc, ok := services[serviceID]; ok {
			refund.Services = append(refund.Services, svc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refund services: %w", err)
	}
	return refund, nil
}
