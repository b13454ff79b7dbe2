package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/pricelist"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// ChargeState tracks whether the salary and agent-fee charges for a
// billable service have been applied to employee balances.
//
// Pending -> Charged   at the moment the owning check is paid
// Charged -> Refunded  when the service is reversed by a refund
type ChargeState string

const (
	ChargePending  ChargeState = "pending"
	ChargeCharged  ChargeState = "charged"
	ChargeRefunded ChargeState = "refunded"
)

// IsValid checks if the charge state is a known value
func (s ChargeState) IsValid() bool {
	switch s {
	case ChargePending, ChargeCharged, ChargeRefunded:
		return true
	default:
		return false
	}
}

// BillableService is a single line item on a check. It is exclusively
// owned by its check; a refund references the same service identities
// rather than copying them.
type BillableService struct {
	ID       uuid.UUID
	Snapshot pricelist.ItemSnapshot

	// PerformerID is the employee who performed the service, AgentID
	// the employee who referred the patient. Either may be absent.
	PerformerID *uuid.UUID
	AgentID     *uuid.UUID

	// TreatmentPlanPrice overrides the snapshot price when the patient
	// has an active treatment plan covering this item.
	TreatmentPlanPrice *values.Money

	State    ChargeState
	BilledAt *time.Time
}

// NewBillableService creates a pending service from a pricelist snapshot
func NewBillableService(snapshot pricelist.ItemSnapshot) *BillableService {
	return &BillableService{
		ID:       uuid.New(),
		Snapshot: snapshot,
		State:    ChargePending,
	}
}

// Price returns the effective price of the service: the treatment-plan
// price when one is set, otherwise the snapshot price.
func (s *BillableService) Price() values.Money {
	if s.TreatmentPlanPrice != nil {
		return *s.TreatmentPlanPrice
	}
	return s.Snapshot.Price
}

// IsCharged returns true once salary/agent charges have been applied
func (s *BillableService) IsCharged() bool {
	return s.State == ChargeCharged
}

// IsRefunded returns true once the service has been reversed
func (s *BillableService) IsRefunded() bool {
	return s.State == ChargeRefunded
}

// MarkCharged transitions the service to Charged and stamps the
// billing time. Only a pending service can be charged.
func (s *BillableService) MarkCharged(at time.Time) bool {
	if s.State != ChargePending {
		return false
	}
	s.State = ChargeCharged
	s.BilledAt = &at
	return true
}

// MarkRefunded transitions the service to Refunded. Returns true when
// the service was previously charged, so the caller knows whether a
// charge reversal is owed. A never-charged service still ends up
// Refunded, but reversing nothing is a no-op, not an error.
func (s *BillableService) MarkRefunded() bool {
	wasCharged := s.State == ChargeCharged
	s.State = ChargeRefunded
	return wasCharged
}
