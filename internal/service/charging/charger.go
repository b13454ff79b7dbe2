// Package charging computes and applies performer salary and agent fee
// charges for billed services. Computation is pure; application and
// reversal mutate employee balances symmetrically, so a make/cancel
// pair always restores the balance exactly.
package charging

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/account"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/pricelist"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// defaultAgentFeeRate is the flat agent fee applied unless the
// pricelist item carries a fixed override.
var defaultAgentFeeRate = decimal.NewFromFloat(0.10)

// SalaryAmount computes the performer salary for a service. The second
// return is false when no salary is owed: no performer, a performer
// outside piece-rate pay, or outsourced laboratory work.
func SalaryAmount(svc *billing.BillableService, performer *account.Employee) (values.Money, bool) {
	if performer == nil || performer.Salary.Kind != account.SalaryPieceRate {
		return values.Zero(), false
	}
	// No salary for outsourced lab work.
	if svc.Snapshot.Category == pricelist.CategoryLaboratory {
		return values.Zero(), false
	}
	if svc.Snapshot.FixedSalaryAmount != nil {
		return *svc.Snapshot.FixedSalaryAmount, true
	}
	return svc.Snapshot.Price.Mul(performer.Salary.Rate), true
}

// AgentFee computes the agent fee for a service: a flat 10% of the
// snapshot price unless a fixed override exists. The second return is
// false when the service has no agent.
func AgentFee(svc *billing.BillableService, agent *account.Employee) (values.Money, bool) {
	if agent == nil {
		return values.Zero(), false
	}
	if svc.Snapshot.FixedAgentFee != nil {
		return *svc.Snapshot.FixedAgentFee, true
	}
	return svc.Snapshot.Price.Mul(defaultAgentFeeRate), true
}

// Charger applies and reverses salary/agent-fee charges against
// employee balances. The per-service minimum-amount clamp is a payout
// concern: the top-up against a piece-rate employee's guaranteed
// minimum is computed when the employee is paid out, never here.
type Charger struct{}

// NewCharger creates a charger
func NewCharger() *Charger {
	return &Charger{}
}

// Make applies the performer salary and agent fee for one service.
// Only a pending service is charged; calling Make twice is a no-op.
// Returns true when anything was applied.
func (c *Charger) Make(svc *billing.BillableService, performer, agent *account.Employee, at time.Time) bool {
	if !svc.MarkCharged(at) {
		return false
	}

	if amount, ok := SalaryAmount(svc, performer); ok {
		performer.ApplyDelta(amount)
	}
	if fee, ok := AgentFee(svc, agent); ok {
		agent.ApplyDelta(fee)
	}
	return true
}

// Cancel reverses the charges for one service with the exact negated
// amounts, restoring the employee balances bit-for-bit. Cancelling a
// charge that was never made is a no-op, not an error: a service added
// to a check before a promotion or treatment-plan adjustment may never
// reach Charged.
func (c *Charger) Cancel(svc *billing.BillableService, performer, agent *account.Employee) bool {
	if !svc.MarkRefunded() {
		return false
	}

	if amount, ok := SalaryAmount(svc, performer); ok {
		performer.ApplyDelta(amount.Neg())
	}
	if fee, ok := AgentFee(svc, agent); ok {
		agent.ApplyDelta(fee.Neg())
	}
	return true
}
