package payment

import (
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/account"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// Intent is what a UI flow wants the ledger to do with money. The
// factory renders an intent into a concrete Payment; the ledger
// dispatches on the intent variant to apply balance and charge
// effects. Intents carry the already-loaded entities the flow acted
// on, so factory and ledger see the same state.
type Intent interface {
	intent()
}

// AdjustKind selects the direction of a manual balance adjustment
type AdjustKind string

const (
	// AdjustReplenish moves money onto the person's balance
	AdjustReplenish AdjustKind = "replenish"
	// AdjustPayout takes money off the balance; the magnitude is
	// negated regardless of the sign supplied.
	AdjustPayout AdjustKind = "payout"
)

// PayCheck settles a check with the supplied methods. A mismatch
// between the methods total and the check's total price is not an
// error: the ledger posts the difference to the patient's balance.
type PayCheck struct {
	Check   *billing.Check
	Patient *account.Patient
	Methods []Method
}

// PayoutEmployee pays out part of an employee's balance. Method
// amounts are forced negative regardless of the sign supplied.
type PayoutEmployee struct {
	Employee *account.Employee
	Methods  []Method
}

// RefundCheck reverses a refund's worth of a paid check through a
// single method. IncludeBalance settles the patient's outstanding
// balance alongside the refund.
type RefundCheck struct {
	Check          *billing.Check
	Patient        *account.Patient
	Refund         *billing.Refund
	Method         MethodKind
	IncludeBalance bool
}

// AdjustBalance manually moves money on or off a person's balance
type AdjustBalance struct {
	Person account.Accountable
	Kind   AdjustKind
	Amount values.Money
	Method MethodKind
}

// RecordSpending books a clinic expense under a spending category
type RecordSpending struct {
	Category PurposeKind
	Amount   values.Money
	Method   MethodKind
	Note     string
}

func (PayCheck) intent()       {}
func (PayoutEmployee) intent() {}
func (RefundCheck) intent()    {}
func (AdjustBalance) intent()  {}
func (RecordSpending) intent() {}
