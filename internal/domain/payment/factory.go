package payment

import (
	"time"

	"github.com/google/uuid"
)

// Factory renders payment intents into concrete Payment records. It is
// pure construction: no persistence, no balance effects, no
// validation failures. Invalid inputs (an empty method list) degenerate
// to a zero-amount payment, which the ledger rejects before recording.
type Factory struct {
	now func() time.Time
}

// NewFactory creates a payment factory using the wall clock
func NewFactory() *Factory {
	return &Factory{now: time.Now}
}

// NewFactoryWithClock creates a factory with an injected clock, for tests
func NewFactoryWithClock(now func() time.Time) *Factory {
	return &Factory{now: now}
}

// Build renders an intent into a Payment on behalf of the acting user
func (f *Factory) Build(intent Intent, createdBy uuid.UUID) *Payment {
	switch in := intent.(type) {
	case PayCheck:
		return f.buildPayCheck(in, createdBy)
	case PayoutEmployee:
		return f.buildPayout(in, createdBy)
	case RefundCheck:
		return f.buildRefund(in, createdBy)
	case AdjustBalance:
		return f.buildAdjustment(in, createdBy)
	case RecordSpending:
		return f.buildSpending(in, createdBy)
	default:
		// Unknown intents degenerate to an empty payment the ledger
		// will reject.
		return &Payment{ID: uuid.New(), Date: f.now(), CreatedBy: createdBy}
	}
}

// buildPayCheck keeps the methods exactly as supplied. The payment
// record must reflect what was physically collected; reconciling a
// mismatch against the check price is the ledger's job.
func (f *Factory) buildPayCheck(in PayCheck, createdBy uuid.UUID) *Payment {
	p := &Payment{
		ID:        uuid.New(),
		Date:      f.now(),
		Purpose:   Purpose{Kind: PurposeMedicalServices},
		Methods:   in.Methods,
		CreatedBy: createdBy,
	}
	if in.Check != nil {
		id := in.Check.ID
		p.SubjectID = &id
	}
	if in.Patient != nil {
		p.Purpose.Detail = in.Patient.Name
	}
	return p
}

// buildPayout forces every method amount negative: a payout is money
// leaving the clinic, regardless of the sign the caller supplied.
func (f *Factory) buildPayout(in PayoutEmployee, createdBy uuid.UUID) *Payment {
	methods := make([]Method, len(in.Methods))
	for i, m := range in.Methods {
		methods[i] = Method{Kind: m.Kind, Amount: m.Amount.Abs().Neg()}
	}

	p := &Payment{
		ID:        uuid.New(),
		Date:      f.now(),
		Purpose:   Purpose{Kind: PurposeSalary},
		Methods:   methods,
		CreatedBy: createdBy,
	}
	if in.Employee != nil {
		p.Purpose.Detail = in.Employee.Name
	}
	return p
}

// buildRefund computes the amount physically owed back: the refund's
// discounted total minus the patient's balance, so an unsettled debt
// reduces the cash handed over and an unspent credit increases it.
// Whether the balance itself is zeroed is the ledger's decision, keyed
// off the intent's IncludeBalance flag.
func (f *Factory) buildRefund(in RefundCheck, createdBy uuid.UUID) *Payment {
	amount := in.Refund.TotalAmount(in.Check.DiscountRate())
	if in.Patient != nil {
		amount = amount.Sub(in.Patient.Balance())
	}

	p := &Payment{
		ID:        uuid.New(),
		Date:      f.now(),
		Purpose:   Purpose{Kind: PurposeRefund},
		Methods:   []Method{{Kind: in.Method, Amount: amount}},
		CreatedBy: createdBy,
	}
	id := in.Check.ID
	p.SubjectID = &id
	if in.Patient != nil {
		p.Purpose.Detail = in.Patient.Name
	}
	return p
}

// buildAdjustment flips the purpose between toBalance and fromBalance
// by the sign of the resulting amount. A payout kind negates the
// magnitude first.
func (f *Factory) buildAdjustment(in AdjustBalance, createdBy uuid.UUID) *Payment {
	amount := in.Amount
	if in.Kind == AdjustPayout {
		amount = amount.Abs().Neg()
	}

	kind := PurposeToBalance
	if amount.IsNegative() {
		kind = PurposeFromBalance
	}

	return &Payment{
		ID:        uuid.New(),
		Date:      f.now(),
		Purpose:   Purpose{Kind: kind},
		Methods:   []Method{{Kind: in.Method, Amount: amount}},
		CreatedBy: createdBy,
	}
}

// buildSpending forces the amount negative and carries the expense
// category through as the purpose.
func (f *Factory) buildSpending(in RecordSpending, createdBy uuid.UUID) *Payment {
	return &Payment{
		ID:        uuid.New(),
		Date:      f.now(),
		Purpose:   Purpose{Kind: in.Category, Detail: in.Note},
		Methods:   []Method{{Kind: in.Method, Amount: in.Amount.Abs().Neg()}},
		CreatedBy: createdBy,
	}
}
