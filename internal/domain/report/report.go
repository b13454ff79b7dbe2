package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// Kind selects a reporting view over the day's payments
type Kind string

const (
	// KindProfit sums every method amount, income and expense alike
	KindProfit Kind = "profit"
	// KindIncome keeps only positive method amounts
	KindIncome Kind = "income"
	// KindExpense keeps only negative method amounts
	KindExpense Kind = "expense"
)

// Report aggregates all payments of one calendar day. At most one
// report exists per day; it is the unit of cash-drawer reconciliation.
// StartingCash carries over the previous day's cash balance.
type Report struct {
	ID           uuid.UUID
	Date         time.Time
	StartingCash values.Money

	payments []*payment.Payment
}

// New creates a report for a day, seeded with starting cash
func New(date time.Time, startingCash values.Money) *Report {
	return &Report{
		ID:           uuid.New(),
		Date:         date,
		StartingCash: startingCash,
	}
}

// Payments returns the recorded payments, oldest first
func (r *Report) Payments() []*payment.Payment {
	return r.payments
}

// Append records a payment into the day
func (r *Report) Append(p *payment.Payment) {
	r.payments = append(r.payments, p)
}

// Remove drops a payment from the day by ID. Removing a payment does
// not reverse the balance or charge effects it caused; cancellation is
// data cleanup, financial reversal goes through the refund flow.
func (r *Report) Remove(paymentID uuid.UUID) error {
	for i, p := range r.payments {
		if p.ID == paymentID {
			r.payments = append(r.payments[:i], r.payments[i+1:]...)
			return nil
		}
	}
	return errors.ErrPaymentNotFound
}

// Contains reports whether a payment is recorded in this report
func (r *Report) Contains(paymentID uuid.UUID) bool {
	for _, p := range r.payments {
		if p.ID == paymentID {
			return true
		}
	}
	return false
}

// Restore rehydrates the payment list from persistence. Not for use
// outside repositories.
func (r *Report) Restore(payments []*payment.Payment) {
	r.payments = payments
}

// Reporting filters out collection-purpose payments, optionally
// filters by method kind, then sums per the reporting kind.
func (r *Report) Reporting(kind Kind, methodKind *payment.MethodKind) values.Money {
	total := values.Zero()
	for _, p := range r.payments {
		if p.Purpose.Kind == payment.PurposeCollection {
			continue
		}
		for _, m := range p.Methods {
			if methodKind != nil && m.Kind != *methodKind {
				continue
			}
			switch kind {
			case KindIncome:
				if m.Amount.IsPositive() {
					total = total.Add(m.Amount)
				}
			case KindExpense:
				if m.Amount.IsNegative() {
					total = total.Add(m.Amount)
				}
			default:
				total = total.Add(m.Amount)
			}
		}
	}
	return total
}

// BillsIncome sums the methods of payments that settle a check
func (r *Report) BillsIncome(methodKind *payment.MethodKind) values.Money {
	total := values.Zero()
	for _, p := range r.payments {
		if p.SubjectID == nil {
			continue
		}
		for _, m := range p.Methods {
			if methodKind != nil && m.Kind != *methodKind {
				continue
			}
			total = total.Add(m.Amount)
		}
	}
	return total
}

// OthersIncome sums positive methods on payments with no check
// subject: balance top-ups and miscellaneous income.
func (r *Report) OthersIncome(methodKind *payment.MethodKind) values.Money {
	total := values.Zero()
	for _, p := range r.payments {
		if p.SubjectID != nil {
			continue
		}
		for _, m := range p.Methods {
			if methodKind != nil && m.Kind != *methodKind {
				continue
			}
			if m.Amount.IsPositive() {
				total = total.Add(m.Amount)
			}
		}
	}
	return total
}

// Collected sums collection-purpose methods: physical cash removed
// from the drawer, tracked outside profit and loss.
func (r *Report) Collected() values.Money {
	total := values.Zero()
	for _, p := range r.payments {
		if p.Purpose.Kind != payment.PurposeCollection {
			continue
		}
		for _, m := range p.Methods {
			total = total.Add(m.Amount)
		}
	}
	return total
}

// CashBalance is the cash physically in the drawer at the end of the
// day: starting cash plus the cash share of profit plus collections.
func (r *Report) CashBalance() values.Money {
	cash := payment.MethodCash
	return r.StartingCash.Add(r.Reporting(KindProfit, &cash)).Add(r.Collected())
}
