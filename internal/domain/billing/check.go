package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/pricelist"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// Check is an itemized bill for one or more billable services. It is
// created when an appointment is registered, mutated by the registrar
// and doctor up to the moment of payment, and read-mostly afterwards
// except for refund linkage.
type Check struct {
	ID        uuid.UUID
	PatientID uuid.UUID

	services []*BillableService
	discount values.Money

	Refund      *Refund
	PromotionID *uuid.UUID
	PaymentID   *uuid.UUID
}

// NewCheck creates an empty check for a patient
func NewCheck(patientID uuid.UUID) *Check {
	return &Check{
		ID:        uuid.New(),
		PatientID: patientID,
	}
}

// Services returns the check's line items in insertion order
func (c *Check) Services() []*BillableService {
	return c.services
}

// AddService appends a line item to the check
func (c *Check) AddService(s *BillableService) {
	c.services = append(c.services, s)
}

// SetServices replaces the check's line items. Clearing a check also
// clears its discount.
func (c *Check) SetServices(services []*BillableService) {
	c.services = services
	if len(services) == 0 {
		c.discount = values.Zero()
	}
}

// Discount returns the current discount amount
func (c *Check) Discount() values.Money {
	return c.discount
}

// SetDiscount sets the discount amount. The discount is deliberately
// not clamped to the check price: a manual discount larger than the
// price produces a negative total, which the UI bounds, not the engine.
func (c *Check) SetDiscount(d values.Money) {
	c.discount = d
}

// Price returns the undiscounted sum of the effective service prices
func (c *Check) Price() values.Money {
	total := values.Zero()
	for _, s := range c.services {
		total = total.Add(s.Price())
	}
	return total
}

// TotalPrice returns the discounted price of the check
func (c *Check) TotalPrice() values.Money {
	return c.Price().Sub(c.discount)
}

// DiscountRate returns discount / price, or zero when the check has no
// price. The rate carries the full decimal precision so that a refund
// discounted at the same rate reverses the sale exactly.
func (c *Check) DiscountRate() decimal.Decimal {
	price := c.Price()
	if price.IsZero() {
		return decimal.Zero
	}
	return c.discount.Amount().Div(price.Amount())
}

// ApplyPromotion recomputes the discount as the sum of the promotion's
// per-item discounts over the covered services. Must run before the
// check is charged, since charges key off the final price.
func (c *Check) ApplyPromotion(p pricelist.Promotion) {
	discount := values.Zero()
	for _, s := range c.services {
		if p.Covers(s.Snapshot.ID) {
			discount = discount.Add(p.DiscountFor(s.Snapshot.ID))
		}
	}
	c.discount = discount
	id := p.ID
	c.PromotionID = &id
}

// IsPaid reports whether the check has been linked to a payment
func (c *Check) IsPaid() bool {
	return c.PaymentID != nil
}

// IsRefunded reports whether a refund has been attached
func (c *Check) IsRefunded() bool {
	return c.Refund != nil
}

// AttachRefund links a refund to the check. A check can have at most
// one refund; a refunded check cannot be refunded again. Reversing the
// refunded services' charges is the ledger's job and happens before
// the link is made.
func (c *Check) AttachRefund(r *Refund) error {
	if c.Refund != nil {
		return errors.ErrCheckAlreadyRefunded
	}
	c.Refund = r
	return nil
}
