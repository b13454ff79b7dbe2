package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// Refund reverses a subset of a paid check's services. It references
// the same service identities the check owns; attaching it to the
// check is terminal.
type Refund struct {
	ID       uuid.UUID
	Date     time.Time
	Services []*BillableService
}

// NewRefund creates a refund over a subset of a check's services
func NewRefund(date time.Time, services []*BillableService) *Refund {
	return &Refund{
		ID:       uuid.New(),
		Date:     date,
		Services: services,
	}
}

// Price returns the undiscounted snapshot price of the refunded services
func (r *Refund) Price() values.Money {
	total := values.Zero()
	for _, s := range r.Services {
		total = total.Add(s.Snapshot.Price)
	}
	return total
}

// TotalAmount returns the money owed back for the refund: the refunded
// services priced at the original sale's discount rate, as a negative
// amount (price x rate - price).
func (r *Refund) TotalAmount(discountRate decimal.Decimal) values.Money {
	price := r.Price()
	return price.Mul(discountRate).Sub(price)
}
