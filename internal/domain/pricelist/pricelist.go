package pricelist

import (
	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// Category groups pricelist items by the kind of work performed.
// Laboratory work is outsourced, which matters to the salary charger:
// lab items never produce a performer salary charge.
type Category string

const (
	CategoryTherapy     Category = "therapy"
	CategorySurgery     Category = "surgery"
	CategoryOrthopedics Category = "orthopedics"
	CategoryDiagnostics Category = "diagnostics"
	CategoryLaboratory  Category = "laboratory"
	CategoryOther       Category = "other"
)

// IsValid checks if the category is a known value
func (c Category) IsValid() bool {
	switch c {
	case CategoryTherapy, CategorySurgery, CategoryOrthopedics,
		CategoryDiagnostics, CategoryLaboratory, CategoryOther:
		return true
	default:
		return false
	}
}

// Item is a billable entry in the clinic's master price list. The
// master list is mutable; invoices never reference it directly.
type Item struct {
	ID                uuid.UUID
	Category          Category
	Title             string
	Price             values.Money
	FixedSalaryAmount *values.Money
	FixedAgentFee     *values.Money
	Archived          bool
}

// Snapshot returns an immutable copy of the item's price and salary
// rule, taken at the moment the item is billed so that later edits to
// the master list do not retroactively alter historical invoices.
func (i Item) Snapshot() ItemSnapshot {
	s := ItemSnapshot{
		ID:       i.ID,
		Category: i.Category,
		Title:    i.Title,
		Price:    i.Price,
	}
	if i.FixedSalaryAmount != nil {
		v := *i.FixedSalaryAmount
		s.FixedSalaryAmount = &v
	}
	if i.FixedAgentFee != nil {
		v := *i.FixedAgentFee
		s.FixedAgentFee = &v
	}
	return s
}

// ItemSnapshot is a frozen copy of a pricelist item. All fields are
// value copies; nothing points back at the mutable master list.
type ItemSnapshot struct {
	ID                uuid.UUID
	Category          Category
	Title             string
	Price             values.Money
	FixedSalaryAmount *values.Money
	FixedAgentFee     *values.Money
}

// Promotion grants a per-item discount for the pricelist items it
// covers. Applying a promotion to a check recomputes the check's
// discount as the sum of these amounts over the covered services.
type Promotion struct {
	ID        uuid.UUID
	Title     string
	Discounts map[uuid.UUID]values.Money // pricelist item ID -> discount amount
}

// DiscountFor returns the promotion's discount for a pricelist item,
// or a zero amount when the item is not covered.
func (p Promotion) DiscountFor(itemID uuid.UUID) values.Money {
	if d, ok := p.Discounts[itemID]; ok {
		return d
	}
	return values.Zero()
}

// Covers reports whether the promotion applies to a pricelist item
func (p Promotion) Covers(itemID uuid.UUID) bool {
	_, ok := p.Discounts[itemID]
	return ok
}
