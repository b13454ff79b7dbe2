package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/pricelist"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

func snapshot(title, price string) pricelist.ItemSnapshot {
	return pricelist.Item{
		ID:       uuid.New(),
		Category: pricelist.CategoryTherapy,
		Title:    title,
		Price:    values.MustNewMoneyFromString(price),
	}.Snapshot()
}

func TestCheckPricing(t *testing.T) {
	c := NewCheck(uuid.New())
	c.AddService(NewBillableService(snapshot("Consultation", "1000")))
	c.AddService(NewBillableService(snapshot("X-ray", "500")))

	assert.Equal(t, "1500.00", c.Price().String())
	assert.Equal(t, "1500.00", c.TotalPrice().String())

	c.SetDiscount(values.MustNewMoneyFromString("300"))
	assert.Equal(t, "1200.00", c.TotalPrice().String())
	assert.True(t, c.DiscountRate().Equal(decimal.RequireFromString("0.2")), "rate = %s", c.DiscountRate())
}

func TestCheckTreatmentPlanPriceOverride(t *testing.T) {
	c := NewCheck(uuid.New())
	svc := NewBillableService(snapshot("Consultation", "1000"))
	plan := values.MustNewMoneyFromString("800")
	svc.TreatmentPlanPrice = &plan
	c.AddService(svc)

	assert.Equal(t, "800.00", c.Price().String())
}

func TestCheckDiscountRateZeroPrice(t *testing.T) {
	c := NewCheck(uuid.New())

	assert.True(t, c.DiscountRate().IsZero())
}

// A discount larger than the price is allowed and yields a negative
// total; bounding the input is the UI's job.
func TestCheckDiscountNotClamped(t *testing.T) {
	c := NewCheck(uuid.New())
	c.AddService(NewBillableService(snapshot("Consultation", "100")))
	c.SetDiscount(values.MustNewMoneyFromString("150"))

	assert.Equal(t, "-50.00", c.TotalPrice().String())
}

func TestCheckSetServicesClearsDiscount(t *testing.T) {
	c := NewCheck(uuid.New())
	c.AddService(NewBillableService(snapshot("Consultation", "1000")))
	c.SetDiscount(values.MustNewMoneyFromString("100"))

	c.SetServices(nil)

	assert.Empty(t, c.Services())
	assert.True(t, c.Discount().IsZero())
	assert.True(t, c.TotalPrice().IsZero())
}

func TestCheckApplyPromotion(t *testing.T) {
	covered := snapshot("Consultation", "1000")
	uncovered := snapshot("X-ray", "500")

	c := NewCheck(uuid.New())
	c.AddService(NewBillableService(covered))
	c.AddService(NewBillableService(uncovered))
	c.SetDiscount(values.MustNewMoneyFromString("50"))

	promo := pricelist.Promotion{
		ID:    uuid.New(),
		Title: "Spring checkup",
		Discounts: map[uuid.UUID]values.Money{
			covered.ID: values.MustNewMoneyFromString("200"),
		},
	}
	c.ApplyPromotion(promo)

	// The promotion replaces any manual discount.
	assert.Equal(t, "200.00", c.Discount().String())
	require.NotNil(t, c.PromotionID)
	assert.Equal(t, promo.ID, *c.PromotionID)
}

func TestCheckAttachRefund(t *testing.T) {
	c := NewCheck(uuid.New())
	svc := NewBillableService(snapshot("Consultation", "1000"))
	c.AddService(svc)

	refund := NewRefund(time.Now(), []*BillableService{svc})
	require.NoError(t, c.AttachRefund(refund))
	assert.True(t, c.IsRefunded())

	err := c.AttachRefund(NewRefund(time.Now(), []*BillableService{svc}))
	assert.ErrorIs(t, err, errors.ErrCheckAlreadyRefunded)
}

func TestBillableServiceChargeTransitions(t *testing.T) {
	svc := NewBillableService(snapshot("Consultation", "1000"))
	at := time.Now()

	require.True(t, svc.MarkCharged(at))
	assert.True(t, svc.IsCharged())
	require.NotNil(t, svc.BilledAt)

	// Charging twice is a no-op.
	assert.False(t, svc.MarkCharged(at))

	assert.True(t, svc.MarkRefunded())
	assert.True(t, svc.IsRefunded())
	// A second refund owes no reversal.
	assert.False(t, svc.MarkRefunded())
}

func TestBillableServiceRefundWithoutCharge(t *testing.T) {
	svc := NewBillableService(snapshot("Consultation", "1000"))

	// A never-charged service still ends up refunded, but no reversal
	// is owed.
	assert.False(t, svc.MarkRefunded())
	assert.True(t, svc.IsRefunded())
}
