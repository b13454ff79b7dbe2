package payment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/account"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/pricelist"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

func money(s string) values.Money {
	return values.MustNewMoneyFromString(s)
}

func testFactory() (*Factory, time.Time) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return NewFactoryWithClock(func() time.Time { return at }), at
}

func testCheck(price string) *billing.Check {
	item := pricelist.Item{
		ID:       uuid.New(),
		Category: pricelist.CategoryTherapy,
		Title:    "Consultation",
		Price:    money(price),
	}
	c := billing.NewCheck(uuid.New())
	c.AddService(billing.NewBillableService(item.Snapshot()))
	return c
}

func TestFactoryBuildPayCheck(t *testing.T) {
	f, at := testFactory()
	check := testCheck("1500")
	patient := account.NewPatient("Anna Petrova", "")
	createdBy := uuid.New()

	p := f.Build(PayCheck{
		Check:   check,
		Patient: patient,
		Methods: []Method{
			{Kind: MethodBankTerminal, Amount: money("1400")},
			{Kind: MethodCash, Amount: money("300")},
		},
	}, createdBy)

	assert.Equal(t, PurposeMedicalServices, p.Purpose.Kind)
	assert.Equal(t, "Anna Petrova", p.Purpose.Detail)
	require.NotNil(t, p.SubjectID)
	assert.Equal(t, check.ID, *p.SubjectID)
	assert.Equal(t, createdBy, p.CreatedBy)
	assert.Equal(t, at, p.Date)
	// Methods are kept as supplied even when they disagree with the
	// check price; the mismatch is settled against the balance later.
	assert.Equal(t, "1700.00", p.TotalAmount().String())
}

func TestFactoryBuildPayoutForcesNegative(t *testing.T) {
	f, _ := testFactory()
	doctor := account.NewEmployee("Dr. Ivanova", account.Salary{Kind: account.SalaryMonthly})

	p := f.Build(PayoutEmployee{
		Employee: doctor,
		Methods: []Method{
			{Kind: MethodCash, Amount: money("800")},
			{Kind: MethodCard, Amount: money("-400")},
		},
	}, uuid.New())

	assert.Equal(t, PurposeSalary, p.Purpose.Kind)
	assert.Equal(t, "Dr. Ivanova", p.Purpose.Detail)
	assert.Nil(t, p.SubjectID)
	assert.Equal(t, "-800.00", p.Methods[0].Amount.String())
	assert.Equal(t, "-400.00", p.Methods[1].Amount.String())
}

func TestFactoryBuildRefundNetsBalance(t *testing.T) {
	f, _ := testFactory()
	check := testCheck("1500")

	tests := []struct {
		name     string
		balance  string
		expected string
	}{
		{
			name:     "debt reduces the cash handed back",
			balance:  "-200",
			expected: "-1300.00",
		},
		{
			name:     "credit increases it",
			balance:  "100",
			expected: "-1600.00",
		},
		{
			name:     "zero balance pays the full refund",
			balance:  "0",
			expected: "-1500.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patient := account.NewPatient("Anna Petrova", "")
			patient.Restore(money(tt.balance), nil)
			refund := billing.NewRefund(time.Now(), check.Services())

			p := f.Build(RefundCheck{
				Check:   check,
				Patient: patient,
				Refund:  refund,
				Method:  MethodCash,
			}, uuid.New())

			assert.Equal(t, PurposeRefund, p.Purpose.Kind)
			require.Len(t, p.Methods, 1)
			assert.Equal(t, MethodCash, p.Methods[0].Kind)
			assert.Equal(t, tt.expected, p.TotalAmount().String())
		})
	}
}

func TestFactoryBuildAdjustment(t *testing.T) {
	f, _ := testFactory()
	patient := account.NewPatient("Anna Petrova", "")

	tests := []struct {
		name        string
		kind        AdjustKind
		amount      string
		wantPurpose PurposeKind
		wantAmount  string
	}{
		{
			name:        "replenish",
			kind:        AdjustReplenish,
			amount:      "500",
			wantPurpose: PurposeToBalance,
			wantAmount:  "500.00",
		},
		{
			name:        "payout negates the magnitude",
			kind:        AdjustPayout,
			amount:      "200",
			wantPurpose: PurposeFromBalance,
			wantAmount:  "-200.00",
		},
		{
			name:        "payout of an already negative amount",
			kind:        AdjustPayout,
			amount:      "-200",
			wantPurpose: PurposeFromBalance,
			wantAmount:  "-200.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.Build(AdjustBalance{
				Person: patient,
				Kind:   tt.kind,
				Amount: money(tt.amount),
				Method: MethodCash,
			}, uuid.New())

			assert.Equal(t, tt.wantPurpose, p.Purpose.Kind)
			assert.Equal(t, tt.wantAmount, p.TotalAmount().String())
		})
	}
}

func TestFactoryBuildSpending(t *testing.T) {
	f, _ := testFactory()

	p := f.Build(RecordSpending{
		Category: PurposeBuilding,
		Amount:   money("450"),
		Method:   MethodCash,
		Note:     "roof repair",
	}, uuid.New())

	assert.Equal(t, PurposeBuilding, p.Purpose.Kind)
	assert.Equal(t, "roof repair", p.Purpose.Detail)
	assert.Equal(t, "-450.00", p.TotalAmount().String())
}

func TestPaymentTotals(t *testing.T) {
	p := &Payment{
		ID: uuid.New(),
		Methods: []Method{
			{Kind: MethodCash, Amount: money("300")},
			{Kind: MethodBankTerminal, Amount: money("1400")},
			{Kind: MethodCash, Amount: money("-50")},
		},
	}

	assert.Equal(t, "1650.00", p.TotalAmount().String())
	assert.Equal(t, "250.00", p.MethodsTotal(MethodCash).String())
	assert.Equal(t, "1400.00", p.MethodsTotal(MethodBankTerminal).String())
	assert.True(t, p.MethodsTotal(MethodCard).IsZero())
}

func TestPaymentChangeMethodKind(t *testing.T) {
	p := &Payment{
		ID:      uuid.New(),
		Methods: []Method{{Kind: MethodCash, Amount: money("100")}},
	}

	require.NoError(t, p.ChangeMethodKind(0, MethodCard))
	assert.Equal(t, MethodCard, p.Methods[0].Kind)
	assert.Equal(t, "100.00", p.Methods[0].Amount.String())

	assert.Error(t, p.ChangeMethodKind(1, MethodCash))
	assert.Error(t, p.ChangeMethodKind(0, MethodKind("wire")))
}
