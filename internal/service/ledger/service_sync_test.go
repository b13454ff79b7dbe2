package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/report"
)

// Concurrent first-payments-of-the-day must converge on a single
// report: the ledger lock covers the get-or-create.
func TestConcurrentProcessSingleReportPerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const workers = 32

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			intent := payment.RecordSpending{
				Category: payment.PurposeConsumables,
				Amount:   money("10"),
				Method:   payment.MethodCash,
				Note:     fmt.Sprintf("supply run %d", i),
			}
			p := f.factory.Build(intent, f.registrar)
			errs[i] = f.svc.Process(ctx, p, intent)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	require.Len(t, f.reports.reports, 1)
	r := f.todayReport(t)
	assert.Len(t, r.Payments(), workers)
	assert.True(t, r.CashBalance().Equal(money("-320")), "cash balance = %s", r.CashBalance())
}

// Concurrent payouts against one employee must serialize: the final
// balance is the exact sum of the deltas.
func TestConcurrentPayoutsSerialize(t *testing.T) {
	f := newFixture(t)
	doctor := f.newDoctor("0.4")
	doctor.Restore(money("3200"), nil)
	ctx := context.Background()
	const workers = 16

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			intent := payment.PayoutEmployee{
				Employee: doctor,
				Methods:  []payment.Method{{Kind: payment.MethodCash, Amount: money("100")}},
			}
			p := f.factory.Build(intent, f.registrar)
			assert.NoError(t, f.svc.Process(ctx, p, intent))
		}()
	}
	wg.Wait()

	assert.True(t, doctor.Balance().Equal(money("1600")), "balance = %s", doctor.Balance())
	assert.Len(t, doctor.TransactionIDs(), workers)

	r := f.todayReport(t)
	cash := payment.MethodCash
	assert.True(t, r.Reporting(report.KindExpense, &cash).Equal(money("-1600")))
}
