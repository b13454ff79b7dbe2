package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/account"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/report"
)

// In-memory repositories for service tests. No internal locking: every
// call happens under the service's own mutex.

type memReportRepo struct {
	reports []*report.Report
}

func (m *memReportRepo) FindByDateRange(_ context.Context, from, to time.Time) (*report.Report, error) {
	for _, r := range m.reports {
		if !r.Date.Before(from) && r.Date.Before(to) {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memReportRepo) Latest(_ context.Context) (*report.Report, error) {
	var latest *report.Report
	for _, r := range m.reports {
		if latest == nil || r.Date.After(latest.Date) {
			latest = r
		}
	}
	return latest, nil
}

func (m *memReportRepo) FindByPayment(_ context.Context, paymentID uuid.UUID) (*report.Report, error) {
	for _, r := range m.reports {
		if r.Contains(paymentID) {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memReportRepo) Save(_ context.Context, r *report.Report) error {
	for i, existing := range m.reports {
		if existing.ID == r.ID {
			m.reports[i] = r
			return nil
		}
	}
	m.reports = append(m.reports, r)
	return nil
}

type memPaymentRepo struct {
	payments map[uuid.UUID]*payment.Payment
	saved    []uuid.UUID
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[uuid.UUID]*payment.Payment)}
}

func (m *memPaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, errors.ErrPaymentNotFound
	}
	return p, nil
}

func (m *memPaymentRepo) Save(_ context.Context, p *payment.Payment) error {
	if _, ok := m.payments[p.ID]; !ok {
		m.saved = append(m.saved, p.ID)
	}
	m.payments[p.ID] = p
	return nil
}

type memPatientRepo struct {
	patients map[uuid.UUID]*account.Patient
}

func newMemPatientRepo() *memPatientRepo {
	return &memPatientRepo{patients: make(map[uuid.UUID]*account.Patient)}
}

func (m *memPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, errors.ErrPersonNotFound
	}
	return p, nil
}

func (m *memPatientRepo) Save(_ context.Context, p *account.Patient) error {
	m.patients[p.ID] = p
	return nil
}

type memEmployeeRepo struct {
	employees map[uuid.UUID]*account.Employee
}

func newMemEmployeeRepo() *memEmployeeRepo {
	return &memEmployeeRepo{employees: make(map[uuid.UUID]*account.Employee)}
}

func (m *memEmployeeRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, errors.ErrPersonNotFound
	}
	return e, nil
}

func (m *memEmployeeRepo) Save(_ context.Context, e *account.Employee) error {
	m.employees[e.ID] = e
	return nil
}

type memCheckRepo struct {
	checks map[uuid.UUID]*billing.Check
}

func newMemCheckRepo() *memCheckRepo {
	return &memCheckRepo{checks: make(map[uuid.UUID]*billing.Check)}
}

func (m *memCheckRepo) GetByID(_ context.Context, id uuid.UUID) (*billing.Check, error) {
	c, ok := m.checks[id]
	if !ok {
		return nil, errors.ErrCheckNotFound
	}
	return c, nil
}

func (m *memCheckRepo) Save(_ context.Context, c *billing.Check) error {
	m.checks[c.ID] = c
	return nil
}

type memAppointmentRepo struct {
	appointments []*appointment.Appointment
}

func (m *memAppointmentRepo) GetByCheck(_ context.Context, checkID uuid.UUID) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for _, a := range m.appointments {
		if a.CheckID == checkID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAppointmentRepo) Save(_ context.Context, a *appointment.Appointment) error {
	for i, existing := range m.appointments {
		if existing.ID == a.ID {
			m.appointments[i] = a
			return nil
		}
	}
	m.appointments = append(m.appointments, a)
	return nil
}

type memCheckingAccountRepo struct {
	accounts map[account.CheckingAccountType]*account.CheckingAccount
}

func newMemCheckingAccountRepo() *memCheckingAccountRepo {
	return &memCheckingAccountRepo{accounts: make(map[account.CheckingAccountType]*account.CheckingAccount)}
}

func (m *memCheckingAccountRepo) GetByType(_ context.Context, t account.CheckingAccountType) (*account.CheckingAccount, error) {
	if a, ok := m.accounts[t]; ok {
		return a, nil
	}
	a := account.NewCheckingAccount(t)
	m.accounts[t] = a
	return a, nil
}

func (m *memCheckingAccountRepo) Save(_ context.Context, a *account.CheckingAccount) error {
	m.accounts[a.Type] = a
	return nil
}

type spyNotifier struct {
	recorded []uuid.UUID
	err      error
}

func (s *spyNotifier) PaymentRecorded(_ context.Context, p *payment.Payment) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, p.ID)
	return nil
}

type spyMetrics struct {
	payments      int
	cancellations int
	lastPurpose   string
}

func (s *spyMetrics) RecordPayment(_ context.Context, purpose string, _ float64) {
	s.payments++
	s.lastPurpose = purpose
}

func (s *spyMetrics) RecordCancellation(_ context.Context) {
	s.cancellations++
}

// fakeClock drives the service's idea of "now" in tests
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}
