package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/account"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/report"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/charging"
)

// Dependencies wires a ledger service. Notifier and Metrics are
// optional; everything else is required.
type Dependencies struct {
	Reports          ReportRepository
	Payments         PaymentRepository
	Patients         PatientRepository
	Employees        EmployeeRepository
	Checks           CheckRepository
	Appointments     AppointmentRepository
	CheckingAccounts CheckingAccountRepository
	Notifier         Notifier
	Metrics          MetricsCollector
	Logger           *slog.Logger
	Location         *time.Location
	Now              func() time.Time
}

// service implements the Service interface. One mutex serializes every
// money-moving operation: report get-or-create, balance updates and
// charge state are cheap and infrequent enough that coarse-grained
// serialization is simpler to reason about than per-entity locking.
type service struct {
	reports          ReportRepository
	payments         PaymentRepository
	patients         PatientRepository
	employees        EmployeeRepository
	checks           CheckRepository
	appointments     AppointmentRepository
	checkingAccounts CheckingAccountRepository
	notifier         Notifier
	metrics          MetricsCollector
	charger          *charging.Charger
	logger           *slog.Logger
	loc              *time.Location
	now              func() time.Time
	mu               sync.Mutex
}

// NewService creates a new ledger service
func NewService(deps Dependencies) Service {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &service{
		reports:          deps.Reports,
		payments:         deps.Payments,
		patients:         deps.Patients,
		employees:        deps.Employees,
		checks:           deps.Checks,
		appointments:     deps.Appointments,
		checkingAccounts: deps.CheckingAccounts,
		notifier:         deps.Notifier,
		metrics:          deps.Metrics,
		charger:          charging.NewCharger(),
		logger:           logger,
		loc:              loc,
		now:              now,
	}
}

// Process applies a payment and its intent under the ledger lock
func (s *service) Process(ctx context.Context, p *payment.Payment, intent payment.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil || len(p.Methods) == 0 || p.TotalAmount().IsZero() {
		return errors.ErrZeroAmountPayment
	}

	switch in := intent.(type) {
	case payment.PayCheck:
		return s.processPayCheck(ctx, p, in)
	case payment.PayoutEmployee:
		return s.processPayout(ctx, p, in)
	case payment.RefundCheck:
		return s.processRefund(ctx, p, in)
	case payment.AdjustBalance:
		return s.processAdjustment(ctx, p, in)
	case payment.RecordSpending:
		return s.record(ctx, p)
	default:
		return errors.NewValidationError("UNKNOWN_INTENT", "unknown payment intent")
	}
}

// processPayCheck settles a check: the collected difference lands on
// the patient balance, line-item charges go to the performing and
// referring employees, linked appointments complete, and the payment
// is recorded into today's report.
func (s *service) processPayCheck(ctx context.Context, p *payment.Payment, in payment.PayCheck) error {
	if in.Check == nil {
		return errors.ErrMissingSubject
	}
	if in.Patient == nil {
		return errors.ErrMissingPatient
	}

	// Over/underpayment is not reconciled into the payment record; it
	// is posted to the patient's balance as an auxiliary payment so
	// the day report still equals the actual cash movement.
	diff := p.TotalAmount().Sub(in.Check.TotalPrice())
	if !diff.IsZero() {
		if err := s.postBalanceDifference(ctx, in.Patient, diff, methodKindOf(p), p.CreatedBy); err != nil {
			return err
		}
	}
	in.Patient.AppendTransaction(p.ID)

	staff, err := s.resolveEmployees(ctx, in.Check.Services())
	if err != nil {
		return err
	}
	at := s.now()
	for _, svc := range in.Check.Services() {
		s.charger.Make(svc, staffFor(staff, svc.PerformerID), staffFor(staff, svc.AgentID), at)
	}
	for _, e := range staff {
		if err := s.employees.Save(ctx, e); err != nil {
			return errors.Wrap(err, "saving employee")
		}
	}

	appts, err := s.appointments.GetByCheck(ctx, in.Check.ID)
	if err != nil {
		return errors.Wrap(err, "loading appointments")
	}
	for _, a := range appts {
		if err := a.Complete(); err != nil {
			s.logger.Warn("appointment not completable", "appointment_id", a.ID, "error", err)
			continue
		}
		if err := s.appointments.Save(ctx, a); err != nil {
			return errors.Wrap(err, "saving appointment")
		}
	}

	id := p.ID
	in.Check.PaymentID = &id
	if err := s.checks.Save(ctx, in.Check); err != nil {
		return errors.Wrap(err, "saving check")
	}
	if err := s.patients.Save(ctx, in.Patient); err != nil {
		return errors.Wrap(err, "saving patient")
	}

	return s.record(ctx, p)
}

// processPayout reduces the employee's balance by the (already
// negative) payout total.
func (s *service) processPayout(ctx context.Context, p *payment.Payment, in payment.PayoutEmployee) error {
	if in.Employee == nil {
		return errors.ErrMissingEmployee
	}

	in.Employee.AppendTransaction(p.ID)
	in.Employee.ApplyDelta(p.TotalAmount())
	if err := s.employees.Save(ctx, in.Employee); err != nil {
		return errors.Wrap(err, "saving employee")
	}

	return s.record(ctx, p)
}

// processRefund hands money back for a refunded check. The payment
// amount was computed net of the patient's balance by the factory;
// IncludeBalance additionally settles the balance itself through an
// auxiliary payment. Charge reversal happened in AttachRefund.
func (s *service) processRefund(ctx context.Context, p *payment.Payment, in payment.RefundCheck) error {
	if in.Check == nil {
		return errors.ErrMissingSubject
	}
	if in.Patient == nil {
		return errors.ErrMissingPatient
	}

	if in.IncludeBalance && !in.Patient.Balance().IsZero() {
		delta := in.Patient.Balance().Neg()
		if err := s.postBalanceDifference(ctx, in.Patient, delta, in.Method, p.CreatedBy); err != nil {
			return err
		}
	}

	in.Patient.AppendTransaction(p.ID)
	if err := s.patients.Save(ctx, in.Patient); err != nil {
		return errors.Wrap(err, "saving patient")
	}

	return s.record(ctx, p)
}

// processAdjustment moves money on or off a person's balance
func (s *service) processAdjustment(ctx context.Context, p *payment.Payment, in payment.AdjustBalance) error {
	if in.Person == nil {
		return errors.ErrPersonNotFound
	}

	in.Person.AppendTransaction(p.ID)
	in.Person.ApplyDelta(p.Methods[0].Amount)
	if err := s.savePerson(ctx, in.Person); err != nil {
		return err
	}

	return s.record(ctx, p)
}

// AttachRefund reverses the performer and agent charges for every
// refunded service, then links the refund to its check. The link is
// terminal; a second refund on the same check is a conflict.
func (s *service) AttachRefund(ctx context.Context, check *billing.Check, refund *billing.Refund) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if check == nil {
		return errors.ErrMissingSubject
	}
	if check.IsRefunded() {
		return errors.ErrCheckAlreadyRefunded
	}

	staff, err := s.resolveEmployees(ctx, refund.Services)
	if err != nil {
		return err
	}
	for _, svc := range refund.Services {
		s.charger.Cancel(svc, staffFor(staff, svc.PerformerID), staffFor(staff, svc.AgentID))
	}
	for _, e := range staff {
		if err := s.employees.Save(ctx, e); err != nil {
			return errors.Wrap(err, "saving employee")
		}
	}

	if err := check.AttachRefund(refund); err != nil {
		return err
	}
	if err := s.checks.Save(ctx, check); err != nil {
		return errors.Wrap(err, "saving check")
	}

	s.logger.Info("refund attached",
		"check_id", check.ID,
		"refund_id", refund.ID,
		"services", len(refund.Services))
	return nil
}

// CancelPayment removes a payment from its day report. Balance and
// charge effects the payment caused stay in place: cancellation is
// data cleanup, financial reversal goes through the refund flow.
func (s *service) CancelPayment(ctx context.Context, paymentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.reports.FindByPayment(ctx, paymentID)
	if err != nil {
		return errors.Wrap(err, "finding report")
	}
	if r == nil {
		return errors.ErrPaymentNotFound
	}

	if err := r.Remove(paymentID); err != nil {
		return err
	}
	if err := s.reports.Save(ctx, r); err != nil {
		return errors.Wrap(err, "saving report")
	}

	if s.metrics != nil {
		s.metrics.RecordCancellation(ctx)
	}
	s.logger.Info("payment cancelled", "payment_id", paymentID, "report_id", r.ID)
	return nil
}

// CollectCash books a cash withdrawal from the drawer. Collections are
// tracked outside profit and loss and require an open report for the
// day.
func (s *service) CollectCash(ctx context.Context, amount values.Money, createdBy uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount.IsZero() {
		return errors.ErrZeroAmountPayment
	}

	r, err := s.todayReport(ctx)
	if err != nil {
		return err
	}
	if r == nil {
		return errors.ErrClosedReport
	}

	p := &payment.Payment{
		ID:        uuid.New(),
		Date:      s.now(),
		Purpose:   payment.Purpose{Kind: payment.PurposeCollection},
		Methods:   []payment.Method{{Kind: payment.MethodCash, Amount: amount.Abs().Neg()}},
		CreatedBy: createdBy,
	}
	if err := s.payments.Save(ctx, p); err != nil {
		return errors.Wrap(err, "saving payment")
	}

	r.Append(p)
	if err := s.reports.Save(ctx, r); err != nil {
		return errors.Wrap(err, "saving report")
	}

	return s.applyToCheckingAccounts(ctx, p)
}

// TodayReport returns the report for the current day
func (s *service) TodayReport(ctx context.Context) (*report.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.todayReport(ctx)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.ErrReportNotFound
	}
	return r, nil
}

// record persists the payment and appends it to today's report,
// creating the report lazily. A new report seeds its starting cash
// from the latest report's cash balance. The caller holds the ledger
// lock, so two first-payments-of-the-day cannot create two reports.
func (s *service) record(ctx context.Context, p *payment.Payment) error {
	if err := s.payments.Save(ctx, p); err != nil {
		return errors.Wrap(err, "saving payment")
	}

	r, err := s.todayReport(ctx)
	if err != nil {
		return err
	}
	if r == nil {
		startingCash := values.Zero()
		latest, err := s.reports.Latest(ctx)
		if err != nil {
			return errors.Wrap(err, "loading latest report")
		}
		if latest != nil {
			startingCash = latest.CashBalance()
		}
		r = report.New(s.now(), startingCash)
	}

	r.Append(p)
	if err := s.reports.Save(ctx, r); err != nil {
		return errors.Wrap(err, "saving report")
	}

	if err := s.applyToCheckingAccounts(ctx, p); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordPayment(ctx, string(p.Purpose.Kind), p.TotalAmount().ToFloat64())
	}
	if s.notifier != nil {
		if err := s.notifier.PaymentRecorded(ctx, p); err != nil {
			// Fire-and-forget: a notification failure never affects
			// ledger state.
			s.logger.Warn("payment notification failed", "payment_id", p.ID, "error", err)
		}
	}

	s.logger.Info("payment recorded",
		"payment_id", p.ID,
		"purpose", string(p.Purpose.Kind),
		"amount", p.TotalAmount().String(),
		"report_id", r.ID)
	return nil
}

// todayReport looks up the report for [startOfToday, startOfTomorrow)
func (s *service) todayReport(ctx context.Context) (*report.Report, error) {
	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	r, err := s.reports.FindByDateRange(ctx, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "finding report")
	}
	return r, nil
}

// postBalanceDifference synthesizes an auxiliary toBalance/fromBalance
// payment, applies it to the person's balance and transaction history
// and persists it. The auxiliary payment is deliberately not appended
// to the day report: the report tracks physical money movement, the
// balance tracks unsettled amounts.
func (s *service) postBalanceDifference(ctx context.Context, person account.Accountable, delta values.Money, kind payment.MethodKind, createdBy uuid.UUID) error {
	purpose := payment.PurposeToBalance
	if delta.IsNegative() {
		purpose = payment.PurposeFromBalance
	}

	aux := &payment.Payment{
		ID:        uuid.New(),
		Date:      s.now(),
		Purpose:   payment.Purpose{Kind: purpose},
		Methods:   []payment.Method{{Kind: kind, Amount: delta}},
		CreatedBy: createdBy,
	}
	if err := s.payments.Save(ctx, aux); err != nil {
		return errors.Wrap(err, "saving auxiliary payment")
	}

	person.ApplyDelta(delta)
	person.AppendTransaction(aux.ID)
	return nil
}

// applyToCheckingAccounts mirrors the payment's methods into the
// matching physical money pools.
func (s *service) applyToCheckingAccounts(ctx context.Context, p *payment.Payment) error {
	for _, m := range p.Methods {
		acct, err := s.checkingAccounts.GetByType(ctx, methodAccountType(m.Kind))
		if err != nil {
			return errors.Wrap(err, "loading checking account")
		}
		acct.Apply(m.Amount, p.ID, string(p.Purpose.Kind), p.Date)
		if err := s.checkingAccounts.Save(ctx, acct); err != nil {
			return errors.Wrap(err, "saving checking account")
		}
	}
	return nil
}

// resolveEmployees loads every performer and agent referenced by the
// services, once each.
func (s *service) resolveEmployees(ctx context.Context, services []*billing.BillableService) (map[uuid.UUID]*account.Employee, error) {
	staff := make(map[uuid.UUID]*account.Employee)
	load := func(id *uuid.UUID) error {
		if id == nil {
			return nil
		}
		if _, ok := staff[*id]; ok {
			return nil
		}
		e, err := s.employees.GetByID(ctx, *id)
		if err != nil {
			return errors.Wrap(err, "loading employee")
		}
		staff[*id] = e
		return nil
	}

	for _, svc := range services {
		if err := load(svc.PerformerID); err != nil {
			return nil, err
		}
		if err := load(svc.AgentID); err != nil {
			return nil, err
		}
	}
	return staff, nil
}

// savePerson persists an accountable person through the matching
// repository.
func (s *service) savePerson(ctx context.Context, person account.Accountable) error {
	switch v := person.(type) {
	case *account.Patient:
		if err := s.patients.Save(ctx, v); err != nil {
			return errors.Wrap(err, "saving patient")
		}
	case *account.Employee:
		if err := s.employees.Save(ctx, v); err != nil {
			return errors.Wrap(err, "saving employee")
		}
	default:
		return errors.NewInternalError("unknown accountable person type")
	}
	return nil
}

// staffFor picks a loaded employee by optional reference
func staffFor(staff map[uuid.UUID]*account.Employee, id *uuid.UUID) *account.Employee {
	if id == nil {
		return nil
	}
	return staff[*id]
}

// methodKindOf returns the kind of the payment's first method, cash
// when the payment has none. Auxiliary balance payments inherit it.
func methodKindOf(p *payment.Payment) payment.MethodKind {
	if len(p.Methods) > 0 {
		return p.Methods[0].Kind
	}
	return payment.MethodCash
}

// methodAccountType maps a payment channel to its physical money pool
func methodAccountType(kind payment.MethodKind) account.CheckingAccountType {
	switch kind {
	case payment.MethodBankTerminal:
		return account.CheckingBank
	case payment.MethodCard:
		return account.CheckingCard
	default:
		return account.CheckingCash
	}
}
