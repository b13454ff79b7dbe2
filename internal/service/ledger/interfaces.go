package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/account"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/report"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// Service is the single money-moving entry point of the application.
// Every operation that touches a report, a person's balance or a
// check's charge state goes through here; view code never mutates
// those directly.
type Service interface {
	// Process applies a rendered payment and its originating intent:
	// balances move, charges apply, and the payment is recorded into
	// today's report.
	Process(ctx context.Context, p *payment.Payment, intent payment.Intent) error
	// AttachRefund reverses the charges for the refunded services and
	// links the refund to its check, terminally.
	AttachRefund(ctx context.Context, check *billing.Check, refund *billing.Refund) error
	// CancelPayment removes a payment from its day report. It does not
	// reverse balance or charge effects.
	CancelPayment(ctx context.Context, paymentID uuid.UUID) error
	// CollectCash records a cash withdrawal from the drawer into
	// today's report.
	CollectCash(ctx context.Context, amount values.Money, createdBy uuid.UUID) error
	// TodayReport returns the report for the current day, if any
	TodayReport(ctx context.Context) (*report.Report, error)
}

// ReportRepository stores per-day reports
type ReportRepository interface {
	// FindByDateRange returns the report whose date falls in [from, to),
	// or nil when none exists
	FindByDateRange(ctx context.Context, from, to time.Time) (*report.Report, error)
	// Latest returns the most recent report, or nil when none exists
	Latest(ctx context.Context) (*report.Report, error)
	// FindByPayment returns the report containing a payment, or nil
	FindByPayment(ctx context.Context, paymentID uuid.UUID) (*report.Report, error)
	// Save persists a report and its payment list
	Save(ctx context.Context, r *report.Report) error
}

// PaymentRepository stores payment records
type PaymentRepository interface {
	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	// Save persists a payment
	Save(ctx context.Context, p *payment.Payment) error
}

// PatientRepository stores patients
type PatientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Patient, error)
	Save(ctx context.Context, p *account.Patient) error
}

// EmployeeRepository stores employees
type EmployeeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Employee, error)
	Save(ctx context.Context, e *account.Employee) error
}

// CheckRepository stores checks with their services
type CheckRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*billing.Check, error)
	Save(ctx context.Context, c *billing.Check) error
}

// AppointmentRepository stores appointments
type AppointmentRepository interface {
	// GetByCheck returns the appointments billed on a check
	GetByCheck(ctx context.Context, checkID uuid.UUID) ([]*appointment.Appointment, error)
	Save(ctx context.Context, a *appointment.Appointment) error
}

// CheckingAccountRepository stores the physical money pools
type CheckingAccountRepository interface {
	// GetByType returns the pool for an account type, creating it lazily
	GetByType(ctx context.Context, t account.CheckingAccountType) (*account.CheckingAccount, error)
	Save(ctx context.Context, a *account.CheckingAccount) error
}

// Notifier is told about recorded payments. Delivery is fire-and-
// forget: a failure is logged and has no effect on ledger state.
type Notifier interface {
	PaymentRecorded(ctx context.Context, p *payment.Payment) error
}

// MetricsCollector records ledger domain metrics
type MetricsCollector interface {
	RecordPayment(ctx context.Context, purpose string, amount float64)
	RecordCancellation(ctx context.Context)
}
