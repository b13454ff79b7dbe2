package account

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// SalaryKind selects how an employee is paid
type SalaryKind string

const (
	// SalaryPieceRate pays a fraction of every performed service
	SalaryPieceRate SalaryKind = "piece_rate"
	// SalaryMonthly pays a fixed monthly amount; no per-service charges
	SalaryMonthly SalaryKind = "monthly"
	// SalaryNone marks employees outside the payroll (external agents)
	SalaryNone SalaryKind = "none"
)

// Salary is an employee's pay rule. For piece-rate employees, MinAmount
// is a guaranteed minimum for the payout period; the top-up against it
// is computed at payout time, never per service.
type Salary struct {
	Kind      SalaryKind
	Rate      decimal.Decimal
	MinAmount *values.Money
}

// PieceRate builds a piece-rate salary rule
func PieceRate(rate decimal.Decimal, minAmount *values.Money) Salary {
	return Salary{Kind: SalaryPieceRate, Rate: rate, MinAmount: minAmount}
}

// Employee is a clinic employee (doctor, assistant, agent) with a
// running balance of earned but not yet paid-out money.
type Employee struct {
	ID     uuid.UUID
	Name   string
	Salary Salary

	balance      values.Money
	transactions []uuid.UUID
}

// NewEmployee creates an employee with a zero balance
func NewEmployee(name string, salary Salary) *Employee {
	return &Employee{
		ID:     uuid.New(),
		Name:   name,
		Salary: salary,
	}
}

// AccountID implements Accountable
func (e *Employee) AccountID() uuid.UUID {
	return e.ID
}

// Balance implements Accountable
func (e *Employee) Balance() values.Money {
	return e.balance
}

// ApplyDelta implements Accountable
func (e *Employee) ApplyDelta(delta values.Money) {
	e.balance = e.balance.Add(delta)
}

// AppendTransaction implements Accountable
func (e *Employee) AppendTransaction(paymentID uuid.UUID) {
	e.transactions = append(e.transactions, paymentID)
}

// TransactionIDs implements Accountable
func (e *Employee) TransactionIDs() []uuid.UUID {
	return e.transactions
}

// Restore rehydrates balance and history from persistence. Not for use
// outside repositories.
func (e *Employee) Restore(balance values.Money, transactions []uuid.UUID) {
	e.balance = balance
	e.transactions = transactions
}
