package account

import (
	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// Accountable is any entity with a running balance and a transaction
// history. The core auditability invariant lives here: a balance never
// moves without the triggering payment being appended to the history,
// so both mutations travel together through ApplyDelta+AppendTransaction
// and only the ledger is allowed to call them.
type Accountable interface {
	// AccountID returns the stable identifier of the balance holder
	AccountID() uuid.UUID
	// Balance returns the current running balance
	Balance() values.Money
	// ApplyDelta adds a signed amount to the balance
	ApplyDelta(delta values.Money)
	// AppendTransaction records the payment that caused a mutation
	AppendTransaction(paymentID uuid.UUID)
	// TransactionIDs returns the payment history, oldest first
	TransactionIDs() []uuid.UUID
}

// Patient is a clinic patient with a settlement balance: positive
// means prepaid credit, negative means debt.
type Patient struct {
	ID    uuid.UUID
	Name  string
	Phone string

	balance      values.Money
	transactions []uuid.UUID
}

// NewPatient creates a patient with a zero balance
func NewPatient(name, phone string) *Patient {
	return &Patient{
		ID:    uuid.New(),
		Name:  name,
		Phone: phone,
	}
}

// AccountID implements Accountable
func (p *Patient) AccountID() uuid.UUID {
	return p.ID
}

// Balance implements Accountable
func (p *Patient) Balance() values.Money {
	return p.balance
}

// ApplyDelta implements Accountable
func (p *Patient) ApplyDelta(delta values.Money) {
	p.balance = p.balance.Add(delta)
}

// AppendTransaction implements Accountable
func (p *Patient) AppendTransaction(paymentID uuid.UUID) {
	p.transactions = append(p.transactions, paymentID)
}

// TransactionIDs implements Accountable
func (p *Patient) TransactionIDs() []uuid.UUID {
	return p.transactions
}

// Restore rehydrates balance and history from persistence. Not for use
// outside repositories.
func (p *Patient) Restore(balance values.Money, transactions []uuid.UUID) {
	p.balance = balance
	p.transactions = transactions
}
