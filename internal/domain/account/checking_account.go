package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// CheckingAccountType names the physical pool a method's money lands in
type CheckingAccountType string

const (
	CheckingCash   CheckingAccountType = "cash"
	CheckingBank   CheckingAccountType = "bank"
	CheckingCard   CheckingAccountType = "card"
	CheckingCredit CheckingAccountType = "credit"
)

// AccountTransaction mirrors one payment method into a checking
// account's history.
type AccountTransaction struct {
	ID        uuid.UUID
	Date      time.Time
	Amount    values.Money
	PaymentID uuid.UUID
	Purpose   string
}

// CheckingAccount tracks money in one physical pool (the cash drawer,
// the bank account, the card terminal account). It moves in parallel
// with payment recording and is independent of person balances.
type CheckingAccount struct {
	ID           uuid.UUID
	Type         CheckingAccountType
	balance      values.Money
	transactions []AccountTransaction
}

// NewCheckingAccount creates an empty pool of the given type
func NewCheckingAccount(accountType CheckingAccountType) *CheckingAccount {
	return &CheckingAccount{
		ID:   uuid.New(),
		Type: accountType,
	}
}

// Balance returns the pool's current balance
func (a *CheckingAccount) Balance() values.Money {
	return a.balance
}

// Transactions returns the pool's movement history, oldest first
func (a *CheckingAccount) Transactions() []AccountTransaction {
	return a.transactions
}

// Apply moves a signed amount through the pool and records the
// triggering payment.
func (a *CheckingAccount) Apply(amount values.Money, paymentID uuid.UUID, purpose string, at time.Time) {
	a.balance = a.balance.Add(amount)
	a.transactions = append(a.transactions, AccountTransaction{
		ID:        uuid.New(),
		Date:      at,
		Amount:    amount,
		PaymentID: paymentID,
		Purpose:   purpose,
	})
}

// Restore rehydrates balance and history from persistence. Not for use
// outside repositories.
func (a *CheckingAccount) Restore(balance values.Money, transactions []AccountTransaction) {
	a.balance = balance
	a.transactions = transactions
}
