package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/account"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

// checkingAccountRepository implements ledger.CheckingAccountRepository
// using PostgreSQL. One row exists per account type; the first access
// to a type creates it.
type checkingAccountRepository struct {
	db *sql.DB
}

// NewCheckingAccountRepository creates a new checking account repository
func NewCheckingAccountRepository(db *sql.DB) ledger.CheckingAccountRepository {
	return &checkingAccountRepository{db: db}
}

func (r *checkingAccountRepository) GetByType(ctx context.Context, t account.CheckingAccountType) (*account.CheckingAccount, error) {
	query := `
		SELECT id, type, balance
		FROM checking_accounts
		WHERE type = $1
	`

	var (
		a       account.CheckingAccount
		typeStr string
		balance values.Money
	)
	err := r.db.QueryRowContext(ctx, query, string(t)).Scan(&a.ID, &typeStr, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.create(ctx, t)
		}
		return nil, fmt.Errorf("failed to get checking account: %w", err)
	}
	a.Type = account.CheckingAccountType(typeStr)

	transactions, err := r.loadTransactions(ctx, &a)
	if err != nil {
		return nil, err
	}
	a.Restore(balance, transactions)
	return &a, nil
}

func (r *checkingAccountRepository) Save(ctx context.Context, a *account.CheckingAccount) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO checking_accounts (id, type, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance
	`
	if _, err := tx.ExecContext(ctx, upsert, a.ID, string(a.Type), a.Balance()); err != nil {
		return fmt.Errorf("failed to save checking account: %w", err)
	}

	// The movement history is append-only.
	insert := `
		INSERT INTO checking_account_transactions (
			id, account_id, date, amount, payment_id, purpose
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	for _, t := range a.Transactions() {
		if _, err := tx.ExecContext(ctx, insert,
			t.ID, a.ID, t.Date, t.Amount, t.PaymentID, t.Purpose,
		); err != nil {
			return fmt.Errorf("failed to save account transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checking account: %w", err)
	}
	return nil
}

func (r *checkingAccountRepository) create(ctx context.Context, t account.CheckingAccountType) (*account.CheckingAccount, error) {
	a := account.NewCheckingAccount(t)

	query := `
		INSERT INTO checking_accounts (id, type, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (type) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, a.ID, string(a.Type), a.Balance()); err != nil {
		return nil, fmt.Errorf("failed to create checking account: %w", err)
	}
	return a, nil
}

func (r *checkingAccountRepository) loadTransactions(ctx context.Context, a *account.CheckingAccount) ([]account.AccountTransaction, error) {
	query := `
		SELECT id, date, amount, payment_id, purpose
		FROM checking_account_transactions
		WHERE account_id = $1
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account transactions: %w", err)
	}
	defer rows.Close()

	var transactions []account.AccountTransaction
	for rows.Next() {
		var t account.AccountTransaction
		if err := rows.Scan(&t.ID, &t.Date, &t.Amount, &t.PaymentID, &t.Purpose); err != nil {
			return nil, fmt.Errorf("failed to scan account transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account transactions: %w", err)
	}
	return transactions, nil
}
