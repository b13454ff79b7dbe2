package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/account"
	domainerrors "github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

// employeeRepository implements ledger.EmployeeRepository using PostgreSQL
type employeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB) ledger.EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Employee, error) {
	query := `
		SELECT id, name, salary_kind, salary_rate, salary_min_amount,
			balance, transactions
		FROM employees
		WHERE id = $1
	`

	var (
		e            account.Employee
		salaryKind   string
		salaryRate   decimal.Decimal
		salaryMin    sql.NullString
		balance      values.Money
		transactions []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Name, &salaryKind, &salaryRate, &salaryMin,
		&balance, &transactions,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	e.Salary = account.Salary{Kind: account.SalaryKind(salaryKind), Rate: salaryRate}
	if salaryMin.Valid {
		min, err := values.NewMoneyFromString(salaryMin.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse salary minimum: %w", err)
		}
		e.Salary.MinAmount = &min
	}

	var txIDs []uuid.UUID
	if err := json.Unmarshal(transactions, &txIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal employee transactions: %w", err)
	}

	e.Restore(balance, txIDs)
	return &e, nil
}

func (r *employeeRepository) Save(ctx context.Context, e *account.Employee) error {
	transactions, err := json.Marshal(e.TransactionIDs())
	if err != nil {
		return fmt.Errorf("failed to marshal employee transactions: %w", err)
	}

	var salaryMin interface{}
	if e.Salary.MinAmount != nil {
		salaryMin = e.Salary.MinAmount.Amount().String()
	}

	query := `
		INSERT INTO employees (
			id, name, salary_kind, salary_rate, salary_min_amount,
			balance, transactions
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			salary_kind = EXCLUDED.salary_kind,
			salary_rate = EXCLUDED.salary_rate,
			salary_min_amount = EXCLUDED.salary_min_amount,
			balance = EXCLUDED.balance,
			transactions = EXCLUDED.transactions
	`

	if _, err := r.db.ExecContext(ctx, query,
		e.ID, e.Name, string(e.Salary.Kind), e.Salary.Rate, salaryMin,
		e.Balance(), transactions,
	); err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}
