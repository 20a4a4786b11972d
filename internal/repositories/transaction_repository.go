package repositories

import (
	"database/sql"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
)

type TransactionRepository interface {
	Upsert(t *models.Transaction) error
	FindByEmployeeMonth(employeeID int64, month string) (*models.Transaction, error)
	// DistinctMonths lists every month with transaction rows, newest
	// first. The archival compactor slices its retention window off the
	// front of this list, so the ordering is part of the contract.
	DistinctMonths() ([]string, error)
	ListByMonth(month string) ([]*models.Transaction, error)
	DeleteByMonth(month string) (int64, error)
}

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `
	id, employee_id, month, salary, thrift_deduction, loan_emi,
	interest_payment, principal_repayment, total_deduction, paid_amount,
	net_salary, cb_thrift_balance, loan_balance, created_at, updated_at
`

// Upsert creates or overwrites the snapshot for (employee, month). The
// unique key makes re-uploading the same month converge instead of
// duplicating rows.
func (r *transactionRepository) Upsert(t *models.Transaction) error {
	query := `
		INSERT INTO transactions (
			employee_id, month, salary, thrift_deduction, loan_emi,
			interest_payment, principal_repayment, total_deduction,
			paid_amount, net_salary, cb_thrift_balance, loan_balance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			salary = VALUES(salary),
			thrift_deduction = VALUES(thrift_deduction),
			loan_emi = VALUES(loan_emi),
			interest_payment = VALUES(interest_payment),
			principal_repayment = VALUES(principal_repayment),
			total_deduction = VALUES(total_deduction),
			paid_amount = VALUES(paid_amount),
			net_salary = VALUES(net_salary),
			cb_thrift_balance = VALUES(cb_thrift_balance),
			loan_balance = VALUES(loan_balance),
			updated_at = CURRENT_TIMESTAMP
	`
	result, err := r.db.Exec(query,
		t.EmployeeID, t.Month, t.Salary, t.ThriftDeduction, t.LoanEMI,
		t.InterestPayment, t.PrincipalRepayment, t.TotalDeduction,
		t.PaidAmount, t.NetSalary, t.CBThriftBalance, t.LoanBalance,
	)
	if err != nil {
		return err
	}

	if id, err := result.LastInsertId(); err == nil && id > 0 {
		t.ID = id
	}
	return nil
}

func (r *transactionRepository) FindByEmployeeMonth(employeeID int64, month string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE employee_id = ? AND month = ?`
	t := &models.Transaction{}
	err := r.db.QueryRow(query, employeeID, month).Scan(
		&t.ID,
		&t.EmployeeID,
		&t.Month,
		&t.Salary,
		&t.ThriftDeduction,
		&t.LoanEMI,
		&t.InterestPayment,
		&t.PrincipalRepayment,
		&t.TotalDeduction,
		&t.PaidAmount,
		&t.NetSalary,
		&t.CBThriftBalance,
		&t.LoanBalance,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *transactionRepository) DistinctMonths() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT month FROM transactions ORDER BY month DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

func (r *transactionRepository) ListByMonth(month string) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE month = ? ORDER BY employee_id`
	rows, err := r.db.Query(query, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		t := &models.Transaction{}
		err := rows.Scan(
			&t.ID,
			&t.EmployeeID,
			&t.Month,
			&t.Salary,
			&t.ThriftDeduction,
			&t.LoanEMI,
			&t.InterestPayment,
			&t.PrincipalRepayment,
			&t.TotalDeduction,
			&t.PaidAmount,
			&t.NetSalary,
			&t.CBThriftBalance,
			&t.LoanBalance,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *transactionRepository) DeleteByMonth(month string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM transactions WHERE month = ?`, month)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
