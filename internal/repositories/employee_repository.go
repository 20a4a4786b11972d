package repositories

import (
	"database/sql"
	"errors"
	"time"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
)

// ErrNotFound is returned by every repository lookup that matches no row.
var ErrNotFound = errors.New("record not found")

type EmployeeRepository interface {
	GetByID(id int64) (*models.Employee, error)
	FindByEmpID(code string) (*models.Employee, error)
	FindByEmpIDNumeric(code string) (*models.Employee, error)
	FindByName(name string) (*models.Employee, error)
	Create(e *models.Employee) error
	Update(e *models.Employee) error
	UpdateTx(tx *sql.Tx, e *models.Employee) error
	ListIDs() ([]int64, error)
	AddGuarantee(employeeID, loanID int64) error
	RemoveGuarantee(employeeID, loanID int64) error
	RemoveGuaranteesForLoan(loanID int64) error
	RemoveGuaranteesForLoanTx(tx *sql.Tx, loanID int64) error
	ListGuaranteeLoanIDs(employeeID int64) ([]int64, error)
}

type employeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `
	id, emp_id, name, email, phone, salary, thrift_contribution,
	thrift_balance, loan_status, active_loan_id, created_at, updated_at
`

func (r *employeeRepository) scanEmployee(row *sql.Row) (*models.Employee, error) {
	e := &models.Employee{}
	err := row.Scan(
		&e.ID,
		&e.EmpID,
		&e.Name,
		&e.Email,
		&e.Phone,
		&e.Salary,
		&e.ThriftContribution,
		&e.ThriftBalance,
		&e.LoanStatus,
		&e.ActiveLoanID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *employeeRepository) GetByID(id int64) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`
	return r.scanEmployee(r.db.QueryRow(query, id))
}

func (r *employeeRepository) FindByEmpID(code string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE emp_id = ?`
	return r.scanEmployee(r.db.QueryRow(query, code))
}

// FindByEmpIDNumeric reinterprets the code numerically so a sheet value
// of "19" still finds a stored code of "19.0" and vice versa. Non-numeric
// stored codes are excluded before the cast.
func (r *employeeRepository) FindByEmpIDNumeric(code string) (*models.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE emp_id REGEXP '^[0-9]+(\\.[0-9]+)?$'
		AND CAST(emp_id AS DECIMAL(20,4)) = CAST(? AS DECIMAL(20,4))
	`
	return r.scanEmployee(r.db.QueryRow(query, code))
}

func (r *employeeRepository) FindByName(name string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE LOWER(name) = LOWER(?)`
	return r.scanEmployee(r.db.QueryRow(query, name))
}

func (r *employeeRepository) Create(e *models.Employee) error {
	query := `
		INSERT INTO employees (
			emp_id, name, email, phone, salary, thrift_contribution,
			thrift_balance, loan_status, active_loan_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		e.EmpID,
		e.Name,
		e.Email,
		e.Phone,
		e.Salary,
		e.ThriftContribution,
		e.ThriftBalance,
		e.LoanStatus,
		e.ActiveLoanID,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

const employeeUpdateQuery = `
	UPDATE employees
	SET emp_id = ?,
	    name = ?,
	    email = ?,
	    phone = ?,
	    salary = ?,
	    thrift_contribution = ?,
	    thrift_balance = ?,
	    loan_status = ?,
	    active_loan_id = ?,
	    updated_at = ?
	WHERE id = ?
`

func (r *employeeRepository) Update(e *models.Employee) error {
	result, err := r.db.Exec(employeeUpdateQuery,
		e.EmpID, e.Name, e.Email, e.Phone, e.Salary,
		e.ThriftContribution, e.ThriftBalance, e.LoanStatus,
		e.ActiveLoanID, time.Now(), e.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *employeeRepository) UpdateTx(tx *sql.Tx, e *models.Employee) error {
	result, err := tx.Exec(employeeUpdateQuery,
		e.EmpID, e.Name, e.Email, e.Phone, e.Salary,
		e.ThriftContribution, e.ThriftBalance, e.LoanStatus,
		e.ActiveLoanID, time.Now(), e.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *employeeRepository) ListIDs() ([]int64, error) {
	rows, err := r.db.Query(`SELECT id FROM employees`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *employeeRepository) AddGuarantee(employeeID, loanID int64) error {
	// INSERT IGNORE keeps guarantee additions idempotent.
	query := `INSERT IGNORE INTO guarantees (employee_id, loan_id) VALUES (?, ?)`
	_, err := r.db.Exec(query, employeeID, loanID)
	return err
}

func (r *employeeRepository) RemoveGuarantee(employeeID, loanID int64) error {
	query := `DELETE FROM guarantees WHERE employee_id = ? AND loan_id = ?`
	_, err := r.db.Exec(query, employeeID, loanID)
	return err
}

func (r *employeeRepository) RemoveGuaranteesForLoan(loanID int64) error {
	query := `DELETE FROM guarantees WHERE loan_id = ?`
	_, err := r.db.Exec(query, loanID)
	return err
}

// RemoveGuaranteesForLoanTx releases a loan's guarantees inside the
// caller's transaction, so an administrative closure commits or rolls
// back as one unit.
func (r *employeeRepository) RemoveGuaranteesForLoanTx(tx *sql.Tx, loanID int64) error {
	query := `DELETE FROM guarantees WHERE loan_id = ?`
	_, err := tx.Exec(query, loanID)
	return err
}

func (r *employeeRepository) ListGuaranteeLoanIDs(employeeID int64) ([]int64, error) {
	rows, err := r.db.Query(`SELECT loan_id FROM guarantees WHERE employee_id = ?`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
