package repositories

import (
	"database/sql"
	"time"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
)

type LoanRepository interface {
	GetByID(id int64) (*models.Loan, error)
	Create(l *models.Loan) error
	CreateTx(tx *sql.Tx, l *models.Loan) error
	Update(l *models.Loan) error
	UpdateTx(tx *sql.Tx, l *models.Loan) error
	FindActiveByBorrower(borrowerID int64) (*models.Loan, error)
	FindLatestClosedByBorrower(borrowerID int64) (*models.Loan, error)
	GetSureties(loanID int64) ([]models.Surety, error)
	ReplaceSureties(loanID int64, sureties []models.Surety) error
}

type loanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `
	id, borrower_id, loan_amount, interest_rate, emi, remaining_balance,
	total_interest_paid, status, created_at, updated_at
`

func (r *loanRepository) scanLoan(row *sql.Row) (*models.Loan, error) {
	l := &models.Loan{}
	err := row.Scan(
		&l.ID,
		&l.BorrowerID,
		&l.LoanAmount,
		&l.InterestRate,
		&l.EMI,
		&l.RemainingBalance,
		&l.TotalInterestPaid,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *loanRepository) GetByID(id int64) (*models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`
	return r.scanLoan(r.db.QueryRow(query, id))
}

const loanInsertQuery = `
	INSERT INTO loans (
		borrower_id, loan_amount, interest_rate, emi,
		remaining_balance, total_interest_paid, status
	) VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (r *loanRepository) Create(l *models.Loan) error {
	result, err := r.db.Exec(loanInsertQuery,
		l.BorrowerID, l.LoanAmount, l.InterestRate, l.EMI,
		l.RemainingBalance, l.TotalInterestPaid, l.Status,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

func (r *loanRepository) CreateTx(tx *sql.Tx, l *models.Loan) error {
	result, err := tx.Exec(loanInsertQuery,
		l.BorrowerID, l.LoanAmount, l.InterestRate, l.EMI,
		l.RemainingBalance, l.TotalInterestPaid, l.Status,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

const loanUpdateQuery = `
	UPDATE loans
	SET loan_amount = ?,
	    interest_rate = ?,
	    emi = ?,
	    remaining_balance = ?,
	    total_interest_paid = ?,
	    status = ?,
	    updated_at = ?
	WHERE id = ?
`

func (r *loanRepository) Update(l *models.Loan) error {
	result, err := r.db.Exec(loanUpdateQuery,
		l.LoanAmount, l.InterestRate, l.EMI, l.RemainingBalance,
		l.TotalInterestPaid, l.Status, time.Now(), l.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *loanRepository) UpdateTx(tx *sql.Tx, l *models.Loan) error {
	result, err := tx.Exec(loanUpdateQuery,
		l.LoanAmount, l.InterestRate, l.EMI, l.RemainingBalance,
		l.TotalInterestPaid, l.Status, time.Now(), l.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *loanRepository) FindActiveByBorrower(borrowerID int64) (*models.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE borrower_id = ? AND status = 'active'
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.scanLoan(r.db.QueryRow(query, borrowerID))
}

func (r *loanRepository) FindLatestClosedByBorrower(borrowerID int64) (*models.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE borrower_id = ? AND status = 'closed'
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.scanLoan(r.db.QueryRow(query, borrowerID))
}

func (r *loanRepository) GetSureties(loanID int64) ([]models.Surety, error) {
	query := `
		SELECT loan_id, position, employee_id, raw_code
		FROM loan_sureties
		WHERE loan_id = ?
		ORDER BY position
	`
	rows, err := r.db.Query(query, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sureties []models.Surety
	for rows.Next() {
		var s models.Surety
		if err := rows.Scan(&s.LoanID, &s.Position, &s.EmployeeID, &s.RawCode); err != nil {
			return nil, err
		}
		sureties = append(sureties, s)
	}
	return sureties, rows.Err()
}

// ReplaceSureties rewrites the loan-side surety list wholesale. The
// employee-side guarantee set is diffed separately by the reconciler.
func (r *loanRepository) ReplaceSureties(loanID int64, sureties []models.Surety) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM loan_sureties WHERE loan_id = ?`, loanID); err != nil {
		return err
	}

	query := `
		INSERT INTO loan_sureties (loan_id, position, employee_id, raw_code)
		VALUES (?, ?, ?, ?)
	`
	for _, s := range sureties {
		if _, err := tx.Exec(query, loanID, s.Position, s.EmployeeID, s.RawCode); err != nil {
			return err
		}
	}

	return tx.Commit()
}
