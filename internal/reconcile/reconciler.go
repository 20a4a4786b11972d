package reconcile

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
	"github.com/NaiduBugata/vema-society-sub001/internal/normalize"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
)

// Reconciler applies one normalized sheet row to the ledger: thrift
// balance, loan state machine, surety graph and the monthly transaction
// snapshot. Rows must be processed sequentially; entity updates are
// read-modify-write without row-level locking.
type Reconciler struct {
	employees    repositories.EmployeeRepository
	loans        repositories.LoanRepository
	transactions repositories.TransactionRepository
	log          *logrus.Logger
}

func NewReconciler(
	employees repositories.EmployeeRepository,
	loans repositories.LoanRepository,
	transactions repositories.TransactionRepository,
	log *logrus.Logger,
) *Reconciler {
	return &Reconciler{
		employees:    employees,
		loans:        loans,
		transactions: transactions,
		log:          log,
	}
}

// ProcessRow reconciles a single row against the ledger and returns the
// id of the employee it touched. Any returned error is fatal to this
// row only; the orchestrator records it and moves on.
func (r *Reconciler) ProcessRow(month string, rec *normalize.Record) (int64, error) {
	emp, err := r.resolveEmployee(rec)
	if err != nil {
		return 0, err
	}

	r.applyThrift(emp, rec)

	var loan *models.Loan
	if rec.HasLoanSignal() {
		res, err := r.resolveLoan(emp, rec)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve loan: %w", err)
		}
		loan = res.Loan

		if err := r.applyLoanPayment(emp, loan, rec, res.Created); err != nil {
			return 0, fmt.Errorf("failed to apply loan payment: %w", err)
		}

		if rec.HasSureties() && loan.Status == models.LoanStatusActive {
			if err := r.syncSureties(loan, rec); err != nil {
				return 0, fmt.Errorf("failed to sync sureties: %w", err)
			}
		}
	} else if emp.ActiveLoanID.Valid {
		// No loan columns at all but an active loan on file: the sheet
		// stopped reporting it, treat as an implicit payoff. A stale
		// link is left alone; lookup failures fail the row.
		linked, err := r.loans.GetByID(emp.ActiveLoanID.Int64)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return 0, fmt.Errorf("failed to load linked loan: %w", err)
		}
		if err == nil {
			loan = linked
			if err := r.closeLoan(emp, loan); err != nil {
				return 0, fmt.Errorf("failed to close paid-off loan: %w", err)
			}
		}
	}

	if err := r.employees.Update(emp); err != nil {
		return 0, fmt.Errorf("failed to update employee: %w", err)
	}

	if err := r.upsertTransaction(month, emp, rec, loan); err != nil {
		return 0, fmt.Errorf("failed to upsert transaction: %w", err)
	}

	return emp.ID, nil
}

// applyThrift updates the monthly contribution and balance. The
// incremental path runs first; an authoritative closing balance from
// the sheet then overrides it outright. The society office corrects
// balances in the sheet, so the sheet wins.
func (r *Reconciler) applyThrift(emp *models.Employee, rec *normalize.Record) {
	if rec.ThriftContribution.IsPositive() {
		emp.ThriftContribution = rec.ThriftContribution
		emp.ThriftBalance = emp.ThriftBalance.Add(rec.ThriftContribution)
	}
	if rec.ThriftClosingBalance.IsPositive() {
		emp.ThriftBalance = rec.ThriftClosingBalance
	}
}

// applyLoanPayment applies the row's figures to the loan and closes it
// when the balance reaches zero, unless the loan was only just created
// from this same row.
func (r *Reconciler) applyLoanPayment(emp *models.Employee, loan *models.Loan, rec *normalize.Record, created bool) error {
	if rec.LoanBalance.IsPositive() {
		// The sheet's outstanding balance is authoritative.
		loan.RemainingBalance = rec.LoanBalance
	} else if rec.LoanRepayment.IsPositive() {
		principal := rec.LoanRepayment.Sub(rec.InterestPaid)
		if principal.IsNegative() {
			principal = decimal.Zero
		}
		loan.RemainingBalance = loan.RemainingBalance.Sub(principal)
	}

	loan.TotalInterestPaid = loan.TotalInterestPaid.Add(rec.InterestPaid)

	if rec.EMI.IsPositive() {
		loan.EMI = rec.EMI
	}

	if loan.RemainingBalance.Sign() <= 0 {
		if created {
			loan.RemainingBalance = decimal.Zero
			return r.loans.Update(loan)
		}
		if err := r.loans.Update(loan); err != nil {
			return err
		}
		return r.closeLoan(emp, loan)
	}

	return r.loans.Update(loan)
}

// closeLoan transitions a loan to closed: zero balance, borrower
// unlinked, free-text status cleared, and the loan pulled out of every
// surety's guarantee set. The loan row itself is kept as history.
func (r *Reconciler) closeLoan(emp *models.Employee, loan *models.Loan) error {
	loan.Status = models.LoanStatusClosed
	loan.RemainingBalance = decimal.Zero
	if err := r.loans.Update(loan); err != nil {
		return err
	}

	emp.ActiveLoanID.Valid = false
	emp.ActiveLoanID.Int64 = 0
	emp.LoanStatus = ""

	if err := r.employees.RemoveGuaranteesForLoan(loan.ID); err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"employee_id": emp.ID,
		"loan_id":     loan.ID,
	}).Info("loan closed")
	return nil
}

// syncSureties diffs the row's surety set against the loan's previous
// one: departed sureties lose the guarantee reference, new ones gain it
// idempotently. Unresolvable codes are kept as raw strings for display.
func (r *Reconciler) syncSureties(loan *models.Loan, rec *normalize.Record) error {
	previous, err := r.loans.GetSureties(loan.ID)
	if err != nil {
		return err
	}

	var next []models.Surety
	nextIDs := make(map[int64]bool)
	for i, code := range rec.SuretyCodes {
		s := models.Surety{LoanID: loan.ID, Position: i + 1, RawCode: code}
		if surety, err := r.resolveSurety(code); err == nil {
			s.EmployeeID.Int64 = surety.ID
			s.EmployeeID.Valid = true
			nextIDs[surety.ID] = true
		} else {
			r.log.WithFields(logrus.Fields{
				"loan_id": loan.ID,
				"code":    code,
			}).Warn("surety code unresolved, keeping raw code")
		}
		next = append(next, s)
	}

	prevIDs := make(map[int64]bool)
	for _, s := range previous {
		if s.EmployeeID.Valid {
			prevIDs[s.EmployeeID.Int64] = true
		}
	}

	for id := range prevIDs {
		if !nextIDs[id] {
			if err := r.employees.RemoveGuarantee(id, loan.ID); err != nil {
				return err
			}
		}
	}
	for id := range nextIDs {
		if !prevIDs[id] {
			if err := r.employees.AddGuarantee(id, loan.ID); err != nil {
				return err
			}
		}
	}

	return r.loans.ReplaceSureties(loan.ID, next)
}

// upsertTransaction writes the monthly snapshot. Total deduction prefers
// an explicit total-deduction column, then a total-amount column, then
// falls back to thrift plus loan repayment.
func (r *Reconciler) upsertTransaction(month string, emp *models.Employee, rec *normalize.Record, loan *models.Loan) error {
	totalDeduction := rec.TotalDeduction
	if !totalDeduction.IsPositive() {
		totalDeduction = rec.TotalAmount
	}
	if !totalDeduction.IsPositive() {
		totalDeduction = rec.ThriftContribution.Add(rec.LoanRepayment)
	}

	netSalary := decimal.Zero
	if rec.Salary.IsPositive() {
		netSalary = rec.Salary.Sub(totalDeduction)
	}

	principal := rec.LoanRepayment.Sub(rec.InterestPaid)
	if principal.IsNegative() {
		principal = decimal.Zero
	}

	loanBalance := decimal.Zero
	if loan != nil {
		loanBalance = loan.RemainingBalance
	}

	txn := &models.Transaction{
		EmployeeID:         emp.ID,
		Month:              month,
		Salary:             rec.Salary,
		ThriftDeduction:    rec.ThriftContribution,
		LoanEMI:            rec.LoanRepayment,
		InterestPayment:    rec.InterestPaid,
		PrincipalRepayment: principal,
		TotalDeduction:     totalDeduction,
		PaidAmount:         rec.PaidAmount,
		NetSalary:          netSalary,
		CBThriftBalance:    emp.ThriftBalance,
		LoanBalance:        loanBalance,
	}
	return r.transactions.Upsert(txn)
}
