package reconcile

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
	"github.com/NaiduBugata/vema-society-sub001/internal/normalize"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
)

// Engine defaults for auto-created loans.
var (
	// defaultAnnualRate is assumed when the rate cannot be estimated
	// from the row's interest and balance.
	defaultAnnualRate = decimal.NewFromInt(12)

	// estimateMonths sizes a balance estimated from the EMI so a fresh
	// loan does not immediately look paid off on the next cycle.
	estimateMonths = decimal.NewFromInt(12)

	monthsInYear = decimal.NewFromInt(12)
	hundred      = decimal.NewFromInt(100)
)

// LoanResolution is the tagged outcome of the loan discovery chain.
type LoanResolution struct {
	Loan    *models.Loan
	Created bool
	Source  string // linked | orphan | reopened | created
}

type loanStrategy struct {
	source string
	find   func(emp *models.Employee, rec *normalize.Record) (*models.Loan, error)
}

// resolveLoan walks the discovery strategies in precedence order:
// currently linked loan, orphaned active loan (self-healing a broken
// link), reopening the latest closed loan, and finally auto-creating
// one from the row's figures.
func (r *Reconciler) resolveLoan(emp *models.Employee, rec *normalize.Record) (*LoanResolution, error) {
	strategies := []loanStrategy{
		{"linked", r.linkedLoan},
		{"orphan", r.orphanedLoan},
		{"reopened", r.reopenedLoan},
	}

	for _, s := range strategies {
		loan, err := s.find(emp, rec)
		if err != nil {
			return nil, err
		}
		if loan != nil {
			return &LoanResolution{Loan: loan, Source: s.source}, nil
		}
	}

	loan, err := r.createLoan(emp, rec)
	if err != nil {
		return nil, err
	}
	return &LoanResolution{Loan: loan, Created: true, Source: "created"}, nil
}

func (r *Reconciler) linkedLoan(emp *models.Employee, _ *normalize.Record) (*models.Loan, error) {
	if !emp.ActiveLoanID.Valid {
		return nil, nil
	}
	loan, err := r.loans.GetByID(emp.ActiveLoanID.Int64)
	if errors.Is(err, repositories.ErrNotFound) {
		// Stale link; let the later strategies repair it.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusActive {
		return nil, nil
	}
	return loan, nil
}

// orphanedLoan finds an active loan for this borrower that lost its
// employee-side link, and relinks it.
func (r *Reconciler) orphanedLoan(emp *models.Employee, _ *normalize.Record) (*models.Loan, error) {
	loan, err := r.loans.FindActiveByBorrower(emp.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	emp.ActiveLoanID.Int64 = loan.ID
	emp.ActiveLoanID.Valid = true
	r.log.WithFields(logrus.Fields{
		"employee_id": emp.ID,
		"loan_id":     loan.ID,
	}).Info("relinked orphaned loan")
	return loan, nil
}

// reopenedLoan revives the most recently closed loan when the sheet
// still shows a positive balance, instead of creating a duplicate.
func (r *Reconciler) reopenedLoan(emp *models.Employee, rec *normalize.Record) (*models.Loan, error) {
	if !rec.LoanBalance.IsPositive() {
		return nil, nil
	}

	loan, err := r.loans.FindLatestClosedByBorrower(emp.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	loan.Status = models.LoanStatusActive
	loan.RemainingBalance = rec.LoanBalance
	if rec.EMI.IsPositive() {
		loan.EMI = rec.EMI
	} else if rec.LoanRepayment.IsPositive() {
		loan.EMI = rec.LoanRepayment
	}
	if err := r.loans.Update(loan); err != nil {
		return nil, err
	}

	emp.ActiveLoanID.Int64 = loan.ID
	emp.ActiveLoanID.Valid = true
	r.log.WithFields(logrus.Fields{
		"employee_id": emp.ID,
		"loan_id":     loan.ID,
		"balance":     rec.LoanBalance.String(),
	}).Info("reopened closed loan")
	return loan, nil
}

// createLoan builds a loan from whatever the row offers, estimating the
// pieces the sheet omitted.
func (r *Reconciler) createLoan(emp *models.Employee, rec *normalize.Record) (*models.Loan, error) {
	emi := rec.EMI
	if !emi.IsPositive() {
		emi = rec.LoanRepayment
	}

	balance := rec.LoanBalance
	if !balance.IsPositive() {
		balance = emi.Mul(estimateMonths)
	}

	loan := &models.Loan{
		BorrowerID:       emp.ID,
		LoanAmount:       balance,
		InterestRate:     estimateRate(rec.InterestPaid, balance),
		EMI:              emi,
		RemainingBalance: balance,
		Status:           models.LoanStatusActive,
	}
	if err := r.loans.Create(loan); err != nil {
		return nil, err
	}

	emp.ActiveLoanID.Int64 = loan.ID
	emp.ActiveLoanID.Valid = true
	r.log.WithFields(logrus.Fields{
		"employee_id": emp.ID,
		"loan_id":     loan.ID,
		"balance":     balance.String(),
	}).Info("auto-created loan from sheet row")
	return loan, nil
}

// estimateRate derives an annual percentage from one month's interest
// against the balance, rounded to one decimal. Falls back to the
// default rate when either input is unusable.
func estimateRate(monthlyInterest, balance decimal.Decimal) decimal.Decimal {
	if !monthlyInterest.IsPositive() || !balance.IsPositive() {
		return defaultAnnualRate
	}
	return monthlyInterest.Div(balance).Mul(monthsInYear).Mul(hundred).Round(1)
}
