package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/NaiduBugata/vema-society-sub001/internal/database"
	"github.com/NaiduBugata/vema-society-sub001/internal/models"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
)

// ErrEmployeeHasActiveLoan rejects a manual loan for a borrower that is
// already linked to one.
var ErrEmployeeHasActiveLoan = errors.New("employee already has an active loan")

// AdminService applies manual corrections outside the upload flow.
// Every mutation commits together with its audit trail entry.
type AdminService struct {
	db        *sql.DB
	employees repositories.EmployeeRepository
	loans     repositories.LoanRepository
	audits    repositories.AuditRepository
	log       *logrus.Logger
}

func NewAdminService(
	db *sql.DB,
	employees repositories.EmployeeRepository,
	loans repositories.LoanRepository,
	audits repositories.AuditRepository,
	log *logrus.Logger,
) *AdminService {
	return &AdminService{
		db:        db,
		employees: employees,
		loans:     loans,
		audits:    audits,
		log:       log,
	}
}

// AdjustSalary overrides an employee's recorded salary.
func (s *AdminService) AdjustSalary(employeeID int64, salary decimal.Decimal, adjustedBy string) (*models.Employee, error) {
	emp, err := s.employees.GetByID(employeeID)
	if err != nil {
		return nil, err
	}

	details := auditDetails(map[string]string{
		"old_salary": emp.Salary.String(),
		"new_salary": salary.String(),
	})
	emp.Salary = salary

	err = s.inTx(func(tx *sql.Tx) error {
		if err := s.employees.UpdateTx(tx, emp); err != nil {
			return err
		}
		return s.audits.CreateTx(tx, &models.AdjustmentAudit{
			EmployeeID: emp.ID,
			Action:     models.AuditActionSalaryAdjusted,
			Details:    details,
			AdjustedBy: adjustedBy,
		})
	})
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// AdjustThrift overrides an employee's thrift balance. Corrections to
// bad sheet data come through here rather than through a re-upload.
func (s *AdminService) AdjustThrift(employeeID int64, balance decimal.Decimal, adjustedBy string) (*models.Employee, error) {
	emp, err := s.employees.GetByID(employeeID)
	if err != nil {
		return nil, err
	}

	details := auditDetails(map[string]string{
		"old_balance": emp.ThriftBalance.String(),
		"new_balance": balance.String(),
	})
	emp.ThriftBalance = balance

	err = s.inTx(func(tx *sql.Tx) error {
		if err := s.employees.UpdateTx(tx, emp); err != nil {
			return err
		}
		return s.audits.CreateTx(tx, &models.AdjustmentAudit{
			EmployeeID: emp.ID,
			Action:     models.AuditActionThriftAdjusted,
			Details:    details,
			AdjustedBy: adjustedBy,
		})
	})
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// CreateLoanParams carries the figures of a manually issued loan.
type CreateLoanParams struct {
	BorrowerID   int64
	Amount       decimal.Decimal
	InterestRate decimal.Decimal
	EMI          decimal.Decimal
	AdjustedBy   string
}

// CreateLoan issues a loan outside the upload flow and links the
// borrower to it.
func (s *AdminService) CreateLoan(p CreateLoanParams) (*models.Loan, error) {
	emp, err := s.employees.GetByID(p.BorrowerID)
	if err != nil {
		return nil, err
	}
	if emp.ActiveLoanID.Valid {
		return nil, ErrEmployeeHasActiveLoan
	}

	loan := &models.Loan{
		BorrowerID:       emp.ID,
		LoanAmount:       p.Amount,
		InterestRate:     p.InterestRate,
		EMI:              p.EMI,
		RemainingBalance: p.Amount,
		Status:           models.LoanStatusActive,
	}

	err = s.inTx(func(tx *sql.Tx) error {
		if err := s.loans.CreateTx(tx, loan); err != nil {
			return err
		}
		emp.ActiveLoanID = sql.NullInt64{Int64: loan.ID, Valid: true}
		if err := s.employees.UpdateTx(tx, emp); err != nil {
			return err
		}
		return s.audits.CreateTx(tx, &models.AdjustmentAudit{
			EmployeeID: emp.ID,
			Action:     models.AuditActionLoanCreated,
			Details: auditDetails(map[string]string{
				"loan_id": fmt.Sprint(loan.ID),
				"amount":  p.Amount.String(),
			}),
			AdjustedBy: p.AdjustedBy,
		})
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// CloseLoan force-closes a loan regardless of its remaining balance,
// unlinking the borrower and releasing the sureties.
func (s *AdminService) CloseLoan(loanID int64, adjustedBy string) (*models.Loan, error) {
	loan, err := s.loans.GetByID(loanID)
	if err != nil {
		return nil, err
	}

	details := auditDetails(map[string]string{
		"loan_id":           fmt.Sprint(loan.ID),
		"remaining_balance": loan.RemainingBalance.String(),
	})
	loan.Status = models.LoanStatusClosed
	loan.RemainingBalance = decimal.Zero

	err = s.inTx(func(tx *sql.Tx) error {
		if err := s.loans.UpdateTx(tx, loan); err != nil {
			return err
		}

		emp, err := s.employees.GetByID(loan.BorrowerID)
		if err == nil && emp.ActiveLoanID.Valid && emp.ActiveLoanID.Int64 == loan.ID {
			emp.ActiveLoanID = sql.NullInt64{}
			emp.LoanStatus = ""
			if err := s.employees.UpdateTx(tx, emp); err != nil {
				return err
			}
		}

		if err := s.employees.RemoveGuaranteesForLoanTx(tx, loan.ID); err != nil {
			return err
		}

		return s.audits.CreateTx(tx, &models.AdjustmentAudit{
			EmployeeID: loan.BorrowerID,
			Action:     models.AuditActionLoanClosed,
			Details:    details,
			AdjustedBy: adjustedBy,
		})
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// DividendResult summarizes one distribution run.
type DividendResult struct {
	Rate         decimal.Decimal `json:"rate"`
	Employees    int             `json:"employees"`
	TotalCredits decimal.Decimal `json:"total_credits"`
}

// DistributeDividend credits every member's thrift balance by the given
// annual percentage. All credits and their audit entries commit in one
// transaction, so a half-paid dividend cannot exist.
func (s *AdminService) DistributeDividend(rate decimal.Decimal, adjustedBy string) (*DividendResult, error) {
	if !rate.IsPositive() {
		return nil, errors.New("dividend rate must be positive")
	}

	ids, err := s.employees.ListIDs()
	if err != nil {
		return nil, err
	}

	result := &DividendResult{Rate: rate, TotalCredits: decimal.Zero}
	hundred := decimal.NewFromInt(100)

	err = s.inTx(func(tx *sql.Tx) error {
		for _, id := range ids {
			emp, err := s.employees.GetByID(id)
			if err != nil {
				return err
			}
			if !emp.ThriftBalance.IsPositive() {
				continue
			}

			credit := emp.ThriftBalance.Mul(rate).Div(hundred).Round(2)
			details := auditDetails(map[string]string{
				"old_balance": emp.ThriftBalance.String(),
				"credit":      credit.String(),
				"rate":        rate.String(),
			})
			emp.ThriftBalance = emp.ThriftBalance.Add(credit)

			if err := s.employees.UpdateTx(tx, emp); err != nil {
				return err
			}
			if err := s.audits.CreateTx(tx, &models.AdjustmentAudit{
				EmployeeID: emp.ID,
				Action:     models.AuditActionDividendPaid,
				Details:    details,
				AdjustedBy: adjustedBy,
			}); err != nil {
				return err
			}

			result.Employees++
			result.TotalCredits = result.TotalCredits.Add(credit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"rate":      rate.String(),
		"employees": result.Employees,
		"total":     result.TotalCredits.String(),
	}).Info("dividend distributed")
	return result, nil
}

// AuditTrail lists the manual adjustments recorded for one employee.
func (s *AdminService) AuditTrail(employeeID int64) ([]*models.AdjustmentAudit, error) {
	return s.audits.ListByEmployee(employeeID)
}

func (s *AdminService) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(s.db)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx.Tx); err != nil {
		return err
	}
	return tx.Commit()
}

func auditDetails(fields map[string]string) json.RawMessage {
	b, _ := json.Marshal(fields)
	return b
}
