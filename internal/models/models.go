package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Employee represents a society member and their thrift/loan position
type Employee struct {
	ID                 int64           `db:"id" json:"id"`
	EmpID              string          `db:"emp_id" json:"emp_id"`
	Name               string          `db:"name" json:"name"`
	Email              string          `db:"email" json:"email,omitempty"`
	Phone              string          `db:"phone" json:"phone,omitempty"`
	Salary             decimal.Decimal `db:"salary" json:"salary"`
	ThriftContribution decimal.Decimal `db:"thrift_contribution" json:"thrift_contribution"`
	ThriftBalance      decimal.Decimal `db:"thrift_balance" json:"thrift_balance"`
	LoanStatus         string          `db:"loan_status" json:"loan_status,omitempty"`
	ActiveLoanID       sql.NullInt64   `db:"active_loan_id" json:"active_loan_id"`
	CreatedAt          time.Time       `db:"created_at" json:"-"`
	UpdatedAt          time.Time       `db:"updated_at" json:"-"`
}

// Loan represents a society loan. A closed loan is retained for history.
type Loan struct {
	ID                int64           `db:"id" json:"id"`
	BorrowerID        int64           `db:"borrower_id" json:"borrower_id"`
	LoanAmount        decimal.Decimal `db:"loan_amount" json:"loan_amount"`
	InterestRate      decimal.Decimal `db:"interest_rate" json:"interest_rate"`
	EMI               decimal.Decimal `db:"emi" json:"emi"`
	RemainingBalance  decimal.Decimal `db:"remaining_balance" json:"remaining_balance"`
	TotalInterestPaid decimal.Decimal `db:"total_interest_paid" json:"total_interest_paid"`
	Status            string          `db:"status" json:"status"`
	Sureties          []Surety        `db:"-" json:"sureties,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"-"`
	UpdatedAt         time.Time       `db:"updated_at" json:"-"`
}

// Surety is one slot in a loan's ordered surety list. EmployeeID is null
// when the sheet's code could not be resolved; RawCode is always kept.
type Surety struct {
	LoanID     int64         `db:"loan_id" json:"loan_id"`
	Position   int           `db:"position" json:"position"`
	EmployeeID sql.NullInt64 `db:"employee_id" json:"employee_id"`
	RawCode    string        `db:"raw_code" json:"raw_code"`
}

// Transaction is the monthly snapshot for one employee. Unique per
// (employee, month); created or overwritten only by the reconciler.
type Transaction struct {
	ID                 int64           `db:"id" json:"id"`
	EmployeeID         int64           `db:"employee_id" json:"employee_id"`
	Month              string          `db:"month" json:"month"`
	Salary             decimal.Decimal `db:"salary" json:"salary"`
	ThriftDeduction    decimal.Decimal `db:"thrift_deduction" json:"thrift_deduction"`
	LoanEMI            decimal.Decimal `db:"loan_emi" json:"loan_emi"`
	InterestPayment    decimal.Decimal `db:"interest_payment" json:"interest_payment"`
	PrincipalRepayment decimal.Decimal `db:"principal_repayment" json:"principal_repayment"`
	TotalDeduction     decimal.Decimal `db:"total_deduction" json:"total_deduction"`
	PaidAmount         decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	NetSalary          decimal.Decimal `db:"net_salary" json:"net_salary"`
	CBThriftBalance    decimal.Decimal `db:"cb_thrift_balance" json:"cb_thrift_balance"`
	LoanBalance        decimal.Decimal `db:"loan_balance" json:"loan_balance"`
	CreatedAt          time.Time       `db:"created_at" json:"-"`
	UpdatedAt          time.Time       `db:"updated_at" json:"-"`
}

// RowError records a single failed sheet row inside an upload log.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// UploadLog is the immutable audit record of one reconciliation batch.
type UploadLog struct {
	ID           int64      `db:"id" json:"id"`
	BatchID      string     `db:"batch_id" json:"batch_id"`
	FileName     string     `db:"file_name" json:"file_name"`
	FileType     string     `db:"file_type" json:"file_type"`
	Month        string     `db:"month" json:"month"`
	TotalRecords int        `db:"total_records" json:"total_records"`
	SuccessCount int        `db:"success_count" json:"success_count"`
	FailureCount int        `db:"failure_count" json:"failure_count"`
	Status       string     `db:"status" json:"status"`
	Errors       []RowError `db:"-" json:"errors,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"-"`
}

// ArchivedRow mirrors the Transaction fields of one employee at the time
// of archival, denormalized with minimal identity fields.
type ArchivedRow struct {
	EmployeeID      int64           `json:"employee_id"`
	EmpID           string          `json:"emp_id"`
	Name            string          `json:"name"`
	Salary          decimal.Decimal `json:"salary"`
	ThriftDeduction decimal.Decimal `json:"thrift_deduction"`
	LoanEMI         decimal.Decimal `json:"loan_emi"`
	InterestPayment decimal.Decimal `json:"interest_payment"`
	TotalDeduction  decimal.Decimal `json:"total_deduction"`
	NetSalary       decimal.Decimal `json:"net_salary"`
	CBThriftBalance decimal.Decimal `json:"cb_thrift_balance"`
	LoanBalance     decimal.Decimal `json:"loan_balance"`
}

// ArchivedMonth is the compacted summary that replaces the raw
// transaction rows of a month outside the retention window.
type ArchivedMonth struct {
	ID             int64           `db:"id" json:"id"`
	Month          string          `db:"month" json:"month"`
	EmployeeCount  int             `db:"employee_count" json:"employee_count"`
	TotalThrift    decimal.Decimal `db:"total_thrift" json:"total_thrift"`
	TotalLoanEMI   decimal.Decimal `db:"total_loan_emi" json:"total_loan_emi"`
	TotalInterest  decimal.Decimal `db:"total_interest" json:"total_interest"`
	TotalDeduction decimal.Decimal `db:"total_deduction" json:"total_deduction"`
	Rows           []ArchivedRow   `db:"-" json:"rows"`
	CreatedAt      time.Time       `db:"created_at" json:"-"`
}

// AdjustmentAudit is the audit trail entry written alongside every
// administrative adjustment, in the same SQL transaction.
type AdjustmentAudit struct {
	ID         int64           `db:"id" json:"id"`
	EmployeeID int64           `db:"employee_id" json:"employee_id"`
	Action     string          `db:"action" json:"action"`
	Details    json.RawMessage `db:"details" json:"details"`
	AdjustedBy string          `db:"adjusted_by" json:"adjusted_by"`
	CreatedAt  time.Time       `db:"created_at" json:"-"`
}

// Loan status constants
const (
	LoanStatusActive   = "active"
	LoanStatusClosed   = "closed"
	LoanStatusPending  = "pending"
	LoanStatusRejected = "rejected"
)

// UploadLog status constants
const (
	UploadStatusSuccess = "success"
	UploadStatusPartial = "partial"
	UploadStatusFailed  = "failed"
)

// AuditAction constants
const (
	AuditActionSalaryAdjusted = "salary_adjusted"
	AuditActionThriftAdjusted = "thrift_adjusted"
	AuditActionLoanCreated    = "loan_created"
	AuditActionLoanClosed     = "loan_closed"
	AuditActionDividendPaid   = "dividend_paid"
)
