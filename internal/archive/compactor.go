package archive

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
)

// Compactor moves transaction months that fell out of the retention
// window into compact archive summaries and deletes the raw rows.
type Compactor struct {
	transactions repositories.TransactionRepository
	employees    repositories.EmployeeRepository
	archives     repositories.ArchiveRepository
	retention    int
	log          *logrus.Logger
}

// Result reports what one compaction pass did.
type Result struct {
	ArchivedMonths []string `json:"archived_months"`
	DeletedRows    int64    `json:"deleted_rows"`
	FailedMonths   []string `json:"failed_months,omitempty"`
}

func NewCompactor(
	transactions repositories.TransactionRepository,
	employees repositories.EmployeeRepository,
	archives repositories.ArchiveRepository,
	retentionMonths int,
	log *logrus.Logger,
) *Compactor {
	if retentionMonths < 1 {
		retentionMonths = 1
	}
	return &Compactor{
		transactions: transactions,
		employees:    employees,
		archives:     archives,
		retention:    retentionMonths,
		log:          log,
	}
}

// Run archives every month older than the newest retention window.
// Months are independent: one failing month is logged and reported but
// does not stop the rest of the pass.
func (c *Compactor) Run() (*Result, error) {
	months, err := c.transactions.DistinctMonths()
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction months: %w", err)
	}

	result := &Result{}
	if len(months) <= c.retention {
		return result, nil
	}

	// Months arrive newest first; everything past the window is stale.
	for _, month := range months[c.retention:] {
		deleted, err := c.compactMonth(month)
		if err != nil {
			result.FailedMonths = append(result.FailedMonths, month)
			c.log.WithField("month", month).WithError(err).Error("failed to compact month")
			continue
		}
		result.ArchivedMonths = append(result.ArchivedMonths, month)
		result.DeletedRows += deleted
		c.log.WithFields(logrus.Fields{
			"month":        month,
			"deleted_rows": deleted,
		}).Info("archived month")
	}
	return result, nil
}

// compactMonth writes the summary (unless one already exists from an
// interrupted earlier pass) and then deletes the month's raw rows.
func (c *Compactor) compactMonth(month string) (int64, error) {
	exists, err := c.archives.ExistsForMonth(month)
	if err != nil {
		return 0, err
	}
	if !exists {
		am, err := c.buildArchive(month)
		if err != nil {
			return 0, err
		}
		if err := c.archives.Create(am); err != nil {
			return 0, err
		}
	}
	return c.transactions.DeleteByMonth(month)
}

func (c *Compactor) buildArchive(month string) (*models.ArchivedMonth, error) {
	txns, err := c.transactions.ListByMonth(month)
	if err != nil {
		return nil, err
	}

	am := &models.ArchivedMonth{
		Month:          month,
		EmployeeCount:  len(txns),
		TotalThrift:    decimal.Zero,
		TotalLoanEMI:   decimal.Zero,
		TotalInterest:  decimal.Zero,
		TotalDeduction: decimal.Zero,
	}

	for _, txn := range txns {
		row := models.ArchivedRow{
			EmployeeID:      txn.EmployeeID,
			Salary:          txn.Salary,
			ThriftDeduction: txn.ThriftDeduction,
			LoanEMI:         txn.LoanEMI,
			InterestPayment: txn.InterestPayment,
			TotalDeduction:  txn.TotalDeduction,
			NetSalary:       txn.NetSalary,
			CBThriftBalance: txn.CBThriftBalance,
			LoanBalance:     txn.LoanBalance,
		}

		// Denormalize identity so archives stay readable after employee
		// records change.
		emp, err := c.employees.GetByID(txn.EmployeeID)
		if err == nil {
			row.EmpID = emp.EmpID
			row.Name = emp.Name
		}

		am.Rows = append(am.Rows, row)
		am.TotalThrift = am.TotalThrift.Add(txn.ThriftDeduction)
		am.TotalLoanEMI = am.TotalLoanEMI.Add(txn.LoanEMI)
		am.TotalInterest = am.TotalInterest.Add(txn.InterestPayment)
		am.TotalDeduction = am.TotalDeduction.Add(txn.TotalDeduction)
	}

	return am, nil
}
