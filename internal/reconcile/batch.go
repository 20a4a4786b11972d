package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/NaiduBugata/vema-society-sub001/internal/columns"
	"github.com/NaiduBugata/vema-society-sub001/internal/models"
	"github.com/NaiduBugata/vema-society-sub001/internal/normalize"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
	"github.com/NaiduBugata/vema-society-sub001/internal/sheet"
)

// ErrNoIdentityColumn aborts a batch whose sheet has neither an
// employee-id nor a name column. Nothing is processed.
var ErrNoIdentityColumn = errors.New("no employee id or name column detected")

// BatchResult is everything a caller gets back from one upload run.
type BatchResult struct {
	Log           *models.UploadLog   `json:"log"`
	Warnings      []normalize.Warning `json:"warnings,omitempty"`
	ColumnSummary map[string]*string  `json:"column_summary"`
}

// Orchestrator runs a whole sheet through the reconciler, row by row,
// isolating per-row failures into the upload log.
type Orchestrator struct {
	reconciler *Reconciler
	uploadLogs repositories.UploadLogRepository
	log        *logrus.Logger
}

func NewOrchestrator(
	reconciler *Reconciler,
	uploadLogs repositories.UploadLogRepository,
	log *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		reconciler: reconciler,
		uploadLogs: uploadLogs,
		log:        log,
	}
}

// Run processes every row of the dataset sequentially. Rows may mutate
// the same employee or loan, so they are never processed concurrently.
// One bad row fails alone; the batch carries on and reports counts.
func (o *Orchestrator) Run(ds *sheet.Dataset, explicitMonth string) (*BatchResult, error) {
	mapping := columns.Resolve(ds.AllHeaders())
	month := sheet.DetectMonth(explicitMonth, ds)

	uploadLog := &models.UploadLog{
		BatchID:  uuid.New().String(),
		FileName: ds.FileName,
		FileType: ds.FileType,
		Month:    month,
	}
	result := &BatchResult{
		Log:           uploadLog,
		ColumnSummary: mapping.Summary(),
	}

	if !mapping.HasIdentityColumn() {
		uploadLog.Status = models.UploadStatusFailed
		uploadLog.Errors = []models.RowError{{Row: 0, Error: ErrNoIdentityColumn.Error()}}
		if err := o.uploadLogs.Create(uploadLog); err != nil {
			o.log.WithError(err).Error("failed to persist upload log for rejected batch")
		}
		return result, ErrNoIdentityColumn
	}

	touched := make(map[int64]bool)
	for i, raw := range ds.Rows {
		// Sheet row numbers are 1-based with the header on row 1.
		rowNum := i + 2

		if normalize.ShouldSkip(raw, mapping) {
			continue
		}

		rec, warnings := normalize.Row(rowNum, raw, mapping)
		result.Warnings = append(result.Warnings, warnings...)

		employeeID, err := o.reconciler.ProcessRow(month, rec)
		if err != nil {
			uploadLog.FailureCount++
			uploadLog.Errors = append(uploadLog.Errors, models.RowError{
				Row:   rowNum,
				Error: err.Error(),
			})
			o.log.WithFields(logrus.Fields{
				"batch_id": uploadLog.BatchID,
				"row":      rowNum,
			}).WithError(err).Warn("row failed")
			continue
		}

		uploadLog.SuccessCount++
		touched[employeeID] = true
	}

	uploadLog.TotalRecords = uploadLog.SuccessCount + uploadLog.FailureCount
	uploadLog.Status = batchStatus(uploadLog.SuccessCount, uploadLog.FailureCount)

	if err := o.uploadLogs.Create(uploadLog); err != nil {
		return result, fmt.Errorf("failed to persist upload log: %w", err)
	}

	if uploadLog.Status != models.UploadStatusFailed {
		o.autoSyncLoans(month, touched)
	}

	o.log.WithFields(logrus.Fields{
		"batch_id": uploadLog.BatchID,
		"month":    month,
		"total":    uploadLog.TotalRecords,
		"success":  uploadLog.SuccessCount,
		"failed":   uploadLog.FailureCount,
		"status":   uploadLog.Status,
	}).Info("batch finished")

	return result, nil
}

func batchStatus(success, failure int) string {
	switch {
	case failure > 0 && success == 0:
		return models.UploadStatusFailed
	case failure > 0:
		return models.UploadStatusPartial
	default:
		return models.UploadStatusSuccess
	}
}

// autoSyncLoans is the best-effort post-batch pass: employees touched
// this run that still have no linked loan get the same orphan-search /
// reopen / create fallback, driven by their stored snapshot for the
// month. Upload-order artifacts self-heal here; failures are logged
// and swallowed.
func (o *Orchestrator) autoSyncLoans(month string, touched map[int64]bool) {
	ids := make([]int64, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := o.syncEmployeeLoan(month, id); err != nil {
			o.log.WithFields(logrus.Fields{
				"employee_id": id,
				"month":       month,
			}).WithError(err).Warn("loan auto-sync failed")
		}
	}
}

func (o *Orchestrator) syncEmployeeLoan(month string, employeeID int64) error {
	r := o.reconciler

	emp, err := r.employees.GetByID(employeeID)
	if err != nil {
		return err
	}
	if emp.ActiveLoanID.Valid {
		return nil
	}

	txn, err := r.transactions.FindByEmployeeMonth(employeeID, month)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !txn.LoanBalance.IsPositive() {
		return nil
	}

	// Rebuild the loan signal from the stored snapshot and rerun the
	// discovery chain.
	rec := &normalize.Record{
		LoanBalance:   txn.LoanBalance,
		LoanRepayment: txn.LoanEMI,
		InterestPaid:  txn.InterestPayment,
	}
	res, err := r.resolveLoan(emp, rec)
	if err != nil {
		return err
	}

	if err := r.employees.Update(emp); err != nil {
		return err
	}

	o.log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"loan_id":     res.Loan.ID,
		"source":      res.Source,
	}).Info("auto-synced loan link")
	return nil
}
