package reconcile

import (
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
	"github.com/NaiduBugata/vema-society-sub001/internal/sheet"
)

func newTestOrchestrator() (*mockStore, *Orchestrator) {
	s, r := newTestEngine()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return s, NewOrchestrator(r, &mockUploadLogs{s}, logger)
}

func payrollDataset(rows ...sheet.Row) *sheet.Dataset {
	return &sheet.Dataset{
		FileName: "payroll.xlsx",
		FileType: "xlsx",
		Rows:     rows,
	}
}

func TestRunIsolatesRowFailures(t *testing.T) {
	s, o := newTestOrchestrator()
	s.addEmployee(&models.Employee{EmpID: "1", Name: "K Rao"})

	ds := payrollDataset(
		sheet.Row{"Emp ID": "1", "Name": "K Rao", "Thrift": 50.0},
		sheet.Row{"Emp ID": "999", "Name": "Ghost", "Thrift": 50.0},
		sheet.Row{},
		sheet.Row{"Emp ID": "", "Name": "TOTAL", "Thrift": 100.0},
	)

	result, err := o.Run(ds, "2024-05")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	log := result.Log
	if log.Month != "2024-05" {
		t.Errorf("expected explicit month kept, got %q", log.Month)
	}
	if log.BatchID == "" {
		t.Error("expected a batch id")
	}
	if log.TotalRecords != 2 || log.SuccessCount != 1 || log.FailureCount != 1 {
		t.Errorf("expected counts total=2 success=1 failure=1, got %d/%d/%d",
			log.TotalRecords, log.SuccessCount, log.FailureCount)
	}
	if log.Status != models.UploadStatusPartial {
		t.Errorf("expected partial status, got %s", log.Status)
	}
	if len(log.Errors) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(log.Errors))
	}
	// Header is row 1, so the second data row is sheet row 3.
	if log.Errors[0].Row != 3 {
		t.Errorf("expected failure on sheet row 3, got %d", log.Errors[0].Row)
	}

	if len(s.uploadLogs) != 1 {
		t.Fatalf("expected one persisted upload log, got %d", len(s.uploadLogs))
	}
}

func TestRunStatusAllRowsFailed(t *testing.T) {
	_, o := newTestOrchestrator()

	ds := payrollDataset(
		sheet.Row{"Emp ID": "404", "Name": "Nobody", "Thrift": 50.0},
	)

	result, err := o.Run(ds, "2024-05")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Log.Status != models.UploadStatusFailed {
		t.Errorf("expected failed status, got %s", result.Log.Status)
	}
}

func TestRunSuccessStatusAndWarnings(t *testing.T) {
	s, o := newTestOrchestrator()
	s.addEmployee(&models.Employee{EmpID: "1", Name: "K Rao"})

	ds := payrollDataset(
		sheet.Row{"Emp ID": "1", "Name": "K Rao", "Thrift": "abc", "Salary": 30000.0},
	)

	result, err := o.Run(ds, "2024-05")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Log.Status != models.UploadStatusSuccess {
		t.Errorf("expected success status, got %s", result.Log.Status)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected an invalid-value warning for the thrift cell")
	}

	if result.ColumnSummary["emp_id"] == nil {
		t.Error("expected emp_id reported as detected")
	}
	if result.ColumnSummary["loan_balance"] != nil {
		t.Error("expected loan_balance reported as absent")
	}
}

func TestRunRejectsSheetWithoutIdentityColumn(t *testing.T) {
	s, o := newTestOrchestrator()
	s.addEmployee(&models.Employee{EmpID: "1", Name: "K Rao"})

	ds := payrollDataset(
		sheet.Row{"Thrift": 50.0, "Salary": 30000.0},
	)

	result, err := o.Run(ds, "2024-05")
	if !errors.Is(err, ErrNoIdentityColumn) {
		t.Fatalf("expected ErrNoIdentityColumn, got %v", err)
	}

	if result.Log.Status != models.UploadStatusFailed {
		t.Errorf("expected failed status, got %s", result.Log.Status)
	}
	if len(result.Log.Errors) != 1 || result.Log.Errors[0].Row != 0 {
		t.Errorf("expected a single batch-level error on row 0, got %+v", result.Log.Errors)
	}
	// The rejection is still persisted for the audit trail.
	if len(s.uploadLogs) != 1 {
		t.Fatalf("expected one persisted upload log, got %d", len(s.uploadLogs))
	}
	if len(s.transactions) != 0 {
		t.Error("expected no rows processed")
	}
}

func TestSyncEmployeeLoanRelinksFromSnapshot(t *testing.T) {
	s, o := newTestOrchestrator()
	emp := s.addEmployee(&models.Employee{EmpID: "1", Name: "K Rao"})
	orphan := s.addLoan(&models.Loan{
		BorrowerID:       emp.ID,
		RemainingBalance: d("4000"),
		Status:           models.LoanStatusActive,
	})
	s.transactions[txnKey(emp.ID, "2024-03")] = &models.Transaction{
		EmployeeID:  emp.ID,
		Month:       "2024-03",
		LoanEMI:     d("500"),
		LoanBalance: d("4000"),
	}

	if err := o.syncEmployeeLoan("2024-03", emp.ID); err != nil {
		t.Fatalf("syncEmployeeLoan failed: %v", err)
	}

	if !emp.ActiveLoanID.Valid || emp.ActiveLoanID.Int64 != orphan.ID {
		t.Error("expected employee relinked to orphaned loan")
	}
}

func TestSyncEmployeeLoanSkips(t *testing.T) {
	t.Run("already linked", func(t *testing.T) {
		s, o := newTestOrchestrator()
		emp := s.addEmployee(&models.Employee{EmpID: "1", Name: "K Rao"})
		loan := s.addLoan(&models.Loan{BorrowerID: emp.ID, Status: models.LoanStatusActive})
		emp.ActiveLoanID = sql.NullInt64{Int64: loan.ID, Valid: true}

		if err := o.syncEmployeeLoan("2024-03", emp.ID); err != nil {
			t.Fatalf("expected no-op, got %v", err)
		}
	})

	t.Run("no snapshot for month", func(t *testing.T) {
		s, o := newTestOrchestrator()
		emp := s.addEmployee(&models.Employee{EmpID: "1", Name: "K Rao"})

		if err := o.syncEmployeeLoan("2024-03", emp.ID); err != nil {
			t.Fatalf("expected no-op, got %v", err)
		}
		if emp.ActiveLoanID.Valid {
			t.Error("expected no loan created without a snapshot")
		}
	})

	t.Run("snapshot without balance", func(t *testing.T) {
		s, o := newTestOrchestrator()
		emp := s.addEmployee(&models.Employee{EmpID: "1", Name: "K Rao"})
		s.transactions[txnKey(emp.ID, "2024-03")] = &models.Transaction{
			EmployeeID: emp.ID,
			Month:      "2024-03",
		}

		if err := o.syncEmployeeLoan("2024-03", emp.ID); err != nil {
			t.Fatalf("expected no-op, got %v", err)
		}
		if len(s.loans) != 0 {
			t.Error("expected no loan created from a zero-balance snapshot")
		}
	})
}
