package reconcile

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
)

// mockStore is a shared in-memory backend for the repository mocks used
// across the engine tests.
type mockStore struct {
	employees    map[int64]*models.Employee
	loans        map[int64]*models.Loan
	sureties     map[int64][]models.Surety
	guarantees   map[int64]map[int64]bool // employee id -> loan id set
	transactions map[string]*models.Transaction
	uploadLogs   []*models.UploadLog

	nextEmployeeID int64
	nextLoanID     int64
}

func newMockStore() *mockStore {
	return &mockStore{
		employees:    make(map[int64]*models.Employee),
		loans:        make(map[int64]*models.Loan),
		sureties:     make(map[int64][]models.Surety),
		guarantees:   make(map[int64]map[int64]bool),
		transactions: make(map[string]*models.Transaction),
	}
}

func (s *mockStore) addEmployee(e *models.Employee) *models.Employee {
	s.nextEmployeeID++
	e.ID = s.nextEmployeeID
	s.employees[e.ID] = e
	return e
}

func (s *mockStore) addLoan(l *models.Loan) *models.Loan {
	s.nextLoanID++
	l.ID = s.nextLoanID
	l.UpdatedAt = time.Now()
	s.loans[l.ID] = l
	return l
}

func txnKey(employeeID int64, month string) string {
	return fmt.Sprintf("%d|%s", employeeID, month)
}

type mockEmployees struct{ s *mockStore }

func (m *mockEmployees) GetByID(id int64) (*models.Employee, error) {
	e, ok := m.s.employees[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return e, nil
}

func (m *mockEmployees) FindByEmpID(code string) (*models.Employee, error) {
	for _, e := range m.s.employees {
		if e.EmpID == code {
			return e, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockEmployees) FindByEmpIDNumeric(code string) (*models.Employee, error) {
	want, err := strconv.ParseFloat(code, 64)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	for _, e := range m.s.employees {
		if got, err := strconv.ParseFloat(e.EmpID, 64); err == nil && got == want {
			return e, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockEmployees) FindByName(name string) (*models.Employee, error) {
	for _, e := range m.s.employees {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockEmployees) Create(e *models.Employee) error {
	m.s.addEmployee(e)
	return nil
}

func (m *mockEmployees) Update(e *models.Employee) error {
	if _, ok := m.s.employees[e.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.s.employees[e.ID] = e
	return nil
}

func (m *mockEmployees) UpdateTx(_ *sql.Tx, e *models.Employee) error {
	return m.Update(e)
}

func (m *mockEmployees) ListIDs() ([]int64, error) {
	var ids []int64
	for id := range m.s.employees {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockEmployees) AddGuarantee(employeeID, loanID int64) error {
	if m.s.guarantees[employeeID] == nil {
		m.s.guarantees[employeeID] = make(map[int64]bool)
	}
	m.s.guarantees[employeeID][loanID] = true
	return nil
}

func (m *mockEmployees) RemoveGuarantee(employeeID, loanID int64) error {
	delete(m.s.guarantees[employeeID], loanID)
	return nil
}

func (m *mockEmployees) RemoveGuaranteesForLoan(loanID int64) error {
	for _, set := range m.s.guarantees {
		delete(set, loanID)
	}
	return nil
}

func (m *mockEmployees) RemoveGuaranteesForLoanTx(_ *sql.Tx, loanID int64) error {
	return m.RemoveGuaranteesForLoan(loanID)
}

func (m *mockEmployees) ListGuaranteeLoanIDs(employeeID int64) ([]int64, error) {
	var ids []int64
	for id := range m.s.guarantees[employeeID] {
		ids = append(ids, id)
	}
	return ids, nil
}

type mockLoans struct{ s *mockStore }

func (m *mockLoans) GetByID(id int64) (*models.Loan, error) {
	l, ok := m.s.loans[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return l, nil
}

func (m *mockLoans) Create(l *models.Loan) error {
	m.s.addLoan(l)
	return nil
}

func (m *mockLoans) CreateTx(_ *sql.Tx, l *models.Loan) error {
	return m.Create(l)
}

func (m *mockLoans) Update(l *models.Loan) error {
	if _, ok := m.s.loans[l.ID]; !ok {
		return repositories.ErrNotFound
	}
	l.UpdatedAt = time.Now()
	m.s.loans[l.ID] = l
	return nil
}

func (m *mockLoans) UpdateTx(_ *sql.Tx, l *models.Loan) error {
	return m.Update(l)
}

func (m *mockLoans) FindActiveByBorrower(borrowerID int64) (*models.Loan, error) {
	return m.findByBorrowerStatus(borrowerID, models.LoanStatusActive)
}

func (m *mockLoans) FindLatestClosedByBorrower(borrowerID int64) (*models.Loan, error) {
	return m.findByBorrowerStatus(borrowerID, models.LoanStatusClosed)
}

func (m *mockLoans) findByBorrowerStatus(borrowerID int64, status string) (*models.Loan, error) {
	var best *models.Loan
	for _, l := range m.s.loans {
		if l.BorrowerID != borrowerID || l.Status != status {
			continue
		}
		if best == nil || l.UpdatedAt.After(best.UpdatedAt) {
			best = l
		}
	}
	if best == nil {
		return nil, repositories.ErrNotFound
	}
	return best, nil
}

func (m *mockLoans) GetSureties(loanID int64) ([]models.Surety, error) {
	return m.s.sureties[loanID], nil
}

func (m *mockLoans) ReplaceSureties(loanID int64, sureties []models.Surety) error {
	m.s.sureties[loanID] = sureties
	return nil
}

type mockTransactions struct{ s *mockStore }

func (m *mockTransactions) Upsert(t *models.Transaction) error {
	copied := *t
	m.s.transactions[txnKey(t.EmployeeID, t.Month)] = &copied
	return nil
}

func (m *mockTransactions) FindByEmployeeMonth(employeeID int64, month string) (*models.Transaction, error) {
	t, ok := m.s.transactions[txnKey(employeeID, month)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return t, nil
}

func (m *mockTransactions) DistinctMonths() ([]string, error) {
	seen := make(map[string]bool)
	var months []string
	for _, t := range m.s.transactions {
		if !seen[t.Month] {
			seen[t.Month] = true
			months = append(months, t.Month)
		}
	}
	return months, nil
}

func (m *mockTransactions) ListByMonth(month string) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, t := range m.s.transactions {
		if t.Month == month {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTransactions) DeleteByMonth(month string) (int64, error) {
	var n int64
	for key, t := range m.s.transactions {
		if t.Month == month {
			delete(m.s.transactions, key)
			n++
		}
	}
	return n, nil
}

type mockUploadLogs struct{ s *mockStore }

func (m *mockUploadLogs) Create(log *models.UploadLog) error {
	log.ID = int64(len(m.s.uploadLogs) + 1)
	m.s.uploadLogs = append(m.s.uploadLogs, log)
	return nil
}

func (m *mockUploadLogs) GetByBatchID(batchID string) (*models.UploadLog, error) {
	for _, l := range m.s.uploadLogs {
		if l.BatchID == batchID {
			return l, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUploadLogs) List(limit int) ([]*models.UploadLog, error) {
	if limit > len(m.s.uploadLogs) {
		limit = len(m.s.uploadLogs)
	}
	return m.s.uploadLogs[:limit], nil
}
