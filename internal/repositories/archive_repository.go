package repositories

import (
	"database/sql"
	"encoding/json"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
)

type ArchiveRepository interface {
	ExistsForMonth(month string) (bool, error)
	Create(am *models.ArchivedMonth) error
	GetByMonth(month string) (*models.ArchivedMonth, error)
}

type archiveRepository struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

func (r *archiveRepository) ExistsForMonth(month string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM archived_months WHERE month = ?`, month).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *archiveRepository) Create(am *models.ArchivedMonth) error {
	rowsJSON, err := json.Marshal(am.Rows)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO archived_months (
			month, employee_count, total_thrift, total_loan_emi,
			total_interest, total_deduction, rows_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		am.Month, am.EmployeeCount, am.TotalThrift, am.TotalLoanEMI,
		am.TotalInterest, am.TotalDeduction, rowsJSON,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	am.ID = id
	return nil
}

func (r *archiveRepository) GetByMonth(month string) (*models.ArchivedMonth, error) {
	query := `
		SELECT id, month, employee_count, total_thrift, total_loan_emi,
		       total_interest, total_deduction, rows_json, created_at
		FROM archived_months
		WHERE month = ?
	`
	am := &models.ArchivedMonth{}
	var rowsJSON []byte
	err := r.db.QueryRow(query, month).Scan(
		&am.ID,
		&am.Month,
		&am.EmployeeCount,
		&am.TotalThrift,
		&am.TotalLoanEMI,
		&am.TotalInterest,
		&am.TotalDeduction,
		&rowsJSON,
		&am.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(rowsJSON) > 0 {
		if err := json.Unmarshal(rowsJSON, &am.Rows); err != nil {
			return nil, err
		}
	}
	return am, nil
}
