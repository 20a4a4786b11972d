package repositories

import (
	"database/sql"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
)

type AuditRepository interface {
	CreateTx(tx *sql.Tx, audit *models.AdjustmentAudit) error
	ListByEmployee(employeeID int64) ([]*models.AdjustmentAudit, error)
}

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

// CreateTx writes an audit entry inside the caller's transaction so the
// entity mutation and its trail commit or roll back together.
func (r *auditRepository) CreateTx(tx *sql.Tx, audit *models.AdjustmentAudit) error {
	query := `
		INSERT INTO adjustment_audits (employee_id, action, details, adjusted_by)
		VALUES (?, ?, ?, ?)
	`
	result, err := tx.Exec(query,
		audit.EmployeeID,
		audit.Action,
		audit.Details,
		audit.AdjustedBy,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	audit.ID = id
	return nil
}

func (r *auditRepository) ListByEmployee(employeeID int64) ([]*models.AdjustmentAudit, error) {
	query := `
		SELECT id, employee_id, action, details, adjusted_by, created_at
		FROM adjustment_audits
		WHERE employee_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []*models.AdjustmentAudit
	for rows.Next() {
		a := &models.AdjustmentAudit{}
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Action, &a.Details, &a.AdjustedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}
