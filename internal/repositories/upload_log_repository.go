package repositories

import (
	"database/sql"
	"encoding/json"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
)

type UploadLogRepository interface {
	Create(log *models.UploadLog) error
	GetByBatchID(batchID string) (*models.UploadLog, error)
	List(limit int) ([]*models.UploadLog, error)
}

type uploadLogRepository struct {
	db *sql.DB
}

func NewUploadLogRepository(db *sql.DB) UploadLogRepository {
	return &uploadLogRepository{db: db}
}

// Create persists a finished batch log. Write-once: there is no update
// path, the log is the immutable audit trail of the run.
func (r *uploadLogRepository) Create(log *models.UploadLog) error {
	errorsJSON, err := json.Marshal(log.Errors)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO upload_logs (
			batch_id, file_name, file_type, month, total_records,
			success_count, failure_count, status, errors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		log.BatchID, log.FileName, log.FileType, log.Month,
		log.TotalRecords, log.SuccessCount, log.FailureCount,
		log.Status, errorsJSON,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = id
	return nil
}

func (r *uploadLogRepository) GetByBatchID(batchID string) (*models.UploadLog, error) {
	query := `
		SELECT id, batch_id, file_name, file_type, month, total_records,
		       success_count, failure_count, status, errors, created_at
		FROM upload_logs
		WHERE batch_id = ?
	`
	log := &models.UploadLog{}
	var errorsJSON []byte
	err := r.db.QueryRow(query, batchID).Scan(
		&log.ID,
		&log.BatchID,
		&log.FileName,
		&log.FileType,
		&log.Month,
		&log.TotalRecords,
		&log.SuccessCount,
		&log.FailureCount,
		&log.Status,
		&errorsJSON,
		&log.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &log.Errors); err != nil {
			return nil, err
		}
	}
	return log, nil
}

func (r *uploadLogRepository) List(limit int) ([]*models.UploadLog, error) {
	query := `
		SELECT id, batch_id, file_name, file_type, month, total_records,
		       success_count, failure_count, status, errors, created_at
		FROM upload_logs
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.UploadLog
	for rows.Next() {
		log := &models.UploadLog{}
		var errorsJSON []byte
		err := rows.Scan(
			&log.ID,
			&log.BatchID,
			&log.FileName,
			&log.FileType,
			&log.Month,
			&log.TotalRecords,
			&log.SuccessCount,
			&log.FailureCount,
			&log.Status,
			&errorsJSON,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(errorsJSON) > 0 {
			if err := json.Unmarshal(errorsJSON, &log.Errors); err != nil {
				return nil, err
			}
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
