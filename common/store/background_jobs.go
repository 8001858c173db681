package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

const (
	JOB_PENDING   = "pending"
	JOB_RUNNING   = "running"
	JOB_SUCCEEDED = "succeeded"
	JOB_FAILED    = "failed"
)

var (
	ErrJobNotFound = errors.New("job not found")
)

type BackgroundJob struct {
	JobId       sql.NullString `gorm:"primary_key"`
	Type        sql.NullString `gorm:"index"`
	Payload     sql.NullString `gorm:"type:text"`
	Status      sql.NullString `gorm:"index"`
	Attempts    int
	LastError   sql.NullString `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

func (BackgroundJob) TableName() string {
	return "background_jobs"
}

func (s *Store) AddJob(tx *gorm.DB, job BackgroundJob) (BackgroundJob, error) {
	db := s.dbOrTx(tx)

	job.JobId = s.newId()
	job.Status = NullString(JOB_PENDING)
	// updated_at is compared against UTC stale thresholds
	job.CreatedAt = time.Now().UTC()
	job.UpdatedAt = job.CreatedAt
	if err := db.Create(&job).Error; err != nil {
		return BackgroundJob{}, err
	}
	return job, nil
}

func (s *Store) GetJob(tx *gorm.DB, jobId string) (BackgroundJob, error) {
	db := s.dbOrTx(tx)

	job := BackgroundJob{}
	err := db.Where("job_id = ?", jobId).First(&job).Error
	if gorm.IsRecordNotFoundError(err) {
		return BackgroundJob{}, ErrJobNotFound
	}
	return job, err
}

// ListJobs returns jobs newest first, filtered by status when not empty.
func (s *Store) ListJobs(tx *gorm.DB, status string) ([]BackgroundJob, error) {
	db := s.dbOrTx(tx)

	jobs := []BackgroundJob{}
	query := db.Order("created_at desc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListRetryableJobs returns jobs that have been attempted fewer than
// maxAttempts times and are either failed, or pending or running without an
// update since staleBefore. A zero staleBefore only matches failed jobs.
func (s *Store) ListRetryableJobs(tx *gorm.DB, maxAttempts int, staleBefore time.Time) ([]BackgroundJob, error) {
	db := s.dbOrTx(tx)

	jobs := []BackgroundJob{}
	query := db.Where("attempts < ?", maxAttempts)
	if staleBefore.IsZero() {
		query = query.Where("status = ?", JOB_FAILED)
	} else {
		query = query.Where("status = ? OR (status IN (?) AND updated_at < ?)",
			JOB_FAILED, []string{JOB_PENDING, JOB_RUNNING}, staleBefore)
	}
	if err := query.Order("updated_at asc").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkJobRunning claims a pending or failed job, or a running job whose worker
// has not touched it since staleBefore. It returns false when another worker
// holds it.
func (s *Store) MarkJobRunning(tx *gorm.DB, jobId string, staleBefore time.Time) (bool, error) {
	db := s.dbOrTx(tx)

	query := db.Model(&BackgroundJob{})
	if staleBefore.IsZero() {
		query = query.Where("job_id = ? AND status IN (?)", jobId, []string{JOB_PENDING, JOB_FAILED})
	} else {
		query = query.Where("job_id = ? AND (status IN (?) OR (status = ? AND updated_at < ?))",
			jobId, []string{JOB_PENDING, JOB_FAILED}, JOB_RUNNING, staleBefore)
	}
	res := query.Updates(map[string]interface{}{
		"status":     JOB_RUNNING,
		"attempts":   gorm.Expr("attempts + 1"),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) MarkJobSucceeded(tx *gorm.DB, jobId string) error {
	db := s.dbOrTx(tx)

	now := time.Now().UTC()
	return db.Model(&BackgroundJob{}).Where("job_id = ?", jobId).Updates(map[string]interface{}{
		"status":       JOB_SUCCEEDED,
		"last_error":   nil,
		"completed_at": now,
		"updated_at":   now,
	}).Error
}

func (s *Store) MarkJobFailed(tx *gorm.DB, jobId string, cause error) error {
	db := s.dbOrTx(tx)

	return db.Model(&BackgroundJob{}).Where("job_id = ?", jobId).Updates(map[string]interface{}{
		"status":     JOB_FAILED,
		"last_error": cause.Error(),
		"updated_at": time.Now().UTC(),
	}).Error
}
