package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

const (
	TASK_PENDING   = "pending"
	TASK_COMPLETED = "completed"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

type Task struct {
	TaskId          sql.NullString `gorm:"primary_key"`
	StaffId         sql.NullString `gorm:"index"`
	TaskDescription sql.NullString `gorm:"type:text"`
	DueDate         *time.Time
	Status          sql.NullString
	DateAssigned    time.Time
	DateCompleted   *time.Time
	AssignedBy      sql.NullString
}

func (Task) TableName() string {
	return "tasks"
}

func (s *Store) AddTask(tx *gorm.DB, task Task) (Task, error) {
	db := s.dbOrTx(tx)

	task.TaskId = s.newId()
	task.Status = NullString(TASK_PENDING)
	if task.DateAssigned.IsZero() {
		task.DateAssigned = time.Now().UTC()
	}
	if err := db.Create(&task).Error; err != nil {
		return Task{}, err
	}
	return task, nil
}

func (s *Store) GetTask(tx *gorm.DB, taskId string) (Task, error) {
	db := s.dbOrTx(tx)

	task := Task{}
	err := db.Where("task_id = ?", taskId).First(&task).Error
	if gorm.IsRecordNotFoundError(err) {
		return Task{}, ErrTaskNotFound
	}
	return task, err
}

// ListTasks returns every task, or only the ones assigned to staffId, most
// recently assigned first.
func (s *Store) ListTasks(tx *gorm.DB, staffId string) ([]Task, error) {
	db := s.dbOrTx(tx)

	tasks := []Task{}
	query := db.Order("date_assigned desc")
	if staffId != "" {
		query = query.Where("staff_id = ?", staffId)
	}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompleteTask moves a pending task to completed. The status guard in the
// where clause keeps two concurrent completions from both succeeding.
func (s *Store) CompleteTask(tx *gorm.DB, taskId string, completedAt time.Time) (bool, error) {
	db := s.dbOrTx(tx)

	res := db.Model(&Task{}).
		Where("task_id = ? AND status = ?", taskId, TASK_PENDING).
		Updates(map[string]interface{}{"status": TASK_COMPLETED, "date_completed": completedAt})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) DeleteTask(tx *gorm.DB, taskId string) error {
	db := s.dbOrTx(tx)

	if _, err := s.GetTask(db, taskId); err != nil {
		return err
	}
	return db.Where("task_id = ?", taskId).Delete(&Task{}).Error
}
