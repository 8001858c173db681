package schedules

import (
	"context"
	"strings"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/authentication"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/claims"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingFields    = errors.New("Staff ID and Task Description are required")
	ErrMissingStaffId   = errors.New("Staff ID is required")
	ErrStaffNotFound    = errors.New("Staff user not found")
	ErrTaskNotFound     = errors.New("Task not found")
	ErrForbidden        = errors.New("Forbidden: You are not assigned to this task.")
	ErrAlreadyCompleted = errors.New("Task is already marked as complete.")
)

type Service interface {
	AssignTask(ctx context.Context, request TaskTransport) (store.Task, error)
	ListTasks(ctx context.Context) ([]store.Task, error)
	ListStaffTasks(ctx context.Context, staffId string) ([]store.Task, error)
	ListMyTasks(ctx context.Context) ([]store.Task, error)
	DeleteTask(ctx context.Context, taskId string) error
	CompleteTask(ctx context.Context, taskId string) (store.Task, error)
	Staff(ctx context.Context, tasks ...store.Task) (map[string]store.User, error)
}

type ScheduleService struct {
	Store interface {
		GetUser(tx *gorm.DB, userId string) (store.User, error)
		FindUsersByIds(tx *gorm.DB, userIds []string) (map[string]store.User, error)

		AddTask(tx *gorm.DB, task store.Task) (store.Task, error)
		GetTask(tx *gorm.DB, taskId string) (store.Task, error)
		ListTasks(tx *gorm.DB, staffId string) ([]store.Task, error)
		CompleteTask(tx *gorm.DB, taskId string, completedAt time.Time) (bool, error)
		DeleteTask(tx *gorm.DB, taskId string) error
	} `inject:""`
	Logger *log.Logger `inject:""`
}

// AssignTask schedules a task for a staff member. When the request carries
// an identity, that user is recorded as the assigner.
func (c *ScheduleService) AssignTask(ctx context.Context, request TaskTransport) (store.Task, error) {
	staffId := strings.TrimSpace(request.StaffId)
	description := strings.TrimSpace(request.TaskDescription)
	if staffId == "" || description == "" {
		return store.Task{}, ErrMissingFields
	}
	if err := shared.ValidateId(staffId); err != nil {
		return store.Task{}, err
	}
	dueDate, err := shared.ParseDate("dueDate", request.DueDate)
	if err != nil {
		return store.Task{}, err
	}

	if _, err := c.Store.GetUser(nil, staffId); err != nil {
		if err == store.ErrUserNotFound {
			return store.Task{}, ErrStaffNotFound
		}
		return store.Task{}, errors.Wrap(err, "failed to assign task")
	}

	task := store.Task{
		StaffId:         store.NullString(staffId),
		TaskDescription: store.NullString(description),
		DueDate:         dueDate,
	}
	if caller, ok := claims.GetCaller(ctx); ok {
		task.AssignedBy = store.NullString(caller.UserId)
	}

	task, err = c.Store.AddTask(nil, task)
	if err != nil {
		return store.Task{}, errors.Wrap(err, "failed to assign task")
	}
	c.Logger.Info(ctx, "task assigned", "taskId", task.TaskId.String, "staffId", staffId)
	return task, nil
}

func (c *ScheduleService) ListTasks(ctx context.Context) ([]store.Task, error) {
	tasks, err := c.Store.ListTasks(nil, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}
	return tasks, nil
}

func (c *ScheduleService) ListStaffTasks(ctx context.Context, staffId string) ([]store.Task, error) {
	staffId = strings.TrimSpace(staffId)
	if staffId == "" {
		return nil, ErrMissingStaffId
	}
	if err := shared.ValidateId(staffId); err != nil {
		return nil, err
	}
	tasks, err := c.Store.ListTasks(nil, staffId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list staff tasks")
	}
	return tasks, nil
}

func (c *ScheduleService) ListMyTasks(ctx context.Context) ([]store.Task, error) {
	caller, ok := claims.GetCaller(ctx)
	if !ok {
		return nil, authentication.ErrMissingIdentity
	}
	tasks, err := c.Store.ListTasks(nil, caller.UserId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}
	return tasks, nil
}

func (c *ScheduleService) DeleteTask(ctx context.Context, taskId string) error {
	if err := c.Store.DeleteTask(nil, taskId); err != nil {
		if err == store.ErrTaskNotFound {
			return ErrTaskNotFound
		}
		return errors.Wrap(err, "failed to delete task")
	}
	return nil
}

// CompleteTask moves a pending task of the caller to completed. A task only
// completes once: the store refuses the transition when the status already
// changed.
func (c *ScheduleService) CompleteTask(ctx context.Context, taskId string) (store.Task, error) {
	caller, ok := claims.GetCaller(ctx)
	if !ok {
		return store.Task{}, authentication.ErrMissingIdentity
	}

	task, err := c.Store.GetTask(nil, taskId)
	if err == store.ErrTaskNotFound {
		return store.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return store.Task{}, errors.Wrap(err, "failed to complete task")
	}
	if task.StaffId.String != caller.UserId {
		return store.Task{}, ErrForbidden
	}
	if task.Status.String == store.TASK_COMPLETED {
		return store.Task{}, ErrAlreadyCompleted
	}

	done, err := c.Store.CompleteTask(nil, taskId, time.Now().UTC())
	if err != nil {
		return store.Task{}, errors.Wrap(err, "failed to complete task")
	}
	if !done {
		return store.Task{}, ErrAlreadyCompleted
	}
	c.Logger.Info(ctx, "task completed", "taskId", taskId, "staffId", caller.UserId)

	task, err = c.Store.GetTask(nil, taskId)
	if err != nil {
		return store.Task{}, errors.Wrap(err, "failed to complete task")
	}
	return task, nil
}

func (c *ScheduleService) Staff(ctx context.Context, tasks ...store.Task) (map[string]store.User, error) {
	staffIds := make([]string, 0, len(tasks))
	for _, task := range tasks {
		staffIds = append(staffIds, task.StaffId.String)
	}
	users, err := c.Store.FindUsersByIds(nil, staffIds)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load staff")
	}
	return users, nil
}
