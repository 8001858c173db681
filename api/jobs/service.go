package jobs

import (
	"context"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Service interface {
	GetJob(ctx context.Context, jobId string) (store.BackgroundJob, error)
	ListJobs(ctx context.Context, status string) ([]store.BackgroundJob, error)
}

type JobService struct {
	Store interface {
		GetJob(tx *gorm.DB, jobId string) (store.BackgroundJob, error)
		ListJobs(tx *gorm.DB, status string) ([]store.BackgroundJob, error)
	} `inject:""`
	Logger *log.Logger `inject:""`
}

type listRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=pending running succeeded failed"`
}

func (c *JobService) GetJob(ctx context.Context, jobId string) (store.BackgroundJob, error) {
	job, err := c.Store.GetJob(nil, jobId)
	if err != nil {
		return store.BackgroundJob{}, errors.Wrap(err, "failed to get job")
	}
	return job, nil
}

func (c *JobService) ListJobs(ctx context.Context, status string) ([]store.BackgroundJob, error) {
	if err := shared.Validate(listRequest{Status: status}); err != nil {
		return nil, err
	}
	jobs, err := c.Store.ListJobs(nil, status)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list jobs")
	}
	return jobs, nil
}
