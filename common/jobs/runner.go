package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/messaging"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrNoHandler  = errors.New("no handler registered for this job type")
	ErrNotClaimed = errors.New("job is already running or done")
)

type Handler interface {
	CanHandle(job store.BackgroundJob) bool
	Handle(ctx context.Context, job store.BackgroundJob) error
	Name() string
}

type Queue interface {
	Publish(ctx context.Context, message messaging.Message) error
	Subscribe(ctx context.Context, callback messaging.SubscribeCallbackFunc) error
}

type jobMessage struct {
	JobId string `json:"jobId"`
}

// Runner persists background jobs, dispatches them to their handler and
// records each outcome in the background_jobs table.
type Runner struct {
	Store interface {
		AddJob(tx *gorm.DB, job store.BackgroundJob) (store.BackgroundJob, error)
		GetJob(tx *gorm.DB, jobId string) (store.BackgroundJob, error)
		MarkJobRunning(tx *gorm.DB, jobId string, staleBefore time.Time) (bool, error)
		MarkJobSucceeded(tx *gorm.DB, jobId string) error
		MarkJobFailed(tx *gorm.DB, jobId string, cause error) error
		ListRetryableJobs(tx *gorm.DB, maxAttempts int, staleBefore time.Time) ([]store.BackgroundJob, error)
	} `inject:""`
	Queue    Queue             `inject:""`
	Config   *shared.AppConfig `inject:""`
	Logger   *log.Logger       `inject:""`
	Handlers []Handler
}

// Create persists a pending job without publishing it.
func (r *Runner) Create(ctx context.Context, jobType string, payload interface{}) (store.BackgroundJob, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return store.BackgroundJob{}, errors.Wrap(err, "failed to encode job payload")
	}
	job, err := r.Store.AddJob(nil, store.BackgroundJob{
		Type:    store.NullString(jobType),
		Payload: store.NullString(string(b)),
	})
	if err != nil {
		return store.BackgroundJob{}, errors.Wrap(err, "failed to create job")
	}
	return job, nil
}

// Enqueue persists a job and hands it to the queue. A job that cannot be
// published is marked failed so the retry sweep picks it up.
func (r *Runner) Enqueue(ctx context.Context, jobType string, payload interface{}) (store.BackgroundJob, error) {
	job, err := r.Create(ctx, jobType, payload)
	if err != nil {
		return store.BackgroundJob{}, err
	}
	if err := r.publish(ctx, job.JobId.String); err != nil {
		r.Logger.Warn(ctx, "failed to publish job", "jobId", job.JobId.String, "type", jobType, "err", err)
		if markErr := r.Store.MarkJobFailed(nil, job.JobId.String, err); markErr != nil {
			return job, errors.Wrap(markErr, "failed to mark job as failed")
		}
	}
	return job, nil
}

// RunNow executes a job inline and returns the handler error, if any.
func (r *Runner) RunNow(ctx context.Context, job store.BackgroundJob) error {
	return r.execute(ctx, job.JobId.String)
}

func (r *Runner) publish(ctx context.Context, jobId string) error {
	b, _ := json.Marshal(jobMessage{JobId: jobId})
	return r.Queue.Publish(ctx, messaging.Message{Data: b})
}

func (r *Runner) execute(ctx context.Context, jobId string) error {
	claimed, err := r.Store.MarkJobRunning(nil, jobId, r.staleBefore())
	if err != nil {
		return errors.Wrap(err, "failed to claim job")
	}
	if !claimed {
		return ErrNotClaimed
	}

	job, err := r.Store.GetJob(nil, jobId)
	if err != nil {
		return errors.Wrap(err, "failed to get job")
	}

	handler := r.handlerFor(job)
	if handler == nil {
		r.Store.MarkJobFailed(nil, jobId, ErrNoHandler)
		return ErrNoHandler
	}

	start := time.Now()
	if err := handler.Handle(ctx, job); err != nil {
		r.Logger.Err(ctx, "job failed", "jobId", jobId, "handler", handler.Name(), "attempt", job.Attempts, "err", err)
		if markErr := r.Store.MarkJobFailed(nil, jobId, err); markErr != nil {
			r.Logger.Err(ctx, "failed to record job failure", "jobId", jobId, "err", markErr)
		}
		return err
	}

	r.Logger.Info(ctx, "job succeeded", "jobId", jobId, "handler", handler.Name(), "duration", time.Since(start).String())
	if err := r.Store.MarkJobSucceeded(nil, jobId); err != nil {
		return errors.Wrap(err, "failed to record job success")
	}
	return nil
}

func (r *Runner) handlerFor(job store.BackgroundJob) Handler {
	for _, handler := range r.Handlers {
		if handler.CanHandle(job) {
			return handler
		}
	}
	return nil
}

// Start consumes the queue until ctx is done, resubscribing after failures.
func (r *Runner) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			r.Logger.Info(ctx, "starting job consumer")
			if err := r.Queue.Subscribe(ctx, r.consume); err != nil {
				r.Logger.Warn(ctx, "job consumer stopped", "err", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (r *Runner) consume(ctx context.Context, msg messaging.Message) {
	msg.Ack()

	m := jobMessage{}
	if err := json.Unmarshal(msg.Data, &m); err != nil || m.JobId == "" {
		r.Logger.Err(ctx, "failed to unmarshal the message data", "err", err, "messageId", msg.ID)
		return
	}
	if err := r.execute(ctx, m.JobId); err == ErrNotClaimed {
		r.Logger.Debug(ctx, "job skipped", "jobId", m.JobId, "messageId", msg.ID)
	}
}

// RetryFailed republishes jobs that still have attempts left and either
// failed or were lost by their queue or worker.
func (r *Runner) RetryFailed(ctx context.Context) (int, error) {
	jobs, err := r.Store.ListRetryableJobs(nil, r.Config.JobMaxAttempts, r.staleBefore())
	if err != nil {
		return 0, errors.Wrap(err, "failed to list retryable jobs")
	}
	retried := 0
	for _, job := range jobs {
		if err := r.publish(ctx, job.JobId.String); err != nil {
			r.Logger.Warn(ctx, "failed to republish job", "jobId", job.JobId.String, "err", err)
			continue
		}
		retried++
	}
	return retried, nil
}

// staleBefore is the zero time when JobStaleAfter is unset.
func (r *Runner) staleBefore() time.Time {
	if r.Config.JobStaleAfter <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().Add(-r.Config.JobStaleAfter)
}
