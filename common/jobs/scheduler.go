package jobs

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// StartRetryScheduler runs RetryFailed on the configured cron schedule until
// ctx is done. A sweep still running when the next one is due is skipped.
func (r *Runner) StartRetryScheduler(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(r.Config.JobRetrySchedule, func() {
		retried, err := r.RetryFailed(ctx)
		if err != nil {
			r.Logger.Err(ctx, "retry sweep failed", "err", err)
			return
		}
		if retried > 0 {
			r.Logger.Info(ctx, "retry sweep republished jobs", "count", retried)
		}
	}); err != nil {
		return nil, errors.Wrapf(err, "invalid job retry schedule %q", r.Config.JobRetrySchedule)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
