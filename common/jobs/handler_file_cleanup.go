package jobs

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/storage"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/pkg/errors"
)

const (
	TYPE_FILE_CLEANUP = "file_cleanup"
)

type FileCleanup struct {
	Paths []string `json:"paths"`
}

// FileCleanupHandler deletes files whose owning record is gone. A file that
// is already missing counts as deleted.
type FileCleanupHandler struct {
	Storage storage.Storage `inject:""`
	Logger  *log.Logger     `inject:""`
}

func (h *FileCleanupHandler) CanHandle(job store.BackgroundJob) bool {
	return job.Type.String == TYPE_FILE_CLEANUP
}

func (h *FileCleanupHandler) Name() string {
	return TYPE_FILE_CLEANUP
}

func (h *FileCleanupHandler) Handle(ctx context.Context, job store.BackgroundJob) error {
	payload := FileCleanup{}
	if err := json.Unmarshal([]byte(job.Payload.String), &payload); err != nil {
		return errors.Wrap(err, "failed to decode payload")
	}

	var failed []string
	for _, path := range payload.Paths {
		if path == "" {
			continue
		}
		err := h.Storage.Delete(ctx, path)
		switch {
		case err == nil:
			h.Logger.Info(ctx, "file deleted", "path", path, "jobId", job.JobId.String)
		case err == storage.ErrNotFound:
			h.Logger.Warn(ctx, "file already gone", "path", path, "jobId", job.JobId.String)
		default:
			failed = append(failed, path+": "+err.Error())
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("failed to delete %d file(s): %s", len(failed), strings.Join(failed, "; "))
	}
	return nil
}
