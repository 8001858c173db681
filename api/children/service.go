package children

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/jobs"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/storage"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Service interface {
	AddChild(ctx context.Context, request ChildRequest) (store.Child, error)
	GetChild(ctx context.Context, childId string) (store.Child, error)
	ListChildren(ctx context.Context) ([]store.Child, error)
	UpdateChild(ctx context.Context, request ChildRequest) (store.Child, error)
	DeleteChild(ctx context.Context, childId string) (store.CascadeResult, error)
}

type ChildService struct {
	Store interface {
		AddChild(tx *gorm.DB, child store.Child) (store.Child, error)
		GetChild(tx *gorm.DB, childId string) (store.Child, error)
		ListChildren(tx *gorm.DB) ([]store.Child, error)
		UpdateChild(tx *gorm.DB, child store.Child) (store.Child, error)
		DeleteChildCascade(childId string) (store.CascadeResult, error)
	} `inject:""`
	Jobs interface {
		Enqueue(ctx context.Context, jobType string, payload interface{}) (store.BackgroundJob, error)
	} `inject:""`
	StringGenerator interface {
		GenerateRandomDigits() string
	} `inject:""`
	Storage storage.Storage   `inject:""`
	Config  *shared.AppConfig `inject:""`
	Logger  *log.Logger       `inject:""`
}

// AddChild validates the whole request before anything is written, so a
// rejected request never leaves a file behind.
func (c *ChildService) AddChild(ctx context.Context, request ChildRequest) (store.Child, error) {
	child, err := c.validate(request, true)
	if err != nil {
		return store.Child{}, err
	}

	var prepared *photo
	if request.Photo != nil {
		p, err := preparePhoto(request.Photo, c.Config.PhotoMaxDimension, c.StringGenerator.GenerateRandomDigits())
		if err != nil {
			return store.Child{}, err
		}
		prepared = &p
	}

	child.PhotoUrl = store.NullString(c.Config.DefaultPhotoUrl)
	if prepared != nil {
		url, err := c.Storage.Store(ctx, prepared.name, bytes.NewReader(prepared.content))
		if err != nil {
			return store.Child{}, errors.Wrap(err, "failed to store photo")
		}
		child.PhotoUrl = store.NullString(url)
	}

	created, err := c.Store.AddChild(nil, child)
	if err != nil {
		if prepared != nil {
			c.discard(ctx, child.PhotoUrl.String)
		}
		return store.Child{}, errors.Wrap(err, "failed to add child")
	}
	return created, nil
}

func (c *ChildService) GetChild(ctx context.Context, childId string) (store.Child, error) {
	child, err := c.Store.GetChild(nil, childId)
	if err != nil {
		return store.Child{}, errors.Wrap(err, "failed to get child")
	}
	return child, nil
}

func (c *ChildService) ListChildren(ctx context.Context) ([]store.Child, error) {
	children, err := c.Store.ListChildren(nil)
	if err != nil {
		return make([]store.Child, 0), errors.Wrap(err, "failed to list children")
	}
	return children, nil
}

// UpdateChild writes the fields present in the request. A new photo replaces
// the old one only once the row is updated, the old file is then handed to
// a cleanup job unless it is the default placeholder.
func (c *ChildService) UpdateChild(ctx context.Context, request ChildRequest) (store.Child, error) {
	changes, err := c.validate(request, false)
	if err != nil {
		return store.Child{}, err
	}

	previous, err := c.Store.GetChild(nil, request.Id)
	if err != nil {
		return store.Child{}, errors.Wrap(err, "failed to update child")
	}

	var prepared *photo
	if request.Photo != nil {
		p, err := preparePhoto(request.Photo, c.Config.PhotoMaxDimension, c.StringGenerator.GenerateRandomDigits())
		if err != nil {
			return store.Child{}, err
		}
		prepared = &p
		url, err := c.Storage.Store(ctx, prepared.name, bytes.NewReader(prepared.content))
		if err != nil {
			return store.Child{}, errors.Wrap(err, "failed to store photo")
		}
		changes.PhotoUrl = store.NullString(url)
	}

	changes.ChildId = previous.ChildId
	updated, err := c.Store.UpdateChild(nil, changes)
	if err != nil {
		if prepared != nil {
			c.discard(ctx, changes.PhotoUrl.String)
		}
		return store.Child{}, errors.Wrap(err, "failed to update child")
	}

	if prepared != nil && c.isOwnedPhoto(previous.PhotoUrl.String) && previous.PhotoUrl.String != updated.PhotoUrl.String {
		c.cleanup(ctx, previous.PhotoUrl.String)
	}
	return updated, nil
}

// DeleteChild removes the child and its dependents atomically, then queues
// the deletion of the files they referenced.
func (c *ChildService) DeleteChild(ctx context.Context, childId string) (store.CascadeResult, error) {
	result, err := c.Store.DeleteChildCascade(childId)
	if err != nil {
		return store.CascadeResult{}, errors.Wrap(err, "failed to delete child")
	}

	c.Logger.Info(ctx, "child deleted",
		"childId", childId,
		"healthRecords", result.HealthRecords,
		"educationalRecords", result.EducationalRecords,
		"documents", result.Documents,
		"staffAssignments", result.StaffAssignments,
		"adoptions", result.Adoptions,
	)

	var paths []string
	if c.isOwnedPhoto(result.PhotoUrl) {
		paths = append(paths, result.PhotoUrl)
	}
	paths = append(paths, result.DocumentPaths...)
	c.cleanup(ctx, paths...)

	return result, nil
}

func (c *ChildService) isOwnedPhoto(url string) bool {
	return url != "" && url != c.Config.DefaultPhotoUrl
}

// cleanup hands paths to a background job. The rows are already gone, a
// failure here is logged and left to the job retries.
func (c *ChildService) cleanup(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	job, err := c.Jobs.Enqueue(ctx, jobs.TYPE_FILE_CLEANUP, jobs.FileCleanup{Paths: paths})
	if err != nil {
		c.Logger.Err(ctx, "failed to schedule file cleanup", "paths", paths, "err", err)
		return
	}
	c.Logger.Debug(ctx, "file cleanup scheduled", "jobId", job.JobId.String, "paths", paths)
}

// discard removes a file stored for a request that then failed.
func (c *ChildService) discard(ctx context.Context, url string) {
	if err := c.Storage.Delete(ctx, url); err != nil {
		c.Logger.Warn(ctx, "failed to delete orphan photo", "url", url, "err", err)
	}
}

type createChildRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	DateOfBirth   string `json:"date_of_birth" validate:"required"`
	Gender        string `json:"gender" validate:"required,oneof=Male Female Other"`
	AdmissionDate string `json:"admission_date" validate:"required"`
}

type updateChildRequest struct {
	Gender string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
}

func (c *ChildService) validate(request ChildRequest, create bool) (store.Child, error) {
	var err error
	if create {
		err = shared.Validate(createChildRequest{
			FirstName:     request.FirstName,
			LastName:      request.LastName,
			DateOfBirth:   request.DateOfBirth,
			Gender:        request.Gender,
			AdmissionDate: request.AdmissionDate,
		})
	} else {
		err = shared.Validate(updateChildRequest{Gender: request.Gender})
	}
	if err != nil {
		return store.Child{}, err
	}

	child := store.Child{
		FirstName: store.DbNullString(nilIfEmpty(request.FirstName)),
		LastName:  store.DbNullString(nilIfEmpty(request.LastName)),
		Gender:    store.DbNullString(nilIfEmpty(request.Gender)),
	}
	if child.DateOfBirth, err = shared.ParseDate("date_of_birth", request.DateOfBirth); err != nil {
		return store.Child{}, err
	}
	if child.AdmissionDate, err = shared.ParseDate("admission_date", request.AdmissionDate); err != nil {
		return store.Child{}, err
	}

	if request.Age != "" {
		age, err := strconv.ParseInt(request.Age, 10, 64)
		if err != nil {
			return store.Child{}, shared.NewValidationError("age must be a whole number")
		}
		if age < 0 {
			return store.Child{}, shared.NewValidationError("age must be at least 0")
		}
		child.Age = store.DbNullInt64(&age)
	} else if child.DateOfBirth != nil {
		age := store.AgeAt(*child.DateOfBirth, time.Now().UTC())
		child.Age = store.DbNullInt64(&age)
	}
	return child, nil
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
