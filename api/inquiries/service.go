package inquiries

import (
	"context"
	"strings"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/jobs"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/mailer"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingFields = errors.New("Name, email, subject, and message are required.")
)

type Service interface {
	SubmitInquiry(ctx context.Context, request InquiryTransport) (store.Inquiry, bool, error)
	ListInquiries(ctx context.Context) ([]store.Inquiry, map[string]store.Child, error)
	UpdateStatus(ctx context.Context, inquiryId, status string) (store.Inquiry, error)
}

type InquiryService struct {
	Store interface {
		GetChild(tx *gorm.DB, childId string) (store.Child, error)
		FindChildrenByIds(tx *gorm.DB, childIds []string) (map[string]store.Child, error)

		AddInquiry(tx *gorm.DB, inquiry store.Inquiry) (store.Inquiry, error)
		ListInquiries(tx *gorm.DB) ([]store.Inquiry, error)
		UpdateInquiryStatus(tx *gorm.DB, inquiryId, status string) (store.Inquiry, error)
	} `inject:""`
	Jobs interface {
		Create(ctx context.Context, jobType string, payload interface{}) (store.BackgroundJob, error)
		RunNow(ctx context.Context, job store.BackgroundJob) error
	} `inject:""`
	Logger *log.Logger `inject:""`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=New Responded Closed"`
}

// SubmitInquiry stores the inquiry, then sends the confirmation mail through
// a background job run inline. The boolean reports whether the mail went
// out. A failed mail never fails the inquiry: the job stays failed and is
// retried later.
func (c *InquiryService) SubmitInquiry(ctx context.Context, request InquiryTransport) (store.Inquiry, bool, error) {
	name := strings.TrimSpace(request.Name)
	email := strings.TrimSpace(request.Email)
	subject := strings.TrimSpace(request.Subject)
	message := strings.TrimSpace(request.Message)
	if name == "" || email == "" || subject == "" || message == "" {
		return store.Inquiry{}, false, ErrMissingFields
	}
	if err := shared.ValidateEmail(email); err != nil {
		return store.Inquiry{}, false, err
	}

	inquiry := store.Inquiry{
		Name:    store.NullString(name),
		Email:   store.NullString(email),
		Subject: store.NullString(subject),
		Message: store.NullString(message),
	}
	child, linked, err := c.linkedChild(ctx, strings.TrimSpace(request.ChildId))
	if err != nil {
		return store.Inquiry{}, false, errors.Wrap(err, "failed to submit inquiry")
	}
	if linked {
		inquiry.ChildId = child.ChildId
	}

	inquiry, err = c.Store.AddInquiry(nil, inquiry)
	if err != nil {
		return store.Inquiry{}, false, errors.Wrap(err, "failed to submit inquiry")
	}
	c.Logger.Info(ctx, "inquiry saved", "inquiryId", inquiry.InquiryId.String)

	confirmation := mailer.InquiryConfirmation{
		Name:        name,
		Email:       inquiry.Email.String,
		Subject:     subject,
		Message:     message,
		ChildLinked: linked,
	}
	if linked {
		confirmation.ChildFirstName = child.FirstName.String
	}
	job, err := c.Jobs.Create(ctx, jobs.TYPE_INQUIRY_CONFIRMATION, confirmation)
	if err != nil {
		c.Logger.Err(ctx, "failed to create confirmation job", "inquiryId", inquiry.InquiryId.String, "err", err)
		return inquiry, false, nil
	}
	if err := c.Jobs.RunNow(ctx, job); err != nil {
		c.Logger.Warn(ctx, "confirmation mail not sent", "inquiryId", inquiry.InquiryId.String, "jobId", job.JobId.String, "err", err)
		return inquiry, false, nil
	}
	return inquiry, true, nil
}

// linkedChild resolves the optional child of an inquiry. A malformed or
// unknown id is not an error: the inquiry is kept without a link.
func (c *InquiryService) linkedChild(ctx context.Context, childId string) (store.Child, bool, error) {
	if childId == "" {
		return store.Child{}, false, nil
	}
	if err := shared.ValidateId(childId); err != nil {
		c.Logger.Warn(ctx, "inquiry with invalid child id", "childId", childId)
		return store.Child{}, false, nil
	}
	child, err := c.Store.GetChild(nil, childId)
	if err == store.ErrChildNotFound {
		c.Logger.Warn(ctx, "inquiry for unknown child", "childId", childId)
		return store.Child{}, false, nil
	}
	if err != nil {
		return store.Child{}, false, err
	}
	return child, true, nil
}

func (c *InquiryService) ListInquiries(ctx context.Context) ([]store.Inquiry, map[string]store.Child, error) {
	inquiries, err := c.Store.ListInquiries(nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list inquiries")
	}
	childIds := make([]string, 0, len(inquiries))
	for _, inquiry := range inquiries {
		childIds = append(childIds, inquiry.ChildId.String)
	}
	children, err := c.Store.FindChildrenByIds(nil, childIds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list inquiries")
	}
	return inquiries, children, nil
}

func (c *InquiryService) UpdateStatus(ctx context.Context, inquiryId, status string) (store.Inquiry, error) {
	if err := shared.Validate(statusRequest{Status: status}); err != nil {
		return store.Inquiry{}, err
	}
	inquiry, err := c.Store.UpdateInquiryStatus(nil, inquiryId, status)
	if err != nil {
		return store.Inquiry{}, errors.Wrap(err, "failed to update inquiry")
	}
	return inquiry, nil
}
