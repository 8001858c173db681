package jobs

import (
	"context"
	"encoding/json"

	"github.com/sri-ravi13/Orphan-Management-System/common/mailer"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/pkg/errors"
)

const (
	TYPE_INQUIRY_CONFIRMATION = "inquiry_confirmation"
)

type InquiryConfirmationHandler struct {
	Mailer mailer.Mailer `inject:""`
}

func (h *InquiryConfirmationHandler) CanHandle(job store.BackgroundJob) bool {
	return job.Type.String == TYPE_INQUIRY_CONFIRMATION
}

func (h *InquiryConfirmationHandler) Name() string {
	return TYPE_INQUIRY_CONFIRMATION
}

func (h *InquiryConfirmationHandler) Handle(ctx context.Context, job store.BackgroundJob) error {
	payload := mailer.InquiryConfirmation{}
	if err := json.Unmarshal([]byte(job.Payload.String), &payload); err != nil {
		return errors.Wrap(err, "failed to decode payload")
	}

	mail, err := payload.Render()
	if err != nil {
		return errors.Wrap(err, "failed to render confirmation mail")
	}
	return h.Mailer.Send(ctx, mail)
}
