package educationalrecords

import (
	"context"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Service interface {
	AddEducationalRecord(ctx context.Context, request EducationalRecordTransport) (store.EducationalRecord, error)
	GetEducationalRecord(ctx context.Context, recordId string) (store.EducationalRecord, map[string]store.Child, error)
	ListEducationalRecords(ctx context.Context, childId string) ([]store.EducationalRecord, map[string]store.Child, error)
	UpdateEducationalRecord(ctx context.Context, request EducationalRecordTransport) (store.EducationalRecord, error)
	DeleteEducationalRecord(ctx context.Context, recordId string) error
}

type EducationalRecordService struct {
	Store interface {
		ChildExists(tx *gorm.DB, childId string) (bool, error)
		FindChildrenByIds(tx *gorm.DB, childIds []string) (map[string]store.Child, error)

		AddEducationalRecord(tx *gorm.DB, record store.EducationalRecord) (store.EducationalRecord, error)
		GetEducationalRecord(tx *gorm.DB, recordId string) (store.EducationalRecord, error)
		ListEducationalRecords(tx *gorm.DB, childId string) ([]store.EducationalRecord, error)
		UpdateEducationalRecord(tx *gorm.DB, record store.EducationalRecord) (store.EducationalRecord, error)
		DeleteEducationalRecord(tx *gorm.DB, recordId string) error
	} `inject:""`
	Logger *log.Logger `inject:""`
}

type createEducationalRecordRequest struct {
	ChildId                   string `json:"child_id" validate:"required,uuid"`
	SchoolName                string `json:"school_name" validate:"required"`
	Grade                     string `json:"grade" validate:"required"`
	Class                     string `json:"class" validate:"required"`
	Performance               string `json:"performance" validate:"required"`
	Attendance                string `json:"attendance" validate:"required"`
	ExtracurricularActivities string `json:"extracurricular_activities" validate:"required"`
}

func (c *EducationalRecordService) AddEducationalRecord(ctx context.Context, request EducationalRecordTransport) (store.EducationalRecord, error) {
	if err := shared.Validate(createEducationalRecordRequest{
		ChildId:                   request.ChildId,
		SchoolName:                request.SchoolName,
		Grade:                     request.Grade,
		Class:                     request.Class,
		Performance:               request.Performance,
		Attendance:                request.Attendance,
		ExtracurricularActivities: request.ExtracurricularActivities,
	}); err != nil {
		return store.EducationalRecord{}, err
	}
	if err := c.checkChild(request.ChildId); err != nil {
		return store.EducationalRecord{}, errors.Wrap(err, "failed to add educational record")
	}

	record, err := c.Store.AddEducationalRecord(nil, transportToStore(request))
	if err != nil {
		return store.EducationalRecord{}, errors.Wrap(err, "failed to add educational record")
	}
	return record, nil
}

func (c *EducationalRecordService) GetEducationalRecord(ctx context.Context, recordId string) (store.EducationalRecord, map[string]store.Child, error) {
	record, err := c.Store.GetEducationalRecord(nil, recordId)
	if err != nil {
		return store.EducationalRecord{}, nil, errors.Wrap(err, "failed to get educational record")
	}
	children, err := c.Store.FindChildrenByIds(nil, []string{record.ChildId.String})
	if err != nil {
		return store.EducationalRecord{}, nil, errors.Wrap(err, "failed to get educational record")
	}
	return record, children, nil
}

func (c *EducationalRecordService) ListEducationalRecords(ctx context.Context, childId string) ([]store.EducationalRecord, map[string]store.Child, error) {
	records, err := c.Store.ListEducationalRecords(nil, childId)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list educational records")
	}
	childIds := make([]string, 0, len(records))
	for _, record := range records {
		childIds = append(childIds, record.ChildId.String)
	}
	children, err := c.Store.FindChildrenByIds(nil, childIds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list educational records")
	}
	return records, children, nil
}

func (c *EducationalRecordService) UpdateEducationalRecord(ctx context.Context, request EducationalRecordTransport) (store.EducationalRecord, error) {
	if request.ChildId != "" {
		if err := shared.ValidateId(request.ChildId); err != nil {
			return store.EducationalRecord{}, shared.NewValidationError("child_id is not a valid identifier")
		}
		if err := c.checkChild(request.ChildId); err != nil {
			return store.EducationalRecord{}, errors.Wrap(err, "failed to update educational record")
		}
	}

	record, err := c.Store.UpdateEducationalRecord(nil, transportToStore(request))
	if err != nil {
		return store.EducationalRecord{}, errors.Wrap(err, "failed to update educational record")
	}
	return record, nil
}

func (c *EducationalRecordService) DeleteEducationalRecord(ctx context.Context, recordId string) error {
	if err := c.Store.DeleteEducationalRecord(nil, recordId); err != nil {
		return errors.Wrap(err, "failed to delete educational record")
	}
	return nil
}

func (c *EducationalRecordService) checkChild(childId string) error {
	exists, err := c.Store.ChildExists(nil, childId)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrChildNotFound
	}
	return nil
}

func transportToStore(request EducationalRecordTransport) store.EducationalRecord {
	return store.EducationalRecord{
		EducationalRecordId:       store.DbNullString(nilIfEmpty(request.Id)),
		ChildId:                   store.DbNullString(nilIfEmpty(request.ChildId)),
		SchoolName:                store.DbNullString(nilIfEmpty(request.SchoolName)),
		Grade:                     store.DbNullString(nilIfEmpty(request.Grade)),
		Class:                     store.DbNullString(nilIfEmpty(request.Class)),
		Performance:               store.DbNullString(nilIfEmpty(request.Performance)),
		Attendance:                store.DbNullString(nilIfEmpty(request.Attendance)),
		ExtracurricularActivities: store.DbNullString(nilIfEmpty(request.ExtracurricularActivities)),
	}
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
