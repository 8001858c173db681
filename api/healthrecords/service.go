package healthrecords

import (
	"context"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Service interface {
	AddHealthRecord(ctx context.Context, request HealthRecordTransport) (store.HealthRecord, error)
	GetHealthRecord(ctx context.Context, recordId string) (store.HealthRecord, store.Child, error)
	ListHealthRecords(ctx context.Context, childId string) ([]store.HealthRecord, map[string]store.Child, error)
	UpdateHealthRecord(ctx context.Context, request HealthRecordTransport) (store.HealthRecord, error)
	DeleteHealthRecord(ctx context.Context, recordId string) error
}

type HealthRecordService struct {
	Store interface {
		ChildExists(tx *gorm.DB, childId string) (bool, error)
		GetChild(tx *gorm.DB, childId string) (store.Child, error)
		FindChildrenByIds(tx *gorm.DB, childIds []string) (map[string]store.Child, error)

		AddHealthRecord(tx *gorm.DB, record store.HealthRecord) (store.HealthRecord, error)
		GetHealthRecord(tx *gorm.DB, recordId string) (store.HealthRecord, error)
		ListHealthRecords(tx *gorm.DB, childId string) ([]store.HealthRecord, error)
		UpdateHealthRecord(tx *gorm.DB, record store.HealthRecord) (store.HealthRecord, error)
		DeleteHealthRecord(tx *gorm.DB, recordId string) error
	} `inject:""`
	Logger *log.Logger `inject:""`
}

type createHealthRecordRequest struct {
	ChildId         string `json:"child_id" validate:"required,uuid"`
	MedicalHistory  string `json:"medical_history" validate:"required"`
	Vaccinations    string `json:"vaccinations" validate:"required"`
	Treatments      string `json:"treatments" validate:"required"`
	LastCheckup     string `json:"last_checkup" validate:"required"`
	NextAppointment string `json:"next_appointment" validate:"required"`
}

type updateHealthRecordRequest struct {
	ChildId string `json:"child_id" validate:"omitempty,uuid"`
}

func (c *HealthRecordService) AddHealthRecord(ctx context.Context, request HealthRecordTransport) (store.HealthRecord, error) {
	if err := shared.Validate(createHealthRecordRequest{
		ChildId:         request.ChildId,
		MedicalHistory:  request.MedicalHistory,
		Vaccinations:    request.Vaccinations,
		Treatments:      request.Treatments,
		LastCheckup:     stringOf(request.LastCheckup),
		NextAppointment: stringOf(request.NextAppointment),
	}); err != nil {
		return store.HealthRecord{}, err
	}

	record, err := c.transportToStore(request)
	if err != nil {
		return store.HealthRecord{}, err
	}
	if err := c.checkChild(request.ChildId); err != nil {
		return store.HealthRecord{}, errors.Wrap(err, "failed to add health record")
	}

	record, err = c.Store.AddHealthRecord(nil, record)
	if err != nil {
		return store.HealthRecord{}, errors.Wrap(err, "failed to add health record")
	}
	return record, nil
}

func (c *HealthRecordService) GetHealthRecord(ctx context.Context, recordId string) (store.HealthRecord, store.Child, error) {
	record, err := c.Store.GetHealthRecord(nil, recordId)
	if err != nil {
		return store.HealthRecord{}, store.Child{}, errors.Wrap(err, "failed to get health record")
	}
	child, err := c.Store.GetChild(nil, record.ChildId.String)
	if err != nil && err != store.ErrChildNotFound {
		return store.HealthRecord{}, store.Child{}, errors.Wrap(err, "failed to get health record")
	}
	return record, child, nil
}

func (c *HealthRecordService) ListHealthRecords(ctx context.Context, childId string) ([]store.HealthRecord, map[string]store.Child, error) {
	records, err := c.Store.ListHealthRecords(nil, childId)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list health records")
	}
	var childIds []string
	for _, record := range records {
		childIds = append(childIds, record.ChildId.String)
	}
	children, err := c.Store.FindChildrenByIds(nil, childIds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list health records")
	}
	return records, children, nil
}

// UpdateHealthRecord writes the fields present in the request.
func (c *HealthRecordService) UpdateHealthRecord(ctx context.Context, request HealthRecordTransport) (store.HealthRecord, error) {
	if err := shared.Validate(updateHealthRecordRequest{ChildId: request.ChildId}); err != nil {
		return store.HealthRecord{}, err
	}
	record, err := c.transportToStore(request)
	if err != nil {
		return store.HealthRecord{}, err
	}
	if request.ChildId != "" {
		if err := c.checkChild(request.ChildId); err != nil {
			return store.HealthRecord{}, errors.Wrap(err, "failed to update health record")
		}
	}

	record, err = c.Store.UpdateHealthRecord(nil, record)
	if err != nil {
		return store.HealthRecord{}, errors.Wrap(err, "failed to update health record")
	}
	return record, nil
}

func (c *HealthRecordService) DeleteHealthRecord(ctx context.Context, recordId string) error {
	if err := c.Store.DeleteHealthRecord(nil, recordId); err != nil {
		return errors.Wrap(err, "failed to delete health record")
	}
	return nil
}

func (c *HealthRecordService) checkChild(childId string) error {
	exists, err := c.Store.ChildExists(nil, childId)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrChildNotFound
	}
	return nil
}

func (c *HealthRecordService) transportToStore(request HealthRecordTransport) (store.HealthRecord, error) {
	lastCheckup, err := shared.ParseDate("last_checkup", stringOf(request.LastCheckup))
	if err != nil {
		return store.HealthRecord{}, err
	}
	nextAppointment, err := shared.ParseDate("next_appointment", stringOf(request.NextAppointment))
	if err != nil {
		return store.HealthRecord{}, err
	}
	return store.HealthRecord{
		HealthRecordId:  store.DbNullString(nilIfEmpty(request.Id)),
		ChildId:         store.DbNullString(nilIfEmpty(request.ChildId)),
		MedicalHistory:  store.DbNullString(nilIfEmpty(request.MedicalHistory)),
		Vaccinations:    store.DbNullString(nilIfEmpty(request.Vaccinations)),
		Treatments:      store.DbNullString(nilIfEmpty(request.Treatments)),
		LastCheckup:     lastCheckup,
		NextAppointment: nextAppointment,
	}, nil
}

func stringOf(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
