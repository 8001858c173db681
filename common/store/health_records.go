package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrHealthRecordNotFound = errors.New("health record not found")
)

type HealthRecord struct {
	HealthRecordId  sql.NullString `gorm:"primary_key"`
	ChildId         sql.NullString `gorm:"index"`
	MedicalHistory  sql.NullString
	Vaccinations    sql.NullString
	Treatments      sql.NullString
	LastCheckup     *time.Time
	NextAppointment *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (HealthRecord) TableName() string {
	return "health_records"
}

func (s *Store) AddHealthRecord(tx *gorm.DB, record HealthRecord) (HealthRecord, error) {
	db := s.dbOrTx(tx)

	record.HealthRecordId = s.newId()
	if err := db.Create(&record).Error; err != nil {
		return HealthRecord{}, err
	}
	return record, nil
}

func (s *Store) GetHealthRecord(tx *gorm.DB, recordId string) (HealthRecord, error) {
	db := s.dbOrTx(tx)

	record := HealthRecord{}
	err := db.Where("health_record_id = ?", recordId).First(&record).Error
	if gorm.IsRecordNotFoundError(err) {
		return HealthRecord{}, ErrHealthRecordNotFound
	}
	return record, err
}

// ListHealthRecords returns every record, or only the ones of childId.
func (s *Store) ListHealthRecords(tx *gorm.DB, childId string) ([]HealthRecord, error) {
	db := s.dbOrTx(tx)

	records := []HealthRecord{}
	query := db.Order("last_checkup desc")
	if childId != "" {
		query = query.Where("child_id = ?", childId)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) UpdateHealthRecord(tx *gorm.DB, record HealthRecord) (HealthRecord, error) {
	db := s.dbOrTx(tx)

	if _, err := s.GetHealthRecord(db, record.HealthRecordId.String); err != nil {
		return HealthRecord{}, err
	}
	if err := db.Model(&HealthRecord{}).Where("health_record_id = ?", record.HealthRecordId.String).Updates(record).Error; err != nil {
		return HealthRecord{}, err
	}
	return s.GetHealthRecord(db, record.HealthRecordId.String)
}

func (s *Store) DeleteHealthRecord(tx *gorm.DB, recordId string) error {
	db := s.dbOrTx(tx)

	if _, err := s.GetHealthRecord(db, recordId); err != nil {
		return err
	}
	return db.Where("health_record_id = ?", recordId).Delete(&HealthRecord{}).Error
}
