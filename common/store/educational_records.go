package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrEducationalRecordNotFound = errors.New("educational record not found")
)

type EducationalRecord struct {
	EducationalRecordId       sql.NullString `gorm:"primary_key"`
	ChildId                   sql.NullString `gorm:"index"`
	SchoolName                sql.NullString
	Grade                     sql.NullString
	Class                     sql.NullString
	Performance               sql.NullString
	Attendance                sql.NullString
	ExtracurricularActivities sql.NullString
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (EducationalRecord) TableName() string {
	return "educational_records"
}

func (s *Store) AddEducationalRecord(tx *gorm.DB, record EducationalRecord) (EducationalRecord, error) {
	db := s.dbOrTx(tx)

	record.EducationalRecordId = s.newId()
	if err := db.Create(&record).Error; err != nil {
		return EducationalRecord{}, err
	}
	return record, nil
}

func (s *Store) GetEducationalRecord(tx *gorm.DB, recordId string) (EducationalRecord, error) {
	db := s.dbOrTx(tx)

	record := EducationalRecord{}
	err := db.Where("educational_record_id = ?", recordId).First(&record).Error
	if gorm.IsRecordNotFoundError(err) {
		return EducationalRecord{}, ErrEducationalRecordNotFound
	}
	return record, err
}

func (s *Store) ListEducationalRecords(tx *gorm.DB, childId string) ([]EducationalRecord, error) {
	db := s.dbOrTx(tx)

	records := []EducationalRecord{}
	query := db.Order("created_at desc")
	if childId != "" {
		query = query.Where("child_id = ?", childId)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) UpdateEducationalRecord(tx *gorm.DB, record EducationalRecord) (EducationalRecord, error) {
	db := s.dbOrTx(tx)

	if _, err := s.GetEducationalRecord(db, record.EducationalRecordId.String); err != nil {
		return EducationalRecord{}, err
	}
	if err := db.Model(&EducationalRecord{}).Where("educational_record_id = ?", record.EducationalRecordId.String).Updates(record).Error; err != nil {
		return EducationalRecord{}, err
	}
	return s.GetEducationalRecord(db, record.EducationalRecordId.String)
}

func (s *Store) DeleteEducationalRecord(tx *gorm.DB, recordId string) error {
	db := s.dbOrTx(tx)

	if _, err := s.GetEducationalRecord(db, recordId); err != nil {
		return err
	}
	return db.Where("educational_record_id = ?", recordId).Delete(&EducationalRecord{}).Error
}
