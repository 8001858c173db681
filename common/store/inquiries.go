package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

const (
	INQUIRY_NEW       = "New"
	INQUIRY_RESPONDED = "Responded"
	INQUIRY_CLOSED    = "Closed"
)

var (
	ErrInquiryNotFound = errors.New("inquiry not found")
)

type Inquiry struct {
	InquiryId  sql.NullString `gorm:"primary_key"`
	Name       sql.NullString
	Email      sql.NullString
	Subject    sql.NullString
	Message    sql.NullString `gorm:"type:text"`
	ChildId    sql.NullString
	Status     sql.NullString
	ReceivedAt time.Time
}

func (Inquiry) TableName() string {
	return "inquiries"
}

func (s *Store) AddInquiry(tx *gorm.DB, inquiry Inquiry) (Inquiry, error) {
	db := s.dbOrTx(tx)

	inquiry.InquiryId = s.newId()
	inquiry.Email = normalizeEmail(inquiry.Email)
	if !inquiry.Status.Valid {
		inquiry.Status = NullString(INQUIRY_NEW)
	}
	if inquiry.ReceivedAt.IsZero() {
		inquiry.ReceivedAt = time.Now().UTC()
	}
	if err := db.Create(&inquiry).Error; err != nil {
		return Inquiry{}, err
	}
	return inquiry, nil
}

func (s *Store) GetInquiry(tx *gorm.DB, inquiryId string) (Inquiry, error) {
	db := s.dbOrTx(tx)

	inquiry := Inquiry{}
	err := db.Where("inquiry_id = ?", inquiryId).First(&inquiry).Error
	if gorm.IsRecordNotFoundError(err) {
		return Inquiry{}, ErrInquiryNotFound
	}
	return inquiry, err
}

func (s *Store) ListInquiries(tx *gorm.DB) ([]Inquiry, error) {
	db := s.dbOrTx(tx)

	inquiries := []Inquiry{}
	if err := db.Order("received_at desc").Find(&inquiries).Error; err != nil {
		return nil, err
	}
	return inquiries, nil
}

func (s *Store) UpdateInquiryStatus(tx *gorm.DB, inquiryId, status string) (Inquiry, error) {
	db := s.dbOrTx(tx)

	if _, err := s.GetInquiry(db, inquiryId); err != nil {
		return Inquiry{}, err
	}
	if err := db.Model(&Inquiry{}).Where("inquiry_id = ?", inquiryId).Update("status", status).Error; err != nil {
		return Inquiry{}, err
	}
	return s.GetInquiry(db, inquiryId)
}
