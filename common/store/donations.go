package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

const (
	DONATION_COMPLETED = "Completed"
	DONATION_PENDING   = "Pending"
	DONATION_FAILED    = "Failed"
	DONATION_REFUNDED  = "Refunded"
)

var (
	ErrDuplicateTransaction = errors.New("transaction id already recorded")
)

type Donation struct {
	DonationId    sql.NullString `gorm:"primary_key"`
	DonorName     sql.NullString
	DonorEmail    sql.NullString
	Amount        float64
	Frequency     sql.NullString
	Status        sql.NullString
	TransactionId sql.NullString `gorm:"unique_index"`
	DonationDate  time.Time
}

func (Donation) TableName() string {
	return "donations"
}

func (s *Store) AddDonation(tx *gorm.DB, donation Donation) (Donation, error) {
	db := s.dbOrTx(tx)

	donation.DonationId = s.newId()
	donation.DonorEmail = normalizeEmail(donation.DonorEmail)
	if donation.DonationDate.IsZero() {
		donation.DonationDate = time.Now().UTC()
	}
	if err := db.Create(&donation).Error; err != nil {
		if IsUniqueViolation(err) {
			return Donation{}, ErrDuplicateTransaction
		}
		return Donation{}, err
	}
	return donation, nil
}

func (s *Store) ListDonations(tx *gorm.DB) ([]Donation, error) {
	db := s.dbOrTx(tx)

	donations := []Donation{}
	if err := db.Order("donation_date desc").Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}
