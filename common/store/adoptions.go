package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrAdoptionNotFound = errors.New("adoption not found")
	ErrAlreadyAdopted   = errors.New("This child has already been recorded as adopted.")
)

type Adoption struct {
	AdoptionId     sql.NullString `gorm:"primary_key"`
	ChildId        sql.NullString `gorm:"unique_index"`
	AdopterName    sql.NullString
	AdopterContact sql.NullString
	AdopterNid     sql.NullString
	AdoptionDate   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Adoption) TableName() string {
	return "adoptions"
}

func (s *Store) AddAdoption(tx *gorm.DB, adoption Adoption) (Adoption, error) {
	db := s.dbOrTx(tx)

	adoption.AdoptionId = s.newId()
	if err := db.Create(&adoption).Error; err != nil {
		if IsUniqueViolation(err) {
			return Adoption{}, ErrAlreadyAdopted
		}
		return Adoption{}, err
	}
	return adoption, nil
}

func (s *Store) GetAdoption(tx *gorm.DB, adoptionId string) (Adoption, error) {
	db := s.dbOrTx(tx)

	adoption := Adoption{}
	err := db.Where("adoption_id = ?", adoptionId).First(&adoption).Error
	if gorm.IsRecordNotFoundError(err) {
		return Adoption{}, ErrAdoptionNotFound
	}
	return adoption, err
}

func (s *Store) ListAdoptions(tx *gorm.DB) ([]Adoption, error) {
	db := s.dbOrTx(tx)

	adoptions := []Adoption{}
	if err := db.Order("adoption_date desc").Find(&adoptions).Error; err != nil {
		return nil, err
	}
	return adoptions, nil
}

func (s *Store) UpdateAdoption(tx *gorm.DB, adoption Adoption) (Adoption, error) {
	db := s.dbOrTx(tx)

	if _, err := s.GetAdoption(db, adoption.AdoptionId.String); err != nil {
		return Adoption{}, err
	}
	if err := db.Model(&Adoption{}).Where("adoption_id = ?", adoption.AdoptionId.String).Updates(adoption).Error; err != nil {
		if IsUniqueViolation(err) {
			return Adoption{}, ErrAlreadyAdopted
		}
		return Adoption{}, err
	}
	return s.GetAdoption(db, adoption.AdoptionId.String)
}

func (s *Store) DeleteAdoption(tx *gorm.DB, adoptionId string) error {
	db := s.dbOrTx(tx)

	if _, err := s.GetAdoption(db, adoptionId); err != nil {
		return err
	}
	return db.Where("adoption_id = ?", adoptionId).Delete(&Adoption{}).Error
}
