package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrChildNotFound = errors.New("child not found")
)

type Child struct {
	ChildId       sql.NullString `gorm:"primary_key"`
	FirstName     sql.NullString
	LastName      sql.NullString
	DateOfBirth   *time.Time
	Age           sql.NullInt64
	Gender        sql.NullString
	AdmissionDate *time.Time
	PhotoUrl      sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Child) TableName() string {
	return "children"
}

// CascadeResult lists the files left behind by a child deletion. Rows are
// gone once DeleteChildCascade returns, the files are the caller's concern.
type CascadeResult struct {
	PhotoUrl           string
	DocumentPaths      []string
	HealthRecords      int64
	EducationalRecords int64
	Documents          int64
	StaffAssignments   int64
	Adoptions          int64
}

func (s *Store) AddChild(tx *gorm.DB, child Child) (Child, error) {
	db := s.dbOrTx(tx)

	child.ChildId = s.newId()
	if err := db.Create(&child).Error; err != nil {
		return Child{}, err
	}
	return child, nil
}

func (s *Store) GetChild(tx *gorm.DB, childId string) (Child, error) {
	db := s.dbOrTx(tx)

	child := Child{}
	err := db.Where("child_id = ?", childId).First(&child).Error
	if gorm.IsRecordNotFoundError(err) {
		return Child{}, ErrChildNotFound
	}
	return child, err
}

func (s *Store) ChildExists(tx *gorm.DB, childId string) (bool, error) {
	db := s.dbOrTx(tx)

	count := 0
	if err := db.Model(&Child{}).Where("child_id = ?", childId).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListChildren returns the most recently admitted children first.
func (s *Store) ListChildren(tx *gorm.DB) ([]Child, error) {
	db := s.dbOrTx(tx)

	children := []Child{}
	if err := db.Order("admission_date desc").Order("created_at desc").Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

func (s *Store) ListChildrenByName(tx *gorm.DB) ([]Child, error) {
	db := s.dbOrTx(tx)

	children := []Child{}
	if err := db.Order("last_name asc").Order("first_name asc").Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

func (s *Store) FindChildrenByIds(tx *gorm.DB, childIds []string) (map[string]Child, error) {
	db := s.dbOrTx(tx)

	byId := map[string]Child{}
	ids := uniqueStrings(childIds)
	if len(ids) == 0 {
		return byId, nil
	}
	children := []Child{}
	if err := db.Where("child_id IN (?)", ids).Find(&children).Error; err != nil {
		return nil, err
	}
	for _, c := range children {
		byId[c.ChildId.String] = c
	}
	return byId, nil
}

// UpdateChild writes the non blank fields of child and returns the stored row.
func (s *Store) UpdateChild(tx *gorm.DB, child Child) (Child, error) {
	db := s.dbOrTx(tx)

	if _, err := s.GetChild(db, child.ChildId.String); err != nil {
		return Child{}, err
	}
	if err := db.Model(&Child{}).Where("child_id = ?", child.ChildId.String).Updates(child).Error; err != nil {
		return Child{}, err
	}
	return s.GetChild(db, child.ChildId.String)
}

// DeleteChildCascade removes the child and every row that references it in a
// single transaction.
func (s *Store) DeleteChildCascade(childId string) (CascadeResult, error) {
	result := CascadeResult{}
	tx := s.Tx()
	if tx.Error != nil {
		return result, tx.Error
	}

	child, err := s.GetChild(tx, childId)
	if err != nil {
		tx.Rollback()
		return result, err
	}
	result.PhotoUrl = child.PhotoUrl.String

	documents, err := s.ListDocumentsOfChild(tx, childId)
	if err != nil {
		tx.Rollback()
		return result, errors.Wrap(err, "failed to list documents")
	}
	for _, d := range documents {
		result.DocumentPaths = append(result.DocumentPaths, d.Path.String)
	}

	steps := []struct {
		model interface{}
		count *int64
		name  string
	}{
		{&HealthRecord{}, &result.HealthRecords, "health records"},
		{&EducationalRecord{}, &result.EducationalRecords, "educational records"},
		{&Document{}, &result.Documents, "documents"},
		{&StaffAssignment{}, &result.StaffAssignments, "staff assignments"},
		{&Adoption{}, &result.Adoptions, "adoption"},
	}
	for _, step := range steps {
		res := tx.Where("child_id = ?", childId).Delete(step.model)
		if res.Error != nil {
			tx.Rollback()
			return CascadeResult{}, errors.Wrapf(res.Error, "failed to delete %s", step.name)
		}
		*step.count = res.RowsAffected
	}

	if err := tx.Where("child_id = ?", childId).Delete(&Child{}).Error; err != nil {
		tx.Rollback()
		return CascadeResult{}, errors.Wrap(err, "failed to delete child")
	}

	if err := tx.Commit().Error; err != nil {
		return CascadeResult{}, errors.Wrap(err, "failed to commit")
	}
	return result, nil
}

func (s *Store) CountChildren(tx *gorm.DB) (int, error) {
	db := s.dbOrTx(tx)

	count := 0
	err := db.Model(&Child{}).Count(&count).Error
	return count, err
}
