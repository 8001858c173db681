package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrStaffAssignmentNotFound  = errors.New("staff assignment not found")
	ErrDuplicateStaffAssignment = errors.New("this staff member is already assigned to this child")
)

type StaffAssignment struct {
	StaffAssignmentId sql.NullString `gorm:"primary_key"`
	StaffId           sql.NullString `gorm:"unique_index:idx_staff_assignments_staff_child"`
	ChildId           sql.NullString `gorm:"unique_index:idx_staff_assignments_staff_child"`
	AssignedAt        time.Time
}

func (StaffAssignment) TableName() string {
	return "staff_assignments"
}

func (s *Store) AddStaffAssignment(tx *gorm.DB, assignment StaffAssignment) (StaffAssignment, error) {
	db := s.dbOrTx(tx)

	assignment.StaffAssignmentId = s.newId()
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	if err := db.Create(&assignment).Error; err != nil {
		if IsUniqueViolation(err) {
			return StaffAssignment{}, ErrDuplicateStaffAssignment
		}
		return StaffAssignment{}, err
	}
	return assignment, nil
}

func (s *Store) GetStaffAssignment(tx *gorm.DB, assignmentId string) (StaffAssignment, error) {
	db := s.dbOrTx(tx)

	assignment := StaffAssignment{}
	err := db.Where("staff_assignment_id = ?", assignmentId).First(&assignment).Error
	if gorm.IsRecordNotFoundError(err) {
		return StaffAssignment{}, ErrStaffAssignmentNotFound
	}
	return assignment, err
}

// ListStaffAssignments returns every assignment, or only the ones of staffId.
func (s *Store) ListStaffAssignments(tx *gorm.DB, staffId string) ([]StaffAssignment, error) {
	db := s.dbOrTx(tx)

	assignments := []StaffAssignment{}
	query := db.Order("assigned_at desc")
	if staffId != "" {
		query = query.Where("staff_id = ?", staffId)
	}
	if err := query.Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *Store) UpdateStaffAssignment(tx *gorm.DB, assignment StaffAssignment) (StaffAssignment, error) {
	db := s.dbOrTx(tx)

	if _, err := s.GetStaffAssignment(db, assignment.StaffAssignmentId.String); err != nil {
		return StaffAssignment{}, err
	}
	if err := db.Model(&StaffAssignment{}).Where("staff_assignment_id = ?", assignment.StaffAssignmentId.String).Updates(assignment).Error; err != nil {
		if IsUniqueViolation(err) {
			return StaffAssignment{}, ErrDuplicateStaffAssignment
		}
		return StaffAssignment{}, err
	}
	return s.GetStaffAssignment(db, assignment.StaffAssignmentId.String)
}

func (s *Store) DeleteStaffAssignment(tx *gorm.DB, assignmentId string) error {
	db := s.dbOrTx(tx)

	if _, err := s.GetStaffAssignment(db, assignmentId); err != nil {
		return err
	}
	return db.Where("staff_assignment_id = ?", assignmentId).Delete(&StaffAssignment{}).Error
}
