package staffassignments

import (
	"context"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingIds      = errors.New("Child ID and Staff ID are required")
	ErrAlreadyAssigned = errors.New("This staff member may already be assigned to this child.")
)

type Service interface {
	AddStaffAssignment(ctx context.Context, request StaffAssignmentTransport) (store.StaffAssignment, error)
	GetStaffAssignment(ctx context.Context, assignmentId string) (store.StaffAssignment, error)
	ListStaffAssignments(ctx context.Context, staffId string) ([]store.StaffAssignment, error)
	UpdateStaffAssignment(ctx context.Context, request StaffAssignmentTransport) (store.StaffAssignment, error)
	DeleteStaffAssignment(ctx context.Context, assignmentId string) error
	Summaries(ctx context.Context, assignments ...store.StaffAssignment) (map[string]store.User, map[string]store.Child, error)
}

type StaffAssignmentService struct {
	Store interface {
		GetUser(tx *gorm.DB, userId string) (store.User, error)
		ChildExists(tx *gorm.DB, childId string) (bool, error)
		FindUsersByIds(tx *gorm.DB, userIds []string) (map[string]store.User, error)
		FindChildrenByIds(tx *gorm.DB, childIds []string) (map[string]store.Child, error)

		AddStaffAssignment(tx *gorm.DB, assignment store.StaffAssignment) (store.StaffAssignment, error)
		GetStaffAssignment(tx *gorm.DB, assignmentId string) (store.StaffAssignment, error)
		ListStaffAssignments(tx *gorm.DB, staffId string) ([]store.StaffAssignment, error)
		UpdateStaffAssignment(tx *gorm.DB, assignment store.StaffAssignment) (store.StaffAssignment, error)
		DeleteStaffAssignment(tx *gorm.DB, assignmentId string) error
	} `inject:""`
	Logger *log.Logger `inject:""`
}

// AddStaffAssignment links a staff member to a child. A pair can only be
// assigned once, the unique index settles concurrent requests.
func (c *StaffAssignmentService) AddStaffAssignment(ctx context.Context, request StaffAssignmentTransport) (store.StaffAssignment, error) {
	if err := c.validate(request); err != nil {
		return store.StaffAssignment{}, errors.Wrap(err, "failed to add staff assignment")
	}

	assignment, err := c.Store.AddStaffAssignment(nil, store.StaffAssignment{
		StaffId: store.NullString(request.StaffId),
		ChildId: store.NullString(request.ChildId),
	})
	if err == store.ErrDuplicateStaffAssignment {
		return store.StaffAssignment{}, ErrAlreadyAssigned
	}
	if err != nil {
		return store.StaffAssignment{}, errors.Wrap(err, "failed to add staff assignment")
	}
	return assignment, nil
}

func (c *StaffAssignmentService) GetStaffAssignment(ctx context.Context, assignmentId string) (store.StaffAssignment, error) {
	assignment, err := c.Store.GetStaffAssignment(nil, assignmentId)
	if err != nil {
		return store.StaffAssignment{}, errors.Wrap(err, "failed to get staff assignment")
	}
	return assignment, nil
}

func (c *StaffAssignmentService) ListStaffAssignments(ctx context.Context, staffId string) ([]store.StaffAssignment, error) {
	assignments, err := c.Store.ListStaffAssignments(nil, staffId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list staff assignments")
	}
	return assignments, nil
}

func (c *StaffAssignmentService) UpdateStaffAssignment(ctx context.Context, request StaffAssignmentTransport) (store.StaffAssignment, error) {
	if err := c.validate(request); err != nil {
		return store.StaffAssignment{}, errors.Wrap(err, "failed to update staff assignment")
	}

	assignment, err := c.Store.UpdateStaffAssignment(nil, store.StaffAssignment{
		StaffAssignmentId: store.NullString(request.Id),
		StaffId:           store.NullString(request.StaffId),
		ChildId:           store.NullString(request.ChildId),
	})
	if err == store.ErrDuplicateStaffAssignment {
		return store.StaffAssignment{}, ErrAlreadyAssigned
	}
	if err != nil {
		return store.StaffAssignment{}, errors.Wrap(err, "failed to update staff assignment")
	}
	return assignment, nil
}

func (c *StaffAssignmentService) DeleteStaffAssignment(ctx context.Context, assignmentId string) error {
	if err := c.Store.DeleteStaffAssignment(nil, assignmentId); err != nil {
		return errors.Wrap(err, "failed to delete staff assignment")
	}
	return nil
}

// Summaries loads the staff members and children referenced by assignments.
func (c *StaffAssignmentService) Summaries(ctx context.Context, assignments ...store.StaffAssignment) (map[string]store.User, map[string]store.Child, error) {
	staffIds := make([]string, 0, len(assignments))
	childIds := make([]string, 0, len(assignments))
	for _, assignment := range assignments {
		staffIds = append(staffIds, assignment.StaffId.String)
		childIds = append(childIds, assignment.ChildId.String)
	}
	staff, err := c.Store.FindUsersByIds(nil, staffIds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load staff")
	}
	children, err := c.Store.FindChildrenByIds(nil, childIds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load children")
	}
	return staff, children, nil
}

func (c *StaffAssignmentService) validate(request StaffAssignmentTransport) error {
	if request.ChildId == "" || request.StaffId == "" {
		return ErrMissingIds
	}
	if shared.ValidateId(request.ChildId) != nil {
		return shared.NewValidationError("child_id is not a valid identifier")
	}
	if shared.ValidateId(request.StaffId) != nil {
		return shared.NewValidationError("staff_id is not a valid identifier")
	}

	if _, err := c.Store.GetUser(nil, request.StaffId); err != nil {
		return err
	}
	exists, err := c.Store.ChildExists(nil, request.ChildId)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrChildNotFound
	}
	return nil
}
