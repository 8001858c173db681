package adoptions

import (
	"context"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Service interface {
	AddAdoption(ctx context.Context, request AdoptionTransport) (store.Adoption, error)
	GetAdoption(ctx context.Context, adoptionId string) (store.Adoption, error)
	ListAdoptions(ctx context.Context) ([]store.Adoption, error)
	UpdateAdoption(ctx context.Context, request AdoptionTransport) (store.Adoption, error)
	DeleteAdoption(ctx context.Context, adoptionId string) error
	Children(ctx context.Context, adoptions ...store.Adoption) (map[string]store.Child, error)
}

type AdoptionService struct {
	Store interface {
		ChildExists(tx *gorm.DB, childId string) (bool, error)
		FindChildrenByIds(tx *gorm.DB, childIds []string) (map[string]store.Child, error)

		AddAdoption(tx *gorm.DB, adoption store.Adoption) (store.Adoption, error)
		GetAdoption(tx *gorm.DB, adoptionId string) (store.Adoption, error)
		ListAdoptions(tx *gorm.DB) ([]store.Adoption, error)
		UpdateAdoption(tx *gorm.DB, adoption store.Adoption) (store.Adoption, error)
		DeleteAdoption(tx *gorm.DB, adoptionId string) error
	} `inject:""`
	Logger *log.Logger `inject:""`
}

type createAdoptionRequest struct {
	ChildId        string `json:"child_id" validate:"required,uuid"`
	AdopterName    string `json:"adopter_name" validate:"required"`
	AdopterContact string `json:"adopter_contact" validate:"required"`
	AdopterNid     string `json:"adopter_nid" validate:"required"`
	AdoptionDate   string `json:"adoption_date" validate:"required"`
}

type updateAdoptionRequest struct {
	ChildId string `json:"child_id" validate:"omitempty,uuid"`
}

// AddAdoption records the adoption of a child. A child is adopted at most
// once, the unique index on child_id settles concurrent requests.
func (c *AdoptionService) AddAdoption(ctx context.Context, request AdoptionTransport) (store.Adoption, error) {
	if err := shared.Validate(createAdoptionRequest{
		ChildId:        request.ChildId,
		AdopterName:    request.AdopterName,
		AdopterContact: request.AdopterContact,
		AdopterNid:     request.AdopterNid,
		AdoptionDate:   request.AdoptionDate,
	}); err != nil {
		return store.Adoption{}, err
	}
	adoption, err := transportToStore(request)
	if err != nil {
		return store.Adoption{}, err
	}
	if err := c.checkChild(request.ChildId); err != nil {
		return store.Adoption{}, errors.Wrap(err, "failed to add adoption")
	}

	adoption, err = c.Store.AddAdoption(nil, adoption)
	if err != nil {
		return store.Adoption{}, errors.Wrap(err, "failed to add adoption")
	}
	c.Logger.Info(ctx, "adoption recorded", "adoptionId", adoption.AdoptionId.String, "childId", request.ChildId)
	return adoption, nil
}

func (c *AdoptionService) GetAdoption(ctx context.Context, adoptionId string) (store.Adoption, error) {
	adoption, err := c.Store.GetAdoption(nil, adoptionId)
	if err != nil {
		return store.Adoption{}, errors.Wrap(err, "failed to get adoption")
	}
	return adoption, nil
}

func (c *AdoptionService) ListAdoptions(ctx context.Context) ([]store.Adoption, error) {
	adoptions, err := c.Store.ListAdoptions(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list adoptions")
	}
	return adoptions, nil
}

func (c *AdoptionService) UpdateAdoption(ctx context.Context, request AdoptionTransport) (store.Adoption, error) {
	if err := shared.Validate(updateAdoptionRequest{ChildId: request.ChildId}); err != nil {
		return store.Adoption{}, err
	}
	adoption, err := transportToStore(request)
	if err != nil {
		return store.Adoption{}, err
	}
	if request.ChildId != "" {
		if err := c.checkChild(request.ChildId); err != nil {
			return store.Adoption{}, errors.Wrap(err, "failed to update adoption")
		}
	}

	adoption, err = c.Store.UpdateAdoption(nil, adoption)
	if err != nil {
		return store.Adoption{}, errors.Wrap(err, "failed to update adoption")
	}
	return adoption, nil
}

func (c *AdoptionService) DeleteAdoption(ctx context.Context, adoptionId string) error {
	if err := c.Store.DeleteAdoption(nil, adoptionId); err != nil {
		return errors.Wrap(err, "failed to delete adoption")
	}
	return nil
}

func (c *AdoptionService) Children(ctx context.Context, adoptions ...store.Adoption) (map[string]store.Child, error) {
	childIds := make([]string, 0, len(adoptions))
	for _, adoption := range adoptions {
		childIds = append(childIds, adoption.ChildId.String)
	}
	children, err := c.Store.FindChildrenByIds(nil, childIds)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load children")
	}
	return children, nil
}

func (c *AdoptionService) checkChild(childId string) error {
	exists, err := c.Store.ChildExists(nil, childId)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrChildNotFound
	}
	return nil
}

func transportToStore(request AdoptionTransport) (store.Adoption, error) {
	adoptionDate, err := shared.ParseDate("adoption_date", request.AdoptionDate)
	if err != nil {
		return store.Adoption{}, err
	}
	return store.Adoption{
		AdoptionId:     store.DbNullString(nilIfEmpty(request.Id)),
		ChildId:        store.DbNullString(nilIfEmpty(request.ChildId)),
		AdopterName:    store.DbNullString(nilIfEmpty(request.AdopterName)),
		AdopterContact: store.DbNullString(nilIfEmpty(request.AdopterContact)),
		AdopterNid:     store.DbNullString(nilIfEmpty(request.AdopterNid)),
		AdoptionDate:   adoptionDate,
	}, nil
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
