package users

import (
	"context"
	"strings"

	"github.com/sri-ravi13/Orphan-Management-System/api/authentication"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Service interface {
	AddUser(ctx context.Context, request UserTransport) (store.User, error)
	GetUser(ctx context.Context, userId string) (store.User, error)
	ListUsers(ctx context.Context, roles ...string) ([]store.User, error)
	UpdateUser(ctx context.Context, request UserTransport) (store.User, error)
	DeleteUser(ctx context.Context, userId string) error
}

type UserService struct {
	Store interface {
		AddUser(tx *gorm.DB, user store.User) (store.User, error)
		GetUser(tx *gorm.DB, userId string) (store.User, error)
		ListUsers(tx *gorm.DB, roles ...string) ([]store.User, error)
		UpdateUser(tx *gorm.DB, user store.User) (store.User, error)
		DeleteUser(tx *gorm.DB, userId string) error
	} `inject:""`
	Logger *log.Logger `inject:""`
	// Cache is optional, cached callers are dropped on update and delete.
	Cache authentication.IdentityCache
}

func (c *UserService) AddUser(ctx context.Context, request UserTransport) (store.User, error) {
	normalize(&request)
	if err := shared.Validate(createUserRequest{
		Username: request.Username,
		Email:    request.Email,
		Password: request.Password,
		Role:     request.Role,
	}); err != nil {
		return store.User{}, err
	}
	if err := shared.ValidateEmail(request.Email); err != nil {
		return store.User{}, err
	}

	hash, err := authentication.HashPassword(request.Password)
	if err != nil {
		return store.User{}, err
	}
	request.Password = hash

	user, err := c.Store.AddUser(nil, transportToStore(request))
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to create user")
	}
	c.Logger.Info(ctx, "user created", "createdUserId", user.UserId.String, "createdRole", user.Role.String)
	return user, nil
}

func (c *UserService) GetUser(ctx context.Context, userId string) (store.User, error) {
	user, err := c.Store.GetUser(nil, userId)
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to get user")
	}
	return user, nil
}

func (c *UserService) ListUsers(ctx context.Context, roles ...string) ([]store.User, error) {
	users, err := c.Store.ListUsers(nil, roles...)
	if err != nil {
		return make([]store.User, 0), errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (c *UserService) UpdateUser(ctx context.Context, request UserTransport) (store.User, error) {
	normalize(&request)
	if err := shared.Validate(updateUserRequest{
		Username: request.Username,
		Email:    request.Email,
		Role:     request.Role,
	}); err != nil {
		return store.User{}, err
	}
	if err := shared.ValidateEmail(request.Email); err != nil {
		return store.User{}, err
	}

	// a blank password keeps the stored one
	if request.Password != "" {
		hash, err := authentication.HashPassword(request.Password)
		if err != nil {
			return store.User{}, err
		}
		request.Password = hash
	}

	user, err := c.Store.UpdateUser(nil, transportToStore(request))
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to update user")
	}
	c.invalidate(ctx, user.UserId.String)
	return user, nil
}

func (c *UserService) DeleteUser(ctx context.Context, userId string) error {
	if err := c.Store.DeleteUser(nil, userId); err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	c.invalidate(ctx, userId)
	c.Logger.Info(ctx, "user deleted", "deletedUserId", userId)
	return nil
}

func (c *UserService) invalidate(ctx context.Context, userId string) {
	if c.Cache != nil {
		c.Cache.Invalidate(ctx, userId)
	}
}

func normalize(request *UserTransport) {
	request.Username = strings.TrimSpace(request.Username)
	request.Email = strings.ToLower(strings.TrimSpace(request.Email))
	request.Role = strings.TrimSpace(request.Role)
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=Admin Staff Public Medical Educational"`
}

type updateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=Admin Staff Public Medical Educational"`
}

func transportToStore(request UserTransport) store.User {
	user := store.User{
		UserId:   store.DbNullString(nilIfEmpty(request.Id)),
		Username: store.NullString(request.Username),
		Email:    store.NullString(request.Email),
		Role:     store.NullString(request.Role),
	}
	user.Name = store.DbNullString(nilIfEmpty(request.Name))
	user.PhoneNumber = store.DbNullString(nilIfEmpty(request.PhoneNumber))
	user.Gender = store.DbNullString(nilIfEmpty(request.Gender))
	user.Password = store.DbNullString(nilIfEmpty(request.Password))
	return user
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
