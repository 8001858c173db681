package authentication

import (
	"context"
	"strings"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/roles"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrUserAlreadyExists  = errors.New("Email or Username already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)

type Service interface {
	Register(ctx context.Context, request RegisterTransport) (store.User, error)
	Login(ctx context.Context, request LoginTransport) (store.User, error)
}

type AuthenticationService struct {
	Store interface {
		AddUser(tx *gorm.DB, user store.User) (store.User, error)
		UserExists(tx *gorm.DB, username, email, excludeUserId string) (bool, error)
		GetUserByEmail(tx *gorm.DB, email string) (store.User, error)
		UpdateUser(tx *gorm.DB, user store.User) (store.User, error)
	} `inject:""`
	Logger *log.Logger `inject:""`
}

// Register always creates a Public user, elevated roles are granted through
// the users resource.
func (s *AuthenticationService) Register(ctx context.Context, request RegisterTransport) (store.User, error) {
	request.Username = strings.TrimSpace(request.Username)
	request.Email = strings.ToLower(strings.TrimSpace(request.Email))
	if request.Username == "" || request.Email == "" || request.Password == "" {
		return store.User{}, shared.NewValidationError("Username, email, and password are required")
	}
	if err := shared.ValidateEmail(request.Email); err != nil {
		return store.User{}, err
	}

	exists, err := s.Store.UserExists(nil, request.Username, request.Email, "")
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to register user")
	}
	if exists {
		return store.User{}, ErrUserAlreadyExists
	}

	hash, err := HashPassword(request.Password)
	if err != nil {
		return store.User{}, err
	}

	user, err := s.Store.AddUser(nil, store.User{
		Name:        store.NullString(request.Name),
		Username:    store.NullString(request.Username),
		Email:       store.NullString(request.Email),
		PhoneNumber: store.NullString(request.PhoneNumber),
		Gender:      store.NullString(request.Gender),
		Password:    store.NullString(hash),
		Role:        store.NullString(roles.ROLE_PUBLIC),
	})
	if errors.Cause(err) == store.ErrDuplicateUser {
		return store.User{}, ErrUserAlreadyExists
	}
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to register user")
	}

	s.Logger.Info(ctx, "user registered", "userId", user.UserId.String)
	return user, nil
}

func (s *AuthenticationService) Login(ctx context.Context, request LoginTransport) (store.User, error) {
	if strings.TrimSpace(request.Email) == "" || request.Password == "" {
		return store.User{}, shared.NewValidationError("Email and password are required")
	}

	user, err := s.Store.GetUserByEmail(nil, request.Email)
	if err == store.ErrUserNotFound {
		CheckPassword(dummyHash, request.Password)
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to login")
	}

	ok, needsRehash := CheckPassword(user.Password.String, request.Password)
	if !ok {
		return store.User{}, ErrInvalidCredentials
	}

	if needsRehash {
		s.rehash(ctx, user, request.Password)
	}
	return user, nil
}

func (s *AuthenticationService) rehash(ctx context.Context, user store.User, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		s.Logger.Warn(ctx, "failed to rehash legacy password", "userId", user.UserId.String, "err", err)
		return
	}
	if _, err := s.Store.UpdateUser(nil, store.User{
		UserId:   user.UserId,
		Password: store.NullString(hash),
	}); err != nil {
		s.Logger.Warn(ctx, "failed to store rehashed password", "userId", user.UserId.String, "err", err)
		return
	}
	s.Logger.Info(ctx, "legacy password rehashed", "userId", user.UserId.String)
}
