package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
)

type User struct {
	UserId      sql.NullString `gorm:"primary_key"`
	Name        sql.NullString
	Username    sql.NullString `gorm:"unique_index"`
	Email       sql.NullString `gorm:"unique_index"`
	PhoneNumber sql.NullString
	Gender      sql.NullString
	Password    sql.NullString
	Role        sql.NullString `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string {
	return "users"
}

func normalizeEmail(email sql.NullString) sql.NullString {
	if email.Valid {
		email.String = strings.ToLower(strings.TrimSpace(email.String))
	}
	return email
}

func (s *Store) AddUser(tx *gorm.DB, user User) (User, error) {
	db := s.dbOrTx(tx)

	user.UserId = s.newId()
	user.Email = normalizeEmail(user.Email)
	if err := db.Create(&user).Error; err != nil {
		if IsUniqueViolation(err) {
			return User{}, ErrDuplicateUser
		}
		return User{}, err
	}
	return user, nil
}

func (s *Store) GetUser(tx *gorm.DB, userId string) (User, error) {
	db := s.dbOrTx(tx)

	user := User{}
	err := db.Where("user_id = ?", userId).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

func (s *Store) GetUserByEmail(tx *gorm.DB, email string) (User, error) {
	db := s.dbOrTx(tx)

	user := User{}
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

// UserExists reports whether another user already owns the username or the
// email. excludeUserId is ignored when empty.
func (s *Store) UserExists(tx *gorm.DB, username, email, excludeUserId string) (bool, error) {
	db := s.dbOrTx(tx)

	query := db.Model(&User{}).Where("(username = ? OR email = ?)", username, strings.ToLower(strings.TrimSpace(email)))
	if excludeUserId != "" {
		query = query.Where("user_id <> ?", excludeUserId)
	}
	count := 0
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUsers returns every user, or only the ones holding one of roles.
func (s *Store) ListUsers(tx *gorm.DB, roles ...string) ([]User, error) {
	db := s.dbOrTx(tx)

	users := []User{}
	query := db.Order("username asc")
	if len(roles) > 0 {
		query = query.Where("role IN (?)", roles)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) FindUsersByIds(tx *gorm.DB, userIds []string) (map[string]User, error) {
	db := s.dbOrTx(tx)

	byId := map[string]User{}
	ids := uniqueStrings(userIds)
	if len(ids) == 0 {
		return byId, nil
	}
	users := []User{}
	if err := db.Where("user_id IN (?)", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		byId[u.UserId.String] = u
	}
	return byId, nil
}

func (s *Store) UpdateUser(tx *gorm.DB, user User) (User, error) {
	db := s.dbOrTx(tx)

	if _, err := s.GetUser(db, user.UserId.String); err != nil {
		return User{}, err
	}
	user.Email = normalizeEmail(user.Email)
	if err := db.Model(&User{}).Where("user_id = ?", user.UserId.String).Updates(user).Error; err != nil {
		if IsUniqueViolation(err) {
			return User{}, ErrDuplicateUser
		}
		return User{}, err
	}
	return s.GetUser(db, user.UserId.String)
}

func (s *Store) DeleteUser(tx *gorm.DB, userId string) error {
	db := s.dbOrTx(tx)

	if _, err := s.GetUser(db, userId); err != nil {
		return err
	}
	return db.Where("user_id = ?", userId).Delete(&User{}).Error
}

func (s *Store) CountUsers(tx *gorm.DB) (int, error) {
	db := s.dbOrTx(tx)

	count := 0
	err := db.Model(&User{}).Count(&count).Error
	return count, err
}
