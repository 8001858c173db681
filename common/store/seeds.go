package store

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "password123"

type seedUser struct {
	username, role string
}

type seedChild struct {
	firstName, lastName, gender string
	dateOfBirth, admissionDate  string
}

var (
	seedUsers = []seedUser{
		{"admin", "Admin"},
		{"staff1", "Staff"},
		{"staff2", "Staff"},
		{"doc1", "Medical"},
		{"teacher1", "Educational"},
	}
	seedChildren = []seedChild{
		{"Alice", "Smith", "Female", "2018-05-15", "2023-01-10"},
		{"Bob", "Jones", "Male", "2019-11-22", "2023-02-20"},
		{"Charlie", "Brown", "Male", "2017-03-01", "2022-12-05"},
	}
)

// AgeAt returns the age in full years of someone born on dob.
func AgeAt(dob, now time.Time) int64 {
	age := int64(now.Year() - dob.Year())
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// SeedDatabase inserts demo users and children. Each collection is only
// seeded when empty.
func (s *Store) SeedDatabase(tx *gorm.DB, defaultPhotoUrl string) (users int, children int, err error) {
	db := s.dbOrTx(tx)

	count, err := s.CountUsers(db)
	if err != nil {
		return 0, 0, err
	}
	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
		if err != nil {
			return 0, 0, errors.Wrap(err, "failed to hash seed password")
		}
		for _, u := range seedUsers {
			if _, err := s.AddUser(db, User{
				Username: NullString(u.username),
				Email:    NullString(u.username + "@example.com"),
				Password: NullString(string(hash)),
				Role:     NullString(u.role),
			}); err != nil {
				return users, 0, errors.Wrapf(err, "failed to seed user %s", u.username)
			}
			users++
		}
	}

	count, err = s.CountChildren(db)
	if err != nil {
		return users, 0, err
	}
	if count == 0 {
		now := time.Now().UTC()
		for _, c := range seedChildren {
			dob, _ := time.Parse("2006-01-02", c.dateOfBirth)
			admission, _ := time.Parse("2006-01-02", c.admissionDate)
			if _, err := s.AddChild(db, Child{
				FirstName:     NullString(c.firstName),
				LastName:      NullString(c.lastName),
				Gender:        NullString(c.gender),
				DateOfBirth:   &dob,
				AdmissionDate: &admission,
				PhotoUrl:      NullString(defaultPhotoUrl),
				Age:           DbNullInt64(func(v int64) *int64 { return &v }(AgeAt(dob, now))),
			}); err != nil {
				return users, children, errors.Wrapf(err, "failed to seed child %s", c.firstName)
			}
			children++
		}
	}
	return users, children, nil
}
