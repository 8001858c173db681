package store

import (
	"database/sql"
	"strings"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type Store struct {
	Db              *gorm.DB `inject:""`
	StringGenerator interface {
		GenerateUuid() string
	} `inject:""`
}

func (s *Store) Tx() *gorm.DB {
	return s.Db.Begin()
}

func (s *Store) dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.Db
}

// Models lists every table, in creation order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Child{},
		&HealthRecord{},
		&EducationalRecord{},
		&Message{},
		&StaffAssignment{},
		&Adoption{},
		&Donation{},
		&Task{},
		&Document{},
		&Inquiry{},
		&BackgroundJob{},
	}
}

// AutoMigrate creates the schema through gorm. Postgres deployments use the
// sql migrations instead.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...).Error; err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}
	return nil
}

func DbNullString(value *string) sql.NullString {
	// will update value in db
	if value != nil {
		return sql.NullString{
			String: *value,
			Valid:  true,
		}
	}
	// will ignore this value
	return sql.NullString{
		Valid: false,
	}
}

func DbNullInt64(value *int64) sql.NullInt64 {
	if value != nil {
		return sql.NullInt64{
			Int64: *value,
			Valid: true,
		}
	}
	return sql.NullInt64{
		Valid: false,
	}
}

func NullString(value string) sql.NullString {
	return DbNullString(&value)
}

func (s *Store) newId() sql.NullString {
	id := s.StringGenerator.GenerateUuid()
	return DbNullString(&id)
}

// IsUniqueViolation reports whether err comes from a unique constraint, for
// both the postgres and the sqlite driver.
func IsUniqueViolation(err error) bool {
	switch e := errors.Cause(err).(type) {
	case *pq.Error:
		return e.Code == "23505"
	case sqlite3.Error:
		return e.Code == sqlite3.ErrConstraint &&
			(e.ExtendedCode == sqlite3.ErrConstraintUnique || e.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	case nil:
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

func uniqueStrings(values []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
