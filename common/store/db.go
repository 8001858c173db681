package store

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/pkg/errors"
)

const (
	DIALECT_POSTGRES = "postgres"
	DIALECT_SQLITE   = "sqlite3"
)

type ConnectionOptions struct {
	Dialect    string
	Host       string
	Port       string
	Username   string
	Password   string
	DbName     string
	SqlitePath string
}

// DSN returns the gorm connection string of the configured dialect.
func (o ConnectionOptions) DSN() string {
	if o.Dialect == DIALECT_SQLITE {
		return o.SqlitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		o.Host, o.Port, o.Username, o.Password, o.DbName)
}

// MigrationURL is the golang-migrate url of a postgres database.
func (o ConnectionOptions) MigrationURL() string {
	return fmt.Sprintf("postgres://%v:%v/%v?sslmode=disable&user=%s&password=%s",
		o.Host, o.Port, o.DbName, o.Username, o.Password)
}

// Open connects to the database. Sqlite only allows one writer, so its pool
// is pinned to a single connection.
func Open(options ConnectionOptions, logger interface{ Print(v ...interface{}) }) (*gorm.DB, error) {
	if options.Dialect != DIALECT_POSTGRES && options.Dialect != DIALECT_SQLITE {
		return nil, fmt.Errorf("unsupported database dialect %q", options.Dialect)
	}
	db, err := gorm.Open(options.Dialect, options.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if options.Dialect == DIALECT_SQLITE {
		db.DB().SetMaxOpenConns(1)
	}
	db.LogMode(true)
	db.SetLogger(logger)
	return db, nil
}
