// Package storetest provides an in-memory database for package tests.
package storetest

import (
	"fmt"
	"sync"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// NewDbInstance opens a fresh in-memory sqlite database with the full schema.
// The pool is pinned to a single connection, every connection to ":memory:"
// would otherwise get its own empty database.
func NewDbInstance() *gorm.DB {
	db, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		panic(err)
	}
	db.DB().SetMaxOpenConns(1)
	if err := store.AutoMigrate(db); err != nil {
		panic(err)
	}
	return db
}

// NewStore returns a store whose identifiers are Id(1), Id(2)... in
// creation order.
func NewStore() *store.Store {
	return &store.Store{
		Db:              NewDbInstance(),
		StringGenerator: &SequenceGenerator{},
	}
}

// Id formats n as the n-th identifier handed out by SequenceGenerator.
func Id(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

type SequenceGenerator struct {
	mu   sync.Mutex
	next int
}

func (g *SequenceGenerator) GenerateUuid() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return Id(g.next)
}

func (g *SequenceGenerator) GenerateRandomDigits() string {
	return "123456789"
}

func Date(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func MustAddUser(s *store.Store, username, role string) store.User {
	user, err := s.AddUser(nil, store.User{
		Name:     store.NullString(username),
		Username: store.NullString(username),
		Email:    store.NullString(username + "@example.com"),
		Password: store.NullString("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"),
		Role:     store.NullString(role),
	})
	if err != nil {
		panic(err)
	}
	return user
}

func MustAddChild(s *store.Store, firstName, lastName string) store.Child {
	child, err := s.AddChild(nil, store.Child{
		FirstName:     store.NullString(firstName),
		LastName:      store.NullString(lastName),
		DateOfBirth:   Date("2018-05-15"),
		AdmissionDate: Date("2023-01-10"),
		Age:           store.DbNullInt64(func(v int64) *int64 { return &v }(6)),
		Gender:        store.NullString("Female"),
		PhotoUrl:      store.NullString("/img/default_avatar.png"),
	})
	if err != nil {
		panic(err)
	}
	return child
}
