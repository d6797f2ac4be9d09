package dummydb

import (
	"sync"

	"github.com/learnova/learnova/core/user"
)

type (
	// DB is an in-memory store used in DEV & tests.
	DB struct {
		user *userTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
		order []string // insertion order of IDs
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
	}
	return db, nil
}

// Close is a no-op; it lets DB stand in wherever a closable database is expected.
func (db *DB) Close() error {
	return nil
}
