// Package store is the sqlx data access layer. All SQL lives here; services
// reach it through the narrow interfaces they declare themselves.
package store

import (
	"github.com/jmoiron/sqlx"
)

type Store struct {
	DB *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{DB: db}
}
