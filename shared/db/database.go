package db

import (
	"database/sql"
)

// Database is a connectable SQL backend that owns its schema.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
