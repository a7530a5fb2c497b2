// Package repository contains the MySQL data access layer.  Sentinel errors
// defined here let the service layer tell storage failures apart from
// missing rows and constraint violations.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, such as a
// second review by the same address or a reused purchase tx hash.
var ErrDuplicate = errors.New("duplicate")

// ErrMissingReference is returned when a row points at a book that does not
// exist.
var ErrMissingReference = errors.New("missing reference")

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// translate maps MySQL constraint errors onto the sentinels above and leaves
// every other error untouched.
func translate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %s", ErrDuplicate, me.Message)
		case mysqlNoReferencedRow:
			return fmt.Errorf("%w: %s", ErrMissingReference, me.Message)
		}
	}
	return err
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
