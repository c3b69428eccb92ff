package iodb

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// ConnectionError creates an error for a failed PostgreSQL connection.
func ConnectionError(
	host string,
	port int,
	database, user string,
	err error,
) error {
	msg := `Could not connect to PostgreSQL database

<em>Possible causes:</em>
  - PostgreSQL is not running
  - Database configuration is incorrect
  - Network connectivity issues

<em>How to fix:</em>
  1. Check if PostgreSQL is running: pg_isready -h %s -p %d
  2. Verify database exists: psql -h %s -U %s -l
  3. Review connection settings in ~/.config/assaydb/config.yaml`

	vars := []any{host, port, host, user}

	return &gn.Error{
		Code: errcode.DBConnectionError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("failed to connect to %s:%d/%s: %w",
			host, port, database, err),
	}
}

// NotConnectedError creates an error for operations attempted without a
// database connection.
func NotConnectedError() error {
	msg := "Database operation attempted without connection"

	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// TableCheckError creates an error for a failed table existence check.
func TableCheckError(what string, err error) error {
	msg := `Could not verify database state

<em>Checked:</em> %s`

	vars := []any{what}

	return &gn.Error{
		Code: errcode.DBTableCheckError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to check tables (%s): %w", what, err),
	}
}

// QueryTablesError creates an error for a failed table list query.
func QueryTablesError(err error) error {
	msg := "Could not list database tables"

	return &gn.Error{
		Code: errcode.DBQueryTablesError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("failed to query tables: %w", err),
	}
}

// DropTableError creates an error for a failed DROP TABLE.
func DropTableError(table string, err error) error {
	msg := `Could not drop database table

<em>Table:</em> %s`

	vars := []any{table}

	return &gn.Error{
		Code: errcode.DBDropTableError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to drop table %s: %w", table, err),
	}
}
