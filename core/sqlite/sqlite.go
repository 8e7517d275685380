// Package sqlite opens SQLite databases for the conversion report, supporting
// both pure Go (modernc.org/sqlite) and CGO (mattn/go-sqlite3) drivers.
//
// Build modes:
//   - Default (CGO_ENABLED=0): Uses pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): Uses mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open() instead of sql.Open() so the driver and its connection options
// match the build.
package sqlite

import (
	"database/sql"
	"strings"
)

// DriverName returns the SQL driver name to use.
func DriverName() string {
	return driverName
}

// DriverType returns a string identifying the underlying implementation.
// Returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database file using the appropriate driver. Writes
// wait on a busy database instead of failing immediately, and foreign keys
// are enforced.
func Open(path string) (*sql.DB, error) {
	return sql.Open(driverName, dsn(path, ""))
}

// OpenReadOnly opens a SQLite database in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	return sql.Open(driverName, dsn(path, "mode=ro"))
}

// dsn builds a file: URI so query parameters are honoured by both drivers.
func dsn(path, extra string) string {
	params := []string{dsnOptions}
	if extra != "" {
		params = append(params, extra)
	}
	if path == ":memory:" {
		return "file::memory:?" + strings.Join(params, "&")
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: DriverName(),
		DriverType: DriverType(),
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
