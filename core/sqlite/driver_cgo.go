//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3.
// This is used when the cgo_sqlite build tag is set.
//
// Build with: go build -tags cgo_sqlite
// Requires: CGO_ENABLED=1
//
// The actual driver import is in contrib/sqlite-external
// to keep the CGO dependency out of default builds.
package sqlite

import (
	sqliteexternal "github.com/FocuswithJustin/changescheme/contrib/sqlite-external"
)

const (
	driverName    = sqliteexternal.DriverName
	driverType    = sqliteexternal.DriverType
	driverPackage = sqliteexternal.DriverPackage + " (via contrib/sqlite-external)"

	dsnOptions = "_busy_timeout=5000&_foreign_keys=1"
)
