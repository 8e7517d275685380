// Package sqliteexternal provides the optional CGO SQLite driver.
//
// To use the CGO driver (github.com/mattn/go-sqlite3) for the conversion
// report database, build with:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/change-scheme
//
// Without the tag, core/sqlite registers the pure Go modernc.org/sqlite
// driver and this package is empty.
//
// Use the CGO driver when the report database grows large and CGO is
// already part of the build; use the default otherwise, since it
// cross-compiles to a single static binary.
package sqliteexternal
