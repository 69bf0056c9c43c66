//go:build sqlite_cgo
// +build sqlite_cgo

package index

// This file is compiled when building with CGO and the sqlite_cgo tag.
// It uses the C SQLite implementation via cgo.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "sqlite_cgo,fts5" ./...
//
// The fts5 tag is required: mattn/go-sqlite3 compiles without FTS5
// support unless it is set.
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
