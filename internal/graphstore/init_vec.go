//go:build sqlite_vec && cgo

package graphstore

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Registers vec0 as an auto-loadable extension on mattn/go-sqlite3
	// connections.
	vec.Auto()
}
