// Package store provides the string key-value stores annotations are
// mirrored into: a JSON file, sqlite or postgres through gorm, and memory.
package store

import "errors"

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("store is closed")

// Store is a string key-value store
type Store interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Close() error
}
