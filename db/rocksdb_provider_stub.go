//go:build !rocksdb
// +build !rocksdb

package db

import "errors"

var ErrRocksDBUnavailable = errors.New("RocksDB support not compiled in. Build with -tags rocksdb to enable RocksDB support")

// NewRocksDBProvider returns ErrRocksDBUnavailable when built without the rocksdb tag
func NewRocksDBProvider(directory string) (IterableProvider, error) {
	return nil, ErrRocksDBUnavailable
}
