package store

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/cockroachdb/pebble"

	"lostfound/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string

	// counterMu serializes read-modify-write of persisted counters.
	counterMu sync.Mutex
)

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// nextCounter increments and returns the persisted counter stored under
// key. Counters back user ids, item ids and notification ids.
func nextCounter(key string) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	counterMu.Lock()
	defer counterMu.Unlock()
	var cur int64
	val, closer, err := db.Get([]byte(key))
	if err == nil {
		cur, _ = strconv.ParseInt(string(val), 10, 64)
		_ = closer.Close()
	} else if err != pebble.ErrNotFound {
		return 0, err
	}
	cur++
	if err := db.Set([]byte(key), []byte(strconv.FormatInt(cur, 10)), pebble.Sync); err != nil {
		return 0, err
	}
	return cur, nil
}

// scanPrefix iterates all kv pairs under prefix and calls fn for each.
func scanPrefix(prefix string, fn func(key, val []byte) error) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte(prefix + "\xff"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// deletePrefix removes every key under prefix and returns how many were
// deleted.
func deletePrefix(prefix string) (int, error) {
	var keys [][]byte
	err := scanPrefix(prefix, func(k, _ []byte) error {
		kc := append([]byte(nil), k...)
		keys = append(keys, kc)
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err := db.Delete(k, pebble.Sync); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}
