// Package kv holds the BadgerDB backed key-value state: HTTP sessions
// and password reset tokens.
package kv

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bookclub/api/internal/config"
	"github.com/bookclub/api/pkg/logger"
	"github.com/dgraph-io/badger/v4"
)

type Options struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	// GCInterval of zero disables value log garbage collection.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

func OptionsFromConfig(cfg config.KVConfig) Options {
	if cfg.InMemory {
		return Options{InMemory: true}
	}
	return Options{
		Path:           cfg.Path,
		SyncWrites:     true,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// badgerLogger forwards badger's internal messages to the process logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error("kv_badger", fmt.Errorf(format, args...), nil)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn("kv_badger", map[string]interface{}{"message": fmt.Sprintf(format, args...)})
}

func (badgerLogger) Infof(string, ...interface{}) {}

func (badgerLogger) Debugf(string, ...interface{}) {}

type DB struct {
	*badger.DB
	stopGC chan struct{}
	gcDone chan struct{}
}

func Open(opts Options) (*DB, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("path is required for persistent kv store")
	}

	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0750); err != nil {
			return nil, fmt.Errorf("create kv directory %s: %w", opts.Path, err)
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
	}
	badgerOpts = badgerOpts.
		WithSyncWrites(opts.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	wrapped := &DB{DB: db}
	if opts.GCInterval > 0 && !opts.InMemory {
		wrapped.stopGC = make(chan struct{})
		wrapped.gcDone = make(chan struct{})
		go wrapped.runGC(opts.GCInterval, opts.GCDiscardRatio)
	}
	return wrapped, nil
}

func (d *DB) runGC(interval time.Duration, ratio float64) {
	defer close(d.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopGC:
			return
		case <-ticker.C:
			if err := d.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				logger.Warn("kv_gc_failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func (d *DB) Close() error {
	if d.stopGC != nil {
		close(d.stopGC)
		<-d.gcDone
	}
	return d.DB.Close()
}

func (d *DB) get(key []byte) ([]byte, error) {
	var value []byte
	err := d.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return value, err
}

func (d *DB) set(key, value []byte, ttl time.Duration) error {
	return d.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (d *DB) delete(key []byte) error {
	return d.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}
