package kv

import (
	"time"
)

const sessionPrefix = "sess:"

// SessionStorage adapts DB to fiber.Storage so the session middleware
// keeps its entries in badger. Closing it does not close the DB.
type SessionStorage struct {
	db *DB
}

func NewSessionStorage(db *DB) *SessionStorage {
	return &SessionStorage{db: db}
}

func sessionKey(key string) []byte {
	return []byte(sessionPrefix + key)
}

// Get returns nil, nil for a missing or expired key.
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	return s.db.get(sessionKey(key))
}

func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.db.set(sessionKey(key), val, exp)
}

func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.db.delete(sessionKey(key))
}

func (s *SessionStorage) Reset() error {
	return s.db.DropPrefix([]byte(sessionPrefix))
}

func (s *SessionStorage) Close() error {
	return nil
}
