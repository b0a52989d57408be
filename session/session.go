// Package session keeps the in-progress state of each operator in badger,
// one record per (operator, context) so sub-flows never clobber each other.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"
)

// Context names a logical sub-flow stored under one operator
type Context string

const (
	ContextReceiving   Context = "receiving"
	ContextLoading     Context = "loading"
	ContextCatchWeight Context = "catchweight"
)

const keyPrefix = "session:"

// maxConflictRetries bounds the retries of an Update that lost a badger write conflict
const maxConflictRetries = 5

// Store is the badger-backed session store
type Store struct {
	db     *badger.DB
	logger cmtlog.Logger
}

func NewStore(db *badger.DB, logger cmtlog.Logger) *Store {
	return &Store{db: db, logger: logger.With("module", "session")}
}

func key(operatorID string, c Context) []byte {
	return append(operatorPrefix(operatorID), string(c)...)
}

// operatorPrefix length-prefixes the operator id so an id containing ':'
// never prefixes another operator's keys
func operatorPrefix(operatorID string) []byte {
	return []byte(keyPrefix + strconv.Itoa(len(operatorID)) + ":" + operatorID + ":")
}

// Get decodes the stored record into v and reports whether one existed
func (s *Store) Get(operatorID string, c Context, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(operatorID, c))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to read session %s/%s: %w", operatorID, c, err)
	}
	return found, nil
}

// Set replaces the stored record
func (s *Store) Set(operatorID string, c Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session %s/%s: %w", operatorID, c, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(operatorID, c), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write session %s/%s: %w", operatorID, c, err)
	}
	return nil
}

// Delete removes one context of an operator; deleting a missing record is not an error
func (s *Store) Delete(operatorID string, c Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(operatorID, c))
	})
	if err != nil {
		return fmt.Errorf("failed to delete session %s/%s: %w", operatorID, c, err)
	}
	return nil
}

// DeleteAll removes every context stored for an operator
func (s *Store) DeleteAll(operatorID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		keys, err := scanKeys(txn, operatorPrefix(operatorID))
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete sessions of %s: %w", operatorID, err)
	}
	return nil
}

// Contexts lists the contexts an operator currently has records for
func (s *Store) Contexts(operatorID string) ([]Context, error) {
	var contexts []Context
	prefix := operatorPrefix(operatorID)
	err := s.db.View(func(txn *badger.Txn) error {
		keys, err := scanKeys(txn, prefix)
		if err != nil {
			return err
		}
		for _, k := range keys {
			contexts = append(contexts, Context(strings.TrimPrefix(string(k), string(prefix))))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions of %s: %w", operatorID, err)
	}
	return contexts, nil
}

// update runs a read-modify-write of one record in a single badger
// transaction, retrying when a concurrent writer wins the conflict
func (s *Store) update(operatorID string, c Context, fn func(current []byte) ([]byte, error)) error {
	k := key(operatorID, c)
	var err error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			var current []byte
			item, err := txn.Get(k)
			switch {
			case err == nil:
				current, err = item.ValueCopy(nil)
				if err != nil {
					return err
				}
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}

			next, err := fn(current)
			if err != nil {
				return err
			}
			if next == nil {
				return txn.Delete(k)
			}
			return txn.Set(k, next)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug("Session update conflict, retrying", "operator", operatorID, "context", c, "attempt", attempt)
	}
	if err != nil {
		return fmt.Errorf("failed to update session %s/%s: %w", operatorID, c, err)
	}
	return nil
}

// Load reads a typed record, returning nil when none is stored
func Load[T any](s *Store, operatorID string, c Context) (*T, error) {
	var v T
	found, err := s.Get(operatorID, c, &v)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

// Update atomically applies fn to a typed record. fn receives the zero value
// when nothing is stored; returning false from fn deletes the record.
func Update[T any](s *Store, operatorID string, c Context, fn func(v *T) (keep bool, err error)) error {
	return s.update(operatorID, c, func(current []byte) ([]byte, error) {
		var v T
		if current != nil {
			if err := json.Unmarshal(current, &v); err != nil {
				return nil, err
			}
		}
		keep, err := fn(&v)
		if err != nil {
			return nil, err
		}
		if !keep {
			return nil, nil
		}
		return json.Marshal(&v)
	})
}

func scanKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}
