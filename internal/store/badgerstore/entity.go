package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// maxTxnRetries bounds how often a conflicting read-modify-write is retried.
const maxTxnRetries = 64

var (
	errNotFound      = errors.New("entity not found")
	errAlreadyExists = errors.New("entity already exists")
)

// Entity provides JSON-encoded CRUD for one record type under a key prefix,
// with unique secondary indexes stored as prefix+"idx:"+name+":"+key -> id.
type Entity[T any] struct {
	db      *badger.DB
	prefix  string
	indexes []Index[T]
}

// Index defines a unique secondary index on an entity.
type Index[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string
	conflictErr     error
}

// NewEntity creates an Entity stored under prefix.
func NewEntity[T any](db *badger.DB, prefix string) *Entity[T] {
	return &Entity[T]{db: db, prefix: prefix}
}

// WithUniqueIndex adds a unique index. lookupTransform is applied to values
// passed to GetByIndex, and conflictErr is returned when Create would reuse a key.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) []string, lookupTransform func(string) string, conflictErr error) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:            name,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
		conflictErr:     conflictErr,
	})
	return e
}

func (e *Entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) indexKey(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value)
}

// Create stores a new entity. It fails with errAlreadyExists when the ID is
// taken, or with the index's conflict error when a unique key is in use.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(e.key(id)); err == nil {
			return errAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		for _, idx := range e.indexes {
			for _, k := range idx.keyGen(entity) {
				_, err := txn.Get(e.indexKey(idx.name, k))
				if err == nil {
					return idx.conflictErr
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("failed to check index key: %w", err)
				}
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		for _, idx := range e.indexes {
			for _, k := range idx.keyGen(entity) {
				if err := txn.Set(e.indexKey(idx.name, k), []byte(id)); err != nil {
					return fmt.Errorf("failed to set index key: %w", err)
				}
			}
		}
		return nil
	})
}

// Get retrieves an entity by ID.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.read(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetByIndex retrieves an entity through a unique index.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			value = idx.lookupTransform(value)
			break
		}
	}

	var entity *T
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.indexKey(indexName, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errNotFound
		}
		if err != nil {
			return err
		}

		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		entity, err = e.read(txn, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// Mutate applies fn to the stored entity inside one transaction and writes it
// back when fn reports a change. Transactions that lose an optimistic
// concurrency race are retried. Indexed fields must not be changed by fn.
func (e *Entity[T]) Mutate(ctx context.Context, id string, fn func(*T) (bool, error)) (*T, error) {
	for range maxTxnRetries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var result *T
		err := e.db.Update(func(txn *badger.Txn) error {
			entity, err := e.read(txn, id)
			if err != nil {
				return err
			}

			changed, err := fn(entity)
			if err != nil {
				return err
			}
			if changed {
				data, err := json.Marshal(entity)
				if err != nil {
					return fmt.Errorf("failed to marshal entity: %w", err)
				}
				if err := txn.Set(e.key(id), data); err != nil {
					return fmt.Errorf("failed to set key: %w", err)
				}
			}
			result = entity
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("update %s%s: %w", e.prefix, id, badger.ErrConflict)
}

// Count returns the number of stored entities, excluding index keys.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := 0
	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if strings.HasPrefix(string(it.Item().Key()[len(e.prefix):]), "idx:") {
				continue
			}
			n++
		}
		return nil
	})
	return n, err
}

func (e *Entity[T]) read(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var entity T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entity)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}
