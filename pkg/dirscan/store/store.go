// Package store keeps the latest tree of every scanned root in a Badger DB.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
	"github.com/jamesainslie/dirscan/pkg/dirscan/persist"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Key prefixes for different data types
const (
	prefixTree = "t:" // Encoded tree per root
	prefixInfo = "i:" // Snapshot metadata per root
	schemaKey  = "m:__schema__"
)

// CurrentSchemaVersion is written on open.
const CurrentSchemaVersion = 1

// ErrNotFound is returned when no snapshot exists for a root.
var ErrNotFound = errors.New("snapshot not found")

// Info describes a stored snapshot without its tree.
type Info struct {
	Root      string          `json:"root" yaml:"root"`
	SavedAt   time.Time       `json:"saved_at" yaml:"saved_at"`
	Stats     types.ScanStats `json:"stats" yaml:"stats"`
	Nodes     int64           `json:"nodes" yaml:"nodes"`
	Truncated bool            `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Snapshot is a stored tree with its metadata.
type Snapshot struct {
	Info
	Tree *types.Node
}

// Schema holds database schema information.
type Schema struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the snapshot storage backed by Badger DB.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Options configures a Store.
type Options struct {
	// TTL expires snapshots after the given duration. Zero keeps them.
	TTL time.Duration

	// InMemory keeps everything in memory; Path is ignored.
	InMemory bool
}

// Open opens or creates a store at the given path.
func Open(path string, opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil // Disable logging

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	s := &Store{db: db, ttl: opts.TTL}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	schema := s.GetSchema()
	if schema != nil && schema.Version >= CurrentSchemaVersion {
		return nil
	}

	data, err := json.Marshal(&Schema{Version: CurrentSchemaVersion, UpdatedAt: time.Now()})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(schemaKey), data)
	})
}

// GetSchema returns the stored schema, or nil if not set.
func (s *Store) GetSchema() *Schema {
	var schema *Schema

	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			schema = &Schema{}
			return json.Unmarshal(val, schema)
		})
	})

	return schema
}

// Put stores tree as the latest snapshot of its root, replacing any
// previous one.
func (s *Store) Put(tree *types.Node, stats types.ScanStats) (*Info, error) {
	if tree == nil {
		return nil, errors.New("cannot store nil tree")
	}

	encoded, err := persist.Encode(tree)
	if err != nil {
		return nil, err
	}

	root := filepath.Clean(tree.Path)
	info := &Info{
		Root:      root,
		SavedAt:   time.Now().UTC(),
		Stats:     stats,
		Nodes:     tree.Count(),
		Truncated: tree.Truncated,
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot info: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(s.entry(prefixTree+root, encoded)); err != nil {
			return err
		}
		return txn.SetEntry(s.entry(prefixInfo+root, meta))
	})
	if err != nil {
		return nil, fmt.Errorf("storing snapshot for %s: %w", root, err)
	}

	logging.Get("store").Debug("snapshot stored", "root", root, "nodes", info.Nodes, "bytes", len(encoded))
	return info, nil
}

func (s *Store) entry(key string, val []byte) *badger.Entry {
	e := badger.NewEntry([]byte(key), val)
	if s.ttl > 0 {
		e = e.WithTTL(s.ttl)
	}
	return e
}

// Get retrieves the snapshot stored for root.
func (s *Store) Get(root string) (*Snapshot, error) {
	root = filepath.Clean(root)
	snap := &Snapshot{}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixInfo + root))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap.Info)
		}); err != nil {
			return err
		}

		item, err = txn.Get([]byte(prefixTree + root))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tree, err := persist.Decode(val)
			if err != nil {
				return err
			}
			snap.Tree = tree
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot for %s: %w", root, err)
	}

	return snap, nil
}

// List returns metadata for every stored snapshot, most recent first.
func (s *Store) List() ([]Info, error) {
	infos := []Info{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixInfo)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var info Info
				if err := json.Unmarshal(val, &info); err != nil {
					return nil // Skip invalid entries
				}
				infos = append(infos, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].SavedAt.After(infos[j].SavedAt)
	})

	return infos, nil
}

// Delete removes the snapshot for root. Deleting a missing snapshot is not
// an error.
func (s *Store) Delete(root string) error {
	root = filepath.Clean(root)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(prefixTree + root)); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixInfo + root))
	})
}

// Clear removes every snapshot and returns how many were removed.
func (s *Store) Clear() (int, error) {
	removed := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keysToDelete [][]byte
		for _, p := range []string{prefixTree, prefixInfo} {
			prefix := []byte(p)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keysToDelete = append(keysToDelete, it.Item().KeyCopy(nil))
				if p == prefixInfo {
					removed++
				}
			}
		}

		for _, key := range keysToDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clearing snapshots: %w", err)
	}

	return removed, nil
}
