// SPDX-License-Identifier: MIT

package waypoint

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const (
	badgerWaypointPrefix = "wp:"
	badgerGroupPrefix    = "grp:"
)

// BadgerBackend persists records as JSON values under prefixed keys.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadgerBackend opens (or creates) a badger database at path.
func OpenBadgerBackend(path string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Load() ([]Waypoint, []Group, error) {
	var wps []Waypoint
	var groups []Group
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(val []byte) error {
				switch {
				case len(key) > len(badgerWaypointPrefix) && key[:len(badgerWaypointPrefix)] == badgerWaypointPrefix:
					var wp Waypoint
					if err := json.Unmarshal(val, &wp); err != nil {
						return fmt.Errorf("decode %s: %w", key, err)
					}
					wps = append(wps, wp)
				case len(key) > len(badgerGroupPrefix) && key[:len(badgerGroupPrefix)] == badgerGroupPrefix:
					var g Group
					if err := json.Unmarshal(val, &g); err != nil {
						return fmt.Errorf("decode %s: %w", key, err)
					}
					groups = append(groups, g)
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return wps, groups, nil
}

func (b *BadgerBackend) PutWaypoint(wp Waypoint) error {
	buf, err := json.Marshal(wp)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerWaypointPrefix+wp.ID), buf)
	})
}

func (b *BadgerBackend) DeleteWaypoint(id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerWaypointPrefix + id))
	})
}

func (b *BadgerBackend) PutGroup(g Group) error {
	buf, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerGroupPrefix+g.ID), buf)
	})
}

func (b *BadgerBackend) DeleteGroup(id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerGroupPrefix + id))
	})
}

func (b *BadgerBackend) Clear() error {
	return b.db.DropAll()
}

func (b *BadgerBackend) Close() error { return b.db.Close() }

var _ Backend = (*BadgerBackend)(nil)
