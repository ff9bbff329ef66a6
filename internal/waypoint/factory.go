// SPDX-License-Identifier: MIT

package waypoint

import (
	"fmt"

	"github.com/simwire/omnigate/internal/config"
)

// OpenStore builds the configured backend and loads it into a Store.
// An empty backend name selects memory.
func OpenStore(cfg config.StoreConfig) (*Store, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Backend {
	case "", "memory":
		b = NewMemoryBackend()
	case "badger":
		b, err = OpenBadgerBackend(cfg.Path)
	case "sqlite":
		b, err = OpenSQLiteBackend(cfg.Path)
	case "redis":
		b, err = OpenRedisBackend(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "omnigate")
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Open(b)
}
