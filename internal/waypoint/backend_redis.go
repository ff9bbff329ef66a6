// SPDX-License-Identifier: MIT

package waypoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisWaypointHash = "waypoints"
	redisGroupHash    = "waypoint_groups"

	redisOpTimeout = 5 * time.Second
)

// RedisBackend persists records in two hashes, one JSON document per
// field. keyPrefix namespaces the hashes per deployment.
type RedisBackend struct {
	client    *redis.Client
	keyPrefix string
}

// OpenRedisBackend connects to redis and verifies the connection.
func OpenRedisBackend(addr, password string, db int, keyPrefix string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	if keyPrefix == "" {
		keyPrefix = "omnigate"
	}
	return &RedisBackend{client: client, keyPrefix: keyPrefix}, nil
}

func (r *RedisBackend) key(hash string) string {
	return r.keyPrefix + ":" + hash
}

func (r *RedisBackend) Load() ([]Waypoint, []Group, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.client.HGetAll(ctx, r.key(redisWaypointHash)).Result()
	if err != nil {
		return nil, nil, err
	}
	wps := make([]Waypoint, 0, len(raw))
	for id, val := range raw {
		var wp Waypoint
		if err := json.Unmarshal([]byte(val), &wp); err != nil {
			return nil, nil, fmt.Errorf("decode waypoint %s: %w", id, err)
		}
		wps = append(wps, wp)
	}

	raw, err = r.client.HGetAll(ctx, r.key(redisGroupHash)).Result()
	if err != nil {
		return nil, nil, err
	}
	groups := make([]Group, 0, len(raw))
	for id, val := range raw {
		var g Group
		if err := json.Unmarshal([]byte(val), &g); err != nil {
			return nil, nil, fmt.Errorf("decode group %s: %w", id, err)
		}
		groups = append(groups, g)
	}
	return wps, groups, nil
}

func (r *RedisBackend) PutWaypoint(wp Waypoint) error {
	buf, err := json.Marshal(wp)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.client.HSet(ctx, r.key(redisWaypointHash), wp.ID, string(buf)).Err()
}

func (r *RedisBackend) DeleteWaypoint(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.client.HDel(ctx, r.key(redisWaypointHash), id).Err()
}

func (r *RedisBackend) PutGroup(g Group) error {
	buf, err := json.Marshal(g)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.client.HSet(ctx, r.key(redisGroupHash), g.ID, string(buf)).Err()
}

func (r *RedisBackend) DeleteGroup(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.client.HDel(ctx, r.key(redisGroupHash), id).Err()
}

func (r *RedisBackend) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.client.Del(ctx, r.key(redisWaypointHash), r.key(redisGroupHash)).Err()
}

func (r *RedisBackend) Close() error { return r.client.Close() }

var _ Backend = (*RedisBackend)(nil)
