// SPDX-License-Identifier: MIT

package waypoint

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Backend carries waypoint and group records. It has no referential
// knowledge; Store enforces memberships, hierarchy and ordering.
type Backend interface {
	Load() (wps []Waypoint, groups []Group, err error)
	PutWaypoint(wp Waypoint) error
	DeleteWaypoint(id string) error
	PutGroup(g Group) error
	DeleteGroup(id string) error
	Clear() error
	Close() error
}

// Store is the canonical in-memory view of all waypoints and groups,
// written through to a Backend. All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	backend Backend

	waypoints map[string]*Waypoint
	groups    map[string]*Group
	order     []string // waypoint IDs in creation order

	now func() time.Time
}

// Open loads the backend's records into a new Store.
func Open(b Backend) (*Store, error) {
	wps, groups, err := b.Load()
	if err != nil {
		return nil, fmt.Errorf("load backend: %w", err)
	}
	s := &Store{
		backend:   b,
		waypoints: make(map[string]*Waypoint, len(wps)),
		groups:    make(map[string]*Group, len(groups)),
		now:       time.Now,
	}
	for i := range groups {
		g := groups[i]
		s.groups[g.ID] = &g
	}
	sort.Slice(wps, func(i, j int) bool { return wps[i].CreatedAt.Before(wps[j].CreatedAt) })
	for i := range wps {
		wp := wps[i]
		s.waypoints[wp.ID] = &wp
		s.order = append(s.order, wp.ID)
	}
	return s, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}

// CreateWaypoint stores a new waypoint and returns its ID. Every
// referenced group must already exist.
func (s *Store) CreateWaypoint(wp Waypoint) (Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wp.Type == "" {
		wp.Type = DefaultType
	}
	for _, gid := range wp.GroupIDs {
		if _, ok := s.groups[gid]; !ok {
			return Waypoint{}, fmt.Errorf("%w: %s", ErrGroupNotFound, gid)
		}
	}
	if wp.ID == "" {
		wp.ID = uuid.NewString()
	} else if _, ok := s.waypoints[wp.ID]; ok {
		return Waypoint{}, fmt.Errorf("waypoint %s already exists", wp.ID)
	}
	if wp.Name == "" {
		wp.Name = "waypoint_" + wp.ID[:8]
	}
	wp.CreatedAt = s.now()
	wp.UpdatedAt = wp.CreatedAt

	if err := s.backend.PutWaypoint(wp); err != nil {
		return Waypoint{}, err
	}
	stored := wp
	s.waypoints[wp.ID] = &stored
	s.order = append(s.order, wp.ID)
	return wp, nil
}

// GetWaypoint returns a copy of one waypoint.
func (s *Store) GetWaypoint(id string) (Waypoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wp, ok := s.waypoints[id]
	if !ok {
		return Waypoint{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneWaypoint(wp), nil
}

// ListWaypoints returns waypoints in creation order, optionally
// filtered by type and direct group membership.
func (s *Store) ListWaypoints(typ, groupID string) ([]Waypoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if groupID != "" {
		if _, ok := s.groups[groupID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
		}
	}
	out := make([]Waypoint, 0, len(s.order))
	for _, id := range s.order {
		wp := s.waypoints[id]
		if typ != "" && wp.Type != typ {
			continue
		}
		if groupID != "" && !contains(wp.GroupIDs, groupID) {
			continue
		}
		out = append(out, cloneWaypoint(wp))
	}
	return out, nil
}

// UpdateWaypoint applies a partial update. Unknown IDs return ErrNotFound.
func (s *Store) UpdateWaypoint(id string, upd Update) (Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wp, ok := s.waypoints[id]
	if !ok {
		return Waypoint{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := cloneWaypoint(wp)
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.Type != nil {
		next.Type = *upd.Type
	}
	if upd.Position != nil {
		next.Position = append([]float64(nil), upd.Position...)
	}
	if upd.Target != nil {
		next.Target = append([]float64(nil), upd.Target...)
	}
	if upd.Metadata != nil {
		next.Metadata = make(map[string]any, len(upd.Metadata))
		for k, v := range upd.Metadata {
			next.Metadata[k] = v
		}
	}
	next.UpdatedAt = s.now()
	if err := s.backend.PutWaypoint(next); err != nil {
		return Waypoint{}, err
	}
	*wp = next
	return cloneWaypoint(wp), nil
}

// RemoveWaypoint deletes one waypoint. Unknown IDs return ErrNotFound.
func (s *Store) RemoveWaypoint(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeWaypointLocked(id)
}

func (s *Store) removeWaypointLocked(id string) error {
	if _, ok := s.waypoints[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.backend.DeleteWaypoint(id); err != nil {
		return err
	}
	delete(s.waypoints, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// RemoveWaypoints deletes several waypoints and reports per-ID failures.
// Missing IDs are skipped, not fatal.
func (s *Store) RemoveWaypoints(ids []string) (removed int, missing []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		e := s.removeWaypointLocked(id)
		switch {
		case e == nil:
			removed++
		case strings.Contains(e.Error(), ErrNotFound.Error()):
			missing = append(missing, id)
		default:
			return removed, missing, e
		}
	}
	return removed, missing, nil
}

// ClearWaypoints drops every waypoint, keeping groups intact.
func (s *Store) ClearWaypoints() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.waypoints)
	for id := range s.waypoints {
		if err := s.backend.DeleteWaypoint(id); err != nil {
			return 0, err
		}
	}
	s.waypoints = make(map[string]*Waypoint)
	s.order = nil
	return n, nil
}

// Count returns the number of stored waypoints.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.waypoints)
}

func cloneWaypoint(wp *Waypoint) Waypoint {
	out := *wp
	out.Position = append([]float64(nil), wp.Position...)
	out.Target = append([]float64(nil), wp.Target...)
	out.GroupIDs = append([]string(nil), wp.GroupIDs...)
	if wp.Metadata != nil {
		out.Metadata = make(map[string]any, len(wp.Metadata))
		for k, v := range wp.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
