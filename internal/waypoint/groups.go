// SPDX-License-Identifier: MIT

package waypoint

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// CreateGroup stores a new group. A parent, when set, must exist.
func (s *Store) CreateGroup(g Group) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ParentGroupID != "" {
		if _, ok := s.groups[g.ParentGroupID]; !ok {
			return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, g.ParentGroupID)
		}
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	} else if _, ok := s.groups[g.ID]; ok {
		return Group{}, fmt.Errorf("group %s already exists", g.ID)
	}
	g.CreatedAt = s.now()

	if err := s.backend.PutGroup(g); err != nil {
		return Group{}, err
	}
	stored := g
	s.groups[g.ID] = &stored
	return g, nil
}

// GetGroup returns a copy of one group.
func (s *Store) GetGroup(id string) (Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	return cloneGroup(g), nil
}

// ListGroups returns groups sorted by creation time. When parent is
// non-nil, only direct children of that parent are returned; the empty
// string selects top-level groups.
func (s *Store) ListGroups(parent *string) ([]Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if parent != nil && *parent != "" {
		if _, ok := s.groups[*parent]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, *parent)
		}
	}
	out := make([]Group, 0, len(s.groups))
	for _, g := range s.groups {
		if parent != nil && g.ParentGroupID != *parent {
			continue
		}
		out = append(out, cloneGroup(g))
	}
	sortGroups(out)
	return out, nil
}

// UpdateGroup changes a group's name, description, color or parent.
// Moving a group under one of its own descendants returns ErrCycle.
func (s *Store) UpdateGroup(id string, name, description, parent *string, color []float64) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	next := cloneGroup(g)
	if name != nil {
		next.Name = *name
	}
	if description != nil {
		next.Description = *description
	}
	if color != nil {
		next.Color = append([]float64(nil), color...)
	}
	if parent != nil {
		if *parent != "" {
			if _, ok := s.groups[*parent]; !ok {
				return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, *parent)
			}
			if *parent == id || s.isDescendantLocked(*parent, id) {
				return Group{}, fmt.Errorf("%w: %s under %s", ErrCycle, id, *parent)
			}
		}
		next.ParentGroupID = *parent
	}
	if err := s.backend.PutGroup(next); err != nil {
		return Group{}, err
	}
	*g = next
	return cloneGroup(g), nil
}

// isDescendantLocked reports whether candidate sits below ancestor in
// the group tree.
func (s *Store) isDescendantLocked(candidate, ancestor string) bool {
	seen := map[string]bool{}
	cur := candidate
	for cur != "" && !seen[cur] {
		seen[cur] = true
		g, ok := s.groups[cur]
		if !ok {
			return false
		}
		if g.ParentGroupID == ancestor {
			return true
		}
		cur = g.ParentGroupID
	}
	return false
}

// RemoveGroup deletes a group and detaches its members. With cascade,
// nested groups are removed too; otherwise children are reparented to
// the removed group's parent. Returns the number of groups removed.
func (s *Store) RemoveGroup(id string, cascade bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}

	doomed := []string{id}
	if cascade {
		doomed = append(doomed, s.descendantsLocked(id)...)
	} else {
		for _, child := range s.groups {
			if child.ParentGroupID != id {
				continue
			}
			next := cloneGroup(child)
			next.ParentGroupID = g.ParentGroupID
			if err := s.backend.PutGroup(next); err != nil {
				return 0, err
			}
			*child = next
		}
	}

	doomedSet := make(map[string]bool, len(doomed))
	for _, did := range doomed {
		doomedSet[did] = true
	}
	for _, wp := range s.waypoints {
		kept := wp.GroupIDs[:0:0]
		for _, gid := range wp.GroupIDs {
			if !doomedSet[gid] {
				kept = append(kept, gid)
			}
		}
		if len(kept) == len(wp.GroupIDs) {
			continue
		}
		next := cloneWaypoint(wp)
		next.GroupIDs = kept
		next.UpdatedAt = s.now()
		if err := s.backend.PutWaypoint(next); err != nil {
			return 0, err
		}
		*wp = next
	}
	for _, did := range doomed {
		if err := s.backend.DeleteGroup(did); err != nil {
			return 0, err
		}
		delete(s.groups, did)
	}
	return len(doomed), nil
}

func (s *Store) descendantsLocked(id string) []string {
	var out []string
	var walk func(string)
	walk = func(parent string) {
		for gid, g := range s.groups {
			if g.ParentGroupID == parent {
				out = append(out, gid)
				walk(gid)
			}
		}
	}
	walk(id)
	return out
}

// AddWaypointToGroups attaches a waypoint to each named group.
func (s *Store) AddWaypointToGroups(id string, groupIDs []string) (Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wp, ok := s.waypoints[id]
	if !ok {
		return Waypoint{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, gid := range groupIDs {
		if _, ok := s.groups[gid]; !ok {
			return Waypoint{}, fmt.Errorf("%w: %s", ErrGroupNotFound, gid)
		}
	}
	next := cloneWaypoint(wp)
	for _, gid := range groupIDs {
		if !contains(next.GroupIDs, gid) {
			next.GroupIDs = append(next.GroupIDs, gid)
		}
	}
	next.UpdatedAt = s.now()
	if err := s.backend.PutWaypoint(next); err != nil {
		return Waypoint{}, err
	}
	*wp = next
	return cloneWaypoint(wp), nil
}

// RemoveWaypointFromGroups detaches a waypoint from each named group.
// Memberships that do not exist are ignored.
func (s *Store) RemoveWaypointFromGroups(id string, groupIDs []string) (Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wp, ok := s.waypoints[id]
	if !ok {
		return Waypoint{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	drop := make(map[string]bool, len(groupIDs))
	for _, gid := range groupIDs {
		drop[gid] = true
	}
	next := cloneWaypoint(wp)
	kept := next.GroupIDs[:0:0]
	for _, gid := range next.GroupIDs {
		if !drop[gid] {
			kept = append(kept, gid)
		}
	}
	next.GroupIDs = kept
	next.UpdatedAt = s.now()
	if err := s.backend.PutWaypoint(next); err != nil {
		return Waypoint{}, err
	}
	*wp = next
	return cloneWaypoint(wp), nil
}

// GetWaypointGroups returns the groups a waypoint belongs to.
func (s *Store) GetWaypointGroups(id string) ([]Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wp, ok := s.waypoints[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := make([]Group, 0, len(wp.GroupIDs))
	for _, gid := range wp.GroupIDs {
		if g, ok := s.groups[gid]; ok {
			out = append(out, cloneGroup(g))
		}
	}
	sortGroups(out)
	return out, nil
}

// GetGroupWaypoints returns the waypoints in a group, optionally
// including waypoints of nested groups.
func (s *Store) GetGroupWaypoints(groupID string, includeNested bool) ([]Waypoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.groups[groupID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	want := map[string]bool{groupID: true}
	if includeNested {
		for _, gid := range s.descendantsLocked(groupID) {
			want[gid] = true
		}
	}
	out := []Waypoint{}
	for _, id := range s.order {
		wp := s.waypoints[id]
		for _, gid := range wp.GroupIDs {
			if want[gid] {
				out = append(out, cloneWaypoint(wp))
				break
			}
		}
	}
	return out, nil
}

// Hierarchy returns the full group tree with per-group direct
// waypoint counts.
func (s *Store) Hierarchy() []*HierarchyNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, wp := range s.waypoints {
		for _, gid := range wp.GroupIDs {
			counts[gid]++
		}
	}
	nodes := make(map[string]*HierarchyNode, len(s.groups))
	for id, g := range s.groups {
		nodes[id] = &HierarchyNode{Group: cloneGroup(g), WaypointCount: counts[id]}
	}
	var roots []*HierarchyNode
	for id, n := range nodes {
		parent := s.groups[id].ParentGroupID
		if p, ok := nodes[parent]; ok {
			p.Children = append(p.Children, n)
		} else {
			roots = append(roots, n)
		}
	}
	var sortNodes func([]*HierarchyNode)
	sortNodes = func(ns []*HierarchyNode) {
		sort.Slice(ns, func(i, j int) bool {
			if !ns[i].Group.CreatedAt.Equal(ns[j].Group.CreatedAt) {
				return ns[i].Group.CreatedAt.Before(ns[j].Group.CreatedAt)
			}
			return ns[i].Group.ID < ns[j].Group.ID
		})
		for _, n := range ns {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)
	for _, n := range nodes {
		sortNodes(n.Children)
	}
	return roots
}

// GroupCount returns the number of stored groups.
func (s *Store) GroupCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups)
}

func cloneGroup(g *Group) Group {
	out := *g
	out.Color = append([]float64(nil), g.Color...)
	return out
}

func sortGroups(gs []Group) {
	sort.Slice(gs, func(i, j int) bool {
		if !gs[i].CreatedAt.Equal(gs[j].CreatedAt) {
			return gs[i].CreatedAt.Before(gs[j].CreatedAt)
		}
		return gs[i].ID < gs[j].ID
	})
}
