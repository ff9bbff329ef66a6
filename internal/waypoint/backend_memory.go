// SPDX-License-Identifier: MIT

package waypoint

// MemoryBackend keeps records in process memory only. It is the
// default backend and the one used by most tests.
type MemoryBackend struct {
	waypoints map[string]Waypoint
	groups    map[string]Group
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		waypoints: make(map[string]Waypoint),
		groups:    make(map[string]Group),
	}
}

func (m *MemoryBackend) Load() ([]Waypoint, []Group, error) {
	wps := make([]Waypoint, 0, len(m.waypoints))
	for _, wp := range m.waypoints {
		wps = append(wps, wp)
	}
	groups := make([]Group, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g)
	}
	return wps, groups, nil
}

func (m *MemoryBackend) PutWaypoint(wp Waypoint) error {
	m.waypoints[wp.ID] = wp
	return nil
}

func (m *MemoryBackend) DeleteWaypoint(id string) error {
	delete(m.waypoints, id)
	return nil
}

func (m *MemoryBackend) PutGroup(g Group) error {
	m.groups[g.ID] = g
	return nil
}

func (m *MemoryBackend) DeleteGroup(id string) error {
	delete(m.groups, id)
	return nil
}

func (m *MemoryBackend) Clear() error {
	m.waypoints = make(map[string]Waypoint)
	m.groups = make(map[string]Group)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

var _ Backend = (*MemoryBackend)(nil)
