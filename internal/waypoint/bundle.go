// SPDX-License-Identifier: MIT

package waypoint

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// Merge modes for Import.
const (
	MergeModeMerge   = "merge"   // keep existing entries, add new ones
	MergeModeReplace = "replace" // clear the store, then load the bundle
)

// Export snapshots the store into a bundle.
func (s *Store) Export(includeGroups bool) *Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := &Bundle{Version: BundleVersion, ExportedAt: s.now()}
	for _, id := range s.order {
		b.Waypoints = append(b.Waypoints, cloneWaypoint(s.waypoints[id]))
	}
	if includeGroups {
		for _, g := range s.groups {
			b.Groups = append(b.Groups, cloneGroup(g))
		}
		sortGroups(b.Groups)
	}
	return b
}

// Import loads a bundle. Merge keeps existing entries and skips IDs
// that already exist; replace clears the store first. Groups are
// restored before waypoints so memberships resolve.
func (s *Store) Import(b *Bundle, mergeMode string) (*ImportStats, error) {
	if b.Version > BundleVersion {
		return nil, fmt.Errorf("bundle version %d is newer than supported version %d", b.Version, BundleVersion)
	}
	switch mergeMode {
	case MergeModeMerge, MergeModeReplace:
	default:
		return nil, fmt.Errorf("unknown merge_mode %q", mergeMode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &ImportStats{}
	if mergeMode == MergeModeReplace {
		stats.Removed = len(s.waypoints) + len(s.groups)
		if err := s.backend.Clear(); err != nil {
			return nil, err
		}
		s.waypoints = make(map[string]*Waypoint)
		s.groups = make(map[string]*Group)
		s.order = nil
	}

	for i := range b.Groups {
		g := b.Groups[i]
		if _, ok := s.groups[g.ID]; ok {
			continue
		}
		if err := s.backend.PutGroup(g); err != nil {
			return nil, err
		}
		stored := cloneGroup(&g)
		s.groups[g.ID] = &stored
		stats.GroupsAdded++
	}
	// Parents referencing groups absent from both the bundle and the
	// store are detached rather than rejected.
	for _, g := range s.groups {
		if g.ParentGroupID != "" {
			if _, ok := s.groups[g.ParentGroupID]; !ok {
				g.ParentGroupID = ""
				if err := s.backend.PutGroup(*g); err != nil {
					return nil, err
				}
			}
		}
	}

	for i := range b.Waypoints {
		wp := b.Waypoints[i]
		if _, ok := s.waypoints[wp.ID]; ok {
			continue
		}
		kept := wp.GroupIDs[:0:0]
		for _, gid := range wp.GroupIDs {
			if _, ok := s.groups[gid]; ok {
				kept = append(kept, gid)
			}
		}
		wp.GroupIDs = kept
		if err := s.backend.PutWaypoint(wp); err != nil {
			return nil, err
		}
		stored := cloneWaypoint(&wp)
		s.waypoints[wp.ID] = &stored
		s.order = append(s.order, wp.ID)
		stats.WaypointsAdded++
	}
	return stats, nil
}

// WriteBundleFile writes a bundle to path atomically.
func WriteBundleFile(path string, b *Bundle) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

// DecodeBundle converts an already-parsed JSON object into a Bundle.
func DecodeBundle(raw map[string]any) (*Bundle, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

// ReadBundleFile reads a bundle written by WriteBundleFile.
func ReadBundleFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}
