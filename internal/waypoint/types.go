// SPDX-License-Identifier: MIT

// Package waypoint implements the local store of named spatial points
// and their group memberships. Referential rules live in Store; the
// persistence backends (memory, badger, sqlite, redis) only carry
// records.
package waypoint

import (
	"errors"
	"time"
)

// Sentinel errors callers branch on.
var (
	ErrNotFound      = errors.New("waypoint: not found")
	ErrGroupNotFound = errors.New("waypoint: group not found")
	ErrCycle         = errors.New("waypoint: group parent would form a cycle")
)

// DefaultType is used when a waypoint is created without a type.
const DefaultType = "point_of_interest"

// Waypoint is one named spatial point.
type Waypoint struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"waypoint_type"`
	Position  []float64      `json:"position"`
	Target    []float64      `json:"target,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	GroupIDs  []string       `json:"group_ids,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Group is one waypoint group; groups nest through ParentGroupID.
type Group struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ParentGroupID string    `json:"parent_group_id,omitempty"`
	Description   string    `json:"description,omitempty"`
	Color         []float64 `json:"color,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Update is a partial waypoint update; nil fields stay unchanged.
type Update struct {
	Name     *string
	Type     *string
	Position []float64
	Target   []float64
	Metadata map[string]any
}

// Bundle is the export/import interchange shape.
type Bundle struct {
	Version    int        `json:"version"`
	ExportedAt time.Time  `json:"exported_at"`
	Waypoints  []Waypoint `json:"waypoints"`
	Groups     []Group    `json:"groups,omitempty"`
}

// BundleVersion is the current bundle format version.
const BundleVersion = 1

// ImportStats summarizes one import.
type ImportStats struct {
	WaypointsAdded int `json:"waypoints_added"`
	GroupsAdded    int `json:"groups_added"`
	Removed        int `json:"removed"` // cleared by merge_mode=replace
}

// HierarchyNode is one node of the group tree.
type HierarchyNode struct {
	Group         Group            `json:"group"`
	WaypointCount int              `json:"waypoint_count"`
	Children      []*HierarchyNode `json:"children,omitempty"`
}
