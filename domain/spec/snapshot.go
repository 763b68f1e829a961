package spec

import "time"

// NodeView is an immutable copy of a node, used in snapshots and for
// persistence round-trips.
type NodeView struct {
	ID         string     `json:"id"`
	Category   string     `json:"type"`
	Position   Position   `json:"position"`
	Attributes Attributes `json:"data"`
	CreatedAt  time.Time  `json:"createdAt,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt,omitempty"`
}

// EdgeView is an immutable copy of an edge.
type EdgeView struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Snapshot is a detached, deep copy of a graph's full state.
type Snapshot struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Version int64      `json:"version"`
	Nodes   []NodeView `json:"nodes"`
	Edges   []EdgeView `json:"edges"`
}
