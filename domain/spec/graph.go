package spec

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"specmap/domain/events"
	"specmap/pkg/errors"
)

// Edge is a directed connection between two nodes in a graph.
type Edge struct {
	id     string
	source string
	target string
	label  string
}

// NewEdgeID generates a unique edge identifier.
func NewEdgeID() string {
	return fmt.Sprintf("edge-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func (e *Edge) ID() string     { return e.id }
func (e *Edge) Source() string { return e.source }
func (e *Edge) Target() string { return e.target }
func (e *Edge) Label() string  { return e.label }

// touches reports whether the edge is incident to the given node.
func (e *Edge) touches(nodeID string) bool {
	return e.source == nodeID || e.target == nodeID
}

// Graph is the aggregate root for a diagram. It owns nodes and edges and
// enforces referential integrity: every edge endpoint refers to a node that
// exists in the same graph, and removing a node cascades to its incident
// edges. Nodes keep insertion order so snapshots and scoring are stable.
//
// Graph is not safe for concurrent use. Callers serialize access; the
// session controller owns a graph for the lifetime of a conversation.
type Graph struct {
	id       string
	title    string
	nodes    map[string]*Node
	order    []string
	edges    []*Edge
	version  int64
	updated  time.Time
	uncommit []events.DomainEvent
}

// NewGraph creates an empty graph with the given title.
func NewGraph(id, title string) *Graph {
	return &Graph{
		id:      id,
		title:   title,
		nodes:   make(map[string]*Node),
		updated: time.Now(),
	}
}

// ReconstructGraph rebuilds a graph from persisted state without raising
// events. Edges referring to unknown nodes are dropped.
func ReconstructGraph(id, title string, version int64, nodes []NodeView, edgs []EdgeView) *Graph {
	g := &Graph{
		id:      id,
		title:   title,
		nodes:   make(map[string]*Node, len(nodes)),
		order:   make([]string, 0, len(nodes)),
		version: version,
		updated: time.Now(),
	}
	for _, nv := range nodes {
		n := reconstructNode(nv.ID, Category(nv.Category), nv.Attributes, nv.Position, nv.CreatedAt, nv.UpdatedAt)
		g.nodes[n.ID()] = n
		g.order = append(g.order, n.ID())
	}
	for _, ev := range edgs {
		if _, ok := g.nodes[ev.Source]; !ok {
			continue
		}
		if _, ok := g.nodes[ev.Target]; !ok {
			continue
		}
		g.edges = append(g.edges, &Edge{id: ev.ID, source: ev.Source, target: ev.Target, label: ev.Label})
	}
	return g
}

func (g *Graph) ID() string    { return g.id }
func (g *Graph) Title() string { return g.title }

// Version is a monotonic counter bumped on every mutation. Persistence
// uses it for last-write-wins conflict detection.
func (g *Graph) Version() int64 { return g.version }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Rename sets a new title for the graph.
func (g *Graph) Rename(title string) {
	g.title = title
	g.touch()
}

// Node returns the node with the given id, or nil when absent.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// HasNode reports whether the given node id exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// CountByCategory returns how many nodes of the given category the graph
// holds. The layout policy uses this to stack new nodes within a lane.
func (g *Graph) CountByCategory(c Category) int {
	n := 0
	for _, id := range g.order {
		if g.nodes[id].Category() == c {
			n++
		}
	}
	return n
}

// FindByLabel returns the first node, in insertion order, matching the
// given category and label (case-insensitive, whitespace-trimmed). Returns
// nil when no node matches.
func (g *Graph) FindByLabel(c Category, label string) *Node {
	for _, id := range g.order {
		n := g.nodes[id]
		if n.Category() == c && n.matchesLabel(label) {
			return n
		}
	}
	return nil
}

// FindAnyByLabel returns the first node of any category, in insertion
// order, matching the given label. Returns nil when no node matches.
func (g *Graph) FindAnyByLabel(label string) *Node {
	for _, id := range g.order {
		if g.nodes[id].matchesLabel(label) {
			return g.nodes[id]
		}
	}
	return nil
}

// AddNode inserts a new node and returns its generated id. When pos is
// nil the layout policy assigns a lane position based on the node's
// category and how many nodes of that category already exist.
func (g *Graph) AddNode(category Category, attrs Attributes, pos *Position) string {
	var p Position
	if pos != nil {
		p = *pos
	} else {
		p = ComputePosition(category, g.CountByCategory(category))
	}
	n := newNode(category, attrs, p)
	g.nodes[n.ID()] = n
	g.order = append(g.order, n.ID())
	g.touch()
	g.raise(events.NewNodeAdded(g.id, n.ID(), string(category), attrs.Label, g.updated))
	return n.ID()
}

// UpdateNode merges the given update into an existing node's attributes.
// Fields the update does not specify are preserved.
func (g *Graph) UpdateNode(id string, upd AttributeUpdate) error {
	n, ok := g.nodes[id]
	if !ok {
		return errors.NewInvalidReference(fmt.Sprintf("node %s not found", id))
	}
	n.applyUpdate(upd)
	g.touch()
	g.raise(events.NewNodeUpdated(g.id, id, g.updated))
	return nil
}

// MoveNode repositions an existing node.
func (g *Graph) MoveNode(id string, pos Position) error {
	n, ok := g.nodes[id]
	if !ok {
		return errors.NewInvalidReference(fmt.Sprintf("node %s not found", id))
	}
	n.MoveTo(pos)
	g.touch()
	return nil
}

// AddEdge connects two existing nodes and returns the new edge id. Both
// endpoints must exist; duplicate edges between the same pair are allowed
// at this layer.
func (g *Graph) AddEdge(source, target, label string) (string, error) {
	if _, ok := g.nodes[source]; !ok {
		return "", errors.NewInvalidReference(fmt.Sprintf("edge source %s not found", source))
	}
	if _, ok := g.nodes[target]; !ok {
		return "", errors.NewInvalidReference(fmt.Sprintf("edge target %s not found", target))
	}
	e := &Edge{id: NewEdgeID(), source: source, target: target, label: label}
	g.edges = append(g.edges, e)
	g.touch()
	g.raise(events.NewEdgeAdded(g.id, e.id, source, target, g.updated))
	return e.id, nil
}

// RemoveNode deletes a node together with every edge incident to it.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return errors.NewInvalidReference(fmt.Sprintf("node %s not found", id))
	}
	delete(g.nodes, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	kept := g.edges[:0]
	removed := 0
	for _, e := range g.edges {
		if e.touches(id) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	g.touch()
	g.raise(events.NewNodeRemoved(g.id, id, removed, g.updated))
	return nil
}

// RemoveEdge deletes a single edge by id.
func (g *Graph) RemoveEdge(id string) error {
	for i, e := range g.edges {
		if e.id == id {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			g.touch()
			return nil
		}
	}
	return errors.NewInvalidReference(fmt.Sprintf("edge %s not found", id))
}

// Nodes returns the graph's nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns the graph's edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Snapshot produces a deep copy of the graph state, detached from the
// live aggregate. Later mutations do not affect a snapshot.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		ID:      g.id,
		Title:   g.title,
		Version: g.version,
		Nodes:   make([]NodeView, 0, len(g.order)),
		Edges:   make([]EdgeView, 0, len(g.edges)),
	}
	for _, id := range g.order {
		n := g.nodes[id]
		s.Nodes = append(s.Nodes, NodeView{
			ID:         n.ID(),
			Category:   string(n.Category()),
			Position:   n.Position(),
			Attributes: n.Attributes(),
			CreatedAt:  n.CreatedAt(),
			UpdatedAt:  n.UpdatedAt(),
		})
	}
	for _, e := range g.edges {
		s.Edges = append(s.Edges, EdgeView{ID: e.id, Source: e.source, Target: e.target, Label: e.label})
	}
	return s
}

// UncommittedEvents returns events raised since the last call to
// MarkEventsCommitted.
func (g *Graph) UncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(g.uncommit))
	copy(out, g.uncommit)
	return out
}

// MarkEventsCommitted clears the uncommitted event list.
func (g *Graph) MarkEventsCommitted() {
	g.uncommit = nil
}

func (g *Graph) touch() {
	g.version++
	g.updated = time.Now()
}

func (g *Graph) raise(e events.DomainEvent) {
	g.uncommit = append(g.uncommit, e)
}
