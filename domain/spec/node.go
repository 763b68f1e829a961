package spec

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Position is a 2D coordinate on the diagram canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Equals checks positional equality.
func (p Position) Equals(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// TodoItem is a single checklist entry on a todo node.
type TodoItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Attributes holds the editable payload of a node. Label and Description
// exist for every category; the remaining fields are meaningful only for
// the category they belong to (Fields for datamodel, Technology for
// technical, Todos for todo) and stay empty elsewhere.
type Attributes struct {
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Group       string     `json:"category,omitempty"`
	Fields      []string   `json:"fields,omitempty"`
	Technology  string     `json:"technology,omitempty"`
	Todos       []TodoItem `json:"todos,omitempty"`
}

// clone returns a deep copy.
func (a Attributes) clone() Attributes {
	out := a
	if a.Fields != nil {
		out.Fields = make([]string, len(a.Fields))
		copy(out.Fields, a.Fields)
	}
	if a.Todos != nil {
		out.Todos = make([]TodoItem, len(a.Todos))
		copy(out.Todos, a.Todos)
	}
	return out
}

// AttributeUpdate is a partial set of attribute changes. Nil pointers and
// nil slices mean "leave unchanged"; everything else overwrites. Keys not
// mentioned are always preserved.
type AttributeUpdate struct {
	Label       *string    `json:"label,omitempty"`
	Description *string    `json:"description,omitempty"`
	Group       *string    `json:"category,omitempty"`
	Fields      []string   `json:"fields,omitempty"`
	Technology  *string    `json:"technology,omitempty"`
	Todos       []TodoItem `json:"todos,omitempty"`
}

// IsZero reports whether the update carries no changes at all.
func (u AttributeUpdate) IsZero() bool {
	return u.Label == nil && u.Description == nil && u.Group == nil &&
		u.Technology == nil && u.Fields == nil && u.Todos == nil
}

// Node is a single specification element. The id and category are fixed at
// creation; position and attributes are mutable through the owning Graph.
type Node struct {
	id        string
	category  Category
	position  Position
	attrs     Attributes
	createdAt time.Time
	updatedAt time.Time
}

// NewNodeID generates a fresh node identifier. The millisecond timestamp
// keeps ids roughly ordered; the random suffix keeps them unique under
// rapid repeated calls within the same millisecond.
func NewNodeID() string {
	return fmt.Sprintf("node-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// newNode builds a node with a generated id. Only the Graph aggregate
// creates nodes, so the constructor stays package-private.
func newNode(category Category, attrs Attributes, pos Position) *Node {
	now := time.Now()
	return &Node{
		id:        NewNodeID(),
		category:  category,
		position:  pos,
		attrs:     attrs.clone(),
		createdAt: now,
		updatedAt: now,
	}
}

// reconstructNode rebuilds a node from persisted data, preserving its id
// and timestamps.
func reconstructNode(id string, category Category, attrs Attributes, pos Position, createdAt, updatedAt time.Time) *Node {
	return &Node{
		id:        id,
		category:  category,
		position:  pos,
		attrs:     attrs.clone(),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the node's unique identifier.
func (n *Node) ID() string {
	return n.id
}

// Category returns the node's fixed category.
func (n *Node) Category() Category {
	return n.category
}

// Position returns the node's current canvas position.
func (n *Node) Position() Position {
	return n.position
}

// Attributes returns a deep copy of the node's attributes.
func (n *Node) Attributes() Attributes {
	return n.attrs.clone()
}

// Label returns the display label.
func (n *Node) Label() string {
	return n.attrs.Label
}

// CreatedAt returns when the node was created.
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node last changed.
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// MoveTo moves the node to a new position.
func (n *Node) MoveTo(pos Position) {
	if pos.Equals(n.position) {
		return
	}
	n.position = pos
	n.updatedAt = time.Now()
}

// applyUpdate merges a partial attribute update into the node. New values
// overwrite, unspecified values are preserved.
func (n *Node) applyUpdate(upd AttributeUpdate) {
	if upd.Label != nil {
		n.attrs.Label = *upd.Label
	}
	if upd.Description != nil {
		n.attrs.Description = *upd.Description
	}
	if upd.Group != nil {
		n.attrs.Group = *upd.Group
	}
	if upd.Technology != nil {
		n.attrs.Technology = *upd.Technology
	}
	if upd.Fields != nil {
		n.attrs.Fields = make([]string, len(upd.Fields))
		copy(n.attrs.Fields, upd.Fields)
	}
	if upd.Todos != nil {
		n.attrs.Todos = make([]TodoItem, len(upd.Todos))
		copy(n.attrs.Todos, upd.Todos)
	}
	n.updatedAt = time.Now()
}

// matchesLabel compares the node's label case-insensitively after trimming.
func (n *Node) matchesLabel(label string) bool {
	return strings.EqualFold(strings.TrimSpace(n.attrs.Label), strings.TrimSpace(label))
}
