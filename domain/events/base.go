package events

import (
	"time"
)

// Source identifies this service in published events.
const Source = "specmap.core"

// DomainEvent is the base interface for all domain events.
// Events represent something that has already happened.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// Graph events

// NodeAdded is raised when a node is inserted into a graph.
type NodeAdded struct {
	BaseEvent
	GraphID  string `json:"graph_id"`
	NodeID   string `json:"node_id"`
	Category string `json:"category"`
	Label    string `json:"label"`
}

// NewNodeAdded creates a NodeAdded event.
func NewNodeAdded(graphID, nodeID, category, label string, at time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: BaseEvent{AggregateID: graphID, EventType: "graph.node_added", Timestamp: at},
		GraphID:   graphID,
		NodeID:    nodeID,
		Category:  category,
		Label:     label,
	}
}

// NodeUpdated is raised when a node's attributes change.
type NodeUpdated struct {
	BaseEvent
	GraphID string `json:"graph_id"`
	NodeID  string `json:"node_id"`
}

// NewNodeUpdated creates a NodeUpdated event.
func NewNodeUpdated(graphID, nodeID string, at time.Time) NodeUpdated {
	return NodeUpdated{
		BaseEvent: BaseEvent{AggregateID: graphID, EventType: "graph.node_updated", Timestamp: at},
		GraphID:   graphID,
		NodeID:    nodeID,
	}
}

// NodeRemoved is raised when a node and its incident edges are removed.
type NodeRemoved struct {
	BaseEvent
	GraphID      string `json:"graph_id"`
	NodeID       string `json:"node_id"`
	EdgesRemoved int    `json:"edges_removed"`
}

// NewNodeRemoved creates a NodeRemoved event.
func NewNodeRemoved(graphID, nodeID string, edgesRemoved int, at time.Time) NodeRemoved {
	return NodeRemoved{
		BaseEvent:    BaseEvent{AggregateID: graphID, EventType: "graph.node_removed", Timestamp: at},
		GraphID:      graphID,
		NodeID:       nodeID,
		EdgesRemoved: edgesRemoved,
	}
}

// EdgeAdded is raised when two nodes are connected.
type EdgeAdded struct {
	BaseEvent
	GraphID  string `json:"graph_id"`
	EdgeID   string `json:"edge_id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// NewEdgeAdded creates an EdgeAdded event.
func NewEdgeAdded(graphID, edgeID, sourceID, targetID string, at time.Time) EdgeAdded {
	return EdgeAdded{
		BaseEvent: BaseEvent{AggregateID: graphID, EventType: "graph.edge_added", Timestamp: at},
		GraphID:   graphID,
		EdgeID:    edgeID,
		SourceID:  sourceID,
		TargetID:  targetID,
	}
}

// Session events

// SessionCreated is raised when a conversation is first persisted.
type SessionCreated struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

// NewSessionCreated creates a SessionCreated event.
func NewSessionCreated(sessionID, title string, at time.Time) SessionCreated {
	return SessionCreated{
		BaseEvent: BaseEvent{AggregateID: sessionID, EventType: "session.created", Timestamp: at},
		SessionID: sessionID,
		Title:     title,
	}
}

// SuggestionBatchApplied is raised after a human approves a batch of
// proposed edits and the graph is mutated.
type SuggestionBatchApplied struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Applied   int    `json:"applied"`
	Skipped   int    `json:"skipped"`
	Impact    string `json:"impact"`
}

// NewSuggestionBatchApplied creates a SuggestionBatchApplied event.
func NewSuggestionBatchApplied(sessionID string, applied, skipped int, impact string, at time.Time) SuggestionBatchApplied {
	return SuggestionBatchApplied{
		BaseEvent: BaseEvent{AggregateID: sessionID, EventType: "session.suggestions_applied", Timestamp: at},
		SessionID: sessionID,
		Applied:   applied,
		Skipped:   skipped,
		Impact:    impact,
	}
}

// SuggestionBatchRejected is raised when a human discards a proposed batch.
type SuggestionBatchRejected struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Discarded int    `json:"discarded"`
}

// NewSuggestionBatchRejected creates a SuggestionBatchRejected event.
func NewSuggestionBatchRejected(sessionID string, discarded int, at time.Time) SuggestionBatchRejected {
	return SuggestionBatchRejected{
		BaseEvent: BaseEvent{AggregateID: sessionID, EventType: "session.suggestions_rejected", Timestamp: at},
		SessionID: sessionID,
		Discarded: discarded,
	}
}

// GraphRenamed is raised when a rename edit is accepted.
type GraphRenamed struct {
	BaseEvent
	SessionID string `json:"session_id"`
	NewTitle  string `json:"new_title"`
}

// NewGraphRenamed creates a GraphRenamed event.
func NewGraphRenamed(sessionID, newTitle string, at time.Time) GraphRenamed {
	return GraphRenamed{
		BaseEvent: BaseEvent{AggregateID: sessionID, EventType: "session.renamed", Timestamp: at},
		SessionID: sessionID,
		NewTitle:  newTitle,
	}
}
