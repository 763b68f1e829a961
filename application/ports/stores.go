package ports

import (
	"context"
	"time"

	"specmap/domain/chat"
	"specmap/domain/events"
	"specmap/domain/spec"
)

// SessionRecord is the persisted form of a conversation: the graph
// snapshot, the transcript, and listing metadata.
type SessionRecord struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	FolderID     string         `json:"folderId,omitempty"`
	TemplateID   string         `json:"templateId,omitempty"`
	Graph        spec.Snapshot  `json:"graph"`
	Messages     []chat.Message `json:"messages"`
	MessageCount int            `json:"messageCount"`
	Preview      string         `json:"preview,omitempty"`
	Version      int64          `json:"version"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// SessionSummary is the listing view of a record, without the graph and
// transcript payloads.
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	FolderID     string    `json:"folderId,omitempty"`
	TemplateID   string    `json:"templateId,omitempty"`
	MessageCount int       `json:"messageCount"`
	Preview      string    `json:"preview,omitempty"`
	NodeCount    int       `json:"nodeCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ListFilter narrows a session listing.
type ListFilter struct {
	FolderID string
}

// SessionStore is the port to session persistence.
//
// Save uses last-write-wins semantics guarded by the record's version: an
// implementation rejects a write whose version is not greater than the
// stored one with a conflict error. Failures are recoverable; callers
// keep their in-memory state and retry on the next autosave tick.
type SessionStore interface {
	Create(ctx context.Context, rec *SessionRecord) error
	Get(ctx context.Context, id string) (*SessionRecord, error)
	List(ctx context.Context, filter ListFilter) ([]SessionSummary, error)
	Save(ctx context.Context, rec *SessionRecord) error
	Delete(ctx context.Context, id string) error
}

// EventPublisher is the port to the event bus. Publishing is best-effort:
// callers log failures and continue.
type EventPublisher interface {
	Publish(ctx context.Context, evts []events.DomainEvent) error
}

// MetricsRecorder is the port to the metrics backend.
type MetricsRecorder interface {
	Count(ctx context.Context, name string, value float64, dims map[string]string)
	Duration(ctx context.Context, name string, d time.Duration, dims map[string]string)
	Gauge(ctx context.Context, name string, value float64, dims map[string]string)
}
