package observability

import (
	"context"
	"fmt"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer wraps X-Ray segments behind a small interface so callers don't
// touch the SDK directly.
type Tracer struct {
	serviceName string
}

// NewTracer creates a tracer for the given service name.
func NewTracer(serviceName string) *Tracer {
	if serviceName == "" {
		serviceName = "specmap"
	}
	return &Tracer{serviceName: serviceName}
}

// StartSegment starts a new trace segment.
func (t *Tracer) StartSegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	return xray.BeginSegment(ctx, fmt.Sprintf("%s.%s", t.serviceName, name))
}

// StartSubsegment starts a subsegment within an existing segment.
func (t *Tracer) StartSubsegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	return xray.BeginSubsegment(ctx, name)
}

// TraceFunction runs fn inside a subsegment, recording any error.
func (t *Tracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, seg := t.StartSubsegment(ctx, name)
	if seg == nil {
		// No open parent segment, e.g. local runs without the X-Ray daemon.
		return fn(ctx)
	}
	defer seg.Close(nil)

	err := fn(ctx)
	if err != nil {
		seg.AddError(err)
	}
	return err
}

// TraceTurn traces one conversational turn, annotated with the session id
// so traces can be filtered per conversation.
func (t *Tracer) TraceTurn(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	ctx, seg := t.StartSubsegment(ctx, "session.turn")
	if seg == nil {
		return fn(ctx)
	}
	defer seg.Close(nil)

	seg.AddAnnotation("session_id", sessionID)
	err := fn(ctx)
	if err != nil {
		seg.AddError(err)
	}
	return err
}

// AddMetadata adds metadata to the current segment.
func (t *Tracer) AddMetadata(ctx context.Context, key string, value interface{}) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddMetadata(key, value)
	}
}

// AddAnnotation adds an indexed annotation to the current segment.
func (t *Tracer) AddAnnotation(ctx context.Context, key string, value string) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddAnnotation(key, value)
	}
}

// RecordError records an error in the current segment.
func (t *Tracer) RecordError(ctx context.Context, err error) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddError(err)
	}
}
