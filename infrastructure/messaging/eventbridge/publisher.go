// Package eventbridge publishes domain events to an EventBridge bus so
// downstream consumers (analytics, notifications) can react to graph and
// session activity.
package eventbridge

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"specmap/domain/events"
	"specmap/pkg/errors"
)

// putEventsBatchSize is the EventBridge PutEvents limit per call.
const putEventsBatchSize = 10

// EventBridgeAPI is the subset of the EventBridge client we use.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error)
}

// Publisher ships domain events to EventBridge in batches. Publishing is
// best-effort from the caller's perspective; partial failures are logged
// and reported but never stop the session.
type Publisher struct {
	client  EventBridgeAPI
	busName string
	logger  *zap.Logger
}

// NewPublisher creates an EventBridge publisher.
func NewPublisher(client EventBridgeAPI, busName string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Publish sends domain events in batches of at most ten entries.
func (p *Publisher) Publish(ctx context.Context, evts []events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	entries := make([]types.PutEventsRequestEntry, 0, len(evts))
	for _, evt := range evts {
		detail, err := json.Marshal(evt)
		if err != nil {
			p.logger.Warn("skipping unmarshalable event",
				zap.String("event_type", evt.GetEventType()),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(events.Source),
			DetailType:   aws.String(evt.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(evt.GetTimestamp()),
		})
	}

	var failed int
	for start := 0; start < len(entries); start += putEventsBatchSize {
		end := start + putEventsBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		out, err := p.client.PutEvents(ctx, &awseventbridge.PutEventsInput{
			Entries: entries[start:end],
		})
		if err != nil {
			return errors.NewPersistenceError("publish events", err)
		}
		if out.FailedEntryCount > 0 {
			failed += int(out.FailedEntryCount)
			for _, entry := range out.Entries {
				if entry.ErrorCode != nil {
					p.logger.Warn("event entry rejected",
						zap.String("code", aws.ToString(entry.ErrorCode)),
						zap.String("message", aws.ToString(entry.ErrorMessage)),
					)
				}
			}
		}
	}

	if failed > 0 {
		return errors.NewPersistenceError("publish events", nil).
			WithDetails(map[string]interface{}{"failed_entries": failed})
	}
	p.logger.Debug("published events", zap.Int("count", len(entries)))
	return nil
}
