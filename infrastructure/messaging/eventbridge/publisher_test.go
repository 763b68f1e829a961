package eventbridge

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"specmap/domain/events"
	"specmap/pkg/errors"
)

type fakeEventBridge struct {
	calls   []*awseventbridge.PutEventsInput
	err     error
	failing int32
}

func (f *fakeEventBridge) PutEvents(_ context.Context, params *awseventbridge.PutEventsInput, _ ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, params)
	out := &awseventbridge.PutEventsOutput{FailedEntryCount: f.failing}
	if f.failing > 0 {
		out.Entries = []types.PutEventsResultEntry{
			{ErrorCode: aws.String("ThrottlingException"), ErrorMessage: aws.String("rate exceeded")},
		}
	}
	return out, nil
}

func sampleEvents(n int) []events.DomainEvent {
	evts := make([]events.DomainEvent, 0, n)
	for i := 0; i < n; i++ {
		evts = append(evts, events.NewNodeAdded("graph-1", "node-1", "feature", "Checkout flow", time.Now()))
	}
	return evts
}

func TestPublisher_BatchesByTen(t *testing.T) {
	fake := &fakeEventBridge{}
	pub := NewPublisher(fake, "specmap-events", zap.NewNop())

	err := pub.Publish(context.Background(), sampleEvents(23))
	require.NoError(t, err)

	require.Len(t, fake.calls, 3)
	assert.Len(t, fake.calls[0].Entries, 10)
	assert.Len(t, fake.calls[1].Entries, 10)
	assert.Len(t, fake.calls[2].Entries, 3)

	entry := fake.calls[0].Entries[0]
	assert.Equal(t, events.Source, aws.ToString(entry.Source))
	assert.Equal(t, "graph.node_added", aws.ToString(entry.DetailType))
	assert.Equal(t, "specmap-events", aws.ToString(entry.EventBusName))
	assert.NotEmpty(t, aws.ToString(entry.Detail))
}

func TestPublisher_EmptyIsNoop(t *testing.T) {
	fake := &fakeEventBridge{}
	pub := NewPublisher(fake, "specmap-events", nil)

	require.NoError(t, pub.Publish(context.Background(), nil))
	assert.Empty(t, fake.calls)
}

func TestPublisher_PutEventsFailure(t *testing.T) {
	fake := &fakeEventBridge{err: context.DeadlineExceeded}
	pub := NewPublisher(fake, "specmap-events", zap.NewNop())

	err := pub.Publish(context.Background(), sampleEvents(1))
	require.Error(t, err)
	assert.True(t, errors.IsPersistence(err))
}

func TestPublisher_PartialFailureReported(t *testing.T) {
	fake := &fakeEventBridge{failing: 1}
	pub := NewPublisher(fake, "specmap-events", zap.NewNop())

	err := pub.Publish(context.Background(), sampleEvents(2))
	require.Error(t, err)
	assert.True(t, errors.IsPersistence(err))

	// The batch was still attempted.
	require.Len(t, fake.calls, 1)
	assert.Len(t, fake.calls[0].Entries, 2)
}

func TestPublisher_EntryTimeFromEvent(t *testing.T) {
	fake := &fakeEventBridge{}
	pub := NewPublisher(fake, "specmap-events", zap.NewNop())

	evt := events.NewNodeAdded("graph-1", "node-2", "datamodel", "Order entity", time.Now())
	require.NoError(t, pub.Publish(context.Background(), []events.DomainEvent{evt}))

	require.Len(t, fake.calls, 1)
	got := aws.ToTime(fake.calls[0].Entries[0].Time)
	assert.WithinDuration(t, evt.GetTimestamp(), got, time.Second)
}
