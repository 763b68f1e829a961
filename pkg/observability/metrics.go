package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// metricBatchSize is the CloudWatch PutMetricData limit per call.
const metricBatchSize = 20

// CloudWatchAPI is the subset of the CloudWatch client we use.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics buffers metric data and ships it to CloudWatch in
// batches. Emission is best-effort: failures are logged, never returned.
type CloudWatchMetrics struct {
	client    CloudWatchAPI
	namespace string
	logger    *zap.Logger

	mu     sync.Mutex
	buffer []types.MetricDatum
}

// NewCloudWatchMetrics creates a buffered CloudWatch metrics recorder.
func NewCloudWatchMetrics(client CloudWatchAPI, namespace string, logger *zap.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = "SpecMap"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// Count records an occurrence counter.
func (m *CloudWatchMetrics) Count(ctx context.Context, name string, value float64, dims map[string]string) {
	m.put(ctx, name, value, types.StandardUnitCount, dims)
}

// Duration records elapsed time in milliseconds.
func (m *CloudWatchMetrics) Duration(ctx context.Context, name string, d time.Duration, dims map[string]string) {
	m.put(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds, dims)
}

// Gauge records a point-in-time value.
func (m *CloudWatchMetrics) Gauge(ctx context.Context, name string, value float64, dims map[string]string) {
	m.put(ctx, name, value, types.StandardUnitNone, dims)
}

func (m *CloudWatchMetrics) put(ctx context.Context, name string, value float64, unit types.StandardUnit, dims map[string]string) {
	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
	for k, v := range dims {
		datum.Dimensions = append(datum.Dimensions, types.Dimension{
			Name:  aws.String(k),
			Value: aws.String(v),
		})
	}

	m.mu.Lock()
	m.buffer = append(m.buffer, datum)
	flush := len(m.buffer) >= metricBatchSize
	m.mu.Unlock()

	if flush {
		m.Flush(ctx)
	}
}

// Flush ships any buffered metrics immediately.
func (m *CloudWatchMetrics) Flush(ctx context.Context) {
	m.mu.Lock()
	if len(m.buffer) == 0 {
		m.mu.Unlock()
		return
	}
	batch := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	for start := 0; start < len(batch); start += metricBatchSize {
		end := start + metricBatchSize
		if end > len(batch) {
			end = len(batch)
		}
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch[start:end],
		})
		if err != nil {
			m.logger.Warn("metric emission failed", zap.Error(err), zap.Int("count", end-start))
		}
	}
}

// NopMetrics discards everything. Used in local development and tests.
type NopMetrics struct{}

func (NopMetrics) Count(context.Context, string, float64, map[string]string)         {}
func (NopMetrics) Duration(context.Context, string, time.Duration, map[string]string) {}
func (NopMetrics) Gauge(context.Context, string, float64, map[string]string)         {}
