package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoLimiterAPI is the DynamoDB client subset the distributed limiter uses.
type DynamoLimiterAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DistributedRateLimiter counts requests per fixed window in DynamoDB so
// limits hold across Lambda invocations. Counter rows expire via TTL an
// hour after their window closes.
type DistributedRateLimiter struct {
	client    DynamoLimiterAPI
	tableName string
	limit     int
	window    time.Duration
	keyPrefix string
}

// NewDistributedRateLimiter creates a DynamoDB-backed limiter. A nil
// client disables limiting, which keeps local development unblocked.
func NewDistributedRateLimiter(client DynamoLimiterAPI, tableName string, requestsPerMinute int, keyPrefix string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client:    client,
		tableName: tableName,
		limit:     requestsPerMinute,
		window:    time.Minute,
		keyPrefix: keyPrefix,
	}
}

func (r *DistributedRateLimiter) windowKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("RATELIMIT#%s#%s#%d", r.keyPrefix, key, windowStart.Unix())
}

// Allow atomically increments the window counter; the conditional update
// rejects the increment once the limit is reached. DynamoDB errors fail
// open so an outage does not block traffic.
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return true, nil
	}

	windowStart := time.Now().Truncate(r.window)
	windowEnd := windowStart.Add(r.window)

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: r.windowKey(key, windowStart)},
		},
		UpdateExpression:    aws.String("SET #count = if_not_exists(#count, :zero) + :incr, #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#count) OR #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "Count",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":incr":  &types.AttributeValueMemberN{Value: "1"},
			":limit": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", r.limit)},
			":ttl":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", windowEnd.Add(time.Hour).Unix())},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return true, fmt.Errorf("rate limiter error (failing open): %w", err)
	}
	return true, nil
}

// Reset clears the current window for a key.
func (r *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}

	windowStart := time.Now().Truncate(r.window)
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: r.windowKey(key, windowStart)},
		},
	})
	return err
}
