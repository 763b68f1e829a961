// Package dynamodb persists sessions in a single DynamoDB table. It is
// the production counterpart of the sqlite store.
package dynamodb

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"specmap/application/ports"
	"specmap/domain/chat"
	"specmap/domain/spec"
	"specmap/pkg/errors"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// SessionStore implements ports.SessionStore on DynamoDB.
type SessionStore struct {
	client    DynamoAPI
	tableName string
	logger    *zap.Logger
}

// NewSessionStore creates a DynamoDB-backed session store.
func NewSessionStore(client DynamoAPI, tableName string, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// sessionItem is the DynamoDB item shape. Graph and transcript travel as
// JSON documents; listing fields are flattened for projection.
type sessionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	SessionID    string `dynamodbav:"SessionID"`
	Title        string `dynamodbav:"Title"`
	FolderID     string `dynamodbav:"FolderID,omitempty"`
	TemplateID   string `dynamodbav:"TemplateID,omitempty"`
	GraphJSON    string `dynamodbav:"GraphJSON"`
	MessagesJSON string `dynamodbav:"MessagesJSON"`
	MessageCount int    `dynamodbav:"MessageCount"`
	NodeCount    int    `dynamodbav:"NodeCount"`
	Preview      string `dynamodbav:"Preview,omitempty"`
	Version      int64  `dynamodbav:"Version"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	UpdatedAt    string `dynamodbav:"UpdatedAt"`
}

func sessionKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("SESSION#%s", id)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// Create stores a new session, failing when the id already exists.
func (s *SessionStore) Create(ctx context.Context, rec *ports.SessionRecord) error {
	item, err := s.toItem(rec)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errors.NewPersistenceError("marshal session", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errorsAs(err, &cond) {
			return errors.NewConflictError("session already exists")
		}
		return errors.NewPersistenceError("create session", err)
	}
	s.logger.Info("created session", zap.String("session_id", rec.ID))
	return nil
}

// Get loads a session by id.
func (s *SessionStore) Get(ctx context.Context, id string) (*ports.SessionRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       sessionKey(id),
	})
	if err != nil {
		return nil, errors.NewPersistenceError("load session", err)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError("session")
	}
	var item sessionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, errors.NewPersistenceError("unmarshal session", err)
	}
	return s.fromItem(item)
}

// List scans session metadata, most recently updated first.
func (s *SessionStore) List(ctx context.Context, filter ports.ListFilter) ([]ports.SessionSummary, error) {
	proj := expression.NamesList(
		expression.Name("SessionID"), expression.Name("Title"), expression.Name("FolderID"),
		expression.Name("TemplateID"), expression.Name("MessageCount"), expression.Name("NodeCount"),
		expression.Name("Preview"), expression.Name("UpdatedAt"),
	)
	cond := expression.Name("EntityType").Equal(expression.Value("SESSION"))
	if filter.FolderID != "" {
		cond = cond.And(expression.Name("FolderID").Equal(expression.Value(filter.FolderID)))
	}
	expr, err := expression.NewBuilder().WithFilter(cond).WithProjection(proj).Build()
	if err != nil {
		return nil, errors.NewPersistenceError("build list expression", err)
	}

	var out []ports.SessionSummary
	var startKey map[string]types.AttributeValue
	for {
		page, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			FilterExpression:          expr.Filter(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, errors.NewPersistenceError("list sessions", err)
		}
		for _, raw := range page.Items {
			var item sessionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, errors.NewPersistenceError("unmarshal session summary", err)
			}
			updated, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
			out = append(out, ports.SessionSummary{
				ID:           item.SessionID,
				Title:        item.Title,
				FolderID:     item.FolderID,
				TemplateID:   item.TemplateID,
				MessageCount: item.MessageCount,
				NodeCount:    item.NodeCount,
				Preview:      item.Preview,
				UpdatedAt:    updated,
			})
		}
		startKey = page.LastEvaluatedKey
		if startKey == nil {
			break
		}
	}

	// Scan order is undefined; sort newest first for listings.
	sortSummaries(out)
	return out, nil
}

// Save overwrites a session with a version-guarded conditional write. A
// record whose version is not newer than the stored one loses and gets a
// conflict back.
func (s *SessionStore) Save(ctx context.Context, rec *ports.SessionRecord) error {
	item, err := s.toItem(rec)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errors.NewPersistenceError("marshal session", err)
	}
	cond := expression.Name("Version").LessThan(expression.Value(rec.Version))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return errors.NewPersistenceError("build save expression", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errorsAs(err, &condErr) {
			return errors.NewConflictError("a newer version of the session is already stored")
		}
		return errors.NewPersistenceError("save session", err)
	}
	return nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       sessionKey(id),
	})
	if err != nil {
		return errors.NewPersistenceError("delete session", err)
	}
	return nil
}

func (s *SessionStore) toItem(rec *ports.SessionRecord) (sessionItem, error) {
	graph := rec.Graph
	if graph.Nodes == nil {
		graph.Nodes = []spec.NodeView{}
	}
	if graph.Edges == nil {
		graph.Edges = []spec.EdgeView{}
	}
	messages := rec.Messages
	if messages == nil {
		messages = []chat.Message{}
	}
	graphJSON, err := json.Marshal(graph)
	if err != nil {
		return sessionItem{}, errors.NewPersistenceError("encode graph", err)
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return sessionItem{}, errors.NewPersistenceError("encode messages", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return sessionItem{
		PK:           fmt.Sprintf("SESSION#%s", rec.ID),
		SK:           "METADATA",
		EntityType:   "SESSION",
		SessionID:    rec.ID,
		Title:        rec.Title,
		FolderID:     rec.FolderID,
		TemplateID:   rec.TemplateID,
		GraphJSON:    string(graphJSON),
		MessagesJSON: string(messagesJSON),
		MessageCount: rec.MessageCount,
		NodeCount:    len(rec.Graph.Nodes),
		Preview:      rec.Preview,
		Version:      rec.Version,
		CreatedAt:    createdAt.Format(time.RFC3339Nano),
		UpdatedAt:    time.Now().Format(time.RFC3339Nano),
	}, nil
}

func (s *SessionStore) fromItem(item sessionItem) (*ports.SessionRecord, error) {
	rec := &ports.SessionRecord{
		ID:           item.SessionID,
		Title:        item.Title,
		FolderID:     item.FolderID,
		TemplateID:   item.TemplateID,
		MessageCount: item.MessageCount,
		Preview:      item.Preview,
		Version:      item.Version,
	}
	if err := json.Unmarshal([]byte(item.GraphJSON), &rec.Graph); err != nil {
		return nil, errors.NewPersistenceError("decode graph", err)
	}
	if err := json.Unmarshal([]byte(item.MessagesJSON), &rec.Messages); err != nil {
		return nil, errors.NewPersistenceError("decode messages", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, item.CreatedAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return rec, nil
}

func sortSummaries(items []ports.SessionSummary) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
}

func errorsAs(err error, target any) bool {
	return stderrors.As(err, target)
}
