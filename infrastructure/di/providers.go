package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"specmap/application/ports"
	"specmap/application/scoring"
	"specmap/application/session"
	"specmap/application/suggestion"
	domaincfg "specmap/domain/config"
	"specmap/domain/events"
	"specmap/domain/template"
	"specmap/infrastructure/collaborator"
	"specmap/infrastructure/config"
	"specmap/infrastructure/messaging/eventbridge"
	dynamostore "specmap/infrastructure/persistence/dynamodb"
	"specmap/infrastructure/persistence/sqlite"
	"specmap/interfaces/http/rest/middleware"
	"specmap/pkg/auth"
	"specmap/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideDomainConfig returns the scoring and session tuning knobs.
func ProvideDomainConfig() *domaincfg.DomainConfig {
	return domaincfg.DefaultDomainConfig()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideSessionStore selects the persistence driver. SQLite backs local
// single-binary runs; DynamoDB backs Lambda deployments.
func ProvideSessionStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) (ports.SessionStore, error) {
	switch cfg.StorageDriver {
	case "dynamodb":
		return dynamostore.NewSessionStore(client, cfg.DynamoDBTable, logger), nil
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// ProvideCollaborator creates the AI collaborator client.
func ProvideCollaborator(cfg *config.Config, logger *zap.Logger) ports.Collaborator {
	return collaborator.NewClient(cfg.CollaboratorURL, cfg.CollaboratorAPIKey,
		collaborator.WithModel(cfg.CollaboratorModel),
		collaborator.WithRateLimit(cfg.CollaboratorRPS),
		collaborator.WithHTTPClient(&http.Client{Timeout: cfg.CollaboratorTimeout}),
		collaborator.WithLogger(logger),
	)
}

// ProvideEventPublisher creates an event publisher. Without a configured
// bus, events are dropped.
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return nopPublisher{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// nopPublisher drops events when no bus is configured.
type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, []events.DomainEvent) error { return nil }

// ProvideMetrics creates a metrics recorder.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.MetricsRecorder {
	if !cfg.EnableMetrics {
		return observability.NopMetrics{}
	}
	namespace := fmt.Sprintf("Specmap/%s", cfg.Environment)
	return observability.NewCloudWatchMetrics(client, namespace, logger)
}

// ProvideCatalog loads the embedded template catalog.
func ProvideCatalog() (*template.Catalog, error) {
	return template.LoadCatalog()
}

// ProvideScorer creates the progress scoring engine.
func ProvideScorer(dcfg *domaincfg.DomainConfig) *scoring.Engine {
	return scoring.NewEngine(dcfg)
}

// ProvideSuggester creates the suggestion apply engine.
func ProvideSuggester(logger *zap.Logger) *suggestion.Engine {
	return suggestion.NewEngine(logger)
}

// ProvideSessionManager wires the session layer.
func ProvideSessionManager(
	dcfg *domaincfg.DomainConfig,
	logger *zap.Logger,
	store ports.SessionStore,
	collab ports.Collaborator,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	catalog *template.Catalog,
	scorer *scoring.Engine,
	suggester *suggestion.Engine,
) *session.Manager {
	return session.NewManager(session.Deps{
		Config:    dcfg,
		Logger:    logger,
		Store:     store,
		Collab:    collab,
		Publisher: publisher,
		Metrics:   metrics,
		Catalog:   catalog,
		Scorer:    scorer,
		Suggester: suggester,
	})
}

// ProvideJWTValidator creates the token validator. Validate() guarantees
// a real secret in production; the fallback only covers local runs.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Audience:  []string{"specmap-api"},
	})
}

// ProvideAuthenticator creates the authentication middleware. Lambda
// deployments use DynamoDB-backed limiters so limits hold across cold
// starts; local runs keep in-process token buckets.
func ProvideAuthenticator(
	validator *auth.JWTValidator,
	cfg *config.Config,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) *middleware.Authenticator {
	var ipLimiter, userLimiter auth.RateLimiter
	if cfg.IsLambda {
		ipLimiter = auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, 100, "IP")
		userLimiter = auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, 200, "USER")
	} else {
		ipLimiter = auth.NewKeyedLimiter(100)
		userLimiter = auth.NewKeyedLimiter(200)
	}
	return middleware.NewAuthenticator(validator, ipLimiter, userLimiter, cfg.IsLambda, logger)
}

// ProvideTracer creates the X-Ray tracer.
func ProvideTracer() *observability.Tracer {
	return observability.NewTracer("specmap")
}
