//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"specmap/application/ports"
	"specmap/application/session"
	"specmap/domain/template"
	"specmap/infrastructure/config"
	"specmap/interfaces/http/rest/middleware"
	"specmap/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Store         ports.SessionStore
	Collaborator  ports.Collaborator
	Publisher     ports.EventPublisher
	Metrics       ports.MetricsRecorder
	Catalog       *template.Catalog
	Manager       *session.Manager
	Authenticator *middleware.Authenticator
	Tracer        *observability.Tracer
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideSessionStore,
	ProvideCollaborator,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideCatalog,
	ProvideScorer,
	ProvideSuggester,
	ProvideSessionManager,
	ProvideJWTValidator,
	ProvideAuthenticator,
	ProvideTracer,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
