package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"specmap/infrastructure/config"
	"specmap/infrastructure/di"
	"specmap/interfaces/http/rest"
)

// Global variables for Lambda lifecycle management
var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()
	log.Println("Lambda cold start initiated")

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	router := rest.NewRouter(
		container.Manager,
		container.Catalog,
		container.Authenticator,
		container.Tracer,
		container.Logger,
	)
	handler := router.Setup()

	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	log.Printf("Lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	// The API Gateway JWT authorizer has already validated the caller.
	// Mark the request so the in-process authenticator trusts the
	// identity headers instead of re-validating the token.
	if req.Headers != nil {
		authHeader := req.Headers["authorization"]
		if authHeader == "" {
			authHeader = req.Headers["Authorization"]
		}
		_, viaGateway := req.Headers["x-amzn-trace-id"]
		if viaGateway || authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			req.Headers["X-API-Gateway-Authorized"] = "true"
			if req.RequestContext.Authorizer != nil && req.RequestContext.Authorizer.JWT != nil {
				claims := req.RequestContext.Authorizer.JWT.Claims
				if sub, ok := claims["sub"]; ok {
					req.Headers["X-User-ID"] = sub
				}
				if email, ok := claims["email"]; ok {
					req.Headers["X-User-Email"] = email
				}
			}
		}
	}

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if container != nil && container.Logger != nil && resp.StatusCode >= 400 {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", resp.Body),
		)
	}

	return resp, err
}

// main is the entry point for the Lambda function
func main() {
	lambda.Start(Handler)
}
