package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mentorconnect-backend/infrastructure/config"
	"mentorconnect-backend/infrastructure/di"
	"mentorconnect-backend/pkg/observability"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container
	tracer    *observability.Tracer

	coldStart     = true
	coldStartTime time.Time
)

// init runs during cold start.
func init() {
	coldStartTime = time.Now()

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	chiRouter, ok := container.Handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)
	tracer = observability.NewTracer("mentorconnect-backend")

	container.Logger.Info("lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)),
	)
}

// Handler proxies API Gateway v2 events through the chi router, wrapped in
// an X-Ray subsegment hung off the runtime's facade segment.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var resp events.APIGatewayV2HTTPResponse
	err := tracer.TraceFunction(ctx, "http_proxy", func(ctx context.Context) error {
		tracer.AddAnnotation(ctx, "method", req.RequestContext.HTTP.Method)
		tracer.AddAnnotation(ctx, "path", req.RequestContext.HTTP.Path)

		var proxyErr error
		resp, proxyErr = chiLambda.ProxyWithContextV2(ctx, req)
		return proxyErr
	})

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	container.Logger.Debug("lambda response",
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.Int("status_code", resp.StatusCode),
	)

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
