package callback

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/integration/common"
	pkghttp "github.com/futig/docgen-gateway/pkg/http"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// EventHeader repeats the envelope event type so receivers can route without decoding the body
const EventHeader = "X-Docgen-Event"

// Connector posts generation lifecycle events to user supplied webhooks
type Connector struct {
	connector *pkghttp.Connector
}

func NewConnector(
	cfg config.CallbackConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewServiceConnector("callback", cfg.HTTPClientConfig, logger),
	}
}

// SendGenerationEvent posts a completed or failed event to callbackURL.
// Every delivery carries a fresh X-Request-ID.
func (c *Connector) SendGenerationEvent(ctx context.Context, callbackURL string, event *entity.GenerationEvent) error {
	envelope := &entity.CallbackEvent{
		Event:     event.Type,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      event,
	}
	requestID := uuid.NewString()

	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.String("document_type", string(event.DocumentType)),
		zap.String("callback_url", callbackURL),
		zap.String("request_id", requestID),
	}
	ctxzap.Debug(ctx, "delivering generation event", fields...)

	err := c.connector.DoRequest(ctx, http.MethodPost, "", envelope, nil,
		pkghttp.WithURL(callbackURL),
		pkghttp.WithHeader("X-Request-ID", requestID),
		pkghttp.WithHeader(EventHeader, string(event.Type)),
	)
	if err != nil {
		return fmt.Errorf("deliver %s event to %s: %w", event.Type, callbackURL, err)
	}

	ctxzap.Info(ctx, "generation event delivered", fields...)
	return nil
}
