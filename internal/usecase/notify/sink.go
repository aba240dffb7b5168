package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const deliveryTimeout = 30 * time.Second

type ProfileReader interface {
	Get(ctx context.Context, userID string) (*entity.UserProfile, error)
}

type CallbackConnector interface {
	SendGenerationEvent(ctx context.Context, callbackURL string, event *entity.GenerationEvent) error
}

type TelegramNotifier interface {
	NotifyGeneration(ctx context.Context, chatID int64, event *entity.GenerationEvent) error
}

// Sink delivers generation lifecycle events to the channels on the user's profile.
// Delivery runs in the background so bridges never wait on the network.
type Sink struct {
	profiles ProfileReader
	callback CallbackConnector
	telegram TelegramNotifier
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewSink builds a sink; telegram may be nil when the notifier is disabled
func NewSink(profiles ProfileReader, callback CallbackConnector, telegram TelegramNotifier, logger *zap.Logger) *Sink {
	return &Sink{
		profiles: profiles,
		callback: callback,
		telegram: telegram,
		logger:   logger,
	}
}

func (s *Sink) Publish(_ context.Context, event entity.GenerationEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(ctxzap.ToContext(context.Background(), s.logger), deliveryTimeout)
		defer cancel()

		ctx = logger.WithUser(ctx, event.UserID)
		ctx = logger.WithDocument(ctx, event.DocumentType, "DeliverGenerationEvent")
		s.deliver(logger.AddFields(ctx, zap.String("event", string(event.Type))), &event)
	}()
}

func (s *Sink) deliver(ctx context.Context, event *entity.GenerationEvent) {
	profile, err := s.profiles.Get(ctx, event.UserID)
	if errors.Is(err, entity.ErrProfileNotFound) {
		ctxzap.Debug(ctx, "no profile, event not delivered")
		return
	}
	if err != nil {
		ctxzap.Error(ctx, "failed to load profile", zap.Error(err))
		return
	}

	if profile.CallbackURL != "" {
		if err := s.callback.SendGenerationEvent(ctx, profile.CallbackURL, event); err != nil {
			ctxzap.Warn(ctx, "callback delivery failed", zap.Error(err))
		}
	}

	if profile.TelegramChatID != 0 && s.telegram != nil {
		if err := s.telegram.NotifyGeneration(ctx, profile.TelegramChatID, event); err != nil {
			ctxzap.Warn(ctx, "telegram delivery failed", zap.Error(err))
		}
	}
}

// Close waits for in-flight deliveries
func (s *Sink) Close() {
	s.wg.Wait()
}
