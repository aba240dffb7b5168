package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Sender is the part of tgbotapi.BotAPI the notifier uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier tells users on Telegram when their documents are ready or failed
type Notifier struct {
	api    Sender
	logger *zap.Logger
}

func NewNotifier(cfg config.TelegramConfig, logger *zap.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = false

	logger.Info("telegram notifier authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	return NewNotifierWithSender(api, logger), nil
}

func NewNotifierWithSender(api Sender, logger *zap.Logger) *Notifier {
	return &Notifier{
		api:    api,
		logger: logger,
	}
}

// NotifyGeneration sends the event to chatID
func (n *Notifier) NotifyGeneration(ctx context.Context, chatID int64, event *entity.GenerationEvent) error {
	msg := tgbotapi.NewMessage(chatID, RenderGenerationEvent(event))
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message to chat %d: %w", chatID, err)
	}

	ctxzap.Debug(ctx, "telegram notification sent",
		zap.Int64("chat_id", chatID),
		zap.String("event_type", string(event.Type)),
	)
	return nil
}

// RenderGenerationEvent formats an event as an HTML Telegram message
func RenderGenerationEvent(event *entity.GenerationEvent) string {
	title := event.DocumentType.Title()

	var sb strings.Builder
	switch event.Type {
	case entity.CallbackEventTypeGenerationCompleted:
		sb.WriteString("✅ <b>")
		sb.WriteString(escapeHTML(title))
		sb.WriteString("</b> is ready.\n")
		sb.WriteString("Open the preview to review and download it.")
	case entity.CallbackEventTypeGenerationFailed:
		sb.WriteString("❌ <b>")
		sb.WriteString(escapeHTML(title))
		sb.WriteString("</b> could not be generated.\n")
		if event.Reason != "" {
			sb.WriteString("<i>")
			sb.WriteString(escapeHTML(event.Reason))
			sb.WriteString("</i>\n")
		}
		sb.WriteString("Start the generation again when you are ready.")
	default:
		sb.WriteString(escapeHTML(title))
		sb.WriteString(": ")
		sb.WriteString(escapeHTML(string(event.Type)))
	}

	return sb.String()
}

func escapeHTML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
