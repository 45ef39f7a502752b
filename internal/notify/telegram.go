// Package notify pushes booking requests to the salon staff.
package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ee1922/selecty/internal/domain"
)

// TelegramNotifier forwards each booking request to a salon Telegram chat.
// Delivery is best-effort: the booking is already persisted by the time a
// notification goes out, so a send failure is logged and swallowed.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// TelegramConfig configures the notifier.
type TelegramConfig struct {
	Token  string
	ChatID int64
	Logger *slog.Logger
}

// NewTelegramNotifier connects to the Telegram Bot API.
func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	cfg.Logger.Info("telegram notifier connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.ChatID,
		logger: cfg.Logger,
	}, nil
}

// BookingReceived sends a formatted notice for one booking request.
func (n *TelegramNotifier) BookingReceived(req domain.BookingRequest) {
	text := fmt.Sprintf(
		"新しい予約リクエスト\nスタイリスト: %s\nお客様: %s\n希望日時: %s",
		req.StylistName,
		req.CustomerName,
		req.RequestedAt.Format("2006-01-02 15:04"),
	)
	if req.Note != "" {
		text += "\nメモ: " + req.Note
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn("booking notification failed", "booking", req.ID, "err", err)
		return
	}
	n.logger.Info("booking notification sent", "booking", req.ID)
}
