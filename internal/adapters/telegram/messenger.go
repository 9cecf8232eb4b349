// Package telegram connects the bot to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meetupbot/internal/domain"
)

// NewAPI authenticates against the Bot API. endpoint may be empty for the public API.
func NewAPI(token, endpoint string, client *http.Client) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return api, nil
}

type messenger struct {
	api *tgbotapi.BotAPI
}

// NewMessenger returns a domain.Messenger that sends through api.
func NewMessenger(api *tgbotapi.BotAPI) domain.Messenger {
	return &messenger{api: api}
}

func (m *messenger) Send(ctx context.Context, msg domain.OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.api.Send(toMessageConfig(msg)); err != nil {
		return fmt.Errorf("send message to %d: %w", msg.ChatID, err)
	}
	return nil
}

func (m *messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func toMessageConfig(msg domain.OutgoingMessage) tgbotapi.MessageConfig {
	cfg := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	cfg.DisableWebPagePreview = true
	if msg.Markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(msg.Buttons) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(msg.Buttons))
		for _, row := range msg.Buttons {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				if b.URL != "" {
					buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				} else {
					buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
				}
			}
			rows = append(rows, buttons)
		}
		cfg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	return cfg
}
