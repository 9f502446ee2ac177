package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
	"go.uber.org/zap"
)

const defaultTelegramURL = "https://api.telegram.org"

// TelegramPublisher posts forecast messages to a chat through the bot API.
type TelegramPublisher struct {
	*BaseClient
	botToken string
	chatID   string
	baseURL  string
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewTelegramPublisher(botToken, chatID, baseURL string, config ClientConfig, logger *zap.Logger) *TelegramPublisher {
	if baseURL == "" {
		baseURL = defaultTelegramURL
	}
	return &TelegramPublisher{
		BaseClient: NewBaseClient("telegram", config, logger),
		botToken:   botToken,
		chatID:     chatID,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (p *TelegramPublisher) Publish(ctx context.Context, message string) error {
	if p.botToken == "" || p.chatID == "" {
		return models.NewPublishError("telegram", "publisher misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", p.baseURL, p.botToken)
	form := url.Values{}
	form.Set("chat_id", p.chatID)
	form.Set("text", message)

	data, err := p.PostWithRetry(ctx, endpoint, "application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return models.NewPublishError("telegram", "send message: %w", err)
	}

	var response telegramResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return models.NewPublishError("telegram", "parse response: %w", err)
	}
	if !response.OK {
		return models.NewPublishError("telegram", "telegram error: %s", response.Description)
	}

	return nil
}
