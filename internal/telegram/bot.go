package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Summary is what the operator is told after a run.
type Summary struct {
	Tenant    string
	Source    string
	Fallback  bool
	Batch     int
	Inserted  int
	Updated   int
	Changed   int
	Total     int
	FeedItems int
	Duration  time.Duration
}

type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	return NewBotWithEndpoint(token, tgbotapi.APIEndpoint, chatID)
}

// NewBotWithEndpoint talks to a non-default Bot API server; endpoint has the
// tgbotapi.APIEndpoint shape ("<base>/bot%s/%s").
func NewBotWithEndpoint(token, endpoint string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:    api,
		chatID: chatID,
	}, nil
}

func (b *Bot) escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

func (b *Bot) formatSummary(s Summary) string {
	msgText := fmt.Sprintf("✅ *%s* scrape finished\n", b.escapeMarkdown(s.Tenant))
	source := s.Source
	if s.Fallback {
		source += " (fallback)"
	}
	msgText += fmt.Sprintf("🔖 Source: %s\n", b.escapeMarkdown(source))
	msgText += fmt.Sprintf("📦 Batch: %d jobs\n", s.Batch)
	msgText += fmt.Sprintf("🆕 New: %d\n", s.Inserted)
	msgText += fmt.Sprintf("🔁 Updated: %d \\(%d changed\\)\n", s.Updated, s.Changed)
	msgText += fmt.Sprintf("📚 Dataset: %d jobs, %d in feed\n", s.Total, s.FeedItems)
	if s.Duration > 0 {
		msgText += fmt.Sprintf("⏱️ %s\n", b.escapeMarkdown(s.Duration.Round(time.Second).String()))
	}
	return msgText
}

func (b *Bot) SendSummary(s Summary) error {
	msg := tgbotapi.NewMessage(b.chatID, b.formatSummary(s))
	msg.ParseMode = "MarkdownV2"
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendError(err error) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := b.api.Send(msg)
	return sendErr
}
