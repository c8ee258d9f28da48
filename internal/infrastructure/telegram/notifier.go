package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"LajmeCurator/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// maxMessageLen is the Bot API limit for sendMessage text.
	maxMessageLen = 4096
)

var errMisconfigured = errors.New("telegram notifier misconfigured")

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *resty.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// Option customises a Notifier.
type Option func(*Notifier)

// WithAPIBase points the notifier at another Bot API host.
func WithAPIBase(base string) Option {
	return func(n *Notifier) { n.apiBase = base }
}

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string, opts ...Option) *Notifier {
	n := &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   resty.New().SetTimeout(5 * time.Second),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// PublishDigest posts a Markdown message to Telegram. Messages over the API
// limit are truncated at a line boundary.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return errMisconfigured
	}

	var result apiResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":                  n.chatID,
			"text":                     truncate(digest, maxMessageLen),
			"parse_mode":               "Markdown",
			"disable_web_page_preview": "true",
		}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken))
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.IsError() || !result.OK {
		if result.Description != "" {
			return fmt.Errorf("telegram error: %s: %s", resp.Status(), result.Description)
		}
		return fmt.Errorf("telegram error: %s", resp.Status())
	}

	return nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := runes[:limit]
	for i := len(cut) - 1; i > 0; i-- {
		if cut[i] == '\n' {
			return string(cut[:i])
		}
	}
	return string(cut)
}
