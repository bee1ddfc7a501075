// Package telegram delivers articles to a chat/channel through the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/crickwire/cricnews/internal/news"
	"github.com/crickwire/cricnews/internal/retry"
)

const (
	defaultAPIBase = "https://api.telegram.org"

	messageMaxRunes = 4096
	captionMaxRunes = 1024
	descMaxRunes    = 300
)

type Sender struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	retry   retry.Config
}

func NewSender(token, chatID string, timeout time.Duration, retryCfg retry.Config) *Sender {
	return &Sender{
		token:   token,
		chatID:  chatID,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: timeout},
		retry:   retryCfg,
	}
}

// Send posts one article: as a photo with caption when an image URL is
// present, as a text message otherwise. Retries with exponential backoff.
func (s *Sender) Send(ctx context.Context, article news.Candidate) error {
	var err error
	if article.ImageURL != "" {
		err = retry.WithRetry(ctx, s.retry, func() error {
			return s.sendPhotoOnce(ctx, article)
		})
	} else {
		err = retry.WithRetry(ctx, s.retry, func() error {
			return s.sendMessageOnce(ctx, article)
		})
	}

	if err != nil {
		return fmt.Errorf("send %q: %w", article.Title, err)
	}
	slog.Info("article sent to telegram", "title", article.Title, "with_image", article.ImageURL != "")
	return nil
}

func (s *Sender) sendMessageOnce(ctx context.Context, article news.Candidate) error {
	text := formatArticle(article, messageMaxRunes)

	return s.post(ctx, "sendMessage", map[string]interface{}{
		"chat_id":                  s.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	})
}

func (s *Sender) sendPhotoOnce(ctx context.Context, article news.Candidate) error {
	caption := formatArticle(article, captionMaxRunes)

	return s.post(ctx, "sendPhoto", map[string]interface{}{
		"chat_id":    s.chatID,
		"photo":      article.ImageURL,
		"caption":    caption,
		"parse_mode": "HTML",
	})
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *Sender) post(ctx context.Context, method string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", s.apiBase, s.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr)
		}
	}()

	var decoded apiResponse
	if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&decoded); decodeErr == nil {
		if resp.StatusCode == http.StatusOK && decoded.OK {
			return nil
		}
		if decoded.Description != "" {
			return fmt.Errorf("telegram API error: %s (status %d)", decoded.Description, resp.StatusCode)
		}
	}
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
}

// formatArticle builds the HTML message body: bold title, trimmed
// description, and a read-full-article link. Budget is the Telegram limit
// for the delivery method.
func formatArticle(article news.Candidate, budget int) string {
	text := "<b>" + article.Title + "</b>"

	if article.Description != "" {
		text += "\n\n" + truncate(article.Description, descMaxRunes)
	}

	text += fmt.Sprintf("\n\n<a href=%q>Read full article</a>", article.Link)

	return truncate(text, budget)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
