package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	// maxMessageLen is the Bot API limit for one text message.
	maxMessageLen = 4096
)

// Client talks to one bot and one authorised chat.
type Client struct {
	token      string
	chatID     int64
	baseURL    string
	http       *http.Client
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewClient validates the credentials. chatID must be numeric.
func NewClient(token, chatID string, log zerolog.Logger) (*Client, error) {
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("telegram credentials missing")
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chatID, err)
	}
	return &Client{
		token:      token,
		chatID:     id,
		baseURL:    defaultBaseURL,
		http:       &http.Client{Timeout: 90 * time.Second},
		retryDelay: 5 * time.Second,
		log:        log.With().Str("component", "telegram").Logger(),
	}, nil
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// Notify sends text as plain text to the authorised chat, split into
// several messages when it exceeds the API limit.
func (c *Client) Notify(ctx context.Context, text string) error {
	for _, part := range split(text, maxMessageLen) {
		if err := c.send(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id": c.chatID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.log.Debug().Str("text", text).Msg("notify")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send: status %s", resp.Status)
	}
	return nil
}

// split cuts text into chunks of at most n bytes, preferring line breaks.
// A chunk never ends inside a multi-byte rune.
func split(text string, n int) []string {
	if len(text) <= n {
		return []string{text}
	}
	var parts []string
	for len(text) > n {
		cut := strings.LastIndexByte(text[:n], '\n')
		if cut <= 0 {
			cut = n
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				_, size := utf8.DecodeRuneInString(text)
				cut = size
			}
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
		if len(text) > 0 && text[0] == '\n' {
			text = text[1:]
		}
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
