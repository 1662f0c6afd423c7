package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Update represents a Telegram Update object (partial schema)
type Update struct {
	UpdateID int `json:"update_id"`
	Message  struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

type UpdateResponse struct {
	Ok          bool     `json:"ok"`
	Result      []Update `json:"result"`
	Description string   `json:"description"`
	ErrorCode   int      `json:"error_code"`
}

// CommandHandler processes one chat command and returns the reply text.
type CommandHandler func(ctx context.Context, command string) string

// Listen long-polls for commands until ctx is cancelled. Only messages from
// the authorised chat starting with "/" reach handler; its reply is sent back.
func (c *Client) Listen(ctx context.Context, handler CommandHandler, pollTimeout time.Duration) error {
	offset := 0
	c.log.Info().Msg("listener started")

	for {
		if ctx.Err() != nil {
			c.log.Info().Msg("listener stopped")
			return ctx.Err()
		}

		updates, err := c.poll(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.log.Warn().Err(err).Msg("poll failed")
			c.sleep(ctx)
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			c.dispatch(ctx, update, handler)
		}
	}
}

func (c *Client) poll(ctx context.Context, offset int, timeout time.Duration) ([]Update, error) {
	url := fmt.Sprintf("%s?offset=%d&timeout=%d", c.endpoint("getUpdates"), offset, int(timeout.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result UpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !result.Ok {
		return nil, fmt.Errorf("telegram API error: %s (code %d)", result.Description, result.ErrorCode)
	}
	return result.Result, nil
}

func (c *Client) dispatch(ctx context.Context, update Update, handler CommandHandler) {
	// Access Control
	if update.Message.Chat.ID != c.chatID {
		c.log.Warn().
			Str("user", update.Message.From.Username).
			Int64("chat_id", update.Message.Chat.ID).
			Str("text", update.Message.Text).
			Msg("unauthorized access attempt")
		// No reply, so the bot does not reveal itself.
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	c.log.Info().Str("command", text).Msg("command received")

	reply := handler(ctx, text)
	if reply == "" {
		return
	}
	if err := c.Notify(ctx, reply); err != nil {
		c.log.Error().Err(err).Msg("reply failed")
	}
}

func (c *Client) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.retryDelay):
	}
}
