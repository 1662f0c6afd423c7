package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBotAPI serves one batch of updates, then empty polls, and records sent messages.
type fakeBotAPI struct {
	mu      sync.Mutex
	updates []Update
	served  bool
	sent    []string
	gotSent chan struct{}
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		resp := UpdateResponse{Ok: true}
		if !f.served {
			resp.Result = f.updates
			f.served = true
		}
		json.NewEncoder(w).Encode(resp)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		var body struct {
			ChatID int64  `json:"chat_id"`
			Text   string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.sent = append(f.sent, fmt.Sprintf("%d:%s", body.ChatID, body.Text))
		w.WriteHeader(http.StatusOK)
		select {
		case f.gotSent <- struct{}{}:
		default:
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func update(id int, chat int64, text string) Update {
	var u Update
	u.UpdateID = id
	u.Message.Chat.ID = chat
	u.Message.Text = text
	u.Message.From.Username = "tester"
	return u
}

func newTestClient(t *testing.T, api http.Handler) *Client {
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClient("TOKEN", "42", zerolog.Nop())
	require.NoError(t, err)
	c.baseURL = srv.URL
	c.retryDelay = 10 * time.Millisecond
	return c
}

func TestNewClient_Validates(t *testing.T) {
	_, err := NewClient("", "42", zerolog.Nop())
	assert.Error(t, err)
	_, err = NewClient("token", "not-a-number", zerolog.Nop())
	assert.Error(t, err)
}

func TestListen_DispatchesAuthorisedCommandsOnly(t *testing.T) {
	api := &fakeBotAPI{
		updates: []Update{
			update(1, 99, "/scan"),
			update(2, 42, "hello"),
			update(3, 42, "/ping"),
		},
		gotSent: make(chan struct{}, 1),
	}
	c := newTestClient(t, api)

	var handled []string
	var mu sync.Mutex
	handler := func(ctx context.Context, cmd string) string {
		mu.Lock()
		handled = append(handled, cmd)
		mu.Unlock()
		return "pong"
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Listen(ctx, handler, time.Second) }()

	select {
	case <-api.gotSent:
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/ping"}, handled)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"42:pong"}, api.sent)
}

func TestNotify_SplitsLongMessages(t *testing.T) {
	api := &fakeBotAPI{gotSent: make(chan struct{}, 10)}
	c := newTestClient(t, api)

	line := strings.Repeat("x", 3000)
	require.NoError(t, c.Notify(context.Background(), line+"\n"+line))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.sent, 2)
	assert.Equal(t, "42:"+line, api.sent[0])
}

func TestNotify_ReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	c, err := NewClient("TOKEN", "42", zerolog.Nop())
	require.NoError(t, err)
	c.baseURL = srv.URL

	assert.Error(t, c.Notify(context.Background(), "hi"))
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, split("short", 10))
	assert.Equal(t, []string{"abc", "def"}, split("abc\ndef", 5))
	assert.Equal(t, []string{"abcde", "fgh"}, split("abcdefgh", 5))
}

func TestSplit_KeepsRunesWhole(t *testing.T) {
	// "€" is three bytes, so a 4 byte chunk holds exactly one of them.
	parts := split("€€€", 4)
	assert.Equal(t, []string{"€", "€", "€"}, parts)

	text := strings.Repeat("aé€", 700)
	parts = split(text, 4096)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p))
		assert.LessOrEqual(t, len(p), 4096)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}
