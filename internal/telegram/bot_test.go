package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	chatID    string
	text      string
	parseMode string
}

// fakeBotAPI answers getMe and records sendMessage calls.
func fakeBotAPI(t *testing.T) (*httptest.Server, func() []sentMessage) {
	var mu sync.Mutex
	var sent []sentMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"pulse","username":"pulse_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			sent = append(sent, sentMessage{chatID: r.Form.Get("chat_id"), text: r.Form.Get("text"), parseMode: r.Form.Get("parse_mode")})
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, func() []sentMessage {
		mu.Lock()
		defer mu.Unlock()
		return append([]sentMessage(nil), sent...)
	}
}

func TestBot_SendSummary(t *testing.T) {
	srv, sent := fakeBotAPI(t)
	bot, err := NewBotWithEndpoint("token", srv.URL+"/bot%s/%s", 42)
	require.NoError(t, err)

	err = bot.SendSummary(Summary{
		Tenant:    "City of Ballarat",
		Source:    "fixture",
		Fallback:  true,
		Batch:     2,
		Inserted:  1,
		Updated:   1,
		Changed:   1,
		Total:     5,
		FeedItems: 3,
		Duration:  90 * time.Second,
	})
	require.NoError(t, err)

	msgs := sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0].chatID)
	assert.Equal(t, "MarkdownV2", msgs[0].parseMode)
	assert.Contains(t, msgs[0].text, "*City of Ballarat* scrape finished")
	assert.Contains(t, msgs[0].text, `fixture \(fallback\)`)
	assert.Contains(t, msgs[0].text, "Dataset: 5 jobs, 3 in feed")
	assert.Contains(t, msgs[0].text, "1m30s")
}

func TestBot_SendError(t *testing.T) {
	srv, sent := fakeBotAPI(t)
	bot, err := NewBotWithEndpoint("token", srv.URL+"/bot%s/%s", 42)
	require.NoError(t, err)

	require.NoError(t, bot.SendError(errors.New("render timeout")))
	msgs := sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "❌ Error: render timeout", msgs[0].text)
	assert.Empty(t, msgs[0].parseMode)
}

func TestEscapeMarkdown(t *testing.T) {
	b := &Bot{}
	assert.Equal(t, `Planner \(Band 6\) \- $90k`, b.escapeMarkdown("Planner (Band 6) - $90k"))
}
