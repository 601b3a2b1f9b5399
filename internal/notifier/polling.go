package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// User is a Telegram account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Chat is the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// PhotoSize is one resolution of an attached photo.
type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Message is an inbound message.
type Message struct {
	MessageID int         `json:"message_id"`
	From      *User       `json:"from"`
	Chat      Chat        `json:"chat"`
	Text      string      `json:"text"`
	Caption   string      `json:"caption"`
	Photo     []PhotoSize `json:"photo"`
}

// CallbackQuery is an inline keyboard button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Data    string   `json:"data"`
	Message *Message `json:"message"`
}

// Update is one item from getUpdates.
type Update struct {
	UpdateID      int            `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// UpdateHandler is called for every update, one at a time.
type UpdateHandler func(ctx context.Context, u Update)

// StartPolling begins long-polling for updates. Blocks until ctx is cancelled.
// Updates are handed to handler sequentially in the order Telegram returns them.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler UpdateHandler) {
	offset := 0
	poller := &TelegramNotifier{
		BotToken: t.BotToken,
		APIBase:  t.APIBase,
		Client:   &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport},
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("telegram polling stopped")
			return
		default:
		}

		updates, err := poller.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("polling request failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			handler(ctx, u)
		}
	}
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, offset int) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         30,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := t.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	return updates, nil
}
