package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"InvestArena/internal/model"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier talks to the Telegram Bot API over plain HTTP.
type TelegramNotifier struct {
	BotToken   string
	APIBase    string
	Client     *http.Client
	MaxRetries int

	mu       sync.Mutex
	username string
}

// NewTelegramNotifier creates a client with optional proxy support.
func NewTelegramNotifier(botToken, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		APIBase:  defaultAPIBase,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]model.Button `json:"inline_keyboard"`
}

func markup(kb [][]model.Button) *inlineKeyboard {
	if kb == nil {
		return nil
	}
	return &inlineKeyboard{InlineKeyboard: kb}
}

func (t *TelegramNotifier) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
}

func (t *TelegramNotifier) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req, method, out)
}

func (t *TelegramNotifier) upload(ctx context.Context, method string, fields map[string]string, fileField, fileName string, data []byte, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	fw, err := w.CreateFormFile(fileField, fileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL(method), &buf)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return t.do(req, method, out)
}

func (t *TelegramNotifier) do(req *http.Request, method string, out any) error {
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}
	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: status %d, decode body: %w", method, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !env.OK {
		return fmt.Errorf("telegram API error: %s: status %d: %s", method, resp.StatusCode, env.Description)
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

// SendMessage sends an HTML text message, optionally with an inline keyboard,
// and returns the new message id.
func (t *TelegramNotifier) SendMessage(ctx context.Context, chatID int64, text string, kb [][]model.Button) (int, error) {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if m := markup(kb); m != nil {
		payload["reply_markup"] = m
	}
	var msg Message
	if err := t.call(ctx, "sendMessage", payload, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendPhoto uploads a photo with a caption.
func (t *TelegramNotifier) SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string) error {
	fields := map[string]string{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"caption":    caption,
		"parse_mode": "HTML",
	}
	return t.upload(ctx, "sendPhoto", fields, "photo", "photo.png", photo, nil)
}

// SendDocument uploads a file.
func (t *TelegramNotifier) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	fields := map[string]string{
		"chat_id": strconv.FormatInt(chatID, 10),
		"caption": caption,
	}
	return t.upload(ctx, "sendDocument", fields, "document", name, data, nil)
}

// EditKeyboard replaces the inline keyboard of an existing message.
func (t *TelegramNotifier) EditKeyboard(ctx context.Context, chatID int64, messageID int, kb [][]model.Button) error {
	payload := map[string]any{
		"chat_id":      chatID,
		"message_id":   messageID,
		"reply_markup": inlineKeyboard{InlineKeyboard: kb},
	}
	return t.call(ctx, "editMessageReplyMarkup", payload, nil)
}

// AnswerCallback acknowledges a button press, optionally showing a notice.
func (t *TelegramNotifier) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return t.call(ctx, "answerCallbackQuery", payload, nil)
}

// Username returns the bot's username, cached after the first getMe call.
func (t *TelegramNotifier) Username(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.username != "" {
		return t.username, nil
	}
	var me User
	if err := t.call(ctx, "getMe", map[string]any{}, &me); err != nil {
		return "", err
	}
	t.username = me.Username
	return t.username, nil
}

// DownloadFile fetches a file previously sent to the bot.
func (t *TelegramNotifier) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := t.call(ctx, "getFile", map[string]any{"file_id": fileID}, &file); err != nil {
		return nil, err
	}
	fileURL := fmt.Sprintf("%s/file/bot%s/%s", t.APIBase, t.BotToken, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Send delivers an outbound game message, retrying up to MaxRetries times.
func (t *TelegramNotifier) Send(ctx context.Context, msg model.Message) error {
	return t.SendWithRetry(ctx, msg, t.MaxRetries)
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, msg model.Message, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.deliver(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		log.Warn().Err(err).Int64("chat_id", msg.ChatID).Int("attempt", i+1).Dur("backoff", backoff).
			Msg("telegram send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	if maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}

func (t *TelegramNotifier) deliver(ctx context.Context, msg model.Message) error {
	if len(msg.Photo) > 0 {
		return t.SendPhoto(ctx, msg.ChatID, msg.Photo, msg.Text)
	}
	_, err := t.SendMessage(ctx, msg.ChatID, msg.Text, msg.Keyboard)
	return err
}
