// Package bot routes Telegram updates to the game controller and turns its
// results and errors into chat replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"InvestArena/internal/game"
	"InvestArena/internal/joincode"
	"InvestArena/internal/metrics"
	"InvestArena/internal/model"
	"InvestArena/internal/notifier"
)

const maxJoinCodes = 500

// Transport is the subset of the Telegram client the router needs.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb [][]model.Button) (int, error)
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error
	EditKeyboard(ctx context.Context, chatID int64, messageID int, kb [][]model.Button) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	Username(ctx context.Context) (string, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// TokenStore persists freshly generated join tokens.
type TokenStore interface {
	CreateTokens(ctx context.Context, ids []string) error
}

// Bot handles one update at a time. It is not safe for concurrent use.
type Bot struct {
	game     *game.Controller
	tx       Transport
	tokens   TokenStore
	renderer joincode.Renderer
	admins   map[int64]bool
	naming   map[int64]bool
}

func New(ctrl *game.Controller, tx Transport, tokens TokenStore, renderer joincode.Renderer, adminIDs []int64) *Bot {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Bot{
		game:     ctrl,
		tx:       tx,
		tokens:   tokens,
		renderer: renderer,
		admins:   admins,
		naming:   make(map[int64]bool),
	}
}

// HandleUpdate is the polling callback.
func (b *Bot) HandleUpdate(ctx context.Context, u notifier.Update) {
	switch {
	case u.CallbackQuery != nil:
		metrics.Updates.WithLabelValues("callback").Inc()
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		metrics.Updates.WithLabelValues("message").Inc()
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *notifier.Message) {
	if msg.From == nil {
		return
	}
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	if cmd, args, ok := parseCommand(text); ok {
		if cmd == "start" {
			b.handleStart(ctx, msg, args)
			return
		}
		if b.admins[msg.From.ID] {
			b.handleAdmin(ctx, msg, cmd, args)
		}
		return
	}

	if b.naming[msg.From.ID] {
		b.handleName(ctx, msg, text)
		return
	}
	if reply, ok := b.game.SubmitAnswer(ctx, msg.From.ID, text); ok {
		b.reply(ctx, msg.Chat.ID, reply)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *notifier.Message, args []string) {
	if len(args) == 0 {
		b.reply(ctx, msg.Chat.ID, "Welcome! Scan your team's QR code to join the game.")
		return
	}
	team, err := b.game.Register(ctx, msg.From.ID, args[0])
	if err != nil {
		b.reply(ctx, msg.Chat.ID, registrationError(err))
		return
	}
	b.naming[msg.From.ID] = true
	log.Info().Str("team", team.ID).Str("username", msg.From.Username).Msg("awaiting team name")
	b.reply(ctx, msg.Chat.ID, "Name your team")
}

func (b *Bot) handleName(ctx context.Context, msg *notifier.Message, name string) {
	err := b.game.Rename(ctx, msg.From.ID, name)
	switch {
	case errors.Is(err, game.ErrEmptyName):
		b.reply(ctx, msg.Chat.ID, "Send your team name as text")
		return
	case err != nil:
		delete(b.naming, msg.From.ID)
		return
	}
	delete(b.naming, msg.From.ID)
	b.reply(ctx, msg.Chat.ID, "You have registered successfully")
}

func registrationError(err error) string {
	switch {
	case errors.Is(err, game.ErrAlreadyRegistered):
		return "You are already registered"
	case errors.Is(err, game.ErrGameStarted):
		return "The game has already started"
	case errors.Is(err, game.ErrInvalidToken):
		return "Invalid QR code"
	case errors.Is(err, game.ErrTokenUsed):
		return "This QR code has already been activated"
	}
	log.Error().Err(err).Msg("register team")
	return "Something went wrong, please try again"
}

func (b *Bot) handleCallback(ctx context.Context, q *notifier.CallbackQuery) {
	if !strings.HasPrefix(q.Data, "invest:") {
		b.answer(ctx, q.ID, "")
		return
	}
	if !b.game.IsRegistered(q.From.ID) {
		b.answer(ctx, q.ID, "")
		return
	}

	parts := strings.Split(q.Data, ":")
	if len(parts) != 4 {
		b.answer(ctx, q.ID, "")
		return
	}
	round, err := strconv.Atoi(parts[1])
	if err != nil {
		b.answer(ctx, q.ID, "")
		return
	}
	slot, err := game.ParseSlot(parts[3])
	if err != nil {
		b.answer(ctx, q.ID, "")
		return
	}

	kb, err := b.game.RecordChoice(ctx, q.From.ID, round, parts[2], slot)
	switch {
	case errors.Is(err, game.ErrRoundClosed):
		b.answer(ctx, q.ID, "Trading is over")
		return
	case err != nil:
		b.answer(ctx, q.ID, "This option is not available")
		return
	}
	if q.Message != nil {
		if err := b.tx.EditKeyboard(ctx, q.Message.Chat.ID, q.Message.MessageID, kb); err != nil {
			log.Warn().Err(err).Int64("chat_id", q.Message.Chat.ID).Msg("edit keyboard")
		}
	}
	b.answer(ctx, q.ID, "")
}

func (b *Bot) handleAdmin(ctx context.Context, msg *notifier.Message, cmd string, args []string) {
	metrics.Updates.WithLabelValues("command").Inc()
	log.Info().Int64("admin", msg.From.ID).Str("command", cmd).Strs("args", args).Msg("admin command")

	chat := msg.Chat.ID
	switch cmd {
	case "next":
		round, err := b.game.Advance(ctx)
		if err != nil {
			b.reply(ctx, chat, preconditionError(err))
			return
		}
		b.reply(ctx, chat, fmt.Sprintf("Round %d started", round))

	case "stop":
		cc, err := game.ParseCustomCoefficients(args)
		if err != nil {
			b.reply(ctx, chat, "Usage: /stop [COEFFICIENT] or /stop [ID=COEFFICIENT ...]")
			return
		}
		res, err := b.game.Close(ctx, cc)
		if err != nil {
			b.reply(ctx, chat, preconditionError(err))
			return
		}
		text := fmt.Sprintf("Round %d finished", res.Round)
		if res.FailedNotifications > 0 || res.FailedWrites > 0 {
			text += fmt.Sprintf("\nUndelivered messages: %d, failed writes: %d", res.FailedNotifications, res.FailedWrites)
		}
		b.reply(ctx, chat, text)

	case "start_quiz":
		if err := b.game.StartQuiz(ctx); err != nil {
			b.reply(ctx, chat, preconditionError(err))
			return
		}
		b.reply(ctx, chat, "Quiz started")

	case "end_quiz":
		if err := b.game.EndQuiz(ctx); err != nil {
			b.reply(ctx, chat, preconditionError(err))
			return
		}
		b.reply(ctx, chat, "Quiz finished, use /quiz_results to announce the results")

	case "quiz_results":
		if _, err := b.game.ScoreQuiz(ctx); err != nil {
			b.reply(ctx, chat, preconditionError(err))
			return
		}
		b.reply(ctx, chat, "Results announced")

	case "multiply":
		b.handleMultiply(ctx, chat, args)

	case "send":
		b.handleSend(ctx, msg, args)

	case "qrs":
		b.handleJoinCodes(ctx, chat, args)

	case "stat":
		b.reply(ctx, chat, b.game.Stats())

	case "help":
		b.reply(ctx, chat, notifier.AdminHelp)
	}
}

func preconditionError(err error) string {
	switch {
	case errors.Is(err, game.ErrRoundOpen):
		return "The current round is not finished yet (/stop)"
	case errors.Is(err, game.ErrQuizActive):
		return "Finish the quiz first (/end_quiz)"
	case errors.Is(err, game.ErrQuizNotActive):
		return "The quiz has not started yet"
	case errors.Is(err, game.ErrNoQuestions):
		return "The quiz has no questions"
	case errors.Is(err, game.ErrNoRoundsLeft):
		return "That was the last round"
	case errors.Is(err, game.ErrNothingToClose):
		return "The current round is already finished"
	case errors.Is(err, game.ErrCustomCoefficientRequired):
		return fmt.Sprintf("This round needs a custom coefficient for %s, use: /stop [COEFFICIENT]",
			detail(err, game.ErrCustomCoefficientRequired))
	case errors.Is(err, game.ErrUnknownPosition):
		return "Not a custom position of this round: " + detail(err, game.ErrUnknownPosition)
	}
	log.Error().Err(err).Msg("admin command failed")
	return "Something went wrong: " + err.Error()
}

// detail strips the sentinel prefix from a wrapped error.
func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

func (b *Bot) handleMultiply(ctx context.Context, chat int64, args []string) {
	const usage = "Usage: /multiply [TEAM ID] [ASSET: 1-2] [MULTIPLIER]"
	if len(args) != 3 {
		b.reply(ctx, chat, usage)
		return
	}
	slot, err := game.ParseSlot(args[1])
	if err != nil {
		b.reply(ctx, chat, usage)
		return
	}
	factor, err := game.ParseDecimal(args[2])
	if err != nil {
		b.reply(ctx, chat, usage)
		return
	}
	v, err := b.game.Multiply(ctx, args[0], slot, factor)
	if errors.Is(err, game.ErrUnknownTeam) {
		b.reply(ctx, chat, "Invalid team ID")
		return
	}
	if err != nil {
		b.reply(ctx, chat, usage)
		return
	}
	b.reply(ctx, chat, "New asset value: "+notifier.Money(v))
}

func (b *Bot) handleSend(ctx context.Context, msg *notifier.Message, args []string) {
	if len(args) == 0 && len(msg.Photo) == 0 {
		b.reply(ctx, msg.Chat.ID, "Usage: /send [TEXT] or attach a photo")
		return
	}
	var photo []byte
	if n := len(msg.Photo); n > 0 {
		data, err := b.tx.DownloadFile(ctx, msg.Photo[n-1].FileID)
		if err != nil {
			log.Error().Err(err).Msg("download broadcast photo")
			b.reply(ctx, msg.Chat.ID, "Could not download the photo")
			return
		}
		photo = data
	}
	failed := b.game.Broadcast(ctx, strings.Join(args, " "), photo)
	text := "Sent to every team"
	if failed > 0 {
		text += fmt.Sprintf(" (%d undelivered)", failed)
	}
	b.reply(ctx, msg.Chat.ID, text)
}

func (b *Bot) handleJoinCodes(ctx context.Context, chat int64, args []string) {
	const usage = "Usage: /qrs [QR_COUNT]"
	if len(args) != 1 {
		b.reply(ctx, chat, usage)
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > maxJoinCodes {
		b.reply(ctx, chat, usage)
		return
	}

	archive, err := b.joinCodeArchive(ctx, n)
	if err != nil {
		log.Error().Err(err).Int("count", n).Msg("generate join codes")
		b.reply(ctx, chat, "Could not generate QR codes")
		return
	}
	if err := b.tx.SendDocument(ctx, chat, "qrs.zip", archive, ""); err != nil {
		log.Error().Err(err).Msg("send join codes")
	}
}

func (b *Bot) joinCodeArchive(ctx context.Context, n int) ([]byte, error) {
	tokens, err := joincode.NewTokens(n)
	if err != nil {
		return nil, err
	}
	if err := b.tokens.CreateTokens(ctx, tokens); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	username, err := b.tx.Username(ctx)
	if err != nil {
		return nil, err
	}
	return b.renderer.Archive(username, tokens)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.tx.SendMessage(ctx, chatID, text, nil); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("reply")
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if err := b.tx.AnswerCallback(ctx, callbackID, text); err != nil {
		log.Warn().Err(err).Msg("answer callback")
	}
}

// parseCommand splits "/cmd@botname arg1 arg2" into "cmd" and its arguments.
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	if cmd == "" {
		return "", nil, false
	}
	return strings.ToLower(cmd), fields[1:], true
}
