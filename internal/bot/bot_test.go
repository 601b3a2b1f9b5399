package bot

import (
	"archive/zip"
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestArena/internal/catalog"
	"InvestArena/internal/game"
	"InvestArena/internal/joincode"
	"InvestArena/internal/model"
	"InvestArena/internal/notifier"
	"InvestArena/internal/payout"
	"InvestArena/internal/store"
)

const admin = int64(777)

type edit struct {
	chatID    int64
	messageID int
	kb        [][]model.Button
}

type fakeTransport struct {
	mu        sync.Mutex
	replies   map[int64][]string
	edits     []edit
	answers   []string
	docs      map[string][]byte
	downloads []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{replies: map[int64][]string{}, docs: map[string][]byte{}}
}

func (f *fakeTransport) SendMessage(_ context.Context, chatID int64, text string, _ [][]model.Button) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[chatID] = append(f.replies[chatID], text)
	return len(f.replies[chatID]), nil
}

func (f *fakeTransport) SendDocument(_ context.Context, _ int64, name string, data []byte, _ string) error {
	f.docs[name] = data
	return nil
}

func (f *fakeTransport) EditKeyboard(_ context.Context, chatID int64, messageID int, kb [][]model.Button) error {
	f.edits = append(f.edits, edit{chatID, messageID, kb})
	return nil
}

func (f *fakeTransport) AnswerCallback(_ context.Context, _ string, text string) error {
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeTransport) Username(context.Context) (string, error) { return "arena_bot", nil }

func (f *fakeTransport) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	f.downloads = append(f.downloads, fileID)
	return []byte("jpeg"), nil
}

func (f *fakeTransport) last(chatID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.replies[chatID]
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1]
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (s *recordingSender) Send(_ context.Context, m model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	return nil
}

type fixture struct {
	bot    *Bot
	ctrl   *game.Controller
	store  *store.MemoryStore
	tx     *fakeTransport
	sender *recordingSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	positions := []payout.Position{
		{ID: "tbank", Name: "T-Bank", Rule: payout.Constant(1.1)},
		{ID: "nft", Name: "NFT", Rule: payout.Custom{}},
	}
	cat, err := catalog.New(positions, [][]string{{"tbank", "nft"}}, catalog.Default().Quiz)
	require.NoError(t, err)

	f := &fixture{store: store.NewMemoryStore(), tx: newFakeTransport(), sender: &recordingSender{}}
	f.ctrl = game.New(cat, f.store, game.NewDispatcher(f.sender, 0, 2), nil)
	require.NoError(t, f.ctrl.Load(context.Background()))

	r := joincode.DefaultRenderer()
	r.Size = 100
	f.bot = New(f.ctrl, f.tx, f.store, r, []int64{admin})
	return f
}

func (f *fixture) text(from int64, text string) {
	f.bot.HandleUpdate(context.Background(), notifier.Update{Message: &notifier.Message{
		From: &notifier.User{ID: from},
		Chat: notifier.Chat{ID: from},
		Text: text,
	}})
}

func (f *fixture) press(from int64, data string) {
	f.bot.HandleUpdate(context.Background(), notifier.Update{CallbackQuery: &notifier.CallbackQuery{
		ID:      "cb",
		From:    notifier.User{ID: from},
		Data:    data,
		Message: &notifier.Message{MessageID: 42, Chat: notifier.Chat{ID: from}},
	}})
}

func (f *fixture) register(t *testing.T, owner int64, token, name string) {
	t.Helper()
	require.NoError(t, f.store.CreateTokens(context.Background(), []string{token}))
	f.text(owner, "/start "+token)
	require.Equal(t, "Name your team", f.tx.last(owner))
	f.text(owner, name)
	require.Equal(t, "You have registered successfully", f.tx.last(owner))
}

func TestParseCommand(t *testing.T) {
	cmd, args, ok := parseCommand("/stop@arena_bot nft=2 gold=1,5")
	require.True(t, ok)
	assert.Equal(t, "stop", cmd)
	assert.Equal(t, []string{"nft=2", "gold=1,5"}, args)

	_, _, ok = parseCommand("nvidia")
	assert.False(t, ok)
	_, _, ok = parseCommand("/")
	assert.False(t, ok)
}

func TestRegistrationFlow(t *testing.T) {
	f := newFixture(t)

	f.text(1, "/start")
	assert.Contains(t, f.tx.last(1), "Welcome")

	f.register(t, 1, "abc123", "Bulls")
	teams := f.ctrl.Teams()
	require.Len(t, teams, 1)
	assert.Equal(t, "Bulls", teams[0].Name)

	f.text(1, "/start abc123")
	assert.Equal(t, "You are already registered", f.tx.last(1))

	f.text(2, "/start abc123")
	assert.Equal(t, "This QR code has already been activated", f.tx.last(2))

	f.text(3, "/start ffffff")
	assert.Equal(t, "Invalid QR code", f.tx.last(3))

	f.text(admin, "/next")
	require.NoError(t, f.store.CreateTokens(context.Background(), []string{"late00"}))
	f.text(4, "/start late00")
	assert.Equal(t, "The game has already started", f.tx.last(4))
}

func TestAdminCommands_IgnoredForPlayers(t *testing.T) {
	f := newFixture(t)
	f.register(t, 1, "abc123", "Bulls")

	f.text(1, "/next")
	assert.Equal(t, 0, f.ctrl.GameState().Round)
}

func TestRoundFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t, 1, "abc123", "Bulls")

	f.text(admin, "/next")
	assert.Equal(t, "Round 1 started", f.tx.last(admin))
	f.text(admin, "/next")
	assert.Equal(t, "The current round is not finished yet (/stop)", f.tx.last(admin))

	f.press(1, "invest:1:nft:1")
	require.Len(t, f.tx.edits, 1)
	assert.Equal(t, 42, f.tx.edits[0].messageID)
	assert.Equal(t, "✅ NFT", f.tx.edits[0].kb[0][1].Text)

	f.press(1, "invest:1:tbank:2")
	f.press(1, "invest:0:tbank:2")
	assert.Equal(t, "Trading is over", f.tx.answers[len(f.tx.answers)-1])

	f.text(admin, "/stop")
	assert.Equal(t, "This round needs a custom coefficient for nft, use: /stop [COEFFICIENT]", f.tx.last(admin))

	f.press(1, "invest:1:tbank:1")
	assert.Equal(t, "Trading is over", f.tx.answers[len(f.tx.answers)-1])

	f.text(admin, "/stop x")
	assert.Contains(t, f.tx.last(admin), "Usage: /stop")

	f.text(admin, "/stop 2,5")
	assert.Equal(t, "Round 1 finished", f.tx.last(admin))

	team := f.ctrl.Teams()[0]
	assert.Equal(t, 25.0, team.Asset1)
	assert.Equal(t, 11.0, team.Asset2)

	f.text(admin, "/stop")
	assert.Equal(t, "The current round is already finished", f.tx.last(admin))
	f.text(admin, "/next")
	assert.Equal(t, "That was the last round", f.tx.last(admin))

	f.text(admin, "/stat")
	assert.Contains(t, f.tx.last(admin), "1. 2.5x (1)")
}

func TestStop_NonFiniteCoefficient(t *testing.T) {
	f := newFixture(t)
	f.register(t, 1, "abc123", "Bulls")

	f.text(admin, "/next")
	f.press(1, "invest:1:nft:1")

	for _, arg := range []string{"inf", "NaN", "nft=-Inf"} {
		f.text(admin, "/stop "+arg)
		assert.Contains(t, f.tx.last(admin), "Usage: /stop", arg)
	}
	g := f.ctrl.GameState()
	assert.True(t, g.Started)
	assert.Empty(t, g.History.Entries("nft"))

	f.text(admin, "/stop 2")
	assert.Equal(t, "Round 1 finished", f.tx.last(admin))
	assert.Equal(t, 20.0, f.ctrl.Teams()[0].Asset1)
}

func TestMultiply(t *testing.T) {
	f := newFixture(t)
	f.register(t, 1, "abc123", "Bulls")

	f.text(admin, "/multiply ABC123 1 1,5")
	assert.Equal(t, "New asset value: 15", f.tx.last(admin))

	f.text(admin, "/multiply abc123 3 2")
	assert.Contains(t, f.tx.last(admin), "Usage: /multiply")
	f.text(admin, "/multiply abc123 1")
	assert.Contains(t, f.tx.last(admin), "Usage: /multiply")
	f.text(admin, "/multiply nope 1 2")
	assert.Equal(t, "Invalid team ID", f.tx.last(admin))

	for _, factor := range []string{"NaN", "Inf", "infinity"} {
		f.text(admin, "/multiply abc123 1 "+factor)
		assert.Contains(t, f.tx.last(admin), "Usage: /multiply", factor)
	}
	assert.Equal(t, 15.0, f.ctrl.Teams()[0].Asset1)
}

func TestQuizFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t, 1, "abc123", "Bulls")
	questions := catalog.Default().Quiz.Questions

	f.text(1, "nvidia")
	assert.Equal(t, "You have registered successfully", f.tx.last(1), "no quiz, no reply")

	f.text(admin, "/start_quiz")
	assert.Equal(t, "Quiz started", f.tx.last(admin))
	f.text(1, "nvidia")
	assert.Equal(t, questions[1].Text, f.tx.last(1))
	f.text(1, "dividends")
	assert.Equal(t, "Answers accepted", f.tx.last(1))

	f.text(admin, "/quiz_results")
	assert.Equal(t, "Finish the quiz first (/end_quiz)", f.tx.last(admin))
	f.text(admin, "/end_quiz")
	f.text(admin, "/quiz_results")
	assert.Equal(t, "Results announced", f.tx.last(admin))
	assert.Equal(t, 12.1, f.ctrl.Teams()[0].Asset1)
}

func TestSend(t *testing.T) {
	f := newFixture(t)
	f.register(t, 1, "abc123", "Bulls")

	f.text(admin, "/send")
	assert.Contains(t, f.tx.last(admin), "Usage: /send")

	f.bot.HandleUpdate(context.Background(), notifier.Update{Message: &notifier.Message{
		From:    &notifier.User{ID: admin},
		Chat:    notifier.Chat{ID: admin},
		Caption: "/send good luck",
		Photo:   []notifier.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}})
	assert.Equal(t, []string{"large"}, f.tx.downloads)
	assert.Equal(t, "Sent to every team", f.tx.last(admin))

	require.Len(t, f.sender.msgs, 1)
	assert.Equal(t, int64(1), f.sender.msgs[0].ChatID)
	assert.Equal(t, "good luck", f.sender.msgs[0].Text)
	assert.Equal(t, []byte("jpeg"), f.sender.msgs[0].Photo)
}

func TestJoinCodes(t *testing.T) {
	f := newFixture(t)

	f.text(admin, "/qrs")
	assert.Equal(t, "Usage: /qrs [QR_COUNT]", f.tx.last(admin))
	f.text(admin, "/qrs 0")
	assert.Equal(t, "Usage: /qrs [QR_COUNT]", f.tx.last(admin))

	f.text(admin, "/qrs 3")
	data, ok := f.tx.docs["qrs.zip"]
	require.True(t, ok)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)

	token := zr.File[0].Name[:len(zr.File[0].Name)-len(".png")]
	f.text(5, "/start "+token)
	assert.Equal(t, "Name your team", f.tx.last(5))
}

func TestHelp(t *testing.T) {
	f := newFixture(t)
	f.text(admin, "/help")
	assert.Equal(t, notifier.AdminHelp, f.tx.last(admin))
}
