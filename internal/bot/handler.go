package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eliseohh/cpmockbot/internal/classplus"
	"github.com/eliseohh/cpmockbot/internal/history"
	"github.com/eliseohh/cpmockbot/internal/render"
	"github.com/eliseohh/cpmockbot/internal/session"
	tele "gopkg.in/telebot.v3"
)

// MockAPI is the subset of the Classplus client the conversation needs.
type MockAPI interface {
	LoginWithOrgCode(ctx context.Context, orgCode, username, password string) (string, error)
	LoginWithToken(ctx context.Context, token string) (string, error)
	ListMocks(ctx context.Context, authToken string) ([]classplus.MockSummary, error)
	MockDetail(ctx context.Context, authToken, mockID string) (classplus.MockDetail, error)
}

type Bot struct {
	api      *tele.Bot
	ctx      context.Context
	cfg      Config
	client   MockAPI
	renderer *render.Renderer
	sessions *session.Store
	history  *history.DB
	log      *slog.Logger
}

type Config struct {
	Token  string
	URL    string // Bot API server, empty for the public one
	TmpDir string
}

// newBot builds everything except the Telegram connection.
func newBot(cfg Config, client MockAPI, db *history.DB, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		ctx:      context.Background(),
		cfg:      cfg,
		client:   client,
		renderer: render.New(cfg.TmpDir),
		sessions: session.NewStore(),
		history:  db,
		log:      logger,
	}
}

// New connects to Telegram and registers the handlers. db may be nil, in
// which case /status reports history as disabled.
func New(cfg Config, client MockAPI, db *history.DB, logger *slog.Logger) (*Bot, error) {
	b := newBot(cfg, client, db, logger)

	pref := tele.Settings{
		Token:  cfg.Token,
		URL:    cfg.URL,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			attrs := []any{"error", err}
			if c != nil && c.Sender() != nil {
				attrs = append(attrs, "user_id", c.Sender().ID)
			}
			b.log.Error("handler failed", attrs...)
		},
	}

	api, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	b.api = api
	b.register()
	return b, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.ctx = ctx
	go func() {
		<-ctx.Done()
		b.api.Stop()
	}()

	b.log.Info("bot started", "username", b.api.Me.Username)
	b.api.Start()
	b.log.Info("bot stopped")
}

func (b *Bot) register() {
	b.api.Handle("/start", b.handleStart)
	b.api.Handle("/Cpmock", b.handleCpmock)
	b.api.Handle("/cancel", b.handleCancel)
	b.api.Handle("/status", b.handleStatus)

	// Everything else is a reply inside a conversation.
	b.api.Handle(tele.OnText, b.handleText)
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send(welcomeText)
}

func (b *Bot) handleCpmock(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	b.sessions.Start(c.Sender().ID)
	b.log.Info("session started", "user_id", c.Sender().ID)
	return c.Send(orgCodePrompt, tokenKeyboard())
}

func (b *Bot) handleCancel(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	if !b.sessions.Delete(c.Sender().ID) {
		return c.Send("Nothing to cancel. Use /Cpmock to start.")
	}
	return c.Send("Cancelled. Use /Cpmock to start again.", removeKeyboard())
}

func (b *Bot) handleStatus(c tele.Context) error {
	if b.history == nil {
		return c.Send("History is disabled.")
	}
	var userID int64
	if c.Sender() != nil {
		userID = c.Sender().ID
	}

	stats, err := b.history.Stats(b.ctx, userID)
	if err != nil {
		b.log.Error("history stats", "error", err)
		return c.Send("Status unavailable right now.")
	}
	recent, err := b.history.Recent(b.ctx, userID, recentLimit)
	if err != nil {
		b.log.Error("history recent", "error", err)
		return c.Send("Status unavailable right now.")
	}
	return c.Send(statusText(stats, recent))
}

func statusText(stats history.Stats, recent []history.Extraction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Mocks extracted: %d\nYours: %d (failed: %d)", stats.Total, stats.ForUser, stats.Failed)
	if len(recent) > 0 {
		sb.WriteString("\n\nRecent:")
		for _, e := range recent {
			mark := "✅"
			if e.Status == history.StatusFailed {
				mark = "❌"
			}
			fmt.Fprintf(&sb, "\n%s %s – %s (%s)", mark, e.MockID, e.MockName, e.CreatedAt.UTC().Format("2006-01-02 15:04"))
		}
	}
	return sb.String()
}

// Replies

const (
	tokenButton = "Send Authorization Token (Direct Login)"

	// Telegram rejects longer text messages.
	maxMessageLen = 4096

	// Extractions listed by /status.
	recentLimit = 3

	welcomeText = "👋 Welcome to Classplus Mock Extractor Bot!\n\n" +
		"Use /Cpmock to start extracting your Classplus mock tests."
	orgCodePrompt = "Send me Organisation Code or choose option:\n\n" +
		"- Send Organisation Code as text\n" +
		"- Or click on '" + tokenButton + "' button"
	credentialsPrompt  = "Send your login credentials in format:\n\n`username password`"
	invalidCredentials = "Invalid format. Please send credentials as:\n\n`username password`"
	noSessionText      = "Please start with /Cpmock command."
	invalidMockText    = "Invalid Mock ID. Please send a valid Mock ID from the list."
	noMocksText        = "No mock tests found in your account."
)

func tokenKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(tokenButton)))
	return menu
}

func removeKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

func markdown() *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeMarkdown}
}

// mockListMessages formats the list, split so no message exceeds maxMessageLen.
func mockListMessages(mocks []classplus.MockSummary) []string {
	const header = "Available Mock Tests:\n\n"
	const footer = "\nSend the Mock ID to start extraction."

	// A single line always fits alongside header and footer.
	maxLine := maxMessageLen - len(header) - len(footer)

	var msgs []string
	var sb strings.Builder
	sb.WriteString(header)
	lines := 0
	for _, m := range mocks {
		line := fmt.Sprintf("%s – %s\n", m.ID, m.DisplayName())
		if len(line) > maxLine {
			line = strings.ToValidUTF8(line[:maxLine-1], "") + "\n"
		}
		if lines > 0 && sb.Len()+len(line) > maxMessageLen-len(footer) {
			msgs = append(msgs, sb.String())
			sb.Reset()
			lines = 0
		}
		sb.WriteString(line)
		lines++
	}
	sb.WriteString(footer)
	return append(msgs, sb.String())
}
