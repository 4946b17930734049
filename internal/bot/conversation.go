package bot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eliseohh/cpmockbot/internal/classplus"
	"github.com/eliseohh/cpmockbot/internal/history"
	"github.com/eliseohh/cpmockbot/internal/render"
	"github.com/eliseohh/cpmockbot/internal/session"
	tele "gopkg.in/telebot.v3"
)

// handleText routes free text to the step the sender's session is waiting on.
func (b *Bot) handleText(c tele.Context) error {
	if chat := c.Chat(); chat != nil && chat.Type != tele.ChatPrivate {
		return nil
	}
	if c.Sender() == nil {
		return nil
	}

	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") {
		return c.Send("Unknown command. Use /Cpmock to start.")
	}

	s, ok := b.sessions.Get(c.Sender().ID)
	if !ok {
		return c.Send(noSessionText)
	}

	// Serializes overlapping messages from the same user.
	s.Lock()
	defer s.Unlock()

	// The session may have ended or been replaced while we waited.
	if cur, ok := b.sessions.Get(s.UserID); !ok || cur != s {
		return c.Send(noSessionText)
	}

	switch s.State {
	case session.WaitOrgCodeOrToken:
		return b.onOrgCodeOrToken(c, s, text)
	case session.WaitToken:
		return b.onToken(c, s, text)
	case session.WaitCredentials:
		return b.onCredentials(c, s, text)
	case session.WaitMockID:
		return b.onMockID(c, s, text)
	default:
		b.sessions.End(s)
		return c.Send(noSessionText)
	}
}

func (b *Bot) onOrgCodeOrToken(c tele.Context, s *session.Session, text string) error {
	if text == tokenButton {
		s.State = session.WaitToken
		return c.Send("Please send your Authorization Token now:", removeKeyboard())
	}
	if text == "" {
		return c.Send(orgCodePrompt, tokenKeyboard())
	}

	s.OrgCode = text
	s.State = session.WaitCredentials
	return c.Send(credentialsPrompt, markdown(), removeKeyboard())
}

// onToken keeps the session in WaitToken on failure so the user can paste
// another token.
func (b *Bot) onToken(c tele.Context, s *session.Session, text string) error {
	if text == "" {
		return c.Send("Please send a valid Authorization Token.")
	}
	c.Send("Verifying authorization token, please wait...")

	token, err := b.client.LoginWithToken(b.ctx, text)
	if err != nil {
		b.log.Info("token login failed", "user_id", s.UserID, "error", err)
		return c.Send(fmt.Sprintf("Error: %v\nPlease send a valid Authorization Token.", err))
	}
	c.Send("Token verified! Fetching your mock tests...")

	mocks, err := b.client.ListMocks(b.ctx, token)
	if err != nil {
		b.log.Warn("list mocks failed", "user_id", s.UserID, "error", err)
		return c.Send(fmt.Sprintf("Error: %v\nPlease send a valid Authorization Token.", err))
	}
	return b.afterLogin(c, s, token, mocks)
}

// onCredentials expects "username password"; the password may contain spaces.
// A failed login drops the session.
func (b *Bot) onCredentials(c tele.Context, s *session.Session, text string) error {
	username, password, ok := splitCredentials(text)
	if !ok {
		return c.Send(invalidCredentials, markdown())
	}
	c.Send("Logging in, please wait...")

	token, err := b.client.LoginWithOrgCode(b.ctx, s.OrgCode, username, password)
	if err == nil {
		c.Send("Login successful! Fetching your mock tests...")
		var mocks []classplus.MockSummary
		if mocks, err = b.client.ListMocks(b.ctx, token); err == nil {
			return b.afterLogin(c, s, token, mocks)
		}
	}

	b.log.Info("org code login failed", "user_id", s.UserID, "org_code", s.OrgCode, "error", err)
	b.sessions.End(s)
	return c.Send(fmt.Sprintf("Login failed: %v\nPlease send Organisation Code again with /Cpmock.", err))
}

func (b *Bot) afterLogin(c tele.Context, s *session.Session, token string, mocks []classplus.MockSummary) error {
	if len(mocks) == 0 {
		b.sessions.End(s)
		return c.Send(noMocksText)
	}

	s.Authenticate(token, mocks)
	b.log.Info("login succeeded", "user_id", s.UserID, "mocks", len(mocks))

	for _, msg := range mockListMessages(mocks) {
		if err := c.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// onMockID rejects IDs that were not listed without calling the API. A
// failed extraction keeps the session so the user can retry.
func (b *Bot) onMockID(c tele.Context, s *session.Session, text string) error {
	mock, ok := s.FindMock(text)
	if !ok {
		return c.Send(invalidMockText)
	}
	c.Send(fmt.Sprintf("Extracting Mock %s... Please wait.", mock.ID))

	name, err := b.extract(c, s, mock)
	b.record(s, mock, name, err)
	if err != nil {
		b.log.Warn("extraction failed", "user_id", s.UserID, "mock_id", mock.ID, "error", err)
		return c.Send(fmt.Sprintf("Failed to extract mock: %v", err))
	}

	b.log.Info("mock sent", "user_id", s.UserID, "mock_id", mock.ID)
	b.sessions.End(s)
	return nil
}

// extract fetches, renders and sends the mock. The rendered file is removed
// once the send returns, whether it succeeded or not.
func (b *Bot) extract(c tele.Context, s *session.Session, mock classplus.MockSummary) (string, error) {
	detail, err := b.client.MockDetail(b.ctx, s.AuthToken, string(mock.ID))
	if err != nil {
		return mock.DisplayName(), err
	}
	name := detail.Name()

	path, err := b.renderer.Render(detail)
	if err != nil {
		return name, err
	}
	defer func() {
		if err := render.Cleanup(path); err != nil {
			b.log.Error("cleanup generated file", "path", path, "error", err)
		}
	}()

	doc := &tele.Document{
		File:     tele.FromDisk(path),
		FileName: filepath.Base(path),
		Caption:  name + " - Offline Mock Test",
	}
	if err := c.Send(doc); err != nil {
		return name, fmt.Errorf("send document: %w", err)
	}
	return name, nil
}

func (b *Bot) record(s *session.Session, mock classplus.MockSummary, name string, extractErr error) {
	if b.history == nil {
		return
	}
	status := history.StatusSent
	if extractErr != nil {
		status = history.StatusFailed
	}
	err := b.history.Record(b.ctx, history.Extraction{
		UserID:   s.UserID,
		MockID:   string(mock.ID),
		MockName: name,
		Status:   status,
	})
	if err != nil {
		b.log.Error("record extraction", "user_id", s.UserID, "error", err)
	}
}

func splitCredentials(text string) (username, password string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", "", false
	}
	username = fields[0]
	password = strings.TrimSpace(strings.TrimPrefix(text, username))
	return username, password, true
}
