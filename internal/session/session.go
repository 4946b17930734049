// Package session keeps the per-user conversation state in memory.
package session

import (
	"sync"

	"github.com/eliseohh/cpmockbot/internal/classplus"
)

type State int

const (
	WaitOrgCodeOrToken State = iota + 1
	WaitCredentials
	WaitToken
	WaitMockID
)

func (s State) String() string {
	switch s {
	case WaitOrgCodeOrToken:
		return "wait_org_code_or_token"
	case WaitCredentials:
		return "wait_credentials"
	case WaitToken:
		return "wait_token"
	case WaitMockID:
		return "wait_mock_id"
	default:
		return "unknown"
	}
}

// Session is one user's conversation. Handlers must hold Lock while
// reading or advancing it.
type Session struct {
	sync.Mutex

	UserID    int64
	State     State
	OrgCode   string
	AuthToken string
	Mocks     []classplus.MockSummary
}

// Authenticate stores the token and mock list and moves to WaitMockID.
func (s *Session) Authenticate(token string, mocks []classplus.MockSummary) {
	s.AuthToken = token
	s.Mocks = mocks
	s.State = WaitMockID
}

// FindMock reports whether id is one of the listed mocks.
func (s *Session) FindMock(id string) (classplus.MockSummary, bool) {
	for _, m := range s.Mocks {
		if string(m.ID) == id {
			return m, true
		}
	}
	return classplus.MockSummary{}, false
}

type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Start replaces any existing session for userID with a fresh one.
func (st *Store) Start(userID int64) *Session {
	s := &Session{UserID: userID, State: WaitOrgCodeOrToken}
	st.mu.Lock()
	st.sessions[userID] = s
	st.mu.Unlock()
	return s
}

func (st *Store) Get(userID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	return s, ok
}

// End removes the session, but only if it is still the current one for its
// user. A /Cpmock issued mid-request is not clobbered by the older flow.
func (st *Store) End(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if cur, ok := st.sessions[s.UserID]; ok && cur == s {
		delete(st.sessions, s.UserID)
	}
}

func (st *Store) Delete(userID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[userID]
	delete(st.sessions, userID)
	return ok
}
