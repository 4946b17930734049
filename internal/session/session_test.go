package session

import (
	"sync"
	"testing"

	"github.com/eliseohh/cpmockbot/internal/classplus"
)

func TestStoreLifecycle(t *testing.T) {
	st := NewStore()

	if _, ok := st.Get(1); ok {
		t.Fatal("expected no session before Start")
	}

	s := st.Start(1)
	if s.State != WaitOrgCodeOrToken {
		t.Errorf("unexpected initial state: %v", s.State)
	}
	got, ok := st.Get(1)
	if !ok || got != s {
		t.Fatal("Get did not return started session")
	}

	restarted := st.Start(1)
	st.End(s)
	if cur, ok := st.Get(1); !ok || cur != restarted {
		t.Error("End of a stale session removed the newer one")
	}

	st.End(restarted)
	if _, ok := st.Get(1); ok {
		t.Error("expected empty store after End")
	}
	if st.Delete(1) {
		t.Error("Delete of missing session should report false")
	}
}

func TestSessionAuthenticateAndFind(t *testing.T) {
	s := NewStore().Start(7)
	s.Authenticate("tok", []classplus.MockSummary{{ID: "101", Name: "Math Mock"}})

	if s.State != WaitMockID || s.AuthToken != "tok" {
		t.Fatalf("unexpected session after auth: %+v", s)
	}
	m, ok := s.FindMock("101")
	if !ok || m.Name != "Math Mock" {
		t.Errorf("FindMock(101) = %+v, %v", m, ok)
	}
	if _, ok := s.FindMock("999"); ok {
		t.Error("FindMock should reject unknown id")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	st := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s := st.Start(id % 5)
			st.Get(id % 5)
			st.End(s)
		}(int64(i))
	}
	wg.Wait()
}

func TestStateString(t *testing.T) {
	if WaitMockID.String() != "wait_mock_id" {
		t.Errorf("unexpected: %s", WaitMockID)
	}
	if State(0).String() != "unknown" {
		t.Errorf("unexpected: %s", State(0))
	}
}
