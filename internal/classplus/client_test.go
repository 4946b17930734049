package classplus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/orgcode", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req loginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.OrgCode != "abcd" || req.Username != "alice" || req.Password != "s3cret pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"auth_token":"tok-1"}`)
	})
	mux.HandleFunc("/login/token", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok+1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/mocks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer tok-1":
			fmt.Fprint(w, `{"mocks":[{"id":"101","name":"Math Mock"},{"id":102}]}`)
		case "Bearer empty":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	mux.HandleFunc("/mock/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch strings.TrimPrefix(r.URL.Path, "/mock/") {
		case "101":
			fmt.Fprint(w, `{"name":"Math Mock","duration_seconds":1200,"questions":[{"question":"2+2?","options":["3","4"],"answer":1}]}`)
		case "list":
			fmt.Fprint(w, `[1,2,3]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestLoginWithOrgCode(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.URL+"/", time.Second)
	ctx := context.Background()

	token, err := c.LoginWithOrgCode(ctx, "abcd", "alice", "s3cret pass")
	if err != nil {
		t.Fatalf("LoginWithOrgCode err: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("unexpected token: %s", token)
	}

	_, err = c.LoginWithOrgCode(ctx, "abcd", "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestLoginWithToken(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.URL, time.Second)
	ctx := context.Background()

	token, err := c.LoginWithToken(ctx, "tok+1")
	if err != nil {
		t.Fatalf("LoginWithToken err: %v", err)
	}
	if token != "tok+1" {
		t.Errorf("token should be returned unchanged, got: %s", token)
	}

	if _, err := c.LoginWithToken(ctx, "bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got: %v", err)
	}
}

func TestListMocks(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.URL, time.Second)
	ctx := context.Background()

	mocks, err := c.ListMocks(ctx, "tok-1")
	if err != nil {
		t.Fatalf("ListMocks err: %v", err)
	}
	if len(mocks) != 2 {
		t.Fatalf("expected 2 mocks, got %d", len(mocks))
	}
	if mocks[0].ID != "101" || mocks[0].DisplayName() != "Math Mock" {
		t.Errorf("unexpected first mock: %+v", mocks[0])
	}
	if mocks[1].ID != "102" || mocks[1].DisplayName() != DefaultMockName {
		t.Errorf("numeric id or default name not handled: %+v", mocks[1])
	}

	empty, err := c.ListMocks(ctx, "empty")
	if err != nil {
		t.Fatalf("ListMocks empty body err: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no mocks, got %d", len(empty))
	}

	if _, err := c.ListMocks(ctx, "nope"); !errors.Is(err, ErrListMocks) {
		t.Errorf("expected ErrListMocks, got: %v", err)
	}
}

func TestMockDetail(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.URL, time.Second)
	ctx := context.Background()

	detail, err := c.MockDetail(ctx, "tok-1", "101")
	if err != nil {
		t.Fatalf("MockDetail err: %v", err)
	}
	if detail.Name() != "Math Mock" {
		t.Errorf("unexpected name: %s", detail.Name())
	}
	if detail.DurationSeconds() != 1200 {
		t.Errorf("unexpected duration: %d", detail.DurationSeconds())
	}
	if len(detail.Questions()) != 1 {
		t.Errorf("expected 1 question, got %d", len(detail.Questions()))
	}

	if _, err := c.MockDetail(ctx, "tok-1", "999"); !errors.Is(err, ErrMockDetail) {
		t.Errorf("expected ErrMockDetail, got: %v", err)
	}
	if _, err := c.MockDetail(ctx, "tok-1", "list"); err == nil {
		t.Error("expected error for non-object body")
	}
}

func TestClientTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := c.ListMocks(context.Background(), "tok"); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestMockDetailDefaults(t *testing.T) {
	detail, err := DecodeMockDetail([]byte(`{"extra":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if detail.Name() != DefaultMockName {
		t.Errorf("unexpected default name: %s", detail.Name())
	}
	if detail.DurationSeconds() != DefaultDurationSeconds {
		t.Errorf("unexpected default duration: %d", detail.DurationSeconds())
	}
	if qs := detail.Questions(); qs == nil || len(qs) != 0 {
		t.Errorf("expected empty questions, got %v", qs)
	}

	detail = MockDetail{"duration_seconds": "90"}
	if detail.DurationSeconds() != 90 {
		t.Errorf("string duration not parsed: %d", detail.DurationSeconds())
	}
}
