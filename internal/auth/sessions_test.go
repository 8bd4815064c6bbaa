package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"finbook/internal/core"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]core.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]core.Session)}
}

func (f *fakeSessionStore) CreateSession(_ context.Context, s core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.Token] = s
	return nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, token string) (core.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok || time.Now().After(s.ExpiresAt) {
		return core.Session{}, core.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionStore) DeleteExpiredSessions(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for token, s := range f.sessions {
		if time.Now().After(s.ExpiresAt) {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func TestManagerIssueAndResolve(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(store, time.Hour)

	rec := httptest.NewRecorder()
	if err := m.Issue(context.Background(), rec, 42); err != nil {
		t.Fatalf("issue: %v", err)
	}

	cookies := rec.Result().Cookies()
	var sessionCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == CookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatalf("expected %s cookie to be set", CookieName)
	}
	if !sessionCookie.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie)
	session, err := m.Resolve(req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if session.UserID != 42 {
		t.Fatalf("expected user 42, got %d", session.UserID)
	}
}

func TestManagerResolveMissingCookie(t *testing.T) {
	m := NewManager(newFakeSessionStore(), time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := m.Resolve(req); err == nil {
		t.Fatalf("expected error without cookie")
	}
}

func TestManagerClear(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(store, time.Hour)

	rec := httptest.NewRecorder()
	if err := m.Issue(context.Background(), rec, 7); err != nil {
		t.Fatalf("issue: %v", err)
	}
	issued := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(issued)
	rec2 := httptest.NewRecorder()
	m.Clear(context.Background(), rec2, req)

	if store.count() != 0 {
		t.Fatalf("expected session to be deleted")
	}

	var cleared *http.Cookie
	for _, c := range rec2.Result().Cookies() {
		if c.Name == CookieName {
			cleared = c
		}
	}
	if cleared == nil || cleared.MaxAge != -1 {
		t.Fatalf("expected expired cookie, got %+v", cleared)
	}
}

func TestManagerStartCleanup(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["stale"] = core.Session{Token: "stale", UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)}
	store.sessions["live"] = core.Session{Token: "live", UserID: 2, ExpiresAt: time.Now().Add(time.Hour)}

	m := NewManager(store, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartCleanup(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for store.count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected stale session to be purged, %d sessions remain", store.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := store.GetSession(ctx, "live"); err != nil {
		t.Fatalf("live session must survive cleanup: %v", err)
	}
}
