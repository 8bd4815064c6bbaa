package auth

import (
	"context"
	"net/http"
	"time"

	"finbook/internal/core"
	"finbook/internal/log"

	"github.com/google/uuid"
)

// CookieName is the session cookie used by the web UI.
const CookieName = "finbook_session"

// SessionStore is the persistence surface the manager needs; the
// SQLite repository satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, token string) (core.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Manager issues and resolves login sessions.
type Manager struct {
	store  SessionStore
	ttl    time.Duration
	logger *log.Logger
}

func NewManager(store SessionStore, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, logger: log.ForComponent(log.ComponentAuth)}
}

// Issue creates a session for userID and sets the cookie on the response.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, userID int64) error {
	s := core.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(m.ttl),
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	m.logger.InfoContext(ctx, "Session issued", log.FieldUserID, userID)
	return nil
}

// Resolve returns the session for the request cookie, or ErrNotFound
// when the cookie is missing, unknown or expired.
func (m *Manager) Resolve(r *http.Request) (core.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return core.Session{}, core.ErrNotFound
	}
	return m.store.GetSession(r.Context(), cookie.Value)
}

// Clear deletes the request's session and expires the cookie.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if err := m.store.DeleteSession(ctx, cookie.Value); err != nil {
			m.logger.ErrorContext(ctx, "Failed to delete session", log.FieldError, err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// StartCleanup purges expired sessions on the given interval until ctx
// is cancelled.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := m.store.DeleteExpiredSessions(ctx)
				if err != nil {
					m.logger.ErrorContext(ctx, "Session cleanup failed", log.FieldError, err)
					continue
				}
				if n > 0 {
					m.logger.InfoContext(ctx, "Expired sessions removed", "sessions_removed", n)
				}
			}
		}
	}()
}
