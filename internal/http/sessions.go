package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"budgetboard/internal/cache"
	"budgetboard/internal/dashboard"
	applog "budgetboard/internal/log"
)

const sessionCookie = "budgetboard_session"

// SessionStore keeps one dashboard view per browser session. Views idle for
// longer than the TTL, or pushed out by newer sessions, lose their chart.
type SessionStore struct {
	views  *cache.LRUCache[*dashboard.View]
	ttl    time.Duration
	now    func() time.Time
	logger *applog.Logger
}

// NewSessionStore creates a store holding at most max views.
func NewSessionStore(max int, ttl time.Duration, logger *applog.Logger) *SessionStore {
	s := &SessionStore{
		views:  cache.NewLRUCache[*dashboard.View](max, ttl),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithComponent(applog.ComponentSession),
	}
	s.views.OnEvict(func(id string, v *dashboard.View) {
		v.Canvas().Clear()
		s.logger.Debug("Session evicted", applog.FieldSessionID, id)
	})
	return s
}

// View returns the view of the request's session, creating the session when
// the cookie is missing, malformed or expired.
func (s *SessionStore) View(w http.ResponseWriter, r *http.Request) (*dashboard.View, string) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			if v, ok := s.views.Get(c.Value); ok {
				return v, c.Value
			}
		}
	}

	id := uuid.NewString()
	v := dashboard.NewView(s.now())
	s.views.Set(id, v)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	s.logger.Debug("Session created", applog.FieldSessionID, id)
	return v, id
}

// Size is the number of live sessions.
func (s *SessionStore) Size() int {
	return s.views.Size()
}

// CleanExpired drops idle sessions. It makes the store a cache.Cleaner.
func (s *SessionStore) CleanExpired() int {
	return s.views.CleanExpired()
}
