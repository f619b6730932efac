package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plantcare-ai/plantcare-bot/internal/session"
)

const sessionCookie = "plantcare_session"

// visitor is one browser's conversation plus the error to show on its next
// page load.
type visitor struct {
	conv     *session.Session
	flash    string
	lastSeen time.Time
}

// sessionStore maps session cookies to conversations. Visitors idle for
// longer than ttl are forgotten.
type sessionStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	caps     session.Capabilities
	ttl      time.Duration
	now      func() time.Time
}

func newSessionStore(caps session.Capabilities, ttl time.Duration) *sessionStore {
	return &sessionStore{
		visitors: make(map[string]*visitor),
		caps:     caps,
		ttl:      ttl,
		now:      time.Now,
	}
}

// get returns the visitor of the request, creating a new one and setting
// its cookie when the request has none or it expired.
func (st *sessionStore) get(w http.ResponseWriter, r *http.Request) *visitor {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			if v, ok := st.visitors[c.Value]; ok && now.Sub(v.lastSeen) <= st.ttl {
				v.lastSeen = now
				return v
			}
			delete(st.visitors, c.Value)
		}
	}

	id := uuid.NewString()
	v := &visitor{conv: session.New(st.caps), lastSeen: now}
	st.visitors[id] = v
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}

func (st *sessionStore) setFlash(v *visitor, msg string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	v.flash = msg
}

// takeFlash returns the pending error of v and clears it.
func (st *sessionStore) takeFlash(v *visitor) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	msg := v.flash
	v.flash = ""
	return msg
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.visitors)
}

// prune drops expired visitors and returns how many were removed.
func (st *sessionStore) prune() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	removed := 0
	for id, v := range st.visitors {
		if now.Sub(v.lastSeen) > st.ttl {
			delete(st.visitors, id)
			removed++
		}
	}
	return removed
}

// runJanitor prunes expired visitors every ttl until ctx is done.
func (st *sessionStore) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(st.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.prune(); n > 0 {
				log.Debug().Int("removed", n).Msg("pruned idle web sessions")
			}
		}
	}
}
