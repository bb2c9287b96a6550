package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Adham-AI-111/clinic-system-docker/internal/config"
	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/metrics"
)

const contextKey = "session"

// Manager loads the session for each request and persists it on Commit.
type Manager struct {
	store   Store
	signer  *Signer
	cfg     config.SessionConfig
	metrics *metrics.Metrics
}

func NewManager(store Store, signer *Signer, cfg config.SessionConfig, m *metrics.Metrics) *Manager {
	return &Manager{store: store, signer: signer, cfg: cfg, metrics: m}
}

// Middleware attaches a session to the request. Requests without a valid
// cookie get a fresh, unsaved session.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		Set(c, m.load(c))
		c.Next()
	}
}

func (m *Manager) load(c *gin.Context) *Session {
	value, err := c.Cookie(m.cfg.CookieName)
	if err != nil || value == "" {
		return New()
	}

	id, err := m.signer.Verify(value)
	if err != nil {
		log.Debug().Str("ip", c.ClientIP()).Msg("Rejected session cookie")
		return New()
	}

	var rec *Record
	err = m.observe("load", func() error {
		var err error
		rec, err = m.store.Load(c.Request.Context(), id)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error().Err(err).Msg("Failed to load session")
		}
		return New()
	}

	return &Session{ID: id, Data: rec.Data, ExpiresAt: rec.ExpiresAt}
}

// Set attaches s to the request.
func Set(c *gin.Context, s *Session) {
	c.Set(contextKey, s)
}

// FromContext returns the request session. It panics if Middleware is not
// installed.
func FromContext(c *gin.Context) *Session {
	return c.MustGet(contextKey).(*Session)
}

// Commit persists the session and refreshes the cookie.
func (m *Manager) Commit(c *gin.Context, s *Session) error {
	ctx := c.Request.Context()

	if s.destroyed {
		m.clearCookie(c)
		if s.fresh && !s.rotated() {
			return nil
		}
		return m.observe("delete", func() error {
			if s.rotated() {
				if err := m.store.Delete(ctx, s.previousID); err != nil {
					return err
				}
			}
			return m.store.Delete(ctx, s.ID)
		})
	}
	if !s.dirty {
		return nil
	}

	if s.rotated() {
		if err := m.observe("delete", func() error { return m.store.Delete(ctx, s.previousID) }); err != nil {
			return err
		}
		s.previousID = ""
	}

	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = time.Now().Add(m.cfg.Lifetime)
	}
	ttl := time.Until(s.ExpiresAt)

	err := m.observe("save", func() error {
		return m.store.Save(ctx, s.ID, Record{Data: s.Data, ExpiresAt: s.ExpiresAt}, ttl)
	})
	if err != nil {
		return err
	}

	value, err := m.signer.Sign(s.ID, s.ExpiresAt)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cfg.CookieName, value, int(ttl.Seconds()), "/", m.cfg.CookieDomain, m.cfg.Secure, true)

	s.fresh = false
	s.dirty = false
	return nil
}

func (m *Manager) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cfg.CookieName, "", -1, "/", m.cfg.CookieDomain, m.cfg.Secure, true)
}

// PutHandoff stores the pending staff login of sessionID.
func (m *Manager) PutHandoff(ctx context.Context, sessionID string, token model.HandoffToken, ttl time.Duration) error {
	return m.observe("put_handoff", func() error {
		return m.store.PutHandoff(ctx, sessionID, token, ttl)
	})
}

func (m *Manager) TakeHandoff(ctx context.Context, sessionID string) (*model.HandoffToken, error) {
	var token *model.HandoffToken
	err := m.observe("take_handoff", func() error {
		var err error
		token, err = m.store.TakeHandoff(ctx, sessionID)
		return err
	})
	return token, err
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Manager) observe(operation string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "success"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "miss"
	case err != nil:
		status = "error"
	}
	m.metrics.SessionOperations.WithLabelValues(operation, status).Inc()
	m.metrics.SessionLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	return err
}
