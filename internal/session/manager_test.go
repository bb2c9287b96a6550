package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adham-AI-111/clinic-system-docker/internal/config"
	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/metrics"
)

func newTestManager(store Store) *Manager {
	cfg := config.SessionConfig{
		CookieName:   "sessionid",
		CookieDomain: "clinic.localhost",
		Lifetime:     time.Hour,
	}
	return NewManager(store, NewSigner(testSecret, "clinic"), cfg, metrics.NewNop())
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "sessionid" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestManager_LoginRotatesAndPersists(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewMemoryStore(time.Minute)
	mgr := newTestManager(store)

	identity := &model.Identity{Base: model.Base{ID: uuid.New()}, Username: "dr.hany", Role: model.RoleDoctor}

	r := gin.New()
	r.Use(mgr.Middleware())
	r.GET("/touch", func(c *gin.Context) {
		s := FromContext(c)
		s.Touch()
		require.NoError(t, mgr.Commit(c, s))
		c.String(http.StatusOK, s.ID)
	})
	r.POST("/login", func(c *gin.Context) {
		s := FromContext(c)
		s.Authenticate(identity, "clinic_hany")
		require.NoError(t, mgr.Commit(c, s))
		c.String(http.StatusOK, s.ID)
	})
	r.GET("/me", func(c *gin.Context) {
		s := FromContext(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": s.IsAuthenticated(), "username": s.Data.Username})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/touch", nil))
	require.Equal(t, http.StatusOK, w.Code)
	anonID := w.Body.String()
	anonCookie := sessionCookie(t, w)
	assert.Equal(t, "clinic.localhost", anonCookie.Domain)
	assert.True(t, anonCookie.HttpOnly)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(anonCookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	authID := w.Body.String()
	assert.NotEqual(t, anonID, authID)

	_, err := store.Load(context.Background(), anonID)
	assert.ErrorIs(t, err, ErrNotFound)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(sessionCookie(t, w))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"authenticated":true,"username":"dr.hany"}`, w.Body.String())
}

func TestManager_DestroyClearsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewMemoryStore(time.Minute)
	mgr := newTestManager(store)

	require.NoError(t, store.Save(context.Background(), "existing", Record{Data: Data{Username: "sara"}}, time.Hour))
	value, err := mgr.signer.Sign("existing", time.Now().Add(time.Hour))
	require.NoError(t, err)

	r := gin.New()
	r.Use(mgr.Middleware())
	r.POST("/logout", func(c *gin.Context) {
		s := FromContext(c)
		s.Destroy()
		require.NoError(t, mgr.Commit(c, s))
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: value})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Less(t, sessionCookie(t, w).MaxAge, 0)
	_, err = store.Load(context.Background(), "existing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_ForgedCookieGetsFreshSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewMemoryStore(time.Minute)
	mgr := newTestManager(store)
	require.NoError(t, store.Save(context.Background(), "victim", Record{Data: Data{UserID: uuid.New()}}, time.Hour))

	r := gin.New()
	r.Use(mgr.Middleware())
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated": FromContext(c).IsAuthenticated()})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "victim"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
}
