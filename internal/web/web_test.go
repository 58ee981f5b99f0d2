package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roomiez/webapp/internal/model"
	"github.com/roomiez/webapp/internal/storage"
)

func newTestHandlers() *handlers {
	return &handlers{
		log:      zap.NewNop(),
		clock:    clockwork.NewRealClock(),
		sessions: newSessionManager(storage.NewMemory()),
	}
}

// establishUser runs after withGuard and signs in a fixed principal,
// standing in for a completed login flow.
func establishUser(id int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard := guardFrom(r)
			if err := guard.Establish(r.Context(), &model.User{ID: id, Email: "a@b.com"}); err != nil {
				panic(err)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func Test_requireAuthAnonymous(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	h := newTestHandlers()

	req, err := http.NewRequest("GET", "/config", nil)
	require.Nil(err)
	rr := httptest.NewRecorder()

	calledNext := false
	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calledNext = true
	})

	handler := h.sessions.LoadAndSave(h.withGuard(h.requireAuth(next)))
	handler.ServeHTTP(rr, req)

	assert.False(calledNext)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/?reason=login-required", rr.Result().Header.Get("Location"))
}

func Test_requireAuthAuthenticated(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	h := newTestHandlers()

	req, err := http.NewRequest("GET", "/config", nil)
	require.Nil(err)
	rr := httptest.NewRecorder()

	calledNext := false
	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calledNext = true
	})

	handler := h.sessions.LoadAndSave(h.withGuard(establishUser(7)(h.requireAuth(next))))
	handler.ServeHTTP(rr, req)

	assert.True(calledNext)
	assert.Equal(http.StatusOK, rr.Code)
}

func Test_configPageDeniesForeignTarget(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	h := newTestHandlers()

	req, err := http.NewRequest("GET", "/config?userId=9", nil)
	require.Nil(err)
	rr := httptest.NewRecorder()

	handler := h.sessions.LoadAndSave(h.withGuard(
		establishUser(7)(h.requireAuth(http.HandlerFunc(h.configPage))),
	))
	handler.ServeHTTP(rr, req)

	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/?reason=no-permission", rr.Result().Header.Get("Location"))
}

func Test_denyErasesSession(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	h := newTestHandlers()

	req, err := http.NewRequest("GET", "/config?userId=9", nil)
	require.Nil(err)
	rr := httptest.NewRecorder()

	// After the deny the guard in the same request must be anonymous.
	var stateAfter bool
	probe := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			stateAfter = guardFrom(r).Authorized()
		})
	}

	handler := h.sessions.LoadAndSave(h.withGuard(probe(
		establishUser(7)(h.requireAuth(http.HandlerFunc(h.configPage))),
	)))
	handler.ServeHTTP(rr, req)

	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.False(stateAfter)
}

func Test_logout(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	h := newTestHandlers()

	req, err := http.NewRequest("POST", "/logout", nil)
	require.Nil(err)
	rr := httptest.NewRecorder()

	handler := h.sessions.LoadAndSave(h.withGuard(
		establishUser(7)(http.HandlerFunc(h.logout)),
	))
	handler.ServeHTTP(rr, req)

	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/?reason=logged-out", rr.Result().Header.Get("Location"))
}
