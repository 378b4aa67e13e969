package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "test_session", "session-secret", time.Hour, false), mr
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	sess, err := sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("user-1")
	sess.Set("theme", "grid")
	sess.AddFlash(FlashMessage{Kind: FlashSuccess, Message: "Produk berhasil dibuat."})

	res := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(ctx, res, sess))
	cookie := sessionCookie(t, res, "test_session")
	assert.Equal(t, sessions.sign(sess.ID), cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sessions.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", loaded.User())
	assert.Equal(t, "grid", loaded.Get("theme"))

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Produk berhasil dibuat.", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	sessions, _ := newTestSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "attacker-chosen"})
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "attacker-chosen", sess.ID)
	assert.Empty(t, sess.User())
}

func TestSessionRejectsForgedSignature(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	sess, err := sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("user-1")
	require.NoError(t, sessions.Commit(ctx, httptest.NewRecorder(), sess))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: sess.ID + ".forged"})
	loaded, err := sessions.Load(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, loaded.ID)
	assert.Empty(t, loaded.User())
}

func TestSessionRenewDropsPreviousKey(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sessions.Commit(ctx, httptest.NewRecorder(), sess))
	oldID := sess.ID
	require.True(t, mr.Exists(sessions.redisKey(oldID)))

	sessions.Renew(sess)
	sess.SetUser("user-2")
	require.NoError(t, sessions.Commit(ctx, httptest.NewRecorder(), sess))

	assert.NotEqual(t, oldID, sess.ID)
	assert.False(t, mr.Exists(sessions.redisKey(oldID)))
	assert.True(t, mr.Exists(sessions.redisKey(sess.ID)))
}

func TestSessionDestroy(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sessions.Commit(ctx, httptest.NewRecorder(), sess))

	sessions.Destroy(sess)
	res := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(ctx, res, sess))

	assert.False(t, mr.Exists(sessions.redisKey(sess.ID)))
	assert.Equal(t, -1, sessionCookie(t, res, "test_session").MaxAge)
}
