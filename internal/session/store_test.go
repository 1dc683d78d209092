package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/partsline/partsline/internal/models"
)

func TestMemory_SetThenGet(t *testing.T) {
	for _, token := range []string{"abc123", "x", "eyJhbGciOi.two.three", "  spaces are kept  "} {
		store := NewMemory()
		require.NoError(t, store.Set(token))

		got, ok := store.Get()
		assert.True(t, ok)
		assert.Equal(t, token, got)
	}
}

func TestMemory_SetReplaces(t *testing.T) {
	store := NewMemory()
	require.NoError(t, store.Set("first"))
	require.NoError(t, store.Set("second"))

	got, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestMemory_ClearThenGet(t *testing.T) {
	store := NewMemory()

	// clearing an empty store is a no-op
	require.NoError(t, store.Clear())
	_, ok := store.Get()
	assert.False(t, ok)

	require.NoError(t, store.Set("abc123"))
	require.NoError(t, store.Clear())
	got, ok := store.Get()
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestStateOf(t *testing.T) {
	store := NewMemory()
	assert.Equal(t, Unauthenticated, StateOf(store))

	require.NoError(t, store.Set("abc123"))
	assert.Equal(t, Authenticated, StateOf(store))
	assert.Equal(t, "authenticated", StateOf(store).String())

	require.NoError(t, store.Clear())
	assert.Equal(t, Unauthenticated, StateOf(store))

	assert.Equal(t, Unauthenticated, StateOf(None{}))
	assert.Equal(t, Unauthenticated, StateOf(nil))
}

func TestNone_NeverHoldsToken(t *testing.T) {
	var store None
	require.NoError(t, store.Set("abc123"))
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestCookie_RoundTrip(t *testing.T) {
	codec := NewCookieCodec(nil, nil, false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	store := codec.Bind(rec, req)
	require.NoError(t, store.Set("abc123"))

	// visible in the same request
	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "abc123", got)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.NotContains(t, cookies[0].Value, "abc123")
	assert.True(t, cookies[0].HttpOnly)

	// and on the next request carrying the cookie
	next := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	next.AddCookie(cookies[0])
	got, ok = codec.Bind(httptest.NewRecorder(), next).Get()
	require.True(t, ok)
	assert.Equal(t, "abc123", got)
}

func TestCookie_Clear(t *testing.T) {
	codec := NewCookieCodec(nil, nil, false)

	rec := httptest.NewRecorder()
	store := codec.Bind(rec, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))
	require.NoError(t, store.Clear())

	_, ok := store.Get()
	assert.False(t, ok)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestCookie_AbsentOutsideRequest(t *testing.T) {
	codec := NewCookieCodec(nil, nil, false)

	store := codec.Bind(nil, nil)
	_, ok := store.Get()
	assert.False(t, ok)
	assert.Error(t, store.Set("abc123"))
	assert.NoError(t, store.Clear())
}

func TestCookie_TamperedValueIsAbsent(t *testing.T) {
	codec := NewCookieCodec(nil, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "abc123"})

	_, ok := codec.Bind(httptest.NewRecorder(), req).Get()
	assert.False(t, ok)
}

func TestCookie_OtherKeysCannotRead(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, NewCookieCodec(nil, nil, false).Bind(rec, httptest.NewRequest(http.MethodPost, "/", nil)).Set("abc123"))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	_, ok := NewCookieCodec(nil, nil, false).Bind(httptest.NewRecorder(), req).Get()
	assert.False(t, ok)
}

func TestKeyring_RoundTrip(t *testing.T) {
	keyring.MockInit()

	store := NewKeyring("https://api.example.com/v1", zerolog.Nop())
	_, ok := store.Get()
	assert.False(t, ok)

	require.NoError(t, store.Set("abc123"))
	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "abc123", got)

	// another backend has its own entry
	other := NewKeyring("https://staging.example.com", zerolog.Nop())
	_, ok = other.Get()
	assert.False(t, ok)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, ok = store.Get()
	assert.False(t, ok)
}

func TestKeyringKey(t *testing.T) {
	assert.Equal(t, "token-api.example.com:8443", keyringKey("https://api.example.com:8443/v1"))
	assert.Equal(t, "token-localhost", keyringKey("localhost"))
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "admin@example.com",
		"role":  "superadmin",
		"exp":   exp.Unix(),
	}).SignedString([]byte("not-known-to-the-client"))
	require.NoError(t, err)

	// expired tokens are still readable: expiry is the backend's business
	id, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "admin@example.com", id.Email)
	assert.Equal(t, models.RoleSuperAdmin, id.Role)
	require.NotNil(t, id.ExpiresAt)
	assert.True(t, id.ExpiresAt.Equal(exp))
}

func TestInspect_OpaqueToken(t *testing.T) {
	_, err := Inspect("abc123")
	assert.ErrorIs(t, err, ErrOpaqueToken)
}
