package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gestor/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}

	return nil
}

func TestSet_RemainingLifetime(t *testing.T) {
	c, rec := newTestContext()

	Set(c, &config.Config{}, AccessTokenName, "token-value", time.Now().Add(10*time.Minute))

	ck := findCookie(rec, AccessTokenName)
	require.NotNil(t, ck)
	assert.Equal(t, "token-value", ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.Positive(t, ck.MaxAge)
	assert.LessOrEqual(t, ck.MaxAge, int((10 * time.Minute).Seconds()))
}

func TestSet_ExpiredCredentialDeletesCookie(t *testing.T) {
	c, rec := newTestContext()

	// An expiry in the past must delete the cookie. MaxAge 0 would drop the
	// attribute and leave a session cookie carrying a dead credential.
	Set(c, &config.Config{}, RefreshTokenName, "stale-value", time.Now().Add(-time.Minute))

	ck := findCookie(rec, RefreshTokenName)
	require.NotNil(t, ck)
	assert.Negative(t, ck.MaxAge)
}

func TestClear_DeletesBothCookies(t *testing.T) {
	c, rec := newTestContext()

	Clear(c, &config.Config{})

	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		ck := findCookie(rec, name)
		require.NotNil(t, ck)
		assert.Empty(t, ck.Value)
		assert.Negative(t, ck.MaxAge)
	}
}
