package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func protected(m *JWTMiddleware, mw ...func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := ClaimsFromContext(r.Context())
		w.Write([]byte(c.Subject))
	})
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return m.Authenticate(h)
}

func do(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	m := NewJWTMiddleware(testSecret, "agribot")
	h := protected(m)

	valid, err := IssueToken(testSecret, "agribot", "kiosk-7", "", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "agribot", "kiosk-7", "", -time.Minute)
	require.NoError(t, err)
	otherIssuer, err := IssueToken(testSecret, "someone-else", "kiosk-7", "", time.Hour)
	require.NoError(t, err)
	wrongKey, err := IssueToken("other", "agribot", "kiosk-7", "", time.Hour)
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "kiosk-7", Issuer: "agribot"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		status int
		body   string
	}{
		{"valid", valid, http.StatusOK, "kiosk-7"},
		{"missing", "", http.StatusUnauthorized, "missing authorization token"},
		{"expired", expired, http.StatusUnauthorized, "token expired"},
		{"wrong issuer", otherIssuer, http.StatusUnauthorized, "invalid token"},
		{"wrong key", wrongKey, http.StatusUnauthorized, "invalid token"},
		{"no expiry", noExp, http.StatusUnauthorized, "invalid token"},
		{"garbage", "not.a.jwt", http.StatusUnauthorized, "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.token)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestRequireRole(t *testing.T) {
	m := NewJWTMiddleware(testSecret, "")
	h := protected(m, RequireRole("admin"))

	admin, err := IssueToken(testSecret, "", "ops", "admin", time.Hour)
	require.NoError(t, err)
	farmer, err := IssueToken(testSecret, "", "kiosk-7", "", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(h, admin).Code)
	assert.Equal(t, http.StatusForbidden, do(h, farmer).Code)
}

func TestRequireRoleWithoutAuthenticate(t *testing.T) {
	h := RequireRole("admin")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
