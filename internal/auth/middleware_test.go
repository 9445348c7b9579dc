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

func protected(m *JWTMiddleware) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := ClaimsFromContext(r.Context())
		w.Write([]byte(c.Subject))
	}))
}

func call(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_ValidToken(t *testing.T) {
	m := NewJWTMiddleware("s3cret")
	token, err := m.Issue("ops", "admin", time.Hour)
	require.NoError(t, err)

	rec := call(protected(m), token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", rec.Body.String())
}

func TestAuthenticate_Rejections(t *testing.T) {
	m := NewJWTMiddleware("s3cret")

	expired, err := m.Issue("ops", "admin", -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewJWTMiddleware("different").Issue("ops", "admin", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "ops"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"missing", "", "missing authorization token"},
		{"expired", expired, "token expired"},
		{"wrong key", otherKey, "invalid token"},
		{"unsigned", none, "invalid token"},
		{"garbage", "not.a.jwt", "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(protected(m), tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}
