package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission("admin", PermDocumentsRead))
	assert.True(t, HasPermission("admin", Permission("documents:delete")))
	assert.True(t, HasPermission("reader", PermDocumentsRead))
	assert.False(t, HasPermission("reader", Permission("documents:delete")))
	assert.False(t, HasPermission("unknown", PermDocumentsRead))
}

func TestRoles_OnlyAdminAndReader(t *testing.T) {
	names := make([]string, 0, len(Roles))
	for name := range Roles {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{"admin", "reader"}, names)
	assert.False(t, HasPermission("writer", PermDocumentsRead))
}

func TestRequirePermission(t *testing.T) {
	m := NewJWTMiddleware("s3cret")
	h := m.Authenticate(RequirePermission(PermDocumentsRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		role string
		want int
	}{
		{"admin", http.StatusNoContent},
		{"reader", http.StatusNoContent},
		{"guest", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			token, err := m.Issue("ops", tt.role, time.Minute)
			require.NoError(t, err)

			rec := call(h, token)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), `"code":"forbidden"`)
			}
		})
	}
}

func TestRequirePermission_WithoutAuthenticate(t *testing.T) {
	h := RequirePermission(PermDocumentsRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := call(h, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
