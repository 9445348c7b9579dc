package auth

import (
	"net/http"
)

type Permission string

const (
	PermDocumentsRead Permission = "documents:read"
	PermWildcard      Permission = "*"
)

// Roles maps a token role to the permissions it grants.
var Roles = map[string][]Permission{
	"admin":  {PermWildcard},
	"reader": {PermDocumentsRead},
}

// RequirePermission rejects requests whose token role does not grant perm.
// It must run after Authenticate.
func RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			claims := ClaimsFromContext(req.Context())
			if claims == nil {
				writeError(w, http.StatusForbidden, "no claims in context")
				return
			}
			if claims.Role == "" {
				writeError(w, http.StatusForbidden, "no role assigned")
				return
			}
			if !HasPermission(claims.Role, perm) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func HasPermission(role string, perm Permission) bool {
	for _, p := range Roles[role] {
		if p == PermWildcard || p == perm {
			return true
		}
	}
	return false
}
