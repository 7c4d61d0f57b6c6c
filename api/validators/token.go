package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
)

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authorization header must use the Bearer scheme")
	}
	token := strings.TrimSpace(raw[7:])
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "empty bearer token")
	}
	return token, nil
}
