package identity

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AnonymousUser is used when no identity can be derived from the request.
const AnonymousUser = "anonymous"

type TokenClaims struct {
	Subject           string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	jwt.RegisteredClaims
}

// FromAuthorizationHeader derives a best-effort user id from a bearer token.
// Signature verification is the fronting gateway's job; the claims are only
// decoded here so uploads can be attributed to a user. Anything malformed
// falls back to the anonymous user rather than failing the request.
func FromAuthorizationHeader(authHeader string) string {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return AnonymousUser
	}

	var claims TokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(parts[1], &claims); err != nil {
		return AnonymousUser
	}

	switch {
	case claims.Subject != "":
		return claims.Subject
	case claims.PreferredUsername != "":
		return claims.PreferredUsername
	case claims.Email != "":
		return claims.Email
	default:
		return AnonymousUser
	}
}
