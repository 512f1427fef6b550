// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication middleware in two flavors:
//
//   - RequireIdentity() rejects the request with 401 when the credential is
//     absent or fails verification. Every verifier failure collapses to the
//     same external "unauthorized" signal; the internal reason is only
//     logged, never exposed to the caller.
//   - OptionalIdentity() attaches the identity when a valid credential is
//     present and otherwise lets the request through anonymously. It is used
//     on public endpoints that personalize behavior for signed-in users.
//
// On success, the verified subject is stored in the Gin context and can be
// read with IdentityFrom(). The subject is an opaque identifier owned by the
// identity provider; nothing in this layer parses it.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// identityKey is the Gin context key under which the verified subject is stored.
	identityKey = "userID"
	// bearerPrefix is the expected Authorization scheme.
	bearerPrefix = "bearer "
)

// TokenVerifier validates a bearer token and returns the subject identifier.
// The production implementation lives in internal/auth; tests substitute
// stubs.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// RequireIdentity returns middleware that authenticates the request or
// aborts it with 401. The error body uses the standard envelope shape so
// clients see the same contract as handler-level failures.
func RequireIdentity(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			unauthorized(c, "missing authorization token")
			return
		}
		sub, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			// Internal reason stays in the logs; callers get one signal.
			LoggerFrom(c).Warn().Err(err).Msg("token rejected")
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(identityKey, sub)
		c.Next()
	}
}

// OptionalIdentity returns middleware that attaches the verified identity
// when present and valid, and otherwise continues anonymously. It never
// fails the request.
func OptionalIdentity(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if sub, err := v.Verify(c.Request.Context(), token); err == nil {
				c.Set(identityKey, sub)
			}
		}
		c.Next()
	}
}

// IdentityFrom returns the verified subject stored by RequireIdentity or
// OptionalIdentity, and whether one is present.
func IdentityFrom(c *gin.Context) (string, bool) {
	if v, ok := c.Get(identityKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// bearerToken extracts the credential from the Authorization header.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(h), bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// unauthorized aborts the request with the standard 401 envelope.
func unauthorized(c *gin.Context, msg string) {
	rid := c.Writer.Header().Get("X-Request-ID")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": rid,
		"code":       "unauthorized",
		"message":    msg,
	})
}
