package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signToken builds an ES256 token with the given claims.
func signToken(t *testing.T, key any, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func tokenReason(t *testing.T, err error) string {
	t.Helper()
	var terr *TokenError
	if !errors.As(err, &terr) {
		t.Fatalf("want *TokenError, got %T (%v)", err, err)
	}
	return terr.Reason
}

// verifierFor wires a verifier against a one-key JWKS test server.
func verifierFor(t *testing.T) (*Verifier, any) {
	t.Helper()
	priv := genKey(t)
	srv := jwksServer(t, nil, jwkFor(&priv.PublicKey, "k1"))
	return NewVerifier(NewKeyResolver(srv.URL, "", srv.Client())), priv
}

func TestVerifyReturnsSubject(t *testing.T) {
	v, priv := verifierFor(t)

	tok := signToken(t, priv, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	sub, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "user-42" {
		t.Fatalf("sub = %q, want user-42", sub)
	}
}

func TestVerifyIgnoresAudience(t *testing.T) {
	v, priv := verifierFor(t)

	// Tokens from the provider set aud inconsistently; it must not matter.
	tok := signToken(t, priv, jwt.MapClaims{
		"sub": "user-42",
		"aud": "some-other-service",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := v.Verify(context.Background(), tok); err != nil {
		t.Fatalf("Verify with foreign aud: %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	v, priv := verifierFor(t)

	tok := signToken(t, priv, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	_, err := v.Verify(context.Background(), tok)
	if reason := tokenReason(t, err); reason != ReasonExpired {
		t.Fatalf("reason = %q, want %q", reason, ReasonExpired)
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	v, priv := verifierFor(t)

	tok := signToken(t, priv, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err := v.Verify(context.Background(), tok)
	if reason := tokenReason(t, err); reason != ReasonMissingSubject {
		t.Fatalf("reason = %q, want %q", reason, ReasonMissingSubject)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	v, _ := verifierFor(t)
	other := genKey(t)

	tok := signToken(t, other, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err := v.Verify(context.Background(), tok)
	if reason := tokenReason(t, err); reason != ReasonMalformed {
		t.Fatalf("reason = %q, want %q", reason, ReasonMalformed)
	}
}

func TestVerifyRejectsForeignAlgorithm(t *testing.T) {
	v, _ := verifierFor(t)

	// HS256 signed with a shared secret must be rejected by the allow-list,
	// not verified against the EC key bytes.
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("sign HS256: %v", err)
	}
	_, err = v.Verify(context.Background(), s)
	if reason := tokenReason(t, err); reason != ReasonMalformed {
		t.Fatalf("reason = %q, want %q", reason, ReasonMalformed)
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	v, _ := verifierFor(t)

	_, err := v.Verify(context.Background(), "not.a.token")
	if reason := tokenReason(t, err); reason != ReasonMalformed {
		t.Fatalf("reason = %q, want %q", reason, ReasonMalformed)
	}
}

func TestVerifyKeyUnavailable(t *testing.T) {
	r := NewKeyResolver("http://127.0.0.1:1/jwks.json", "", &http.Client{})
	v := NewVerifier(r)

	_, err := v.Verify(context.Background(), "whatever")
	if reason := tokenReason(t, err); reason != ReasonKeyUnavailable {
		t.Fatalf("reason = %q, want %q", reason, ReasonKeyUnavailable)
	}
	var kerr *KeyResolutionError
	if !errors.As(err, &kerr) {
		t.Fatalf("key_unavailable should wrap the resolution error, got %v", err)
	}
}
