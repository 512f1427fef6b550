// Package auth implements bearer-token verification against the identity
// provider's published JSON Web Key Set (JWKS).
//
// The package is split in two:
//   - KeyResolver (this file): fetches the JWKS document, selects a signing
//     key, and memoizes it for the process lifetime.
//   - Verifier (verifier.go): validates token signatures and claims against
//     the resolved key.
//
// Key lifecycle: the signing key is fetched lazily on the first verification
// and cached forever. Failed fetches are never cached and are retried on the
// next request that needs the key. There is no refresh mechanism; rotating
// keys upstream requires a process restart (or an explicit Invalidate call,
// which the server itself never issues).
package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
)

// Key resolution failure reasons.
const (
	ReasonFetchFailed = "fetch_failed"
	ReasonEmptyKeySet = "empty_keyset"
	ReasonKidNotFound = "kid_not_found"
)

// KeyResolutionError describes why a signing key could not be obtained from
// the JWKS endpoint. Reason is one of the Reason* constants above; Err holds
// the underlying cause when there is one.
type KeyResolutionError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *KeyResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jwks: %s: %v", e.Reason, e.Err)
	}
	return "jwks: " + e.Reason
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *KeyResolutionError) Unwrap() error { return e.Err }

// SigningKey is the verification key selected from the JWKS document.
// The key identifier may be empty when the provider does not publish one.
type SigningKey struct {
	KeyID string
	Key   *ecdsa.PublicKey
}

// jwk is the subset of RFC 7517 key fields required for EC P-256 keys.
// Rows missing required fields are rejected rather than partially parsed.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// jwksDocument is the wire shape of the JWKS endpoint response.
type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// KeyResolver fetches and memoizes the provider's signing key.
//
// Concurrency: the cache is guarded by a mutex. Concurrent first uses
// serialize on the fetch; later callers see the cached key without a network
// round trip. The mutex exists to avoid redundant fetches, not for
// correctness; a racing duplicate fetch would store an equivalent key.
type KeyResolver struct {
	url    string
	keyID  string
	client *http.Client

	mu     sync.Mutex
	cached *SigningKey
}

// NewKeyResolver constructs a resolver for the given JWKS URL. keyID is
// optional: when set, only the matching key is accepted; when empty, the
// first key in document order is selected. Document order is not
// contractually stable upstream, so production deployments should pin a key
// id. client must have a bounded timeout; callers typically pass
// &http.Client{Timeout: cfg.Auth.FetchTimeout}.
func NewKeyResolver(url, keyID string, client *http.Client) *KeyResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &KeyResolver{url: url, keyID: keyID, client: client}
}

// Resolve returns the signing key, fetching the JWKS document on first use.
// Only successful resolutions are cached. Failures are reported as
// *KeyResolutionError with one of the Reason* constants.
func (r *KeyResolver) Resolve(ctx context.Context) (*SigningKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return r.cached, nil
	}

	key, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	r.cached = key
	return key, nil
}

// Invalidate drops the cached key so the next Resolve fetches a fresh one.
// Nothing in the server calls this today; it exists as the hook for future
// key-rotation support.
func (r *KeyResolver) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

// fetch retrieves and parses the JWKS document and selects the key.
func (r *KeyResolver) fetch(ctx context.Context) (*SigningKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, &KeyResolutionError{Reason: ReasonFetchFailed, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &KeyResolutionError{Reason: ReasonFetchFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &KeyResolutionError{
			Reason: ReasonFetchFailed,
			Err:    fmt.Errorf("unexpected status %d from %s", resp.StatusCode, r.url),
		}
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &KeyResolutionError{Reason: ReasonFetchFailed, Err: err}
	}
	if len(doc.Keys) == 0 {
		return nil, &KeyResolutionError{Reason: ReasonEmptyKeySet}
	}

	entry, err := selectKey(doc.Keys, r.keyID)
	if err != nil {
		return nil, err
	}

	pub, err := parseECKey(entry)
	if err != nil {
		return nil, &KeyResolutionError{Reason: ReasonFetchFailed, Err: err}
	}
	return &SigningKey{KeyID: entry.Kid, Key: pub}, nil
}

// selectKey picks the JWK to use: the unique kid match when a key id is
// configured, otherwise the first key in document order.
func selectKey(keys []jwk, keyID string) (jwk, error) {
	if keyID == "" {
		return keys[0], nil
	}
	for _, k := range keys {
		if k.Kid == keyID {
			return k, nil
		}
	}
	return jwk{}, &KeyResolutionError{
		Reason: ReasonKidNotFound,
		Err:    fmt.Errorf("no key with kid %q in set of %d", keyID, len(keys)),
	}
}

// parseECKey converts a JWK entry into an *ecdsa.PublicKey. Only EC P-256
// keys are accepted; anything else is rejected at the boundary.
func parseECKey(k jwk) (*ecdsa.PublicKey, error) {
	if k.Kty != "EC" {
		return nil, fmt.Errorf("unsupported kty %q (want EC)", k.Kty)
	}
	if k.Crv != "P-256" {
		return nil, fmt.Errorf("unsupported crv %q (want P-256)", k.Crv)
	}
	if k.X == "" || k.Y == "" {
		return nil, fmt.Errorf("key %q is missing coordinates", k.Kid)
	}

	xb, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("decode x: %w", err)
	}
	yb, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("decode y: %w", err)
	}

	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xb),
		Y:     new(big.Int).SetBytes(yb),
	}
	if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
		return nil, fmt.Errorf("key %q is not on P-256", k.Kid)
	}
	return pub, nil
}
