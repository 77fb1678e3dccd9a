// Package pass implements the office pass: a short-lived HMAC-signed
// capability token asserting that the presenter's IP satisfied the
// network gate at mint time. It is a bearer capability, not a session;
// the guard endpoint still re-checks the live network state on use.
package pass

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

// DefaultTTL is how long a freshly minted pass stays valid. Clients are
// expected to treat their copy as stale slightly earlier so they never
// present a token that expires in flight.
const DefaultTTL = 120 * time.Second

// ErrNoSecret is returned by NewSigner when the signing secret is empty.
// An unsigned gate must never silently degrade to allow-all.
var ErrNoSecret = errors.New("pass: signing secret is required")

// Claims is the pass payload. Arbitrary keys are allowed; Sign adds the
// "exp" claim itself.
type Claims map[string]any

// ExpiresAt returns the "exp" claim as unix seconds. JSON numbers decode
// as float64, so both shapes are accepted.
func (c Claims) ExpiresAt() (int64, bool) {
	switch v := c["exp"].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// Signer mints and verifies office passes with a single symmetric
// secret. Rotating the secret invalidates all outstanding passes, which
// the short TTL makes acceptable.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// Option adjusts a Signer.
type Option func(*Signer)

// WithClock injects the time source, for deterministic expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// NewSigner builds a Signer. The secret must be non-empty.
func NewSigner(secret string, opts ...Option) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	s := &Signer{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign serializes the claims with an injected "exp" of now+ttl and
// returns base64url(payload) + "." + base64url(HMAC-SHA256(payload)).
// The MAC covers the serialized payload bytes, not their encoding.
func (s *Signer) Sign(claims Claims, ttl time.Duration) (string, error) {
	withExp := make(Claims, len(claims)+1)
	for k, v := range claims {
		withExp[k] = v
	}
	withExp["exp"] = s.now().Unix() + int64(ttl/time.Second)

	payload, err := json.Marshal(withExp)
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + s.mac(payload), nil
}

// Verify checks a token's structure, signature, and expiry. It returns
// the decoded claims only when every step succeeds; every failure mode
// looks identical to the caller.
func (s *Signer) Verify(token string) (Claims, bool) {
	body, sig, found := strings.Cut(token, ".")
	if !found || body == "" || sig == "" {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal([]byte(s.mac(payload)), []byte(sig)) {
		return nil, false
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, false
	}
	exp, ok := claims.ExpiresAt()
	if !ok {
		return nil, false
	}
	if s.now().Unix() > exp {
		return nil, false
	}
	return claims, true
}

func (s *Signer) mac(payload []byte) string {
	m := hmac.New(sha256.New, s.secret)
	m.Write(payload)
	return base64.RawURLEncoding.EncodeToString(m.Sum(nil))
}
