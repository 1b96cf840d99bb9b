package stream

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"camstream/internal/camera"
)

// TokenScope is the fixed scope constant embedded in every stream
// access token. Tokens minted for any other purpose are rejected even
// when signed with the same key.
const TokenScope = "camera-stream"

var (
	// ErrTokenInvalid is returned when a token's structure, signature,
	// or scope is wrong.
	ErrTokenInvalid = errors.New("stream token invalid")

	// ErrTokenExpired is returned for a well-formed, correctly signed
	// token whose expiry has passed. Distinct from ErrTokenInvalid so
	// callers can signal re-authentication instead of a generic 401.
	ErrTokenExpired = errors.New("stream token expired")
)

// TokenClaims is the payload bound into a stream access token.
// Verification proves authenticity; comparing CameraID against the
// requested camera is the caller's authorization step.
type TokenClaims struct {
	Scope     string `json:"scope"`
	CameraID  string `json:"cameraId"`
	CompanyID string `json:"companyId"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// TokenIssuer mints and verifies HMAC-SHA256 signed stream access
// tokens. Tokens are not persisted; validity is entirely signature and
// expiry.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret and stamping a
// single configured TTL on every token.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue produces a signed token binding the camera to its tenant.
// Side-effect-free and non-blocking.
func (t *TokenIssuer) Issue(cameraID camera.ID, companyID camera.CompanyID) string {
	now := t.now()
	claims := TokenClaims{
		Scope:     TokenScope,
		CameraID:  string(cameraID),
		CompanyID: string(companyID),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(t.ttl).Unix(),
	}
	payload, _ := json.Marshal(claims)
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + t.sign(encoded)
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Verify checks structure, signature, scope, and expiry, in that
// order, and returns the embedded claims. It does not check that the
// token matches any particular camera; that comparison belongs to the
// call site.
func (t *TokenIssuer) Verify(token string) (TokenClaims, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return TokenClaims{}, ErrTokenInvalid
	}
	if !hmac.Equal([]byte(sig), []byte(t.sign(encoded))) {
		return TokenClaims{}, ErrTokenInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return TokenClaims{}, ErrTokenInvalid
	}
	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return TokenClaims{}, ErrTokenInvalid
	}
	if claims.Scope != TokenScope {
		return TokenClaims{}, ErrTokenInvalid
	}
	if t.now().Unix() >= claims.ExpiresAt {
		return TokenClaims{}, ErrTokenExpired
	}
	return claims, nil
}

func (t *TokenIssuer) sign(encoded string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
