package cart

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"

	"cartservice/internal/domain"
)

const tokenMACLen = 16

// TokenIssuer derives the opaque concurrency token handed to callers from
// (cartKey, version). The version is embedded in clear and authenticated
// with a truncated HMAC, so the token can be resolved back to a version on
// If-Match without being forgeable.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue returns the token for the given cart key and version.
func (t *TokenIssuer) Issue(cartKey string, version int64) string {
	var payload [8]byte
	binary.BigEndian.PutUint64(payload[:], uint64(version))
	mac := t.mac(cartKey, payload[:])
	return base64.RawURLEncoding.EncodeToString(append(payload[:], mac...))
}

// Verify checks the token against the cart key and returns the embedded
// version. A malformed or tampered token is treated as stale.
func (t *TokenIssuer) Verify(cartKey, token string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != 8+tokenMACLen {
		return 0, domain.ErrConcurrencyConflict
	}
	payload, got := raw[:8], raw[8:]
	if !hmac.Equal(got, t.mac(cartKey, payload)) {
		return 0, domain.ErrConcurrencyConflict
	}
	return int64(binary.BigEndian.Uint64(payload)), nil
}

func (t *TokenIssuer) mac(cartKey string, payload []byte) []byte {
	h := hmac.New(sha256.New, t.secret)
	h.Write([]byte(cartKey))
	h.Write([]byte{0})
	h.Write(payload)
	return h.Sum(nil)[:tokenMACLen]
}
