// Package signing authenticates webhook deliveries, either with an
// HMAC-SHA256 signature computed over the raw request body or with a shared
// token the provider echoes back in the Authorization header.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// DefaultHeader is the request header that carries the signature.
const DefaultHeader = "X-Webhook-Signature"

// AuthorizationHeader carries the token registered with the provider as the
// webhook's authHeader.
const AuthorizationHeader = "Authorization"

const (
	prefix       = "sha256="
	bearerPrefix = "Bearer "
)

// Sign returns the hex encoded HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether claimed is a valid signature of body under secret.
// The claimed value may carry a "sha256=" prefix. The comparison runs in
// constant time with respect to the signature bytes.
func Verify(body []byte, claimed, secret string) bool {
	if secret == "" {
		return false
	}

	claimed = strings.TrimSpace(claimed)
	if len(claimed) >= len(prefix) && strings.EqualFold(claimed[:len(prefix)], prefix) {
		claimed = claimed[len(prefix):]
	}
	if claimed == "" {
		return false
	}

	got, err := hex.DecodeString(claimed)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// VerifyToken reports whether claimed matches token, either exactly or
// after a "Bearer " prefix. An empty token never verifies.
func VerifyToken(claimed, token string) bool {
	if token == "" {
		return false
	}

	claimed = strings.TrimSpace(claimed)
	exact := subtle.ConstantTimeCompare([]byte(claimed), []byte(token))

	stripped := 0
	if len(claimed) > len(bearerPrefix) && strings.EqualFold(claimed[:len(bearerPrefix)], bearerPrefix) {
		stripped = subtle.ConstantTimeCompare([]byte(strings.TrimSpace(claimed[len(bearerPrefix):])), []byte(token))
	}
	return exact|stripped == 1
}
