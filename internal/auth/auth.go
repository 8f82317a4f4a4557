// Package auth turns bearer tokens into identities. The shipped scheme is an
// HMAC-SHA256 signed token: base64url(claims) "." base64url(signature).
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Identity is the authenticated caller. An empty Subject is the local
// single-user identity.
type Identity struct {
	Subject string
}

// Verifier validates a bearer token.
type Verifier interface {
	Verify(token string) (Identity, error)
}

type claims struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp"`
}

// HMAC issues and verifies tokens signed with a shared secret.
type HMAC struct {
	secret []byte
	now    func() time.Time
}

func NewHMAC(secret string) *HMAC {
	return &HMAC{secret: []byte(secret), now: time.Now}
}

// Issue returns a token for subject valid for ttl.
func (h *HMAC) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	payload, err := json.Marshal(claims{Sub: subject, Exp: h.now().Add(ttl).Unix()})
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + base64.RawURLEncoding.EncodeToString(h.sign(body)), nil
}

func (h *HMAC) Verify(token string) (Identity, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return Identity{}, ErrInvalidToken
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: decode signature: %v", ErrInvalidToken, err)
	}
	if !hmac.Equal(got, h.sign(body)) {
		return Identity{}, fmt.Errorf("%w: bad signature", ErrInvalidToken)
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: decode payload: %v", ErrInvalidToken, err)
	}
	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Sub == "" {
		return Identity{}, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	if h.now().Unix() > c.Exp {
		return Identity{}, ErrExpiredToken
	}
	return Identity{Subject: c.Sub}, nil
}

func (h *HMAC) sign(body string) []byte {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}
