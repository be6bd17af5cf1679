// Package remote implements the runtime remote-control surface: a
// ZMQ REQ/REP endpoint and a telnet endpoint exposing the same
// command set, SHA-256 password authentication, and a redacting audit
// log (spec.md §4.7).
//
// Grounded on _examples/original_source/src/dabmux/remote/ (auth.py,
// protocol.py, audit.py, zmq_server.py); styled after dbehnke-dmr-nexus's
// pkg/network connection-lifecycle/goroutine-per-client idiom.
package remote

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// Authenticator verifies the optional remote-control password using a
// SHA-256 hash and a constant-time comparison (spec.md §4.7
// "Optional SHA-256 password; constant-time comparison").
type Authenticator struct {
	hash []byte // nil when auth is disabled
}

// NewAuthenticator builds an Authenticator from a plaintext password,
// a pre-hashed "sha256:<hex>" string, or neither (auth disabled).
// Supplying a plaintext password hashes it at load time so the
// plaintext is never retained (SPEC_FULL.md §3's password-hash config
// form, grounded on original_source auth.py's generate_password_hash).
func NewAuthenticator(password, passwordHash string) (*Authenticator, error) {
	switch {
	case passwordHash != "":
		h, err := ParsePasswordHash(passwordHash)
		if err != nil {
			return nil, err
		}
		return &Authenticator{hash: h}, nil
	case password != "":
		return &Authenticator{hash: hashPassword(password)}, nil
	default:
		return &Authenticator{}, nil
	}
}

// Enabled reports whether a password is configured.
func (a *Authenticator) Enabled() bool {
	return a.hash != nil
}

// Verify checks candidate against the configured password using a
// constant-time comparison. When auth is disabled it always succeeds.
func (a *Authenticator) Verify(candidate string) bool {
	if !a.Enabled() {
		return true
	}
	got := hashPassword(candidate)
	return subtle.ConstantTimeCompare(got, a.hash) == 1
}

func hashPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}

// GeneratePasswordHash returns a config-file-ready hash string in the
// form "sha256:<hex>" for a given plaintext password.
func GeneratePasswordHash(password string) string {
	return "sha256:" + hex.EncodeToString(hashPassword(password))
}

// ParsePasswordHash decodes a "sha256:<hex>" config string into raw
// hash bytes.
func ParsePasswordHash(s string) ([]byte, error) {
	const prefix = "sha256:"
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("remote: invalid password hash format, expected %q prefix", prefix)
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, prefix))
	if err != nil {
		return nil, fmt.Errorf("remote: decode password hash: %w", err)
	}
	return b, nil
}
