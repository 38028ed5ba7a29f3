package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/jmgilman/go/errors"
	"golang.org/x/crypto/bcrypt"
)

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// Messages returned to clients for each authentication outcome.
const (
	MsgNoHeader     = "No authorization header"
	MsgNoToken      = "No token provided"
	MsgInvalidToken = "Incorrect or Invalid API Key"
	MsgMisconfig    = "Server configuration error"
)

// Gate checks bearer tokens against a shared secret configured at startup.
// It holds no mutable state and is safe for concurrent use.
type Gate struct {
	secret []byte
	hash   []byte
}

// NewGate creates a gate for a plaintext secret, a bcrypt hash of it, or
// both. With neither configured every check fails as a server
// misconfiguration.
func NewGate(secret, bcryptHash string) *Gate {
	g := &Gate{}
	if secret != "" {
		g.secret = []byte(secret)
	}
	if bcryptHash != "" {
		g.hash = []byte(bcryptHash)
	}
	return g
}

// Configured reports whether a secret is available to compare against.
func (g *Gate) Configured() bool {
	return len(g.secret) > 0 || len(g.hash) > 0
}

// Authenticate validates an Authorization header value. A nil error means
// the token matches. Failures carry CodeUnauthorized, or CodeInvalidConfig
// when no secret is configured.
func (g *Gate) Authenticate(header string) error {
	if header == "" {
		return errors.New(errors.CodeUnauthorized, MsgNoHeader)
	}

	token, ok := ExtractBearer(header)
	if !ok {
		return errors.New(errors.CodeUnauthorized, MsgNoToken)
	}

	if !g.Configured() {
		return errors.New(errors.CodeInvalidConfig, MsgMisconfig)
	}

	if !g.matches(token) {
		return errors.New(errors.CodeUnauthorized, MsgInvalidToken)
	}
	return nil
}

// matches compares in constant time against the plaintext secret, falling
// back to the bcrypt hash.
func (g *Gate) matches(token string) bool {
	if len(g.secret) > 0 {
		return subtle.ConstantTimeCompare([]byte(token), g.secret) == 1
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(token)) == nil
}

// ExtractBearer returns the token following the Bearer prefix, byte for
// byte. It reports false when the prefix is missing or the token is empty.
func ExtractBearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// HashToken returns a bcrypt hash suitable for API_KEY_BCRYPT. A cost of
// zero selects bcrypt.DefaultCost.
func HashToken(token string, cost int) (string, error) {
	if token == "" {
		return "", errors.New(errors.CodeInvalidInput, "token must not be empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidInput, "failed to hash token")
	}
	return string(hash), nil
}
