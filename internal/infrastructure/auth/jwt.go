package auth

import (
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pot-code/learn-progress/internal/domain"
)

// AppTokenClaims claims the backend puts into the learner token
type AppTokenClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`

	jwt.StandardClaims
}

// TimeRemaining remaining time before the token get expired
func (tk *AppTokenClaims) TimeRemaining(now time.Time) time.Duration {
	if tk.ExpiresAt == 0 {
		return time.Duration(1<<63 - 1)
	}
	exp := time.Unix(tk.ExpiresAt, 0)
	if exp.Before(now) {
		return 0
	}
	return exp.Sub(now)
}

// BearerToken holds the token sent to the progress backend.
//
// The signature is never verified here, the backend owns the secret;
// claims are only read to fail fast on an expired session.
type BearerToken struct {
	mu     sync.RWMutex
	raw    string
	claims *AppTokenClaims
	now    func() time.Time
}

// NewBearerToken create a BearerToken, an empty token disables the expiry check
func NewBearerToken(raw string) *BearerToken {
	bt := &BearerToken{now: time.Now}
	bt.Set(raw)
	return bt
}

// Set replace the current token
func (bt *BearerToken) Set(raw string) {
	var claims *AppTokenClaims
	if raw != "" {
		parsed := new(AppTokenClaims)
		if _, _, err := new(jwt.Parser).ParseUnverified(raw, parsed); err == nil {
			claims = parsed
		}
	}
	bt.mu.Lock()
	bt.raw = raw
	bt.claims = claims
	bt.mu.Unlock()
}

// Claims parsed claims, nil if the token is empty or opaque
func (bt *BearerToken) Claims() *AppTokenClaims {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return bt.claims
}

// Raw current token, even if expired
func (bt *BearerToken) Raw() string {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return bt.raw
}

// Value token string to send, ErrSessionExpired once the exp claim has passed
func (bt *BearerToken) Value() (string, error) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	if bt.claims != nil && bt.claims.TimeRemaining(bt.now()) == 0 {
		return "", domain.ErrSessionExpired
	}
	return bt.raw, nil
}
