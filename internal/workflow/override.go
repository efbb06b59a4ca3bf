package workflow

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrOverrideInvalid covers every way a presented override token can
// fail redemption: bad signature, expired, already used, or wrong
// session.
var ErrOverrideInvalid = errors.New("invalid mentor override token")

// overrideClaims is the one claim set RMOS needs: which session the
// token authorizes, who issued it, and when it expires. Unlike a JIT
// access token this never carries a permission string, it exists
// purely to let a mentor countersign a RED/UNKNOWN approval.
type overrideClaims struct {
	TokenID   string    `json:"tid"`
	SessionID string    `json:"sid"`
	Mentor    string    `json:"mnt"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// OverrideIssuer issues and redeems HMAC-signed, single-use mentor
// override tokens. A token is valid for exactly one session and is
// consumed on first successful redemption.
type OverrideIssuer struct {
	mu     sync.Mutex
	secret []byte
	ttl    time.Duration
	used   map[string]bool // tokenID -> redeemed
}

// NewOverrideIssuer builds an issuer signing with secret, with tokens
// valid for ttl from issuance.
func NewOverrideIssuer(secret string, ttl time.Duration) *OverrideIssuer {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &OverrideIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		used:   make(map[string]bool),
	}
}

// Issue mints a token binding mentor to sessionID, out-of-band of the
// HTTP façade (a mentor-facing tool calls this directly).
func (o *OverrideIssuer) Issue(sessionID, mentor string) (string, error) {
	now := time.Now().UTC()
	claims := overrideClaims{
		TokenID:   uuid.NewString(),
		SessionID: sessionID,
		Mentor:    mentor,
		IssuedAt:  now,
		ExpiresAt: now.Add(o.ttl),
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("workflow: encode override token: %w", err)
	}
	sig := o.sign(body)
	return base64.RawURLEncoding.EncodeToString(body) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Redeem validates token against sessionID and consumes it. A second
// redemption of the same token, for any session, fails.
func (o *OverrideIssuer) Redeem(token, sessionID, actor string) error {
	claims, err := o.verify(token)
	if err != nil {
		return err
	}
	if claims.SessionID != sessionID {
		return fmt.Errorf("%w: issued for a different session", ErrOverrideInvalid)
	}
	if time.Now().UTC().After(claims.ExpiresAt) {
		return fmt.Errorf("%w: expired", ErrOverrideInvalid)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.used[claims.TokenID] {
		return fmt.Errorf("%w: already used", ErrOverrideInvalid)
	}
	o.used[claims.TokenID] = true
	return nil
}

func (o *OverrideIssuer) verify(token string) (overrideClaims, error) {
	dot := -1
	for i := len(token) - 1; i >= 0; i-- {
		if token[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return overrideClaims{}, fmt.Errorf("%w: malformed", ErrOverrideInvalid)
	}
	body, err := base64.RawURLEncoding.DecodeString(token[:dot])
	if err != nil {
		return overrideClaims{}, fmt.Errorf("%w: malformed body", ErrOverrideInvalid)
	}
	sig, err := base64.RawURLEncoding.DecodeString(token[dot+1:])
	if err != nil {
		return overrideClaims{}, fmt.Errorf("%w: malformed signature", ErrOverrideInvalid)
	}
	if !hmac.Equal(sig, o.sign(body)) {
		return overrideClaims{}, fmt.Errorf("%w: bad signature", ErrOverrideInvalid)
	}
	var claims overrideClaims
	if err := json.Unmarshal(body, &claims); err != nil {
		return overrideClaims{}, fmt.Errorf("%w: malformed claims", ErrOverrideInvalid)
	}
	return claims, nil
}

func (o *OverrideIssuer) sign(data []byte) []byte {
	mac := hmac.New(sha256.New, o.secret)
	mac.Write(data)
	return mac.Sum(nil)
}
