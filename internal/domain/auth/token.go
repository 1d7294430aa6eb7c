package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v4"

	"github.com/tastycart/storefront/internal/domain/account"
)

// DefaultTokenTTL is the fixed lifetime of issued bearer tokens.
const DefaultTokenTTL = time.Hour

// ErrInvalidToken is returned for missing, malformed, expired, or
// wrongly-signed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is what a verified token proves about the caller. It is
// attached to the request context by the authentication middleware.
type Identity struct {
	AccountID string
	Role      string
}

// claims is the JWT payload: the registered subject carries the account id,
// plus the account role. Tokens issued for users and admins are identical
// in shape.
type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Tokens issues and verifies the signed, time-limited bearer tokens used by
// the API. The signing secret is injected from configuration.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token manager with the given HMAC secret and token
// lifetime. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token encoding the account's identifier and role.
func (t *Tokens) Issue(a *account.Account) (string, error) {
	now := t.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role: a.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify parses and validates a raw token, returning the identity it
// encodes. All failure modes collapse into ErrInvalidToken.
func (t *Tokens) Verify(raw string) (*Identity, error) {
	var c claims
	// Expiry is checked below against the injected clock, so the parser
	// only verifies the signature.
	_, err := jwt.ParseWithClaims(raw, &c, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	if c.ExpiresAt == nil || !t.now().Before(c.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}

	return &Identity{AccountID: c.Subject, Role: c.Role}, nil
}
