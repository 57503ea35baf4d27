package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or signed
// with the wrong key.
var ErrInvalidToken = errors.New("invalid token")

// expiryLeeway is applied when validating exp/iat so that a token presented
// at the exact expiry boundary is not rejected by clock jitter.
const expiryLeeway = 2 * time.Second

// Claims holds the JWT claims shared by access and refresh tokens:
// subject (account id) and role, plus the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenPair is a freshly issued access + refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenProvider issues and validates HS256 access and refresh tokens.
// The two token families are signed with distinct secrets so that compromise
// of one key does not expose the other family.
type TokenProvider struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenProvider returns a TokenProvider signing access tokens with
// accessSecret and refresh tokens with refreshSecret. Secrets are captured
// once here and immutable for the provider's lifetime.
func NewTokenProvider(accessSecret, refreshSecret []byte, issuer string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssuePair issues an access and a refresh token for the given subject and
// role. The two signing operations are independent and run concurrently.
func (p *TokenProvider) IssuePair(subject, role string) (*TokenPair, error) {
	now := time.Now().UTC()

	type result struct {
		token string
		err   error
	}
	refreshCh := make(chan result, 1)
	go func() {
		token, err := p.sign(subject, role, now, p.refreshTTL, p.refreshSecret)
		refreshCh <- result{token, err}
	}()

	access, err := p.sign(subject, role, now, p.accessTTL, p.accessSecret)
	refresh := <-refreshCh
	if err != nil {
		return nil, err
	}
	if refresh.err != nil {
		return nil, refresh.err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh.token}, nil
}

func (p *TokenProvider) sign(subject, role string, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	// iat/exp have one-second granularity; the jti makes every token unique
	// so rotation always produces a refresh token with a new stored hash.
	jti, err := generateJTI()
	if err != nil {
		return "", err
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ValidateAccess parses and validates an access token (signature, expiry,
// issuer). Returns the subject and role, or ErrInvalidToken.
func (p *TokenProvider) ValidateAccess(tokenString string) (subject, role string, err error) {
	return p.validate(tokenString, p.accessSecret)
}

// ValidateRefresh parses and validates a refresh token (signature, expiry,
// issuer). Returns the subject and role, or ErrInvalidToken. A valid
// signature alone does not make a refresh token usable; callers must also
// check it against the stored session hash.
func (p *TokenProvider) ValidateRefresh(tokenString string) (subject, role string, err error) {
	return p.validate(tokenString, p.refreshSecret)
}

func (p *TokenProvider) validate(tokenString string, secret []byte) (string, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return secret, nil
		},
		jwt.WithLeeway(expiryLeeway),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Role, nil
}
