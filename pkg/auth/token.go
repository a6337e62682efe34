package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/suprohub/axochat-server/pkg/config"
)

// UserInfo is the authenticated identity carried inside a token.
type UserInfo struct {
	Name string    `json:"name"`
	UUID uuid.UUID `json:"uuid"`
}

// Claims is the token payload: exactly an expiry and a user.
type Claims struct {
	Exp  int64    `json:"exp"`
	User UserInfo `json:"user"`
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error)              { return "", nil }
func (c Claims) GetSubject() (string, error)             { return "", nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// Authenticator mints and verifies login tokens with a symmetric key.
type Authenticator struct {
	method    jwt.SigningMethod
	key       []byte
	validTime time.Duration
	now       func() time.Time
}

// NewAuthenticator builds the token service from the auth config section,
// reading the signing key from cfg.KeyFile.
func NewAuthenticator(cfg config.AuthConfig) (*Authenticator, error) {
	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("reading signing key %s: %w", cfg.KeyFile, err)
	}
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", cfg.Algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", cfg.Algorithm)
	}
	return &Authenticator{
		method:    method,
		key:       key,
		validTime: time.Duration(cfg.ValidTime),
		now:       time.Now,
	}, nil
}

// NewToken mints a token for user expiring valid_time from now.
func (a *Authenticator) NewToken(user UserInfo) (string, error) {
	claims := Claims{
		Exp:  a.now().Add(a.validTime).Unix(),
		User: user,
	}
	token, err := jwt.NewWithClaims(a.method, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (a *Authenticator) Verify(token string) (UserInfo, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.key, nil
	},
		jwt.WithValidMethods([]string{a.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return a.now() }),
	)
	if err != nil {
		return UserInfo{}, fmt.Errorf("verifying token: %w", err)
	}
	if !parsed.Valid {
		return UserInfo{}, fmt.Errorf("invalid token")
	}
	return claims.User, nil
}
