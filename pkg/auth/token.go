package auth

import (
	"errors"
	"fmt"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Name of the cookie carrying the admin token.
	CookieName = "quickqueue_admin"

	adminSubject = "admin"
)

var (
	ErrWrongPassword  = errors.New("wrong admin password")
	ErrTokenInvalid   = errors.New("invalid admin token")
	ErrUnexpectedAlgo = errors.New("unexpected token signing method")
)

// AdminTokens signs and checks the token kept in the admin cookie.
type AdminTokens struct {
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func ProvideAdminTokens(env *config.Env, config *config.Config) *AdminTokens {
	return NewAdminTokens(env.AdminPassword, env.AdminTokenSecret, time.Duration(*config.AdminTokenTTLMinutes)*time.Minute)
}

func NewAdminTokens(password, secret string, ttl time.Duration) *AdminTokens {
	return &AdminTokens{
		password: password,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Open reports whether admin routes are reachable without logging in,
// which is the case when no password is configured.
func (a *AdminTokens) Open() bool {
	return a.password == ""
}

func (a *AdminTokens) TTL() time.Duration {
	return a.ttl
}

// Login checks the password and returns a signed token.
func (a *AdminTokens) Login(password string) (string, error) {
	if !a.Open() && password != a.password {
		return "", ErrWrongPassword
	}
	return a.Issue()
}

func (a *AdminTokens) Issue() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenStr, nil
}

func (a *AdminTokens) Verify(tokenStr string) error {
	claims := &jwt.RegisteredClaims{}
	parsedToken, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedAlgo
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsedToken.Valid || claims.Subject != adminSubject {
		return ErrTokenInvalid
	}
	return nil
}
