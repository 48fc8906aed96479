package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DevSecretKey is the fallback signing secret used when JWT_SECRET_KEY is unset.
const DevSecretKey = "task-tracker-dev-secret-change-me"

var (
	// ErrInvalidToken is returned when the token is malformed or its signature does not verify.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token carries an expiry in the past.
	ErrExpiredToken = errors.New("token has expired")
)

// Config holds the settings shared by the issuing and the verifying service.
type Config struct {
	SecretKey string        `env:"JWT_SECRET_KEY" envDefault:"task-tracker-dev-secret-change-me"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"task-tracker"`
	TTL       time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// DefaultConfig returns the development configuration.
func DefaultConfig() Config {
	return Config{
		SecretKey: DevSecretKey,
		Issuer:    "task-tracker",
		TTL:       24 * time.Hour,
	}
}

// UsesDevSecret reports whether the config still carries the fallback secret.
func (c Config) UsesDevSecret() bool {
	return c.SecretKey == DevSecretKey
}

// Claims is the signed payload. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject identifier.
func (c *Claims) UserID() string {
	return c.Subject
}

// DefaultLeeway absorbs clock skew between the issuing and the verifying host.
const DefaultLeeway = 5 * time.Second

// Codec issues and verifies HS256 tokens.
type Codec struct {
	config Config
	now    func() time.Time
	leeway time.Duration
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock replaces the time source used for issued-at and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// WithLeeway sets the tolerance applied to issued-at and expiry checks.
func WithLeeway(d time.Duration) Option {
	return func(c *Codec) {
		if d >= 0 {
			c.leeway = d
		}
	}
}

// NewCodec creates a Codec from the given configuration.
func NewCodec(config Config, opts ...Option) *Codec {
	c := &Codec{
		config: config,
		now:    time.Now,
		leeway: DefaultLeeway,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a token for the given subject. A zero TTL produces a token without an expiry claim.
func (c *Codec) Issue(subject string) (string, error) {
	if subject == "" {
		return "", ErrInvalidToken
	}

	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   c.config.Issuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.config.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.config.TTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.config.SecretKey))
}

// Verify checks the signature and registered claims and returns the decoded claims.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
		jwt.WithLeeway(c.leeway),
	}
	if c.config.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(c.config.SecretKey), nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExpiresIn returns the token lifetime in seconds, or 0 when tokens do not expire.
func (c *Codec) ExpiresIn() int64 {
	return int64(c.config.TTL.Seconds())
}
