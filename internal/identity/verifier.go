// Package identity verifies tokens issued by the hosted identity provider.
// The service never handles passwords; it only trusts a signed token that
// names the user and their email.
package identity

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("identity: invalid token")

// Claims is what the identity provider asserts about a user.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified caller.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Config selects the verification key and optional claim checks.
type Config struct {
	HMACSecret   string // HS256
	RSAPublicPEM string // RS256, takes precedence when set
	Issuer       string
	Audience     string
}

// Verifier checks identity tokens.
type Verifier struct {
	hmacKey []byte
	rsaKey  *rsa.PublicKey
	opts    []jwt.ParserOption
}

// NewVerifier builds a Verifier. At least one key must be configured.
func NewVerifier(cfg Config) (*Verifier, error) {
	v := &Verifier{}

	switch {
	case cfg.RSAPublicPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.RSAPublicPEM))
		if err != nil {
			return nil, fmt.Errorf("identity: parse public key: %w", err)
		}
		v.rsaKey = key
		v.opts = append(v.opts, jwt.WithValidMethods([]string{"RS256"}))
	case cfg.HMACSecret != "":
		v.hmacKey = []byte(cfg.HMACSecret)
		v.opts = append(v.opts, jwt.WithValidMethods([]string{"HS256"}))
	default:
		return nil, errors.New("identity: no verification key configured")
	}

	v.opts = append(v.opts, jwt.WithExpirationRequired())
	if cfg.Issuer != "" {
		v.opts = append(v.opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		v.opts = append(v.opts, jwt.WithAudience(cfg.Audience))
	}
	return v, nil
}

// Verify parses and validates a token, returning the identity it names.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, v.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: no email claim", ErrInvalidToken)
	}

	return &Identity{Subject: claims.Subject, Email: email, Name: claims.Name}, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if v.rsaKey != nil {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.rsaKey, nil
	}
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return v.hmacKey, nil
}
