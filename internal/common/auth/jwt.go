package auth

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller described by a verified token.
type Identity struct {
	Subject string
	Role    string
}

// Authenticator verifies a raw bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (Identity, error)
}

// JWTVerifier accepts HS256 access tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a verifier. An empty issuer accepts any issuer.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

// Claims is the token payload.
type Claims struct {
	Role      string `json:"role"`
	TokenType string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Authenticate(_ context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, pkgerrors.New(pkgerrors.Unauthorized).WithMessage("Access token is required")
	}
	claims, err := v.parse(raw)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Subject: claims.Subject, Role: claims.Role}, nil
}

func (v *JWTVerifier) parse(raw string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgerrors.New(pkgerrors.TokenExpired)
		}
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	// refresh tokens share the secret but must not authorize writes
	if claims.TokenType != "" && claims.TokenType != "access" {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if claims.Subject == "" {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return claims, nil
}

// Sign issues an HS256 token for claims. Used by tests and local tooling.
func (v *JWTVerifier) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

var _ Authenticator = (*JWTVerifier)(nil)
