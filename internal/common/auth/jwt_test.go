package auth

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

func claimsFor(subject, role string, expiresIn time.Duration) Claims {
	return Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "cpftw",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
}

func TestAuthenticate(t *testing.T) {
	verifier := NewJWTVerifier("secret", "cpftw")
	token, err := verifier.Sign(claimsFor("42", "admin", time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	identity, err := verifier.Authenticate(context.Background(), token)
	if err != nil || identity.Subject != "42" || identity.Role != "admin" {
		t.Fatalf("unexpected identity: %+v %v", identity, err)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	verifier := NewJWTVerifier("secret", "cpftw")
	other := NewJWTVerifier("other-secret", "")

	expired, _ := verifier.Sign(claimsFor("1", "admin", -time.Minute))
	foreign, _ := other.Sign(claimsFor("1", "admin", time.Hour))
	wrongIssuer := claimsFor("1", "admin", time.Hour)
	wrongIssuer.Issuer = "elsewhere"
	wrongIssuerToken, _ := verifier.Sign(wrongIssuer)
	refresh := claimsFor("1", "admin", time.Hour)
	refresh.TokenType = "refresh"
	refreshToken, _ := verifier.Sign(refresh)
	noSubject, _ := verifier.Sign(claimsFor("", "admin", time.Hour))

	cases := []struct {
		name string
		raw  string
		code pkgerrors.ErrorCode
	}{
		{"missing", "", pkgerrors.Unauthorized},
		{"garbage", "not-a-token", pkgerrors.TokenInvalid},
		{"expired", expired, pkgerrors.TokenExpired},
		{"foreign secret", foreign, pkgerrors.TokenInvalid},
		{"wrong issuer", wrongIssuerToken, pkgerrors.TokenInvalid},
		{"refresh token", refreshToken, pkgerrors.TokenInvalid},
		{"no subject", noSubject, pkgerrors.TokenInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := verifier.Authenticate(context.Background(), tc.raw)
			if !pkgerrors.Is(err, tc.code) {
				t.Fatalf("expected code %d, got %v", tc.code, err)
			}
		})
	}
}

func TestAuthenticateWithoutSecret(t *testing.T) {
	signer := NewJWTVerifier("secret", "")
	token, _ := signer.Sign(claimsFor("1", "", time.Hour))
	if _, err := NewJWTVerifier("", "").Authenticate(context.Background(), token); !pkgerrors.Is(err, pkgerrors.TokenInvalid) {
		t.Fatalf("expected invalid token without secret, got %v", err)
	}
}
