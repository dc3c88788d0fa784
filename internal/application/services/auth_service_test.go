package services

import (
	"errors"
	"testing"
	"time"

	"github.com/cloudtodo/core/internal/infrastructure/config"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

func nopLogger() *logger.Logger { return logger.NewNop() }

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return NewAuthService(
		config.AdminConfig{Username: "admin", PasswordHash: hash},
		config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", ExpiresIn: time.Hour, Issuer: "cloudtodo"},
		nopLogger(),
	)
}

func TestLogin(t *testing.T) {
	s := newTestAuthService(t)

	resp, err := s.Login(ports.LoginRequest{Username: "admin", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 3600 || resp.AccessToken == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	claims, err := s.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestAuthService(t)

	tests := []ports.LoginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "root", Password: "s3cret-pass"},
	}
	for _, req := range tests {
		if _, err := s.Login(req); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%+v) error = %v, want ErrInvalidCredentials", req, err)
		}
	}

	disabled := NewAuthService(config.AdminConfig{Username: "admin"}, config.JWTConfig{Secret: "x"}, nopLogger())
	if _, err := disabled.Login(ports.LoginRequest{Username: "admin", Password: ""}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login without configured hash error = %v", err)
	}
}

func TestValidateTokenRejections(t *testing.T) {
	s := newTestAuthService(t)
	token, err := s.GenerateToken("admin")
	if err != nil {
		t.Fatal(err)
	}

	other := newTestAuthService(t)
	other.jwtConfig.Secret = "ffffffffffffffffffffffffffffffff"
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}

	wrongIssuer := newTestAuthService(t)
	wrongIssuer.jwtConfig.Issuer = "someone-else"
	if _, err := wrongIssuer.ValidateToken(token); err == nil {
		t.Fatal("token from another issuer was accepted")
	}

	later := newTestAuthService(t)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := later.ValidateToken(token); err == nil {
		t.Fatal("expired token was accepted")
	}

	if _, err := s.ValidateToken("not-a-jwt"); err == nil {
		t.Fatal("garbage token was accepted")
	}
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	s := NewAuthService(config.AdminConfig{}, config.JWTConfig{}, nopLogger())
	if _, err := s.GenerateToken("admin"); err == nil {
		t.Fatal("expected an error without a JWT secret")
	}
}
