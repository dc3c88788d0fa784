package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cloudtodo/core/internal/infrastructure/config"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

const adminRole = "admin"

// ErrInvalidCredentials is returned for any failed login
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims represents the JWT claims
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and validates admin tokens
type AuthService struct {
	adminConfig config.AdminConfig
	jwtConfig   config.JWTConfig
	logger      *logger.Logger
	now         func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(adminConfig config.AdminConfig, jwtConfig config.JWTConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		adminConfig: adminConfig,
		jwtConfig:   jwtConfig,
		logger:      logger.WithComponent("auth_service"),
		now:         time.Now,
	}
}

// HashPassword produces the bcrypt hash stored in admin.password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the admin credentials and returns a signed token
func (s *AuthService) Login(req ports.LoginRequest) (*ports.AuthResponse, error) {
	if s.adminConfig.PasswordHash == "" || req.Username != s.adminConfig.Username {
		s.logger.Warnw("Login attempt with unknown username", "username", req.Username)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.adminConfig.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warnw("Login attempt with invalid password", "username", req.Username)
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(req.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Admin logged in", "username", req.Username)

	return &ports.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtConfig.ExpiresIn.Seconds()),
	}, nil
}

// GenerateToken signs an admin token for subject
func (s *AuthService) GenerateToken(subject string) (string, error) {
	if s.jwtConfig.Secret == "" {
		return "", fmt.Errorf("JWT secret is not configured")
	}

	now := s.now()
	claims := &Claims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithIssuer(s.jwtConfig.Issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != adminRole {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &ports.Claims{
		Subject: claims.Subject,
		Role:    claims.Role,
	}, nil
}
