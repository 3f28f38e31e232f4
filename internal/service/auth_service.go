package service

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/domain"
	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/repository"
)

// Claims extends JWT standard claims with the tenant binding. Every
// authenticated HTTP request resolves to exactly one tenant through these.
type Claims struct {
	jwt.RegisteredClaims
	TenantID uuid.UUID `json:"tenant_id"`
	Email    string    `json:"email"`
}

// AuthService handles tenant registration, login, JWT issuance, and guest
// capability tokens.
type AuthService struct {
	cfg        *config.Config
	tenantRepo *repository.TenantRepository
	caps       Caps
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, tenantRepo *repository.TenantRepository, caps Caps) *AuthService {
	return &AuthService{cfg: cfg, tenantRepo: tenantRepo, caps: caps}
}

// Register creates a tenant account. The email is case-folded before storage
// so logins are case-insensitive.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Tenant, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tenant := &model.Tenant{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
	}
	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Login verifies credentials and returns a signed JWT. Unknown email and
// wrong password collapse into the same error.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (string, *model.Tenant, error) {
	tenant, err := s.tenantRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if domain.IsNotFound(err) {
			return "", nil, domain.Authz("invalid credentials")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, domain.Authz("invalid credentials")
	}

	token, err := s.GenerateToken(tenant)
	if err != nil {
		return "", nil, err
	}
	return token, tenant, nil
}

// GenerateToken creates a tenant JWT.
func (s *AuthService) GenerateToken(tenant *model.Tenant) (string, error) {
	now := s.caps.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   tenant.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TenantID: tenant.ID,
		Email:    tenant.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a tenant JWT and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, domain.Authz("invalid or expired token")
	}
	return claims, nil
}

// Me returns the tenant behind a set of verified claims.
func (s *AuthService) Me(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, tenantID)
}

// MintGuestToken produces a URL-safe random capability token for a guest
// participant. Entropy is GuestTokenLength bytes (32 by default, 256 bits).
func (s *AuthService) MintGuestToken() (string, error) {
	buf := make([]byte, s.cfg.GuestTokenLength)
	if _, err := io.ReadFull(s.caps.Rand, buf); err != nil {
		return "", fmt.Errorf("generate guest token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerifyGuestToken compares a presented token against the stored one in
// constant time.
func VerifyGuestToken(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
