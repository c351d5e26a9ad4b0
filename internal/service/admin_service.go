package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"aroma-tales/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for admin password hashes
const BcryptCost = 10

// AdminRole is the role claim carried by admin tokens
const AdminRole = "admin"

// Claims represents the JWT claims
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// AdminToken is an issued access token
type AdminToken struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AdminService authenticates the single configured shop administrator
type AdminService interface {
	Login(ctx context.Context, email, password string) (*AdminToken, error)
	IssueToken(email string) (*AdminToken, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type adminService struct {
	email        string
	passwordHash string
	jwtSecret    string
	expiry       time.Duration
}

// NewAdminService creates a new instance of AdminService
func NewAdminService(admin config.AdminConfig, jwtCfg config.JWTConfig) AdminService {
	return &adminService{
		email:        strings.ToLower(strings.TrimSpace(admin.Email)),
		passwordHash: admin.PasswordHash,
		jwtSecret:    jwtCfg.Secret,
		expiry:       time.Duration(jwtCfg.AccessExpiry) * time.Minute,
	}
}

// Login checks the credentials against the configured bcrypt hash and issues a token
func (s *adminService) Login(ctx context.Context, email, password string) (*AdminToken, error) {
	if s.email == "" || s.passwordHash == "" {
		return nil, ErrInvalidCredentials
	}

	email = strings.ToLower(strings.TrimSpace(email))
	emailMatches := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1

	// always run bcrypt so a wrong email costs the same as a wrong password
	passwordErr := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password))
	if !emailMatches || passwordErr != nil {
		return nil, ErrInvalidCredentials
	}

	return s.IssueToken(email)
}

// IssueToken signs an HS256 admin token; the user id is derived from the email so it is stable across restarts
func (s *adminService) IssueToken(email string) (*AdminToken, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := &Claims{
		UserID: AdminID(email),
		Role:   AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AdminToken{AccessToken: tokenString, ExpiresAt: expiresAt}, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *adminService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AdminID is the stable identifier of the admin with the given email
func AdminID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email)))
}

// HashPassword produces a bcrypt hash suitable for ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}
