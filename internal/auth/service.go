package auth

import (
	"errors"
	"time"

	"readmore/internal/platform/crypto"
)

// ErrInvalidCredentials is returned when the supplied password does not
// match the configured admin hash.
var ErrInvalidCredentials = errors.New("invalid credentials")

const adminRole = "ADMIN"

// Service issues tokens for the single admin account. There is no user
// table; the admin password hash and JWT secret come from configuration.
type Service struct {
	jwtSecret string
	adminHash string
	tokenTTL  time.Duration
}

func NewService(jwtSecret, adminHash string, tokenTTL time.Duration) *Service {
	return &Service{
		jwtSecret: jwtSecret,
		adminHash: adminHash,
		tokenTTL:  tokenTTL,
	}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Service) Login(password string) (*LoginResult, error) {
	if !crypto.VerifyPassword(s.adminHash, password) {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token, _, err := crypto.GenerateToken(s.jwtSecret, "admin", adminRole, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}
