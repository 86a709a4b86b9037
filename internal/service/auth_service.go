package service

import (
	"time"

	"memoboard/internal/domain"
	"memoboard/pkg/hash"
	"memoboard/pkg/jwt"
)

// AuthService guards write access with a single fixed admin identity.
// There is no registration and no user collection: the credentials come
// from configuration and the only state is the bearer token itself.
type AuthService struct {
	adminUsername string
	adminPassword string
	jwtSecret     string
	jwtExpiration time.Duration
	renewWithin   time.Duration
}

func NewAuthService(adminUsername, adminPassword, jwtSecret string, jwtExp, renewWithin time.Duration) *AuthService {
	return &AuthService{
		adminUsername: adminUsername,
		adminPassword: adminPassword,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExp,
		renewWithin:   renewWithin,
	}
}

// Login checks the presented credentials and mints a token with a full
// validity window. The failure never reveals which field was wrong.
func (s *AuthService) Login(req *domain.LoginRequest) (*domain.TokenResponse, error) {
	if !hash.VerifyCredentials(s.adminUsername, s.adminPassword, req.Username, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(s.adminUsername, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &domain.TokenResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtExpiration.Seconds()),
	}, nil
}

// Verify validates a bearer token. When the token is close to expiry a
// replacement with a full fresh window is returned alongside the
// claims, for the caller to hand back out-of-band.
func (s *AuthService) Verify(token string) (claims *jwt.Claims, renewed string, err error) {
	claims, err = jwt.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}

	if claims.Remaining() < s.renewWithin {
		renewed, err = jwt.GenerateToken(claims.Username, s.jwtExpiration, s.jwtSecret)
		if err != nil {
			return nil, "", err
		}
	}

	return claims, renewed, nil
}

// Refresh exchanges a still-valid token for a new one with a full
// validity window. Expired tokens are rejected; the client must log in
// again.
func (s *AuthService) Refresh(token string) (*domain.TokenResponse, error) {
	claims, err := jwt.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	fresh, err := jwt.GenerateToken(claims.Username, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &domain.TokenResponse{
		Token:     fresh,
		ExpiresIn: int64(s.jwtExpiration.Seconds()),
	}, nil
}
