package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// TokenConfig configures bearer token signing.
type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// TokenClaims identifies the holder of an API token.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// IssuedToken is a signed token and its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues and validates the HS256 tokens guarding the API.
type TokenService struct {
	config TokenConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(config TokenConfig, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{config: config, logger: logger, now: time.Now}
}

// Issue signs a token for subject.
func (s *TokenService) Issue(subject string) (*IssuedToken, error) {
	if subject == "" {
		return nil, validationError(nil, "token subject is required")
	}
	if s.config.Secret == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "token secret is not configured")
	}
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, internalError(err, "failed to sign token")
	}
	s.logger.Info("token issued", zap.String("subject", subject), zap.Time("expires_at", expiresAt))
	return &IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate parses and verifies a signed token.
func (s *TokenService) Validate(tokenString string) (*TokenClaims, error) {
	options := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, options...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
