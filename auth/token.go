package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pizza-service/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const issuer = "pizza-service"

// ErrInvalidToken covers malformed, expired, unknown and revoked tokens alike.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims only bind the user id. Roles are loaded on every validation.
type Claims struct {
	jwt.RegisteredClaims
}

// Identity is the caller resolved from a valid token.
type Identity struct {
	User    *models.User
	TokenID string
}

func (i *Identity) UserID() uint {
	if i == nil || i.User == nil {
		return 0
	}
	return i.User.ID
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.User != nil && i.User.HasRole(models.RoleAdmin)
}

type TokenService struct {
	db       *gorm.DB
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewTokenService(db *gorm.DB, sessions SessionStore, secret string, ttl time.Duration, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		db:       db,
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue signs a new token for user and registers its session.
func (s *TokenService) Issue(ctx context.Context, user *models.User) (string, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	jti := uuid.NewString()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.sessions.Save(ctx, Session{ID: jti, UserID: user.ID, ExpiresAt: expiresAt}); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return signed, nil
}

// Validate checks signature, expiry and the session registry, then reloads
// the user with the roles currently stored.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*Identity, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	live, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if !live {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.WithContext(ctx).Preload("Roles").First(&user, uint(userID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &Identity{User: &user, TokenID: claims.ID}, nil
}

// Revoke drops the session behind tokenID. Revoking twice is not an error.
func (s *TokenService) Revoke(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, tokenID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.logger.Debug("session revoked", zap.String("jti", tokenID))
	return nil
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
