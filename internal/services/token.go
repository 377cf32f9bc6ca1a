package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
	"github.com/unexbilletera/unex-api/internal/platform/ctxutil"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

const tokenIssuer = "unex-api"

type JWTClaims struct {
	jwt.RegisteredClaims
}

// TokenService verifies the HS256 bearer tokens guarding the backoffice routes.
type TokenService interface {
	Issue(subject string, ttl time.Duration) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type tokenService struct {
	log    *logger.Logger
	secret []byte
	now    func() time.Time
}

func NewTokenService(log *logger.Logger, jwtSecretKey string) TokenService {
	serviceLog := log.With("service", "TokenService")
	return &tokenService{
		log:    serviceLog,
		secret: []byte(jwtSecretKey),
		now:    time.Now,
	}
}

func (ts *tokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if len(ts.secret) == 0 {
		return "", fmt.Errorf("jwt secret: %w", pkgerrors.ErrNotConfigured)
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("token subject required: %w", pkgerrors.ErrInvalidArgument)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := ts.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
}

// SetContextFromToken validates tokenString and stores the caller in ctx.
func (ts *tokenService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing bearer token: %w", pkgerrors.ErrUnauthorized)
	}
	if len(ts.secret) == 0 {
		ts.log.Warn("bearer token rejected: JWT secret not configured")
		return ctx, fmt.Errorf("jwt secret not configured: %w", pkgerrors.ErrUnauthorized)
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return ts.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ts.now))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %v: %w", err, pkgerrors.ErrUnauthorized)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid || strings.TrimSpace(claims.Subject) == "" {
		return ctx, fmt.Errorf("invalid or expired token: %w", pkgerrors.ErrUnauthorized)
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		Subject:     claims.Subject,
	}
	if userID, err := uuid.Parse(claims.Subject); err == nil {
		rd.UserID = userID
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}
