package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
	"github.com/unexbilletera/unex-api/internal/platform/ctxutil"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := NewTokenService(logger.Nop(), "test-secret")
	userID := uuid.New()
	token, err := ts.Issue(userID.String(), time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	ctx, err := ts.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID != userID || rd.Subject != userID.String() || rd.TokenString != token {
		t.Fatalf("request data: %+v", rd)
	}
}

func TestTokenServiceNonUUIDSubject(t *testing.T) {
	ts := NewTokenService(logger.Nop(), "test-secret")
	token, err := ts.Issue("backoffice-operator", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	ctx, err := ts.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if rd := ctxutil.GetRequestData(ctx); rd.Subject != "backoffice-operator" || rd.UserID != uuid.Nil {
		t.Fatalf("request data: %+v", rd)
	}
}

func TestTokenServiceRejects(t *testing.T) {
	ts := NewTokenService(logger.Nop(), "test-secret")
	other := NewTokenService(logger.Nop(), "other-secret")
	foreign, _ := other.Issue("someone", time.Minute)

	expiredSvc := ts.(*tokenService)
	past := time.Now().Add(-2 * time.Hour)
	expiredSvc.now = func() time.Time { return past }
	expired, _ := ts.Issue("someone", time.Minute)
	expiredSvc.now = time.Now

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "someone"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not-a-token",
		"foreign": foreign,
		"expired": expired,
		"none":    unsigned,
	} {
		if _, err := ts.SetContextFromToken(context.Background(), token); !errors.Is(err, pkgerrors.ErrUnauthorized) {
			t.Fatalf("%s: want ErrUnauthorized got %v", name, err)
		}
	}
}

func TestTokenServiceWithoutSecret(t *testing.T) {
	ts := NewTokenService(logger.Nop(), "")
	if _, err := ts.Issue("x", time.Minute); !errors.Is(err, pkgerrors.ErrNotConfigured) {
		t.Fatalf("Issue without secret: want ErrNotConfigured got %v", err)
	}
	if _, err := ts.SetContextFromToken(context.Background(), "a.b.c"); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("verify without secret: want ErrUnauthorized got %v", err)
	}
}
