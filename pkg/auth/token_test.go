package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/staffstore-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

func testConfig() config.AdminConfig {
	return config.AdminConfig{
		JWTSecret:         "secret",
		JWTIssuer:         "staffstore",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAdminToken(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC()

	token, expiresAt, err := MintAdminToken(cfg, now, "")
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}

	claims, err := ParseAdminToken(cfg, token)
	if err != nil {
		t.Fatalf("parse admin token: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Subject != RoleAdmin {
		t.Fatalf("expected default subject, got %s", claims.Subject)
	}
	if claims.Issuer != cfg.JWTIssuer {
		t.Fatalf("expected issuer %s, got %s", cfg.JWTIssuer, claims.Issuer)
	}

	want := now.Add(30 * time.Minute)
	if diff := expiresAt.Sub(want); diff != 0 {
		t.Fatalf("expected expiresAt %v, got %v", want, expiresAt)
	}
	diff := claims.ExpiresAt.Sub(want)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", want, claims.ExpiresAt.UTC())
	}
}

func TestParseAdminTokenInvalidSignature(t *testing.T) {
	cfg := testConfig()
	token, _, err := MintAdminToken(cfg, time.Now(), "panel")
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}

	other := cfg
	other.JWTSecret = "different"
	if _, err := ParseAdminToken(other, token); err == nil {
		t.Fatal("expected invalid signature error")
	}
	if _, err := ParseAdminToken(cfg, token+"x"); err == nil {
		t.Fatal("expected tampered token error")
	}
}

func TestParseAdminTokenExpired(t *testing.T) {
	cfg := testConfig()
	token, _, err := MintAdminToken(cfg, time.Now().Add(-time.Hour), "")
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}

	_, err = ParseAdminToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAdminTokenRejectsOtherRoles(t *testing.T) {
	cfg := testConfig()
	claims := AdminClaims{
		Role: "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAdminToken(cfg, signed); err == nil {
		t.Fatal("expected role error")
	}
}

func TestMintAdminTokenRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	if _, _, err := MintAdminToken(cfg, time.Now(), ""); err == nil {
		t.Fatal("expected missing secret error")
	}
}
