package httpapi

import (
	"testing"
	"time"

	"manware/pos/internal/domain"
)

func newTestAuth() *AuthManager {
	return NewAuthManager("test-secret-key-for-unit-tests!!", 8*time.Hour, time.Hour, []SeedUser{
		{Username: "admin", Password: "admin-pass-123", Role: RoleAdmin},
		{Username: "cashier", Password: "cashier-pass-123", Role: RoleCashier},
	})
}

func TestLoginAndParseToken(t *testing.T) {
	auth := newTestAuth()

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin-pass-123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Role != RoleAdmin {
		t.Fatalf("expected admin role, got %q", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != RoleAdmin {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := newTestAuth()

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatalf("expected login to fail")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "ghost", Password: "whatever"}); err == nil {
		t.Fatalf("expected login to fail for unknown user")
	}
}

func TestCashierSessionIsShorter(t *testing.T) {
	auth := newTestAuth()

	adminResp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin-pass-123"})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	cashierResp, err := auth.Login(domain.LoginRequest{Username: "cashier", Password: "cashier-pass-123"})
	if err != nil {
		t.Fatalf("cashier login: %v", err)
	}

	adminExp, err := time.Parse(time.RFC3339, adminResp.ExpiresAt)
	if err != nil {
		t.Fatalf("parse admin expiry: %v", err)
	}
	cashierExp, err := time.Parse(time.RFC3339, cashierResp.ExpiresAt)
	if err != nil {
		t.Fatalf("parse cashier expiry: %v", err)
	}

	if !cashierExp.Before(adminExp) {
		t.Fatalf("expected cashier session to expire before admin session (%s vs %s)", cashierExp, adminExp)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuth()

	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestRegisterCustomer(t *testing.T) {
	auth := newTestAuth()

	if err := auth.RegisterCustomer("0551234567", "secret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := auth.RegisterCustomer("0551234567", "secret-pass"); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := auth.RegisterCustomer("0559999999", "short"); err == nil {
		t.Fatalf("expected weak password to be rejected")
	}

	resp, err := auth.Login(domain.LoginRequest{Username: "0551234567", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("customer login: %v", err)
	}
	if resp.Role != RoleCustomer {
		t.Fatalf("expected customer role, got %q", resp.Role)
	}
}
