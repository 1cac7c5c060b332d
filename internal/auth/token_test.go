package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

func TestGenerateAndParseAdminToken(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expiresAt, err := tm.GenerateAdminToken("ops")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiresAt %v is in the past", expiresAt)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != RoleAdmin || claims.Subject != "ops" {
		t.Errorf("claims = %+v", claims)
	}

	other := NewTokenManager("different", 5)
	if _, err := other.ParseToken(token); err == nil {
		t.Error("token signed with another secret was accepted")
	}
}

func TestTokenManagerWithoutSecret(t *testing.T) {
	tm := NewTokenManager("", 5)
	if tm.Enabled() {
		t.Fatal("manager without secret reports enabled")
	}
	if _, _, err := tm.GenerateAdminToken("ops"); err != ErrMissingSecret {
		t.Errorf("err = %v, want ErrMissingSecret", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateAdminToken("ops")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperrors.StatusOf(err))
	}})
	app.Get("/guarded", RequireAdmin(tm), func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(claims.Subject)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer abc", fiber.StatusUnauthorized},
		{"valid token", "Bearer " + token, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/guarded", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}
