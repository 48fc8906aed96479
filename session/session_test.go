package session

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/task-tracker/token"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// mockVerifier implements Verifier for testing
type mockVerifier struct {
	verifyFunc func(tokenString string) (*token.Claims, error)
}

func (m *mockVerifier) Verify(tokenString string) (*token.Claims, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(tokenString)
	}
	return nil, errors.New("not implemented")
}

func claimsFor(userID string) *token.Claims {
	claims := &token.Claims{}
	claims.Subject = userID
	return claims
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		verifier       *mockVerifier
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing authorization header",
			authHeader:     "",
			verifier:       &mockVerifier{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Authorization header is required"`,
		},
		{
			name:           "invalid authorization format - no bearer",
			authHeader:     "Basic token123",
			verifier:       &mockVerifier{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Invalid authorization header format`,
		},
		{
			name:           "bearer without token",
			authHeader:     "Bearer ",
			verifier:       &mockVerifier{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer invalid-token",
			verifier: &mockVerifier{
				verifyFunc: func(tokenString string) (*token.Claims, error) {
					return nil, token.ErrInvalidToken
				},
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Invalid or expired token"`,
		},
		{
			name:       "expired token",
			authHeader: "Bearer expired-token",
			verifier: &mockVerifier{
				verifyFunc: func(tokenString string) (*token.Claims, error) {
					return nil, token.ErrExpiredToken
				},
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Invalid or expired token"`,
		},
		{
			name:       "valid token",
			authHeader: "Bearer valid-token",
			verifier: &mockVerifier{
				verifyFunc: func(tokenString string) (*token.Claims, error) {
					return claimsFor("user-123"), nil
				},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"authenticated"`,
		},
		{
			name:       "lower-case scheme",
			authHeader: "bearer valid-token",
			verifier: &mockVerifier{
				verifyFunc: func(tokenString string) (*token.Claims, error) {
					return claimsFor("user-123"), nil
				},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"authenticated"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(Middleware(tt.verifier))
			app.Get("/test", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{"status": "authenticated"})
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %v, want %v", resp.StatusCode, tt.expectedStatus)
			}
			if tt.expectedStatus == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("WWW-Authenticate header not set on 401")
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("io.ReadAll() error = %v", err)
			}
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("body = %v, want to contain %v", string(body), tt.expectedBody)
			}
		})
	}
}

func TestMiddleware_StoresSession(t *testing.T) {
	issuedAt := time.Now().Add(-time.Minute).Truncate(time.Second)
	verifier := &mockVerifier{
		verifyFunc: func(tokenString string) (*token.Claims, error) {
			if tokenString != "valid-token" {
				t.Errorf("Verify() got %q, want %q", tokenString, "valid-token")
			}
			claims := claimsFor("user-456")
			claims.IssuedAt = jwt.NewNumericDate(issuedAt)
			return claims, nil
		},
	}

	app := fiber.New()
	app.Use(Middleware(verifier))

	var captured *Session
	app.Get("/test", func(c *fiber.Ctx) error {
		s, ok := From(c)
		if !ok {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "no session"})
		}
		captured = s
		return c.JSON(fiber.Map{"status": "ok"})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if captured == nil {
		t.Fatal("session not set in context")
	}
	if captured.UserID != "user-456" {
		t.Errorf("session.UserID = %v, want %v", captured.UserID, "user-456")
	}
	if !captured.IssuedAt.Equal(issuedAt) {
		t.Errorf("session.IssuedAt = %v, want %v", captured.IssuedAt, issuedAt)
	}
	if !captured.ExpiresAt.IsZero() {
		t.Errorf("session.ExpiresAt = %v, want zero", captured.ExpiresAt)
	}
}

func TestMiddleware_RealCodec(t *testing.T) {
	codec := token.NewCodec(token.Config{SecretKey: "k", Issuer: "test", TTL: time.Minute})
	forger := token.NewCodec(token.Config{SecretKey: "not-k", Issuer: "test", TTL: time.Minute})

	good, err := codec.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	forged, err := forger.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	app := fiber.New()
	app.Use(Middleware(codec))
	app.Get("/test", func(c *fiber.Ctx) error {
		s, _ := From(c)
		return c.SendString(s.UserID)
	})

	for name, tc := range map[string]struct {
		tok  string
		want int
	}{
		"issued by codec": {tok: good, want: http.StatusOK},
		"forged":          {tok: forged, want: http.StatusUnauthorized},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+tc.tok)
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("status = %v, want %v", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestFrom_WithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/test", func(c *fiber.Ctx) error {
		if _, ok := From(c); ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil), -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %v, want %v", resp.StatusCode, http.StatusNoContent)
	}
}
