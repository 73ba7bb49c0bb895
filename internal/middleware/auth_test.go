package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gruzclick/internal/services"
)

func newAuthRouter(tokens *services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(tokens))
	r.POST("/auth", func(c *gin.Context) { c.JSON(200, gin.H{"public": true}) })
	r.GET("/profile", func(c *gin.Context) {
		uid, _ := c.Get("user_id")
		ut, _ := c.Get("user_type")
		c.JSON(200, gin.H{"user_id": uid, "user_type": ut})
	})
	return r
}

func TestAuthMiddlewarePublicPath(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour, time.Hour)
	r := newAuthRouter(tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("public path: status = %d, want 200", w.Code)
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour, time.Hour)
	r := newAuthRouter(tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", w.Code)
	}
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour, time.Hour)
	r := newAuthRouter(tokens)

	token, err := tokens.IssueSession("u1", "client", false)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
}

func TestAuthMiddlewareLegacyHeader(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour, time.Hour)
	r := newAuthRouter(tokens)

	token, err := tokens.IssueSession("u1", "client", false)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("X-Auth-Token", token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("legacy header: status = %d, want 200", w.Code)
	}
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour, time.Hour)
	r := newAuthRouter(tokens)

	for _, h := range []string{"Bearer garbage", "Basic abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Authorization", h)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", h, w.Code)
		}
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour, time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens.Now = func() time.Time { return now }

	token, err := tokens.IssueSession("u1", "client", false)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	now = now.Add(2 * time.Hour)

	r := newAuthRouter(tokens)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status = %d, want 401", w.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin-only",
		func(c *gin.Context) { c.Set("user_type", "client"); c.Next() },
		RequireAdmin(),
		func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) },
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("client on admin route: status = %d, want 403", w.Code)
	}
}
