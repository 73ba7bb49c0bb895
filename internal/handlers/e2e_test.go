package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gruzclick/internal/models"
	"gruzclick/internal/security"
	"gruzclick/internal/services"
)

// Стенд: настоящие сервисы и роутинг, хранилища в памяти.

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers() *memUsers { return &memUsers{users: make(map[string]*models.User)} }

func (r *memUsers) Create(u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUsers) CreateCarrier(c *models.Carrier) error { return nil }

func (r *memUsers) GetByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memUsers) find(pred func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if pred(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsers) GetByEmail(email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *memUsers) GetByPhone(phone string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Phone == phone })
}

func (r *memUsers) GetByTelegram(username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Telegram == username })
}

func (r *memUsers) UpdateProfile(u *models.User) error { return r.Create(u) }

func (r *memUsers) UpdatePassword(userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.PasswordHash = hash
		return nil
	}
	return errors.New("not found")
}

func (r *memUsers) MarkVerified(userID, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return errors.New("not found")
	}
	switch channel {
	case models.ChannelEmail:
		u.EmailVerified = true
	case models.ChannelSMS:
		u.PhoneVerified = true
	case models.ChannelTelegram:
		u.TelegramVerified = true
	}
	return nil
}

func (r *memUsers) RecordLoginFailure(email string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.LoginAttempts++
			return u.LoginAttempts, nil
		}
	}
	return 0, nil
}

func (r *memUsers) SetLockout(email string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := until
			u.LockedUntil = &cp
		}
	}
	return nil
}

func (r *memUsers) ClearLoginFailures(email, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.LoginAttempts = 0
			u.LockedUntil = nil
		}
	}
	return nil
}

func (r *memUsers) UpdateRefresh(userID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.RefreshToken = &token
		u.RefreshExpiresAt = &expiresAt
		return nil
	}
	return errors.New("not found")
}

func (r *memUsers) RotateRefresh(oldToken, newToken string, exp time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == oldToken && !u.RefreshRevoked {
			u.RefreshToken = &newToken
			u.RefreshExpiresAt = &exp
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsers) GetByRefreshToken(token string) (*models.User, error) {
	return r.find(func(u *models.User) bool {
		return u.RefreshToken != nil && *u.RefreshToken == token
	})
}

func (r *memUsers) LinkTelegramChat(username string, chatID int64) error { return nil }

func (r *memUsers) ListTelegramChatIDs() ([]int64, error) { return nil, nil }

type memCodes struct {
	mu     sync.Mutex
	nextID int64
	codes  []*models.VerificationCode
}

func (r *memCodes) Create(v *models.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.Destination == v.Destination && c.Channel == v.Channel && !c.Used && c.ExpiresAt.After(v.SentAt) {
			c.ExpiresAt = v.SentAt
		}
	}
	r.nextID++
	v.ID = r.nextID
	cp := *v
	r.codes = append(r.codes, &cp)
	return nil
}

func (r *memCodes) GetActive(destination, channel string) (*models.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.codes) - 1; i >= 0; i-- {
		c := r.codes[i]
		if c.Destination == destination && c.Channel == channel && !c.Used {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memCodes) CountRecentSends(destination, channel string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.codes {
		if c.Destination == destination && c.Channel == channel && !c.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *memCodes) MarkUsed(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id && !c.Used {
			c.Used = true
			return true, nil
		}
	}
	return false, nil
}

func (r *memCodes) IncrementAttempts(id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, errors.New("not found")
}

func (r *memCodes) ExpireNow(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			c.ExpiresAt = time.Time{}
		}
	}
	return nil
}

func (r *memCodes) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.codes {
		if c.ID == id {
			r.codes = append(r.codes[:i], r.codes[i+1:]...)
			break
		}
	}
	return nil
}

type memLogs struct{}

func (memLogs) Create(*models.LoginLog) error { return nil }

type noopEmails struct{}

func (noopEmails) SendVerificationCode(string, string) error { return nil }
func (noopEmails) SendPasswordResetCode(string, string) error { return nil }
func (noopEmails) SendWelcomeEmail(string, string) error      { return nil }

type okSender struct{}

func (okSender) SendCode(string, string) error { return nil }

type testStack struct {
	router *gin.Engine
	users  *memUsers
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := newMemUsers()
	codes := &memCodes{}

	verif := services.NewVerificationService(codes, users, map[string]services.CodeSender{
		models.ChannelEmail:    okSender{},
		models.ChannelSMS:      okSender{},
		models.ChannelTelegram: okSender{},
	})
	tokens := services.NewTokenService("test-secret", 24*time.Hour, 7*24*time.Hour)

	store := security.NewMemoryStore()
	ipLimiter := security.NewLimiter(store, 10, 5*time.Minute, 15*time.Minute)
	acctLimiter := security.NewLimiter(store, 5, 5*time.Minute, 15*time.Minute)

	auth := services.NewAuthService(users, memLogs{}, verif, noopEmails{}, tokens,
		ipLimiter, acctLimiter, 5, 15*time.Minute)

	authHandler := NewAuthHandler(auth, nil)
	verifyHandler := NewVerifyHandler(verif, users, tokens, true) // expose_codes

	r := gin.New()
	r.POST("/auth", authHandler.Handle)
	r.POST("/auth/refresh", authHandler.RefreshToken)
	r.POST("/verify", verifyHandler.Handle)

	return &testStack{router: r, users: users}
}

func (s *testStack) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return m
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"action":      "register",
		"email":       email,
		"password":    "Secret123",
		"full_name":   "Иван Петров",
		"phone":       "+79991234567",
		"user_type":   "client",
		"entity_type": "individual",
	}
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	s := newTestStack(t)

	// регистрация: аккаунт создан, токена нет
	w := s.post(t, "/auth", registerBody("user@example.com"))
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body=%s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if _, hasTokens := resp["tokens"]; hasTokens {
		t.Error("register must not issue session tokens")
	}

	// вход до подтверждения — 403
	w = s.post(t, "/auth", map[string]any{
		"action": "login", "email": "user@example.com", "password": "Secret123",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("login before verify: status = %d, want 403", w.Code)
	}

	// получаем код (expose_codes) и подтверждаем
	w = s.post(t, "/verify", map[string]any{
		"action": "send_code", "channel": "email", "destination": "user@example.com",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("send_code: status = %d, body=%s", w.Code, w.Body.String())
	}
	code, _ := decode(t, w)["code"].(string)
	if code == "" {
		t.Fatal("expose_codes mode should return the code")
	}

	w = s.post(t, "/verify", map[string]any{
		"action": "verify_code", "channel": "email", "destination": "user@example.com", "code": code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify_code: status = %d, body=%s", w.Code, w.Body.String())
	}

	// теперь вход проходит и выдаёт оба токена
	w = s.post(t, "/auth", map[string]any{
		"action": "login", "email": "user@example.com", "password": "Secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body=%s", w.Code, w.Body.String())
	}
	tokens, _ := decode(t, w)["tokens"].(map[string]any)
	if tokens["access_token"] == "" || tokens["refresh_token"] == "" {
		t.Error("expected access and refresh tokens")
	}

	// и refresh ротируется
	w = s.post(t, "/auth/refresh", map[string]any{"refresh_token": tokens["refresh_token"]})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, body=%s", w.Code, w.Body.String())
	}
	rotated := decode(t, w)
	if rotated["refresh_token"] == tokens["refresh_token"] {
		t.Error("refresh token must rotate")
	}
}

func TestLoginBruteForce429(t *testing.T) {
	s := newTestStack(t)

	w := s.post(t, "/auth", registerBody("user@example.com"))
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", w.Code)
	}
	u, _ := s.users.GetByEmail("user@example.com")
	_ = s.users.MarkVerified(u.ID, models.ChannelEmail)

	for i := 0; i < 5; i++ {
		w = s.post(t, "/auth", map[string]any{
			"action": "login", "email": "user@example.com", "password": "Wrong1234",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, w.Code)
		}
	}

	w = s.post(t, "/auth", map[string]any{
		"action": "login", "email": "user@example.com", "password": "Secret123",
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("locked: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 must carry Retry-After")
	}
	if ra, _ := decode(t, w)["retry_after"].(float64); ra <= 0 {
		t.Error("retry_after must be positive")
	}
}

func TestVerifyTelegramLoginOrRegister(t *testing.T) {
	s := newTestStack(t)

	// незнакомый username: код верный, но аккаунта нет
	w := s.post(t, "/verify", map[string]any{
		"action": "send_code", "channel": "telegram", "destination": "@stranger",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("send_code: status = %d", w.Code)
	}
	code, _ := decode(t, w)["code"].(string)

	w = s.post(t, "/verify", map[string]any{
		"action": "verify_code", "channel": "telegram", "destination": "@stranger", "code": code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify_code: status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp["registration_required"] != true {
		t.Error("unknown telegram user must be sent to registration")
	}

	// привязанный username входит сразу
	_ = s.users.Create(&models.User{
		ID: uuid.NewString(), Email: "tg@example.com", Telegram: "linked",
		UserType: "client", TelegramVerified: true,
	})
	w = s.post(t, "/verify", map[string]any{
		"action": "send_code", "channel": "telegram", "destination": "linked",
	})
	code, _ = decode(t, w)["code"].(string)
	w = s.post(t, "/verify", map[string]any{
		"action": "verify_code", "channel": "telegram", "destination": "linked", "code": code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify_code: status = %d, body=%s", w.Code, w.Body.String())
	}
	resp = decode(t, w)
	if tok, _ := resp["access_token"].(string); tok == "" {
		t.Error("linked telegram user should get a session token")
	}
}

func TestVerifyUnknownChannel(t *testing.T) {
	s := newTestStack(t)

	w := s.post(t, "/verify", map[string]any{
		"action": "send_code", "channel": "pigeon", "destination": "user@example.com",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAdminProtectedActionsNeedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := services.NewTokenService("test-secret", time.Hour, time.Hour)
	h := NewAdminHandler(nil, tokens)

	r := gin.New()
	r.POST("/admin/auth", h.Handle)

	body, _ := json.Marshal(map[string]any{"action": "get_stats"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/auth", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("get_stats without token: status = %d, want 401", w.Code)
	}

	// токен обычного пользователя тоже не проходит
	userToken, _ := tokens.IssueSession("u1", "client", false)
	body, _ = json.Marshal(map[string]any{"action": "get_stats", "token": userToken})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/auth", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("get_stats with client token: status = %d, want 401", w.Code)
	}
}
