package services

import (
	"errors"
	"sync"
	"time"

	"gruzclick/internal/models"
)

// Фейки репозиториев для тестов сервисного слоя: состояние в памяти,
// семантика повторяет SQL-реализации (атомарный MarkUsed, supersede
// при создании кода и т.п.).

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // по ID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) add(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
}

func (r *fakeUserRepo) Create(u *models.User) error {
	r.add(u)
	return nil
}

func (r *fakeUserRepo) CreateCarrier(c *models.Carrier) error { return nil }

func (r *fakeUserRepo) GetByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) findBy(pred func(*models.User) bool) (*models.User, error) {
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

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByPhone(phone string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.Phone == phone })
}

func (r *fakeUserRepo) GetByTelegram(username string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.Telegram == username })
}

func (r *fakeUserRepo) UpdateProfile(u *models.User) error {
	r.add(u)
	return nil
}

func (r *fakeUserRepo) UpdatePassword(userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) MarkVerified(userID, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return errors.New("user not found")
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

func (r *fakeUserRepo) RecordLoginFailure(email string) (int, error) {
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

func (r *fakeUserRepo) SetLockout(email string, until time.Time) error {
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

func (r *fakeUserRepo) ClearLoginFailures(email string, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.LoginAttempts = 0
			u.LockedUntil = nil
			u.LastLoginIP = ip
		}
	}
	return nil
}

func (r *fakeUserRepo) UpdateRefresh(userID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.RefreshToken = &token
	u.RefreshExpiresAt = &expiresAt
	u.RefreshRevoked = false
	return nil
}

func (r *fakeUserRepo) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == oldToken && !u.RefreshRevoked {
			u.RefreshToken = &newToken
			u.RefreshExpiresAt = &newExpiresAt
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByRefreshToken(token string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool {
		return u.RefreshToken != nil && *u.RefreshToken == token
	})
}

func (r *fakeUserRepo) LinkTelegramChat(username string, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Telegram == username {
			u.TelegramChatID = chatID
			return nil
		}
	}
	return nil
}

func (r *fakeUserRepo) ListTelegramChatIDs() ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, u := range r.users {
		if u.TelegramChatID != 0 {
			ids = append(ids, u.TelegramChatID)
		}
	}
	return ids, nil
}

// ---- коды подтверждения

type fakeVerifRepo struct {
	mu     sync.Mutex
	nextID int64
	codes  []*models.VerificationCode
}

func newFakeVerifRepo() *fakeVerifRepo { return &fakeVerifRepo{} }

func (r *fakeVerifRepo) Create(v *models.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// supersede: живые коды пары протухают, строки остаются для троттлинга
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

func (r *fakeVerifRepo) GetActive(destination, channel string) (*models.VerificationCode, error) {
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

func (r *fakeVerifRepo) CountRecentSends(destination, channel string, since time.Time) (int, error) {
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

func (r *fakeVerifRepo) MarkUsed(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			if c.Used {
				return false, nil
			}
			c.Used = true
			now := time.Now()
			c.UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVerifRepo) IncrementAttempts(id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, errors.New("code not found")
}

func (r *fakeVerifRepo) ExpireNow(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			c.ExpiresAt = time.Time{}
			return nil
		}
	}
	return nil
}

func (r *fakeVerifRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.codes {
		if c.ID == id {
			r.codes = append(r.codes[:i], r.codes[i+1:]...)
			return nil
		}
	}
	return nil
}

// ---- коды восстановления пароля

type fakeResetRepo struct {
	mu     sync.Mutex
	nextID int64
	codes  []*models.PasswordResetCode
}

func newFakeResetRepo() *fakeResetRepo { return &fakeResetRepo{} }

func (r *fakeResetRepo) Create(email, codeHash string, expiresAt time.Time) (*models.PasswordResetCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	pr := &models.PasswordResetCode{
		ID:        r.nextID,
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	r.codes = append(r.codes, pr)
	cp := *pr
	return &cp, nil
}

func (r *fakeResetRepo) GetLatestActive(email string, now time.Time) (*models.PasswordResetCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.codes) - 1; i >= 0; i-- {
		c := r.codes[i]
		if c.Email == email && c.UsedAt == nil && now.Before(c.ExpiresAt) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeResetRepo) IncrementAttempts(id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, errors.New("reset code not found")
}

func (r *fakeResetRepo) ExpireNow(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			c.ExpiresAt = time.Time{}
		}
	}
	return nil
}

func (r *fakeResetRepo) MarkUsed(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			if c.UsedAt != nil {
				return false, nil
			}
			now := time.Now()
			c.UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

// ---- журнал входов

type fakeLogRepo struct {
	mu   sync.Mutex
	logs []*models.LoginLog
}

func newFakeLogRepo() *fakeLogRepo { return &fakeLogRepo{} }

func (r *fakeLogRepo) Create(l *models.LoginLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *fakeLogRepo) last() *models.LoginLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.logs) == 0 {
		return nil
	}
	return r.logs[len(r.logs)-1]
}

// ---- доставка

// fakeSender запоминает отправленные коды; fail=true имитирует отказ канала.
type fakeSender struct {
	mu    sync.Mutex
	sent  []string // "destination:code"
	codes map[string]string
	fail  bool
}

func newFakeSender() *fakeSender { return &fakeSender{codes: make(map[string]string)} }

func (s *fakeSender) SendCode(destination, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("channel unavailable")
	}
	s.sent = append(s.sent, destination+":"+code)
	s.codes[destination] = code
	return nil
}

func (s *fakeSender) lastCode(destination string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[destination]
}

// fakeEmailService считает отправки; welcome/коды не различает по каналам.
type fakeEmailService struct {
	mu         sync.Mutex
	verifCodes map[string]string
	resetCodes map[string]string
	welcomes   int
	fail       bool
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{
		verifCodes: make(map[string]string),
		resetCodes: make(map[string]string),
	}
}

func (s *fakeEmailService) SendVerificationCode(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp unavailable")
	}
	s.verifCodes[email] = code
	return nil
}

func (s *fakeEmailService) SendPasswordResetCode(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp unavailable")
	}
	s.resetCodes[email] = code
	return nil
}

func (s *fakeEmailService) SendWelcomeEmail(email, fullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.welcomes++
	return nil
}

func (s *fakeEmailService) lastResetCode(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetCodes[email]
}
