package services

import (
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gruzclick/internal/authz"
	"gruzclick/internal/models"
	"gruzclick/internal/repositories"
	"gruzclick/internal/security"
	"gruzclick/internal/utils"
)

// AdminService — регистрация/вход админов, восстановление пароля
// и админские выгрузки. Вход защищён теми же лимитерами, что и
// пользовательский (ключи с префиксом admin:).
// Broadcaster — рассылка сообщения всем привязанным Telegram-чатам.
type Broadcaster interface {
	Broadcast(text string) (sent int, err error)
}

type AdminService struct {
	admins repositories.AdminRepository
	resets repositories.PasswordResetRepository
	emails EmailService
	tokens *TokenService
	tg     Broadcaster

	ipLimiter   *security.Limiter
	acctLimiter *security.Limiter

	// Now подменяется в тестах.
	Now func() time.Time
}

type AdminLoginResult struct {
	Admin *models.Admin
	Token string
}

func NewAdminService(
	admins repositories.AdminRepository,
	resets repositories.PasswordResetRepository,
	emails EmailService,
	tokens *TokenService,
	tg Broadcaster,
	ipLimiter, acctLimiter *security.Limiter,
) *AdminService {
	return &AdminService{
		admins:      admins,
		resets:      resets,
		emails:      emails,
		tokens:      tokens,
		tg:          tg,
		ipLimiter:   ipLimiter,
		acctLimiter: acctLimiter,
		Now:         time.Now,
	}
}

func (s *AdminService) Register(email, password, fullName string) (*AdminLoginResult, error) {
	email = utils.SanitizeString(strings.ToLower(email), 255)
	fullName = utils.SanitizeString(fullName, 255)
	if email == "" || password == "" || fullName == "" {
		return nil, Validation("email, password, and full name are required")
	}
	if !utils.ValidateEmail(email) {
		return nil, Validation("invalid email address")
	}
	if ok, msg := utils.ValidatePassword(password); !ok {
		return nil, Validation("%s", msg)
	}

	if existing, err := s.admins.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	secret, err := utils.NewOpaqueToken(16)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{
		Email:           email,
		PasswordHash:    string(hash),
		FullName:        fullName,
		TwoFactorSecret: secret,
	}
	if err := s.admins.Create(admin); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(strconv.Itoa(admin.ID), authz.RoleAdmin, s.tokens.SessionTTL)
	if err != nil {
		return nil, err
	}
	log.Printf("[admin][register] ok id=%d", admin.ID)
	return &AdminLoginResult{Admin: admin, Token: token}, nil
}

func (s *AdminService) Login(email, password, clientIP string) (*AdminLoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, Validation("email and password are required")
	}

	ipK := "admin:" + ipKey(clientIP)
	acctK := "admin:" + acctKey(email)
	if d, err := s.ipLimiter.Check(ipK); err != nil {
		return nil, err
	} else if !d.Allowed {
		return nil, &RateLimitedError{RetryAfter: d.RetryAfter}
	}
	if d, err := s.acctLimiter.Check(acctK); err != nil {
		return nil, err
	} else if !d.Allowed {
		return nil, &RateLimitedError{RetryAfter: d.RetryAfter}
	}

	admin, err := s.admins.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		if _, err := s.ipLimiter.Fail(ipK); err != nil {
			log.Printf("[admin][login] ip limiter: %v", err)
		}
		if _, err := s.acctLimiter.Fail(acctK); err != nil {
			log.Printf("[admin][login] acct limiter: %v", err)
		}
		return nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.ipLimiter.Clear(ipK); err != nil {
		log.Printf("[admin][login] limiter clear: %v", err)
	}
	if err := s.acctLimiter.Clear(acctK); err != nil {
		log.Printf("[admin][login] limiter clear: %v", err)
	}

	token, err := s.tokens.Issue(strconv.Itoa(admin.ID), authz.RoleAdmin, s.tokens.SessionTTL)
	if err != nil {
		return nil, err
	}
	log.Printf("[admin][login] ok id=%d", admin.ID)
	return &AdminLoginResult{Admin: admin, Token: token}, nil
}

// SendResetCode — ответ одинаков для любых адресов: существование
// админской учётки не раскрываем.
func (s *AdminService) SendResetCode(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Validation("email is required")
	}
	admin, err := s.admins.GetByEmail(email)
	if err != nil || admin == nil {
		log.Printf("[admin][reset] request for unknown email, err=%v", err)
		return nil
	}

	code, err := utils.NewNumericCode(6)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := s.resets.Create(email, string(hash), s.Now().Add(resetCodeTTL)); err != nil {
		return err
	}
	if err := s.emails.SendPasswordResetCode(email, code); err != nil {
		log.Printf("[admin][reset] email send failed: %v", err)
	}
	return nil
}

func (s *AdminService) ResetPassword(email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" || newPassword == "" {
		return Validation("email, code, and new password are required")
	}
	if ok, msg := utils.ValidatePassword(newPassword); !ok {
		return Validation("%s", msg)
	}

	pr, err := s.resets.GetLatestActive(email, s.Now())
	if err != nil {
		return err
	}
	if pr == nil {
		return ErrCodeInvalid
	}
	if bcrypt.CompareHashAndPassword([]byte(pr.CodeHash), []byte(code)) != nil {
		attempts, incErr := s.resets.IncrementAttempts(pr.ID)
		if incErr != nil {
			return incErr
		}
		if attempts >= maxConfirmAttempts {
			_ = s.resets.ExpireNow(pr.ID)
			return ErrTooManyAttempts
		}
		return ErrCodeInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.admins.UpdatePassword(email, string(hash)); err != nil {
		return err
	}
	ok, err := s.resets.MarkUsed(pr.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeInvalid
	}
	log.Printf("[admin][reset] ok email hash matched, password updated")
	return nil
}

// Выгрузки и переключатели для админки.

func (s *AdminService) GetStats() (*models.AdminStats, error) { return s.admins.GetStats() }

func (s *AdminService) ListUsers() ([]*models.AdminUserRow, error) { return s.admins.ListUsers() }

func (s *AdminService) ListDeliveries() ([]*models.Delivery, error) {
	return s.admins.ListDeliveries()
}

func (s *AdminService) UpdateUserStatus(userID, status string) error {
	if userID == "" || status == "" {
		return Validation("user ID and status are required")
	}
	return s.admins.UpdateUserStatus(userID, status == "active")
}

// Broadcast — сообщение во все привязанные Telegram-чаты.
func (s *AdminService) Broadcast(message string) (int, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return 0, Validation("message is required")
	}
	sent, err := s.tg.Broadcast(message)
	if err != nil {
		return 0, err
	}
	log.Printf("[admin][broadcast] sent=%d", sent)
	return sent, nil
}

func (s *AdminService) UpdateDeliveryStatus(deliveryID, status string) error {
	if deliveryID == "" || status == "" {
		return Validation("delivery ID and status are required")
	}
	switch status {
	case models.DeliveryPending, models.DeliveryActive, models.DeliveryCompleted, models.DeliveryCancelled:
	default:
		return Validation("invalid delivery status")
	}
	return s.admins.UpdateDeliveryStatus(deliveryID, status)
}
