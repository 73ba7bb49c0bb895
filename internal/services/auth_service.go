package services

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gruzclick/internal/authz"
	"gruzclick/internal/models"
	"gruzclick/internal/repositories"
	"gruzclick/internal/security"
	"gruzclick/internal/utils"
)

// AuthService — регистрация и вход. Склеивает хэшер, лимитер,
// верификацию и выпуск токенов; решает переходы
// unregistered → pending_verification → verified_active.
type AuthService struct {
	users  repositories.UserRepository
	logs   repositories.LoginLogRepository
	verif  *VerificationService
	emails EmailService
	tokens *TokenService

	// две независимые защиты: по IP и по аккаунту; отказ любой — отказ входа
	ipLimiter   *security.Limiter
	acctLimiter *security.Limiter

	lockoutDuration time.Duration
	maxAttempts     int

	// Now подменяется в тестах.
	Now func() time.Time
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

func NewAuthService(
	users repositories.UserRepository,
	logs repositories.LoginLogRepository,
	verif *VerificationService,
	emails EmailService,
	tokens *TokenService,
	ipLimiter, acctLimiter *security.Limiter,
	maxAttempts int,
	lockoutDuration time.Duration,
) *AuthService {
	return &AuthService{
		users:           users,
		logs:            logs,
		verif:           verif,
		emails:          emails,
		tokens:          tokens,
		ipLimiter:       ipLimiter,
		acctLimiter:     acctLimiter,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		Now:             time.Now,
	}
}

func (s *AuthService) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ключи лимитера; пустой IP сваливается в общий консервативный бакет
func ipKey(ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func acctKey(email string) string { return "acct:" + email }

// Register создаёт аккаунт в состоянии pending_verification и шлёт
// код подтверждения на email. Токен сессии не выдаётся до активации.
func (s *AuthService) Register(req *models.RegisterRequest, clientIP string) (*models.User, error) {
	email := utils.SanitizeString(strings.ToLower(req.Email), 255)
	fullName := utils.SanitizeString(req.FullName, 255)
	phone := utils.NormalizePhone(utils.SanitizeString(req.Phone, 20))
	inn := utils.SanitizeString(req.INN, 12)

	if email == "" || req.Password == "" || fullName == "" || req.UserType == "" || req.EntityType == "" || phone == "" {
		return nil, Validation("all required fields must be filled")
	}
	if !utils.ValidateEmail(email) {
		return nil, Validation("invalid email address")
	}
	if !utils.ValidatePhone(phone) {
		return nil, Validation("invalid phone number, use +7XXXXXXXXXX")
	}
	if ok, msg := utils.ValidatePassword(req.Password); !ok {
		return nil, Validation("%s", msg)
	}
	if !authz.IsValidUserType(req.UserType) {
		return nil, Validation("invalid user type")
	}
	if req.EntityType != "individual" && req.EntityType != "legal" {
		return nil, Validation("invalid entity type")
	}
	if req.EntityType == "legal" && inn != "" && !utils.ValidateINN(inn) {
		return nil, Validation("invalid INN, must be 10 or 12 digits")
	}

	if existing, err := s.users.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}
	if existing, err := s.users.GetByPhone(phone); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrPhoneTaken
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:               uuid.NewString(),
		Email:            email,
		Phone:            phone,
		PasswordHash:     hash,
		FullName:         fullName,
		UserType:         req.UserType,
		EntityType:       req.EntityType,
		INN:              inn,
		OrganizationName: utils.SanitizeString(req.OrganizationName, 255),
		LastLoginIP:      clientIP,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	if user.UserType == authz.RoleCarrier {
		capacity := req.Capacity
		if capacity < 0 || capacity > 100000 {
			capacity = 0
		}
		vehicleType := req.VehicleType
		if vehicleType == "" {
			vehicleType = "car_small"
		}
		carrier := &models.Carrier{UserID: user.ID, VehicleType: vehicleType, Capacity: capacity}
		if err := s.users.CreateCarrier(carrier); err != nil {
			return nil, err
		}
	}

	// письмо и код — best effort: аккаунт уже создан, повторная отправка
	// доступна через /verify
	if s.emails != nil {
		if err := s.emails.SendWelcomeEmail(user.Email, user.FullName); err != nil {
			log.Printf("[auth][register] welcome email failed: email=%s err=%v", user.Email, err)
		}
	}
	if s.verif != nil {
		if _, err := s.verif.SendCode(&user.ID, user.Email, models.ChannelEmail); err != nil {
			log.Printf("[auth][register] verification code failed: email=%s err=%v", user.Email, err)
		}
	}

	s.logAttempt(&user.ID, email, clientIP, "", true, "")
	log.Printf("[auth][register] ok user_id=%s type=%s", user.ID, user.UserType)
	return user, nil
}

// Login — полный успех требует: не заблокирован (оба ключа), пароль
// верен, аккаунт подтверждён. Счётчики сбрасываются только на успехе.
func (s *AuthService) Login(req *models.LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" {
		return nil, Validation("email and password are required")
	}

	// ранний отказ до обращения к БД
	if d, err := s.ipLimiter.Check(ipKey(clientIP)); err != nil {
		return nil, err
	} else if !d.Allowed {
		s.logAttempt(nil, email, clientIP, userAgent, false, models.FailureRateLimited)
		return nil, &RateLimitedError{RetryAfter: d.RetryAfter}
	}
	if d, err := s.acctLimiter.Check(acctKey(email)); err != nil {
		return nil, err
	} else if !d.Allowed {
		s.logAttempt(nil, email, clientIP, userAgent, false, models.FailureRateLimited)
		return nil, &RateLimitedError{RetryAfter: d.RetryAfter}
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordFailure(nil, email, clientIP, userAgent, models.FailureBadCredentials)
		return nil, ErrInvalidCredentials
	}

	// персистентная блокировка переживает рестарт процесса
	if user.LockedUntil != nil && user.LockedUntil.After(s.Now()) {
		s.logAttempt(&user.ID, email, clientIP, userAgent, false, models.FailureLockedOut)
		return nil, &RateLimitedError{RetryAfter: user.LockedUntil.Sub(s.Now()).Round(time.Second)}
	}

	if !s.CheckPassword(password, user.PasswordHash) {
		s.recordFailure(user, email, clientIP, userAgent, models.FailureBadCredentials)
		return nil, ErrInvalidCredentials
	}

	if !user.Verified() {
		// различимая ошибка: фронту нужно показать экран подтверждения
		s.logAttempt(&user.ID, email, clientIP, userAgent, false, models.FailureUnverified)
		return nil, ErrUnverified
	}

	// полный успех — чистим обе защиты и счётчик в БД
	if err := s.ipLimiter.Clear(ipKey(clientIP)); err != nil {
		log.Printf("[auth][login] limiter clear ip failed: %v", err)
	}
	if err := s.acctLimiter.Clear(acctKey(email)); err != nil {
		log.Printf("[auth][login] limiter clear acct failed: %v", err)
	}
	if err := s.users.ClearLoginFailures(email, clientIP); err != nil {
		return nil, err
	}
	s.logAttempt(&user.ID, email, clientIP, userAgent, true, "")

	access, err := s.tokens.IssueSession(user.ID, user.UserType, req.RememberMe)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewOpaqueToken(32)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefresh(user.ID, refresh, s.Now().Add(30*24*time.Hour)); err != nil {
		return nil, err
	}

	log.Printf("[auth][login] ok user_id=%s type=%s", user.ID, user.UserType)
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh — ротация opaque refresh-токена и новый access.
func (s *AuthService) Refresh(oldToken string) (*LoginResult, error) {
	oldToken = strings.TrimSpace(oldToken)
	user, err := s.users.GetByRefreshToken(oldToken)
	if err != nil {
		return nil, err
	}
	if user == nil || user.RefreshToken == nil || user.RefreshExpiresAt == nil || user.RefreshRevoked {
		return nil, ErrInvalidToken
	}
	if s.Now().After(*user.RefreshExpiresAt) {
		return nil, ErrInvalidToken
	}

	newRT, err := utils.NewOpaqueToken(32)
	if err != nil {
		return nil, err
	}
	rotated, err := s.users.RotateRefresh(oldToken, newRT, s.Now().Add(30*24*time.Hour))
	if err != nil {
		return nil, err
	}
	if rotated == nil {
		return nil, ErrInvalidToken
	}

	access, err := s.tokens.IssueSession(rotated.ID, rotated.UserType, false)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: rotated, AccessToken: access, RefreshToken: newRT}, nil
}

// recordFailure — неудача в обе защиты плюс персистентный счётчик аккаунта.
func (s *AuthService) recordFailure(user *models.User, email, ip, userAgent, reason string) {
	if _, err := s.ipLimiter.Fail(ipKey(ip)); err != nil {
		log.Printf("[auth][login] ip limiter: %v", err)
	}
	if _, err := s.acctLimiter.Fail(acctKey(email)); err != nil {
		log.Printf("[auth][login] acct limiter: %v", err)
	}
	if user != nil {
		attempts, err := s.users.RecordLoginFailure(email)
		if err != nil {
			log.Printf("[auth][login] record failure: %v", err)
		} else if attempts >= s.maxAttempts {
			if err := s.users.SetLockout(email, s.Now().Add(s.lockoutDuration)); err != nil {
				log.Printf("[auth][login] set lockout: %v", err)
			}
		}
	}
	var uid *string
	if user != nil {
		uid = &user.ID
	}
	s.logAttempt(uid, email, ip, userAgent, false, reason)
}

func (s *AuthService) logAttempt(userID *string, email, ip, userAgent string, success bool, reason string) {
	if s.logs == nil {
		return
	}
	err := s.logs.Create(&models.LoginLog{
		UserID:        userID,
		Email:         email,
		IPAddress:     ip,
		UserAgent:     userAgent,
		Success:       success,
		FailureReason: reason,
	})
	if err != nil {
		log.Printf("[auth][log] write failed: %v", err)
	}
}
