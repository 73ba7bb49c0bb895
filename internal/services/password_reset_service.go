package services

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gruzclick/internal/repositories"
	"gruzclick/internal/utils"
)

const resetCodeTTL = 15 * time.Minute

// PasswordResetService — восстановление пароля пользователя по email-коду.
// Ответ на запрос кода одинаков для существующих и несуществующих адресов.
type PasswordResetService struct {
	users  repositories.UserRepository
	repo   repositories.PasswordResetRepository
	emails EmailService
	auth   *AuthService

	// Now подменяется в тестах.
	Now func() time.Time
}

func NewPasswordResetService(
	users repositories.UserRepository,
	repo repositories.PasswordResetRepository,
	emails EmailService,
	auth *AuthService,
) *PasswordResetService {
	return &PasswordResetService{
		users:  users,
		repo:   repo,
		emails: emails,
		auth:   auth,
		Now:    time.Now,
	}
}

// RequestReset — код уходит только на зарегистрированный email, но ответ
// всегда одинаковый: существование аккаунта не раскрываем.
func (s *PasswordResetService) RequestReset(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Validation("email is required")
	}

	user, err := s.users.GetByEmail(email)
	if err != nil || user == nil {
		log.Printf("[password-reset] request for unknown email, err=%v", err)
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
	if _, err := s.repo.Create(email, string(hash), s.Now().Add(resetCodeTTL)); err != nil {
		return err
	}

	if err := s.emails.SendPasswordResetCode(email, code); err != nil {
		// не раскрываем существование адреса ошибкой доставки
		log.Printf("[password-reset] email send failed: %v", err)
	}
	return nil
}

// ResetPassword — код одноразовый; потраченный и несуществующий коды
// снаружи неотличимы. Перебор ограничен тем же потолком попыток, что и
// у кодов подтверждения: после него код протухает.
func (s *PasswordResetService) ResetPassword(email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" || newPassword == "" {
		return Validation("email, code and new password are required")
	}
	if ok, msg := utils.ValidatePassword(newPassword); !ok {
		return Validation("%s", msg)
	}

	pr, err := s.repo.GetLatestActive(email, s.Now())
	if err != nil {
		return err
	}
	if pr == nil {
		return ErrCodeInvalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(pr.CodeHash), []byte(code)); err != nil {
		attempts, incErr := s.repo.IncrementAttempts(pr.ID)
		if incErr != nil {
			return incErr
		}
		if attempts >= maxConfirmAttempts {
			_ = s.repo.ExpireNow(pr.ID)
			return ErrTooManyAttempts
		}
		return ErrCodeInvalid
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrCodeInvalid
	}
	// пароль пишем до гашения кода: если запись упадёт, код останется живым
	if err := s.users.UpdatePassword(user.ID, hash); err != nil {
		return err
	}
	ok, err := s.repo.MarkUsed(pr.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeInvalid
	}
	log.Printf("[password-reset] ok user_id=%s", user.ID)
	return nil
}
