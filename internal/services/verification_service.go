package services

import (
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gruzclick/internal/models"
	"gruzclick/internal/repositories"
	"gruzclick/internal/utils"
)

// Настройки кодов подтверждения.
const (
	codeDigits          = 6
	emailCodeTTL        = 15 * time.Minute
	smsCodeTTL          = 10 * time.Minute
	telegramCodeTTL     = 10 * time.Minute
	maxConfirmAttempts  = 5
	maxResendsPerWindow = 3
	resendWindow        = 10 * time.Minute
)

// CodeSender — доставка кода по каналу (email/SMS/Telegram).
type CodeSender interface {
	SendCode(destination, code string) error
}

// VerificationService — одноразовые коды: выпуск, доставка, проверка.
// На пару (destination, channel) живёт один код; проверка одноразовая.
type VerificationService struct {
	repo    repositories.VerificationCodeRepository
	users   repositories.UserRepository
	senders map[string]CodeSender

	// Now подменяется в тестах.
	Now func() time.Time
}

func NewVerificationService(
	repo repositories.VerificationCodeRepository,
	users repositories.UserRepository,
	senders map[string]CodeSender,
) *VerificationService {
	return &VerificationService{
		repo:    repo,
		users:   users,
		senders: senders,
		Now:     time.Now,
	}
}

func codeTTL(channel string) time.Duration {
	switch channel {
	case models.ChannelEmail:
		return emailCodeTTL
	case models.ChannelSMS:
		return smsCodeTTL
	default:
		return telegramCodeTTL
	}
}

// SendCode выпускает и отправляет код. Прежний живой код пары гасится.
// Если канал не доставил — код отзывается, наружу уходит DeliveryError:
// висящий недоставляемый код лишь расширяет окно перебора.
func (s *VerificationService) SendCode(userID *string, destination, channel string) (string, error) {
	sender, ok := s.senders[channel]
	if !ok {
		return "", Validation("unsupported channel: %s", channel)
	}

	// Троттлинг отправок: не чаще 3/10мин на адресата.
	since := s.Now().Add(-resendWindow)
	cnt, err := s.repo.CountRecentSends(destination, channel, since)
	if err != nil {
		return "", err
	}
	if cnt >= maxResendsPerWindow {
		return "", ErrResendThrottled
	}

	code, err := utils.NewNumericCode(codeDigits)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	sentAt := s.Now()
	rec := &models.VerificationCode{
		UserID:      userID,
		Destination: destination,
		Channel:     channel,
		CodeHash:    string(hash),
		SentAt:      sentAt,
		ExpiresAt:   sentAt.Add(codeTTL(channel)),
	}
	if err := s.repo.Create(rec); err != nil {
		return "", err
	}

	if err := sender.SendCode(destination, code); err != nil {
		// канал не доставил — отзываем код
		if delErr := s.repo.Delete(rec.ID); delErr != nil {
			log.Printf("[verify][send] retract failed: id=%d err=%v", rec.ID, delErr)
		}
		return "", &DeliveryError{Channel: channel, Err: err}
	}

	log.Printf("[verify][send] ok channel=%s dest=%s", channel, destination)
	return code, nil
}

// VerifyCode — срок проверяется до сверки; совпадение тратит код ровно
// один раз; повтор с тем же кодом неотличим от неверного кода.
func (s *VerificationService) VerifyCode(destination, channel, code string) (*models.VerificationCode, error) {
	v, err := s.repo.GetActive(destination, channel)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrCodeInvalid
	}
	if s.Now().After(v.ExpiresAt) {
		return nil, ErrCodeExpired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)); err != nil {
		attempts, incErr := s.repo.IncrementAttempts(v.ID)
		if incErr != nil {
			return nil, incErr
		}
		if attempts >= maxConfirmAttempts {
			_ = s.repo.ExpireNow(v.ID)
			return nil, ErrTooManyAttempts
		}
		return nil, ErrCodeInvalid
	}

	ok, err := s.repo.MarkUsed(v.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// конкурентный запрос успел потратить код
		return nil, ErrCodeInvalid
	}

	if v.UserID != nil {
		if err := s.users.MarkVerified(*v.UserID, channel); err != nil {
			return nil, err
		}
	}
	log.Printf("[verify][confirm] ok channel=%s dest=%s", channel, destination)
	return v, nil
}
