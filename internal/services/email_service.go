package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationCode(email, code string) error
	SendPasswordResetCode(email, code string) error
	SendWelcomeEmail(email, fullName string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	dryRun bool // SMTP не настроен — пишем в лог вместо отправки
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dryRun := smtpHost == "" || smtpUser == ""
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		dryRun: dryRun,
	}
}

func (s *emailService) send(to, subject, htmlBody string) error {
	if s.dryRun {
		log.Printf("[email][dry-run] to=%s subject=%q", to, subject)
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *emailService) SendVerificationCode(email, code string) error {
	body := fmt.Sprintf(`
		<h2>Подтверждение email</h2>
		<p>Ваш код подтверждения:</p>
		<div style="background: #f0f0f0; padding: 20px; font-size: 24px; font-weight: bold; text-align: center;">%s</div>
		<p style="color: #666; font-size: 12px;">Код действителен 15 минут.</p>
	`, code)
	return s.send(email, "Код подтверждения - ГрузКлик", body)
}

func (s *emailService) SendPasswordResetCode(email, code string) error {
	body := fmt.Sprintf(`
		<h2>Восстановление пароля</h2>
		<p>Ваш код:</p>
		<div style="background: #f0f0f0; padding: 20px; font-size: 24px; font-weight: bold; text-align: center;">%s</div>
		<p style="color: #666; font-size: 12px;">Код действителен 15 минут.</p>
	`, code)
	return s.send(email, "Код восстановления пароля - ГрузКлик", body)
}

func (s *emailService) SendWelcomeEmail(email, fullName string) error {
	body := fmt.Sprintf(`
		<h2>Добро пожаловать в ГрузКлик, %s!</h2>
		<p>Регистрация прошла успешно. Подтвердите email, чтобы начать работу.</p>
	`, fullName)
	return s.send(email, "Добро пожаловать в ГрузКлик", body)
}
