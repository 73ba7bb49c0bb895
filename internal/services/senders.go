package services

import (
	"fmt"

	"gruzclick/internal/models"
	"gruzclick/internal/utils"
)

// Адаптеры каналов под CodeSender.

type emailCodeSender struct {
	emails EmailService
}

func (s emailCodeSender) SendCode(destination, code string) error {
	return s.emails.SendVerificationCode(destination, code)
}

type smsCodeSender struct {
	client *utils.Client
}

func (s smsCodeSender) SendCode(destination, code string) error {
	text := fmt.Sprintf("Код подтверждения ГрузКлик: %s", code)
	if _, err := s.client.SendSMS(destination, text); err != nil {
		return err
	}
	return nil
}

type telegramCodeSender struct {
	tg *TelegramService
}

func (s telegramCodeSender) SendCode(destination, code string) error {
	return s.tg.SendCodeToUsername(destination, code)
}

// NewChannelSenders собирает карту каналов для VerificationService.
func NewChannelSenders(emails EmailService, sms *utils.Client, tg *TelegramService) map[string]CodeSender {
	return map[string]CodeSender{
		models.ChannelEmail:    emailCodeSender{emails: emails},
		models.ChannelSMS:      smsCodeSender{client: sms},
		models.ChannelTelegram: telegramCodeSender{tg: tg},
	}
}
