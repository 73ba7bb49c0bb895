package services

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gruzclick/internal/repositories"
)

// TelegramService — доставка кодов в Telegram и бот привязки.
// Код уходит только пользователю, который уже написал боту /start:
// до этого chat_id неизвестен и доставка честно падает.
type TelegramService struct {
	bot    *tgbotapi.BotAPI
	users  repositories.UserRepository
	dryRun bool
}

func NewTelegramService(botToken string, dryRun bool, users repositories.UserRepository) (*TelegramService, error) {
	s := &TelegramService{users: users, dryRun: dryRun || botToken == ""}
	if s.dryRun {
		return s, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	s.bot = bot
	log.Printf("[tg] authorized as @%s", bot.Self.UserName)
	return s, nil
}

func (s *TelegramService) SendMessage(chatID int64, text string) error {
	if s.dryRun {
		log.Printf("[tg][dry-run] chatID=%d", chatID)
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// SendCodeToUsername — ищем chat_id по привязанному username.
func (s *TelegramService) SendCodeToUsername(username, code string) error {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	user, err := s.users.GetByTelegram(username)
	if err != nil {
		return err
	}
	if user == nil || user.TelegramChatID == 0 {
		return fmt.Errorf("telegram @%s is not linked, ask the user to /start the bot", username)
	}
	text := fmt.Sprintf("Код подтверждения ГрузКлик: <b>%s</b>\nКод действителен 10 минут.", code)
	return s.SendMessage(user.TelegramChatID, text)
}

// Broadcast — рассылка по всем привязанным чатам. Возвращает число
// доставленных сообщений; ошибки отдельных чатов не прерывают рассылку.
func (s *TelegramService) Broadcast(text string) (int, error) {
	ids, err := s.users.ListTelegramChatIDs()
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, id := range ids {
		if err := s.SendMessage(id, text); err != nil {
			log.Printf("[tg][broadcast] chatID=%d err=%v", id, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Run — long-poll бота: /start привязывает chat_id к username отправителя.
// Запускается отдельной горутиной из app.
func (s *TelegramService) Run() {
	if s.dryRun {
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := s.bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		msg := update.Message
		if !msg.IsCommand() || msg.Command() != "start" {
			continue
		}
		username := msg.From.UserName
		if username == "" {
			_ = s.SendMessage(msg.Chat.ID, "У вашего аккаунта нет username — задайте его в настройках Telegram и повторите /start.")
			continue
		}
		if err := s.users.LinkTelegramChat(username, msg.Chat.ID); err != nil {
			log.Printf("[tg][start] link failed: username=%s err=%v", username, err)
			continue
		}
		log.Printf("[tg][start] linked @%s chatID=%d", username, msg.Chat.ID)
		_ = s.SendMessage(msg.Chat.ID, "Telegram привязан. Теперь сюда будут приходить коды подтверждения ГрузКлик.")
	}
}
