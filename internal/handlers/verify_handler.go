package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gruzclick/internal/models"
	"gruzclick/internal/repositories"
	"gruzclick/internal/services"
	"gruzclick/internal/utils"
)

// VerifyHandler — отправка и проверка одноразовых кодов (email/SMS/Telegram).
// Для Telegram проверка кода работает и как вход: если username уже привязан
// к аккаунту, выдаём токен сессии.
type VerifyHandler struct {
	verif  *services.VerificationService
	users  repositories.UserRepository
	tokens *services.TokenService

	// отладочный режим: код возвращается в ответе вместо отправки наружу
	exposeCodes bool
}

func NewVerifyHandler(
	verif *services.VerificationService,
	users repositories.UserRepository,
	tokens *services.TokenService,
	exposeCodes bool,
) *VerifyHandler {
	return &VerifyHandler{verif: verif, users: users, tokens: tokens, exposeCodes: exposeCodes}
}

type verifyRequest struct {
	Action      string `json:"action" binding:"required"` // send_code | verify_code
	Channel     string `json:"channel" binding:"required"`
	Destination string `json:"destination" binding:"required"` // email / телефон / telegram username
	Code        string `json:"code"`
}

// @Summary      Коды подтверждения
// @Description  Мультиплекс по action: send_code отправляет код по каналу, verify_code проверяет его
// @Tags         Verify
// @Accept       json
// @Produce      json
// @Param        request  body      verifyRequest  true  "Данные запроса"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Router       /verify [post]
func (h *VerifyHandler) Handle(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Channel {
	case models.ChannelEmail, models.ChannelSMS, models.ChannelTelegram:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown channel"})
		return
	}
	dest := normalizeDestination(req.Channel, req.Destination)
	if dest == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination"})
		return
	}

	switch req.Action {
	case "send_code":
		h.sendCode(c, req.Channel, dest)
	case "verify_code":
		h.verifyCode(c, req.Channel, dest, strings.TrimSpace(req.Code))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
	}
}

func normalizeDestination(channel, dest string) string {
	dest = strings.TrimSpace(dest)
	switch channel {
	case models.ChannelEmail:
		dest = strings.ToLower(dest)
		if !utils.ValidateEmail(dest) {
			return ""
		}
	case models.ChannelSMS:
		dest = utils.NormalizePhone(dest)
		if !utils.ValidatePhone(dest) {
			return ""
		}
	case models.ChannelTelegram:
		dest = strings.TrimPrefix(dest, "@")
		if dest == "" {
			return ""
		}
	}
	return dest
}

func (h *VerifyHandler) sendCode(c *gin.Context, channel, dest string) {
	// код привязываем к аккаунту, если адресат уже зарегистрирован
	userID := h.lookupUserID(channel, dest)

	code, err := h.verif.SendCode(userID, dest, channel)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"message": "Code sent"}
	if h.exposeCodes {
		resp["code"] = code
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VerifyHandler) verifyCode(c *gin.Context, channel, dest, code string) {
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code is required"})
		return
	}
	if _, err := h.verif.VerifyCode(dest, channel, code); err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"message": "Code confirmed", "verified": true}

	// вход по Telegram: привязанный username получает сессию сразу
	if channel == models.ChannelTelegram {
		user, err := h.users.GetByTelegram(dest)
		if err != nil {
			log.Printf("[verify][telegram] lookup failed: %v", err)
		}
		if user != nil {
			token, err := h.tokens.IssueSession(user.ID, user.UserType, false)
			if err != nil {
				respondError(c, err)
				return
			}
			resp["user"] = user
			resp["access_token"] = token
		} else {
			// код верный, но аккаунта нет: фронт ведёт на регистрацию
			resp["registration_required"] = true
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VerifyHandler) lookupUserID(channel, dest string) *string {
	var (
		user *models.User
		err  error
	)
	switch channel {
	case models.ChannelEmail:
		user, err = h.users.GetByEmail(dest)
	case models.ChannelSMS:
		user, err = h.users.GetByPhone(dest)
	case models.ChannelTelegram:
		user, err = h.users.GetByTelegram(dest)
	}
	if err != nil {
		log.Printf("[verify][send] user lookup failed: %v", err)
		return nil
	}
	if user == nil {
		return nil
	}
	return &user.ID
}
