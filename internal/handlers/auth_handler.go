package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gruzclick/internal/models"
	"gruzclick/internal/services"
)

// AuthHandler — один эндпоинт /auth с мультиплексом по action,
// как ждёт фронтенд, плюс отдельный /auth/refresh.
type AuthHandler struct {
	auth   *services.AuthService
	resets *services.PasswordResetService
}

func NewAuthHandler(auth *services.AuthService, resets *services.PasswordResetService) *AuthHandler {
	return &AuthHandler{auth: auth, resets: resets}
}

type authRequest struct {
	Action string `json:"action" binding:"required"`

	// register
	models.RegisterRequest

	// login
	RememberMe bool `json:"remember_me"`

	// reset_password
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// @Summary      Регистрация и вход
// @Description  Мультиплекс по полю action: register, login, send_reset_code, reset_password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      authRequest  true  "Данные запроса"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Router       /auth [post]
func (h *AuthHandler) Handle(c *gin.Context) {
	start := time.Now()

	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "register":
		h.register(c, &req)
	case "login":
		h.login(c, &req)
	case "send_reset_code":
		h.sendResetCode(c, &req)
	case "reset_password":
		h.resetPassword(c, &req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
		return
	}
	log.Printf("[auth] action=%s took=%s", req.Action, time.Since(start).Truncate(time.Millisecond))
}

func (h *AuthHandler) register(c *gin.Context, req *authRequest) {
	user, err := h.auth.Register(&req.RegisterRequest, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	// токен не выдаём: сначала подтверждение через /verify
	c.JSON(http.StatusCreated, gin.H{
		"message":               "Registration successful. Confirm your account with the code we sent.",
		"user":                  user,
		"verification_required": true,
	})
}

func (h *AuthHandler) login(c *gin.Context, req *authRequest) {
	res, err := h.auth.Login(&models.LoginRequest{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    res.User, // PasswordHash помечен json:"-", наружу не уйдёт
		"tokens": gin.H{
			"access_token":  res.AccessToken,
			"refresh_token": res.RefreshToken, // отдаём клиенту, но не логируем
		},
	})
}

func (h *AuthHandler) sendResetCode(c *gin.Context, req *authRequest) {
	if err := h.resets.RequestReset(req.Email); err != nil {
		respondError(c, err)
		return
	}
	// ответ одинаков для любых адресов
	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset code has been sent"})
}

func (h *AuthHandler) resetPassword(c *gin.Context, req *authRequest) {
	if err := h.resets.ResetPassword(req.Email, req.Code, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// @Summary      Обновление токенов
// @Description  Ротация refresh-токена и выпуск нового access-токена
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken, // возвращаем новый (ротация)
	})
}
