package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gruzclick/internal/authz"
	"gruzclick/internal/services"
)

// AdminHandler — единый /admin/auth с мультиплексом по action.
// Вход и регистрация открыты, выгрузки и переключатели требуют
// валидный админский токен в запросе.
type AdminHandler struct {
	admins *services.AdminService
	tokens *services.TokenService
}

func NewAdminHandler(admins *services.AdminService, tokens *services.TokenService) *AdminHandler {
	return &AdminHandler{admins: admins, tokens: tokens}
}

type adminRequest struct {
	Action string `json:"action" binding:"required"`

	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`

	Token string `json:"token"` // для действий, требующих админских прав

	UserID     string `json:"user_id"`
	DeliveryID string `json:"delivery_id"`
	Status     string `json:"status"`
	Message    string `json:"message"` // broadcast
}

// @Summary      Админские операции
// @Description  Мультиплекс по action: register, login, send_reset_code, reset_password, get_stats, get_users, get_deliveries, update_user_status, update_delivery_status, broadcast
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body      adminRequest  true  "Данные запроса"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Router       /admin/auth [post]
func (h *AdminHandler) Handle(c *gin.Context) {
	var req adminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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
	case "get_stats", "get_users", "get_deliveries", "update_user_status",
		"update_delivery_status", "broadcast":
		if !h.requireAdminToken(c, req.Token) {
			return
		}
		h.protected(c, &req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
	}
}

func (h *AdminHandler) requireAdminToken(c *gin.Context, token string) bool {
	if token == "" {
		token = extractBearer(c)
	}
	claims, err := h.tokens.Validate(token)
	if err != nil || claims.UserType != authz.RoleAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin token required"})
		return false
	}
	return true
}

func extractBearer(c *gin.Context) string {
	const prefix = "Bearer "
	auth := c.GetHeader("Authorization")
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}

func (h *AdminHandler) register(c *gin.Context, req *adminRequest) {
	res, err := h.admins.Register(req.Email, req.Password, req.FullName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"admin": res.Admin, "token": res.Token})
}

func (h *AdminHandler) login(c *gin.Context, req *adminRequest) {
	res, err := h.admins.Login(req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": res.Admin, "token": res.Token})
}

func (h *AdminHandler) sendResetCode(c *gin.Context, req *adminRequest) {
	if err := h.admins.SendResetCode(req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset code has been sent"})
}

func (h *AdminHandler) resetPassword(c *gin.Context, req *adminRequest) {
	if err := h.admins.ResetPassword(req.Email, req.Code, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *AdminHandler) protected(c *gin.Context, req *adminRequest) {
	switch req.Action {
	case "get_stats":
		stats, err := h.admins.GetStats()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats})
	case "get_users":
		users, err := h.admins.ListUsers()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	case "get_deliveries":
		deliveries, err := h.admins.ListDeliveries()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deliveries": deliveries})
	case "update_user_status":
		if err := h.admins.UpdateUserStatus(req.UserID, req.Status); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User status updated"})
	case "update_delivery_status":
		if err := h.admins.UpdateDeliveryStatus(req.DeliveryID, req.Status); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Delivery status updated"})
	case "broadcast":
		sent, err := h.admins.Broadcast(req.Message)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Broadcast sent", "sent": sent})
	}
}
