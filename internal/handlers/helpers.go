package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gruzclick/internal/services"
)

func getStringFromCtx(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getUserAndRole(c *gin.Context) (userID, userType string) {
	if id, ok := getStringFromCtx(c, "user_id"); ok {
		userID = id
	}
	if t, ok := getStringFromCtx(c, "user_type"); ok {
		userType = t
	}
	return
}

// respondError переводит ошибки сервисного слоя в HTTP-ответ. Детали
// неудачных входов наружу не уходят, точная причина остаётся в логах.
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		return
	}
	var rl *services.RateLimitedError
	if errors.As(err, &rl) {
		c.Header("Retry-After", fmt.Sprintf("%d", int(rl.RetryAfter.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many attempts. Try again later.",
			"retry_after": int(rl.RetryAfter.Seconds()),
		})
		return
	}
	var de *services.DeliveryError
	if errors.As(err, &de) {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Failed to deliver code via %s", de.Channel)})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, services.ErrUnverified):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is not verified", "verification_required": true})
	case errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
	case errors.Is(err, services.ErrPhoneTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone already registered"})
	case errors.Is(err, services.ErrCodeInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
	case errors.Is(err, services.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code expired, request a new one"})
	case errors.Is(err, services.ErrTooManyAttempts):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many wrong attempts, request a new code"})
	case errors.Is(err, services.ErrResendThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Code was sent recently. Try again later."})
	case errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
