package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gruzclick/internal/models"
	"gruzclick/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// @Summary      Профиль пользователя
// @Description  Разделы: all, personal, addresses, vehicles (параметр section)
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Param        section  query     string  false  "Раздел профиля"  default(all)
// @Success      200      {object}  services.Profile
// @Router       /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	section := c.DefaultQuery("section", "all")
	switch section {
	case "all", "personal", "addresses", "vehicles":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown section"})
		return
	}

	p, err := h.profiles.Get(userID, section)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Обновление профиля
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.UpdateProfileRequest  true  "Изменения"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Router       /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.profiles.UpdatePersonal(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// @Summary      Добавление адреса
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.Address  true  "Адрес"
// @Success      201      {object}  map[string]interface{}
// @Router       /profile/addresses [post]
func (h *ProfileHandler) AddAddress(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.profiles.AddAddress(userID, &addr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Address added", "address": addr})
}

// @Summary      Удаление адреса
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "ID адреса"
// @Success      200  {object}  map[string]string
// @Router       /profile/addresses/{id} [delete]
func (h *ProfileHandler) DeleteAddress(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address ID"})
		return
	}
	if err := h.profiles.DeleteAddress(userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}
