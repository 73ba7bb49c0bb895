package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gruzclick/internal/models"
	"gruzclick/internal/services"
)

type VehicleHandler struct {
	vehicles *services.VehicleService
}

func NewVehicleHandler(vehicles *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

// @Summary      Мой транспорт
// @Tags         Vehicles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /vehicles [get]
func (h *VehicleHandler) List(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	vehicles, err := h.vehicles.List(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

// @Summary      Сохранение транспорта
// @Description  Заменяет список машин пользователя целиком
// @Tags         Vehicles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /vehicles [post]
func (h *VehicleHandler) Save(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		Vehicles []*models.Vehicle `json:"vehicles" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.vehicles.Save(userID, req.Vehicles); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicles saved"})
}

// @Summary      Удаление машины
// @Tags         Vehicles
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "ID машины"
// @Success      200  {object}  map[string]string
// @Router       /vehicles/{id} [delete]
func (h *VehicleHandler) Delete(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return
	}
	if err := h.vehicles.Delete(userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted"})
}

// @Summary      Проверка водительского удостоверения
// @Tags         Vehicles
// @Accept       json
// @Produce      json
// @Success      200  {object}  services.LicenseCheckResult
// @Failure      400  {object}  map[string]string
// @Router       /verify/license [post]
func (h *VehicleHandler) VerifyLicense(c *gin.Context) {
	var req struct {
		LicenseNumber string `json:"license_number"`
		BirthDate     string `json:"birth_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.vehicles.VerifyLicense(req.LicenseNumber, req.BirthDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
