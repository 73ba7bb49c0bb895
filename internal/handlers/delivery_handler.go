package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gruzclick/internal/authz"
	"gruzclick/internal/models"
	"gruzclick/internal/pdf"
	"gruzclick/internal/repositories"
	"gruzclick/internal/services"
)

type DeliveryHandler struct {
	deliveries *services.DeliveryService
	users      repositories.UserRepository
	waybills   pdf.Generator
}

func NewDeliveryHandler(
	deliveries *services.DeliveryService,
	users repositories.UserRepository,
	waybills pdf.Generator,
) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries, users: users, waybills: waybills}
}

// @Summary      Список заявок
// @Description  Клиент видит свои заявки, перевозчик свои и свободные
// @Tags         Deliveries
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /deliveries [get]
func (h *DeliveryHandler) List(c *gin.Context) {
	userID, userType := getUserAndRole(c)
	deliveries, err := h.deliveries.List(userID, userType)
	if err != nil {
		log.Printf("[deliveries][list] %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": deliveries})
}

// @Summary      Создание заявки
// @Tags         Deliveries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.CreateDeliveryRequest  true  "Заявка"
// @Success      201      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Router       /deliveries [post]
func (h *DeliveryHandler) Create(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req models.CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.deliveries.Create(&req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Delivery created", "delivery": d})
}

// @Summary      Обновление заявки
// @Description  Смена статуса либо захват свободной заявки перевозчиком
// @Tags         Deliveries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.UpdateDeliveryRequest  true  "Изменения"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Router       /deliveries [put]
func (h *DeliveryHandler) Update(c *gin.Context) {
	userID, userType := getUserAndRole(c)

	var req models.UpdateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// перевозчик берёт заявку на себя
	if req.CarrierID == nil && userType == authz.RoleCarrier && req.Status == models.DeliveryActive {
		req.CarrierID = &userID
	}
	if err := h.deliveries.Update(&req, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery updated"})
}

// @Summary      Накладная по заявке
// @Description  Генерирует PDF транспортной накладной
// @Tags         Deliveries
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "ID заявки"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /deliveries/{id}/waybill [get]
func (h *DeliveryHandler) Waybill(c *gin.Context) {
	userID, userType := getUserAndRole(c)
	deliveryID := c.Param("id")

	d, err := h.deliveries.GetByID(deliveryID)
	if err != nil {
		respondError(c, err)
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}
	// накладная доступна сторонам сделки и админу
	isParty := d.ClientID == userID || (d.CarrierID != nil && *d.CarrierID == userID)
	if !isParty && userType != authz.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	data := pdf.WaybillData{
		DeliveryID:       d.ID,
		PickupAddress:    d.PickupAddress,
		DeliveryAddress:  d.DeliveryAddress,
		WarehouseAddress: d.WarehouseAddress,
		CargoQuantity:    d.CargoQuantity,
		CargoUnit:        d.CargoUnit,
		Weight:           d.Weight,
		DeliveryPrice:    d.DeliveryPrice,
		ContactPhone:     d.ContactPhone,
	}
	if d.DeliveryDate != nil {
		data.DeliveryDate = *d.DeliveryDate
	} else {
		data.DeliveryDate = time.Now()
	}
	if client, err := h.users.GetByID(d.ClientID); err == nil && client != nil {
		data.ClientName = client.FullName
	}
	if d.CarrierID != nil {
		if carrier, err := h.users.GetByID(*d.CarrierID); err == nil && carrier != nil {
			data.CarrierName = carrier.FullName
		}
	}

	path, err := h.waybills.GenerateWaybill(data)
	if err != nil {
		log.Printf("[deliveries][waybill] generate failed: id=%s err=%v", d.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate waybill"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": "/files" + path})
}

// @Summary      Квитанция по выполненной заявке
// @Description  Генерирует PDF квитанции; доступна после статуса completed
// @Tags         Deliveries
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "ID заявки"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /deliveries/{id}/receipt [get]
func (h *DeliveryHandler) Receipt(c *gin.Context) {
	userID, userType := getUserAndRole(c)
	deliveryID := c.Param("id")

	d, err := h.deliveries.GetByID(deliveryID)
	if err != nil {
		respondError(c, err)
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}
	isParty := d.ClientID == userID || (d.CarrierID != nil && *d.CarrierID == userID)
	if !isParty && userType != authz.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if d.Status != models.DeliveryCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt is available for completed deliveries only"})
		return
	}

	data := pdf.ReceiptData{
		DeliveryID:    d.ID,
		DeliveryPrice: d.DeliveryPrice,
		CompletedAt:   time.Now(),
	}
	if d.DeliveryDate != nil {
		data.CompletedAt = *d.DeliveryDate
	}
	if client, err := h.users.GetByID(d.ClientID); err == nil && client != nil {
		data.ClientName = client.FullName
	}

	path, err := h.waybills.GenerateReceipt(data)
	if err != nil {
		log.Printf("[deliveries][receipt] generate failed: id=%s err=%v", d.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate receipt"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": "/files" + path})
}
