package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gruzclick/internal/services"
)

type MapHandler struct {
	maps *services.MapService
}

func NewMapHandler(maps *services.MapService) *MapHandler {
	return &MapHandler{maps: maps}
}

// @Summary      Данные для карты
// @Description  Маркеры свободных грузов и водителей
// @Tags         Map
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /map-data [get]
func (h *MapHandler) Markers(c *gin.Context) {
	markers, err := h.maps.Markers()
	if err != nil {
		log.Printf("[map][markers] %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markers": markers})
}
