package routes

import (
	"github.com/gin-gonic/gin"

	"gruzclick/internal/authz"
	"gruzclick/internal/handlers"
	"gruzclick/internal/middleware"
	"gruzclick/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	tokens *services.TokenService,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	verifyHandler *handlers.VerifyHandler,
	deliveryHandler *handlers.DeliveryHandler,
	vehicleHandler *handlers.VehicleHandler,
	profileHandler *handlers.ProfileHandler,
	mapHandler *handlers.MapHandler,
) *gin.Engine {

	// ---- public
	r.POST("/auth", authHandler.Handle)
	r.POST("/auth/refresh", authHandler.RefreshToken)
	r.POST("/admin/auth", adminHandler.Handle)
	r.POST("/verify", verifyHandler.Handle)
	r.POST("/verify/license", vehicleHandler.VerifyLicense)
	r.GET("/map-data", mapHandler.Markers)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// ---- protected
	r.Use(middleware.AuthMiddleware(tokens))

	// DELIVERIES
	deliveries := r.Group("/deliveries")
	{
		deliveries.GET("", deliveryHandler.List)
		deliveries.POST("", deliveryHandler.Create)
		deliveries.PUT("", deliveryHandler.Update)
		deliveries.GET("/:id/waybill", deliveryHandler.Waybill)
		deliveries.GET("/:id/receipt", deliveryHandler.Receipt)
	}

	// VEHICLES (перевозчики и админ)
	vehicles := r.Group("/vehicles",
		middleware.RequireRoles(authz.RoleCarrier, authz.RoleAdmin),
	)
	{
		vehicles.GET("", vehicleHandler.List)
		vehicles.POST("", vehicleHandler.Save)
		vehicles.DELETE("/:id", vehicleHandler.Delete)
	}

	// PROFILE
	profile := r.Group("/profile")
	{
		profile.GET("", profileHandler.Get)
		profile.PUT("", profileHandler.Update)
		profile.POST("/addresses", profileHandler.AddAddress)
		profile.DELETE("/addresses/:id", profileHandler.DeleteAddress)
	}

	return r
}
