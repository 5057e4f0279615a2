package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"clinicagenda/handlers"
	"clinicagenda/middleware"
)

// HandlerBundle groups the handlers wired in main.
type HandlerBundle struct {
	Chat         *handlers.ChatHandler
	Availability *handlers.AvailabilityHandler
	Admin        *handlers.AdminHandler
}

// RegisterChatRoutes registers the conversation endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.POST("/webhook", hb.Chat.TelegramWebhook)

	api := r.Group("/api/chat")
	{
		api.POST("", hb.Chat.Chat)
		api.DELETE("/session/:sessionID", hb.Chat.ResetSession)
	}
}

// RegisterAvailabilityRoutes registers the read-only availability query.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.GET("/api/horarios", hb.Availability.GetAvailableSlots)
}

// RegisterAdminRoutes sets up endpoints for the clinic staff view.
func RegisterAdminRoutes(r *gin.Engine, hb *HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminAuthMiddleware())
		adminGroup.GET("/consultas", hb.Admin.ListBookings)
		adminGroup.DELETE("/consultas/:id", hb.Admin.CancelBooking)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterChatRoutes(r, hb)
	RegisterAvailabilityRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
}
