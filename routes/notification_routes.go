package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/controllers"
)

// RegisterNotificationRoutes wires the persisted notification endpoints
func RegisterNotificationRoutes(api *echo.Group, db *mongo.Client) {
	controller := controllers.NewNotificationController(db)

	notifications := api.Group("/notifications")
	notifications.GET("", controller.GetNotifications)
	notifications.GET("/unread-count", controller.GetUnreadCount)
	notifications.POST("/:id/read", controller.MarkRead)
	notifications.POST("/read-all", controller.MarkAllRead)
}
