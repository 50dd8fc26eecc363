package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/middleware"
	"github.com/jobnest/jobnest_backend/websocket"
)

// SetupRoutes wires every route group onto the Echo instance
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "JobNest API is running")
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	// Push endpoint authenticates inside the handler; a missing token still
	// gets a connection, just without a personal group.
	api.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(c, hub)
	})

	RegisterAuthRoutes(api, db)

	protected := api.Group("")
	protected.Use(middleware.JWTMiddleware())

	RegisterJobRoutes(protected, db, hub)
	RegisterApplicationRoutes(protected, db, hub)
	RegisterNotificationRoutes(protected, db)
}
