package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/controllers"
)

// RegisterAuthRoutes wires the public authentication endpoints
func RegisterAuthRoutes(api *echo.Group, db *mongo.Client) {
	controller := controllers.NewAuthController(db)

	auth := api.Group("/auth")
	auth.POST("/login", controller.Login)
}
