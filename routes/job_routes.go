package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/controllers"
	"github.com/jobnest/jobnest_backend/middleware"
	"github.com/jobnest/jobnest_backend/models"
	"github.com/jobnest/jobnest_backend/websocket"
)

// RegisterJobRoutes wires the job posting endpoints
func RegisterJobRoutes(api *echo.Group, db *mongo.Client, hub *websocket.Hub) {
	controller := controllers.NewJobController(db, hub)

	jobs := api.Group("/jobs")
	jobs.GET("/:id", controller.GetJob)
	jobs.GET("/mine", controller.GetMyJobs, middleware.RequireUserType(models.UserTypeEmployer))
	jobs.POST("", controller.CreateJob, middleware.RequireUserType(models.UserTypeEmployer))
}
