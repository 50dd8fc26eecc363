package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/controllers"
	"github.com/jobnest/jobnest_backend/middleware"
	"github.com/jobnest/jobnest_backend/models"
	"github.com/jobnest/jobnest_backend/websocket"
)

// RegisterApplicationRoutes wires the application and read-state endpoints
func RegisterApplicationRoutes(api *echo.Group, db *mongo.Client, hub *websocket.Hub) {
	controller := controllers.NewApplicationController(db, hub)
	employer := middleware.RequireUserType(models.UserTypeEmployer)
	candidate := middleware.RequireUserType(models.UserTypeCandidate)

	apps := api.Group("/applications")

	// Employer side
	apps.GET("/employer/summary", controller.GetSummary, employer)
	apps.GET("/employer/job-counts", controller.GetJobCounts, employer)
	apps.GET("/employer/unread-count", controller.GetUnreadCount, employer)
	apps.GET("/employer", controller.GetEmployerApplications, employer)
	apps.GET("/jobs/:jobId", controller.GetJobApplications, employer)
	apps.POST("/employer/jobs/:jobId/mark-read", controller.MarkJobApplicationsRead, employer)
	apps.POST("/employer/mark-all-read", controller.MarkAllApplicationsRead, employer)
	apps.PUT("/:id/status", controller.UpdateStatus, employer)

	// Candidate side
	apps.POST("/jobs/:jobId/apply", controller.Apply, candidate)
	apps.GET("/candidate", controller.GetCandidateHistory, candidate)
	apps.GET("/candidate/status-digest", controller.GetCandidateStatusDigest, candidate)
}
