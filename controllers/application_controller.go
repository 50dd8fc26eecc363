package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/middleware"
	"github.com/jobnest/jobnest_backend/models"
	"github.com/jobnest/jobnest_backend/repositories"
	"github.com/jobnest/jobnest_backend/services"
	"github.com/jobnest/jobnest_backend/websocket"
)

type ApplicationController struct {
	service  *services.ApplicationService
	apps     *repositories.ApplicationRepository
	jobs     *repositories.JobRepository
	profiles *repositories.ProfileRepository
}

func NewApplicationController(db *mongo.Client, hub *websocket.Hub) *ApplicationController {
	return &ApplicationController{
		service:  services.NewApplicationService(db, hub),
		apps:     repositories.NewApplicationRepository(db),
		jobs:     repositories.NewJobRepository(db),
		profiles: repositories.NewProfileRepository(db),
	}
}

// employerID resolves the authenticated user to their employer profile id
func (ac *ApplicationController) employerID(c echo.Context) (primitive.ObjectID, error) {
	userID, err := requestUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}

	profile, err := ac.profiles.GetEmployerProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, echo.NewHTTPError(http.StatusNotFound, "Employer profile not found")
		}
		return primitive.NilObjectID, err
	}
	return profile.ID, nil
}

// GetSummary returns the employer's aggregate: per-job counts, total unread,
// and the recent applications window.
func (ac *ApplicationController) GetSummary(c echo.Context) error {
	employerID, err := ac.employerID(c)
	if err != nil {
		return err
	}

	summary, err := ac.service.EmployerSummary(employerID)
	if err != nil {
		log.Printf("Error building applications summary: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load applications summary",
		})
	}

	return c.JSON(http.StatusOK, summary)
}

// GetJobCounts returns just the per-job application counts
func (ac *ApplicationController) GetJobCounts(c echo.Context) error {
	employerID, err := ac.employerID(c)
	if err != nil {
		return err
	}

	counts, err := ac.service.JobApplicationCounts(employerID)
	if err != nil {
		log.Printf("Error loading job counts: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load job counts",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Job application counts",
		Data:    counts,
	})
}

// GetEmployerApplications lists every application across the employer's jobs
func (ac *ApplicationController) GetEmployerApplications(c echo.Context) error {
	employerID, err := ac.employerID(c)
	if err != nil {
		return err
	}

	applications, err := ac.service.EmployerApplications(employerID)
	if err != nil {
		log.Printf("Error loading employer applications: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load applications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Applications",
		Data:    applications,
	})
}

// GetJobApplications lists one job's applications. The job must belong to the
// requesting employer.
func (ac *ApplicationController) GetJobApplications(c echo.Context) error {
	employerID, err := ac.employerID(c)
	if err != nil {
		return err
	}

	jobID, err := primitive.ObjectIDFromHex(c.Param("jobId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid job ID",
		})
	}

	job, err := ac.jobs.GetByID(jobID)
	if err != nil || job.EmployerID != employerID {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Job not found",
		})
	}

	applications, err := ac.service.JobApplications(jobID)
	if err != nil {
		log.Printf("Error loading applications for job %s: %v", jobID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load applications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Job applications",
		Data:    applications,
	})
}

// MarkJobApplicationsRead marks one job's unread applications viewed and
// returns the refreshed summary alongside the number of rows changed.
func (ac *ApplicationController) MarkJobApplicationsRead(c echo.Context) error {
	employerID, err := ac.employerID(c)
	if err != nil {
		return err
	}

	jobID, err := primitive.ObjectIDFromHex(c.Param("jobId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid job ID",
		})
	}

	updated, err := ac.apps.MarkViewedByJob(employerID, jobID)
	if err != nil {
		log.Printf("Error marking applications read for job %s: %v", jobID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to mark applications read",
		})
	}

	return ac.readResponse(c, updated, employerID)
}

// MarkAllApplicationsRead marks every unread application of the employer viewed
func (ac *ApplicationController) MarkAllApplicationsRead(c echo.Context) error {
	employerID, err := ac.employerID(c)
	if err != nil {
		return err
	}

	updated, err := ac.apps.MarkAllViewed(employerID)
	if err != nil {
		log.Printf("Error marking all applications read: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to mark applications read",
		})
	}

	return ac.readResponse(c, updated, employerID)
}

func (ac *ApplicationController) readResponse(c echo.Context, updated int64, employerID primitive.ObjectID) error {
	summary, err := ac.service.EmployerSummary(employerID)
	if err != nil {
		log.Printf("Error refreshing summary after mark-read: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Applications marked read but summary refresh failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"updated": updated,
		"summary": summary,
	})
}

// GetUnreadCount returns the employer's total unread application count
func (ac *ApplicationController) GetUnreadCount(c echo.Context) error {
	employerID, err := ac.employerID(c)
	if err != nil {
		return err
	}

	count, err := ac.apps.CountUnreadByEmployerID(employerID)
	if err != nil {
		log.Printf("Error counting unread applications: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count unread applications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Unread applications",
		Data:    map[string]int64{"unreadCount": count},
	})
}

// UpdateStatus transitions an application's status
func (ac *ApplicationController) UpdateStatus(c echo.Context) error {
	employerID, err := ac.employerID(c)
	if err != nil {
		return err
	}

	applicationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid application ID",
		})
	}

	var req models.StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Status is required",
		})
	}

	result, err := ac.service.UpdateStatus(employerID, applicationID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		case errors.Is(err, services.ErrApplicationNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Application not found",
			})
		default:
			log.Printf("Error updating application %s status: %v", applicationID.Hex(), err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to update status",
			})
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: result.Message,
		Data:    result,
	})
}

// Apply submits the authenticated candidate's application to a job
func (ac *ApplicationController) Apply(c echo.Context) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	jobID, err := primitive.ObjectIDFromHex(c.Param("jobId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid job ID",
		})
	}

	result, err := ac.service.ApplyToJob(userID, jobID)
	if err != nil {
		log.Printf("Error applying to job %s: %v", jobID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to submit application",
		})
	}

	status := http.StatusOK
	switch result.MessageType {
	case "success":
		status = http.StatusCreated
	case "error":
		status = http.StatusBadRequest
	case "warning":
		status = http.StatusConflict
	}

	return c.JSON(status, models.Response{
		Status:  status,
		Message: result.Message,
		Data:    result,
	})
}

// GetCandidateHistory returns the authenticated candidate's applications
func (ac *ApplicationController) GetCandidateHistory(c echo.Context) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	history, err := ac.service.CandidateHistory(userID)
	if err != nil {
		log.Printf("Error loading candidate history: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load application history",
		})
	}

	return c.JSON(http.StatusOK, history)
}

// GetCandidateStatusDigest returns the candidate's recent status changes
func (ac *ApplicationController) GetCandidateStatusDigest(c echo.Context) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	digest, err := ac.service.CandidateStatusDigest(userID)
	if err != nil {
		log.Printf("Error building status digest: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load status updates",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Status updates",
		Data:    digest,
	})
}

// requestUserID pulls the authenticated user id out of the JWT claims
func requestUserID(c echo.Context) (primitive.ObjectID, error) {
	hex, err := middleware.ExtractUserID(c)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	userID, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusUnauthorized, "Invalid user ID in token")
	}
	return userID, nil
}
