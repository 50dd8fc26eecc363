package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/models"
	"github.com/jobnest/jobnest_backend/repositories"
	"github.com/jobnest/jobnest_backend/websocket"
)

type JobController struct {
	jobs     *repositories.JobRepository
	profiles *repositories.ProfileRepository
	hub      *websocket.Hub
}

func NewJobController(db *mongo.Client, hub *websocket.Hub) *JobController {
	return &JobController{
		jobs:     repositories.NewJobRepository(db),
		profiles: repositories.NewProfileRepository(db),
		hub:      hub,
	}
}

// CreateJob persists a new posting and broadcasts it to every connected client
func (jc *JobController) CreateJob(c echo.Context) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	profile, err := jc.profiles.GetEmployerProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Employer profile not found",
			})
		}
		log.Printf("Error loading employer profile for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create job",
		})
	}

	var req models.JobCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Title is required",
		})
	}

	companyName := req.CompanyName
	if companyName == "" {
		companyName = profile.CompanyName
	}

	now := time.Now()
	job := &models.Job{
		ID:              primitive.NewObjectID(),
		EmployerID:      profile.ID,
		PostedByUserID:  userID,
		Title:           req.Title,
		Description:     req.Description,
		EmploymentType:  req.EmploymentType,
		CompanyName:     companyName,
		HiringStatus:    "OPEN",
		PositionsNeeded: req.PositionsNeeded,
		PositionsFilled: 0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := jc.jobs.Create(job); err != nil {
		log.Printf("Error creating job: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create job",
		})
	}

	log.Printf("Job %s created by employer %s", job.ID.Hex(), profile.ID.Hex())

	// New postings go to everyone, not just a group
	jc.hub.BroadcastAll(websocket.EventNewJob, job)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Job created",
		Data:    job,
	})
}

// GetJob returns one job posting
func (jc *JobController) GetJob(c echo.Context) error {
	jobID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid job ID",
		})
	}

	job, err := jc.jobs.GetByID(jobID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Job not found",
			})
		}
		log.Printf("Error loading job %s: %v", jobID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load job",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Job",
		Data:    job,
	})
}

// GetMyJobs lists the authenticated employer's postings
func (jc *JobController) GetMyJobs(c echo.Context) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	profile, err := jc.profiles.GetEmployerProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Employer profile not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load jobs",
		})
	}

	jobs, err := jc.jobs.GetByEmployerID(profile.ID)
	if err != nil {
		log.Printf("Error loading jobs for employer %s: %v", profile.ID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load jobs",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Jobs",
		Data:    jobs,
	})
}
