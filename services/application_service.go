package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/models"
	"github.com/jobnest/jobnest_backend/repositories"
	"github.com/jobnest/jobnest_backend/websocket"
)

// recentNotificationLimit caps the recent-items window of the summary
const recentNotificationLimit = 10

// statusDigestLimit caps the candidate status digest
const statusDigestLimit = 10

var (
	// ErrInvalidStatus is returned when a status transition names a value
	// outside the valid set
	ErrInvalidStatus = fmt.Errorf("invalid status; valid statuses: %s", strings.Join(models.ValidApplicationStatuses, ", "))
	// ErrApplicationNotFound is returned when the application does not exist
	// or does not belong to the requesting employer
	ErrApplicationNotFound = errors.New("application not found")
)

// ApplicationService computes employer summaries and candidate digests on
// demand, and drives the application workflow side effects (notification rows
// plus push events). Summaries are recomputed fresh on every call; nothing is
// cached server-side.
type ApplicationService struct {
	apps          *repositories.ApplicationRepository
	jobs          *repositories.JobRepository
	notifications *repositories.NotificationRepository
	profiles      *repositories.ProfileRepository
	hub           *websocket.Hub
}

func NewApplicationService(db *mongo.Client, hub *websocket.Hub) *ApplicationService {
	return &ApplicationService{
		apps:          repositories.NewApplicationRepository(db),
		jobs:          repositories.NewJobRepository(db),
		notifications: repositories.NewNotificationRepository(db),
		profiles:      repositories.NewProfileRepository(db),
		hub:           hub,
	}
}

// EmployerSummary recomputes the employer's aggregate from the rows
func (s *ApplicationService) EmployerSummary(employerID primitive.ObjectID) (*models.EmployerApplicationsSummary, error) {
	jobs, err := s.jobs.GetByEmployerID(employerID)
	if err != nil {
		return nil, err
	}

	counts, err := s.apps.CountsByJob(employerID)
	if err != nil {
		return nil, err
	}

	recent, err := s.apps.GetRecentByEmployerID(employerID, recentNotificationLimit)
	if err != nil {
		return nil, err
	}

	jobCounts, totalUnread := buildJobCounts(jobs, counts)

	summary := &models.EmployerApplicationsSummary{
		TotalUnread:         totalUnread,
		JobCounts:           jobCounts,
		RecentNotifications: s.toApplicationNotifications(recent, jobTitleIndex(jobs)),
	}
	return summary, nil
}

// JobApplicationCounts returns just the per-job counts of the summary
func (s *ApplicationService) JobApplicationCounts(employerID primitive.ObjectID) ([]models.JobApplicationCount, error) {
	jobs, err := s.jobs.GetByEmployerID(employerID)
	if err != nil {
		return nil, err
	}

	counts, err := s.apps.CountsByJob(employerID)
	if err != nil {
		return nil, err
	}

	jobCounts, _ := buildJobCounts(jobs, counts)
	return jobCounts, nil
}

// buildJobCounts merges the employer's jobs with aggregated counts, preserving
// job enumeration order and including jobs without applications. The returned
// total is the sum of the per-job unread counts, so the two can never drift.
func buildJobCounts(jobs []models.Job, counts map[primitive.ObjectID]repositories.JobCounts) ([]models.JobApplicationCount, int) {
	jobCounts := make([]models.JobApplicationCount, 0, len(jobs))
	totalUnread := 0

	for _, job := range jobs {
		c := counts[job.ID]
		jobCounts = append(jobCounts, models.JobApplicationCount{
			JobID:            job.ID,
			JobTitle:         job.Title,
			ApplicationCount: c.Total,
			UnreadCount:      c.Unread,
		})
		totalUnread += c.Unread
	}

	return jobCounts, totalUnread
}

func jobTitleIndex(jobs []models.Job) map[primitive.ObjectID]string {
	titles := make(map[primitive.ObjectID]string, len(jobs))
	for _, job := range jobs {
		titles[job.ID] = job.Title
	}
	return titles
}

// toApplicationNotifications maps recent applications into notification-shaped
// records, joining candidate details best-effort.
func (s *ApplicationService) toApplicationNotifications(applications []models.Application, titles map[primitive.ObjectID]string) []models.ApplicationNotification {
	notifications := make([]models.ApplicationNotification, 0, len(applications))

	for _, app := range applications {
		notification := models.ApplicationNotification{
			ApplicationID: app.ID,
			JobID:         app.JobID,
			JobTitle:      titles[app.JobID],
			CandidateID:   app.CandidateID,
			CandidateName: "N/A",
			AppliedAt:     app.AppliedAt,
			IsViewed:      app.IsViewedByEmployer,
		}

		if profile, err := s.profiles.GetCandidateProfileByID(app.CandidateID); err == nil {
			notification.CandidateName = profile.FullName
			notification.CandidateHeadline = profile.Headline
			if user, err := s.profiles.GetUserByID(profile.UserID); err == nil {
				notification.CandidateEmail = user.Email
			}
		}

		notifications = append(notifications, notification)
	}

	return notifications
}

// EmployerApplications returns the employer's full application list
func (s *ApplicationService) EmployerApplications(employerID primitive.ObjectID) ([]models.ApplicationListItem, error) {
	applications, err := s.apps.GetByEmployerID(employerID)
	if err != nil {
		return nil, err
	}

	jobs, err := s.jobs.GetByEmployerID(employerID)
	if err != nil {
		return nil, err
	}

	return s.toListItems(applications, jobTitleIndex(jobs)), nil
}

// JobApplications returns one job's applications
func (s *ApplicationService) JobApplications(jobID primitive.ObjectID) ([]models.ApplicationListItem, error) {
	applications, err := s.apps.GetByJobID(jobID)
	if err != nil {
		return nil, err
	}

	titles := map[primitive.ObjectID]string{}
	if job, err := s.jobs.GetByID(jobID); err == nil {
		titles[job.ID] = job.Title
	}

	return s.toListItems(applications, titles), nil
}

func (s *ApplicationService) toListItems(applications []models.Application, titles map[primitive.ObjectID]string) []models.ApplicationListItem {
	items := make([]models.ApplicationListItem, 0, len(applications))

	for _, app := range applications {
		item := models.ApplicationListItem{
			ApplicationID: app.ID,
			JobID:         app.JobID,
			JobTitle:      titles[app.JobID],
			CandidateID:   app.CandidateID,
			CandidateName: "N/A",
			Status:        app.Status,
			AppliedAt:     app.AppliedAt,
			UpdatedAt:     app.UpdatedAt,
			IsViewed:      app.IsViewedByEmployer,
		}

		if profile, err := s.profiles.GetCandidateProfileByID(app.CandidateID); err == nil {
			item.CandidateName = profile.FullName
			if user, err := s.profiles.GetUserByID(profile.UserID); err == nil {
				item.CandidateEmail = user.Email
			}
		}

		items = append(items, item)
	}

	return items
}

// CandidateHistory returns the candidate's application history. A user without
// a candidate profile has an empty history, not an error.
func (s *ApplicationService) CandidateHistory(userID primitive.ObjectID) ([]models.CandidateApplication, error) {
	profile, err := s.profiles.GetCandidateProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []models.CandidateApplication{}, nil
		}
		return nil, err
	}

	applications, err := s.apps.GetByCandidateID(profile.ID)
	if err != nil {
		return nil, err
	}

	history := make([]models.CandidateApplication, 0, len(applications))
	for _, app := range applications {
		job, err := s.jobs.GetByID(app.JobID)
		if err != nil {
			log.Printf("Skipping application %s: job %s not found", app.ID.Hex(), app.JobID.Hex())
			continue
		}

		history = append(history, models.CandidateApplication{
			ApplicationID:      app.ID,
			Status:             app.Status,
			AppliedAt:          app.AppliedAt,
			UpdatedAt:          app.UpdatedAt,
			IsViewedByEmployer: app.IsViewedByEmployer,
			EmployerViewedAt:   app.EmployerViewedAt,
			JobID:              job.ID,
			JobTitle:           job.Title,
			EmploymentType:     job.EmploymentType,
			HiringStatus:       job.HiringStatus,
			CompanyName:        job.CompanyName,
		})
	}

	return history, nil
}

// CandidateStatusDigest returns the candidate's most recent status changes,
// newest first. Applications still in APPLIED, or never updated, are excluded.
// The previous status is reported as APPLIED since no status history is kept.
func (s *ApplicationService) CandidateStatusDigest(userID primitive.ObjectID) ([]models.CandidateStatusUpdate, error) {
	history, err := s.CandidateHistory(userID)
	if err != nil {
		return nil, err
	}
	return buildStatusDigest(history), nil
}

func buildStatusDigest(history []models.CandidateApplication) []models.CandidateStatusUpdate {
	digest := []models.CandidateStatusUpdate{}

	for _, app := range history {
		if app.Status == models.StatusApplied || app.UpdatedAt == nil {
			continue
		}
		digest = append(digest, models.CandidateStatusUpdate{
			ApplicationID: app.ApplicationID,
			JobID:         app.JobID,
			JobTitle:      app.JobTitle,
			OldStatus:     models.StatusApplied,
			NewStatus:     app.Status,
			UpdatedAt:     *app.UpdatedAt,
			CompanyName:   app.CompanyName,
		})
	}

	sort.SliceStable(digest, func(i, j int) bool {
		return digest[i].UpdatedAt.After(digest[j].UpdatedAt)
	})

	if len(digest) > statusDigestLimit {
		digest = digest[:statusDigestLimit]
	}
	return digest
}

// ApplyToJob creates an application for the user and notifies the employer.
// Push delivery is best-effort; the application row commits regardless.
func (s *ApplicationService) ApplyToJob(userID, jobID primitive.ObjectID) (*models.ApplyResult, error) {
	job, err := s.jobs.GetByID(jobID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.ApplyResult{Message: "Job not found", MessageType: "error"}, nil
		}
		return nil, err
	}

	if job.PostedByUserID == userID {
		return &models.ApplyResult{Message: "You cannot apply to your own job posting", MessageType: "error"}, nil
	}

	profile, err := s.profiles.GetCandidateProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.ApplyResult{
				Message:     "Please complete your candidate profile before applying",
				MessageType: "info",
			}, nil
		}
		return nil, err
	}

	exists, err := s.apps.Has(job.ID, profile.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return &models.ApplyResult{Message: "You have already applied to this job", MessageType: "warning"}, nil
	}

	application := &models.Application{
		ID:          primitive.NewObjectID(),
		JobID:       job.ID,
		EmployerID:  job.EmployerID,
		CandidateID: profile.ID,
		Status:      models.StatusApplied,
		AppliedAt:   time.Now(),
	}
	if err := s.apps.Create(application); err != nil {
		return nil, err
	}

	log.Printf("User %s applied to job %s", userID.Hex(), job.ID.Hex())

	s.notifyEmployerNewApplication(job, profile, application)

	return &models.ApplyResult{
		Message:       "Application submitted",
		MessageType:   "success",
		ApplicationID: &application.ID,
	}, nil
}

// UpdateStatus transitions an application's status on behalf of the owning
// employer. Any value in the valid set is accepted; transitions are not forced
// to be linear. Changing a status also marks the application viewed.
func (s *ApplicationService) UpdateStatus(employerID, applicationID primitive.ObjectID, newStatus string) (*models.StatusUpdateResult, error) {
	if !models.IsValidApplicationStatus(newStatus) {
		return nil, ErrInvalidStatus
	}
	newStatus = strings.ToUpper(newStatus)

	application, err := s.apps.GetByID(applicationID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	job, err := s.jobs.GetByID(application.JobID)
	if err != nil || job.EmployerID != employerID {
		return nil, ErrApplicationNotFound
	}

	oldStatus := application.Status

	updatedAt, err := s.apps.UpdateStatus(applicationID, newStatus, !application.IsViewedByEmployer)
	if err != nil {
		return nil, err
	}

	// Track filled positions when moving into or out of ACCEPTED, only once
	// the status write has committed.
	if newStatus == models.StatusAccepted && oldStatus != models.StatusAccepted {
		if err := s.jobs.AdjustPositionsFilled(job.ID, 1); err != nil {
			log.Printf("Error adjusting positionsFilled for job %s: %v", job.ID.Hex(), err)
		}
	} else if oldStatus == models.StatusAccepted && newStatus != models.StatusAccepted {
		if err := s.jobs.AdjustPositionsFilled(job.ID, -1); err != nil {
			log.Printf("Error adjusting positionsFilled for job %s: %v", job.ID.Hex(), err)
		}
	}

	log.Printf("Application %s status updated from %s to %s by employer %s",
		applicationID.Hex(), oldStatus, newStatus, employerID.Hex())

	application.Status = newStatus
	application.UpdatedAt = updatedAt
	s.notifyCandidateStatusChange(application, job, oldStatus, newStatus)

	return &models.StatusUpdateResult{
		Success:   true,
		Message:   "Status updated",
		NewStatus: newStatus,
		UpdatedAt: updatedAt,
	}, nil
}

// notifyEmployerNewApplication persists the employer's notification row and
// pushes to the employer's group. Failures are logged and swallowed; the
// application has already committed.
func (s *ApplicationService) notifyEmployerNewApplication(job *models.Job, candidate *models.CandidateProfile, application *models.Application) {
	payload := models.ApplicationNotification{
		ApplicationID:     application.ID,
		JobID:             job.ID,
		JobTitle:          job.Title,
		CandidateID:       candidate.ID,
		CandidateName:     candidate.FullName,
		CandidateHeadline: candidate.Headline,
		AppliedAt:         application.AppliedAt,
		IsViewed:          false,
	}
	if user, err := s.profiles.GetUserByID(candidate.UserID); err == nil {
		payload.CandidateEmail = user.Email
	}

	title := "New applicant"
	message := fmt.Sprintf("%s applied for %s", candidate.FullName, job.Title)
	if _, err := s.notifications.Create(job.PostedByUserID, models.NotificationTypeNewApplication, title, message, &job.ID, &application.ID); err != nil {
		log.Printf("Error saving new-application notification for job %s: %v", job.ID.Hex(), err)
	}

	s.hub.SendToGroup(job.PostedByUserID.Hex(), websocket.EventApplicationNotification, payload)

	log.Printf("Notified employer %s about new application for job %s", job.PostedByUserID.Hex(), job.ID.Hex())
}

// notifyCandidateStatusChange persists the candidate's notification row and
// pushes to the candidate's group. Failures are logged and swallowed.
func (s *ApplicationService) notifyCandidateStatusChange(application *models.Application, job *models.Job, oldStatus, newStatus string) {
	profile, err := s.profiles.GetCandidateProfileByID(application.CandidateID)
	if err != nil {
		log.Printf("Could not find candidate profile for application %s: %v", application.ID.Hex(), err)
		return
	}

	updatedAt := time.Now()
	if application.UpdatedAt != nil {
		updatedAt = *application.UpdatedAt
	}

	payload := models.CandidateStatusUpdate{
		ApplicationID: application.ID,
		JobID:         job.ID,
		JobTitle:      job.Title,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		UpdatedAt:     updatedAt,
		CompanyName:   job.CompanyName,
	}

	title := "Application status updated"
	message := fmt.Sprintf("Your application for %s is now: %s", job.Title, statusLabel(newStatus))
	if _, err := s.notifications.Create(profile.UserID, models.NotificationTypeApplicationStatus, title, message, &job.ID, &application.ID); err != nil {
		log.Printf("Error saving status notification for application %s: %v", application.ID.Hex(), err)
	}

	s.hub.SendToGroup(profile.UserID.Hex(), websocket.EventStatusUpdate, payload)

	log.Printf("Notified candidate %s about status change for application %s",
		application.CandidateID.Hex(), application.ID.Hex())
}

func statusLabel(status string) string {
	switch status {
	case models.StatusReviewed:
		return "Reviewed"
	case models.StatusInterviewing:
		return "Interview invitation"
	case models.StatusAccepted:
		return "Accepted"
	case models.StatusRejected:
		return "Rejected"
	}
	return status
}
