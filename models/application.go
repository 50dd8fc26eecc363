package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses
const (
	StatusApplied      = "APPLIED"
	StatusReviewed     = "REVIEWED"
	StatusInterviewing = "INTERVIEWING"
	StatusAccepted     = "ACCEPTED"
	StatusRejected     = "REJECTED"
)

// ValidApplicationStatuses lists every status an employer may set
var ValidApplicationStatuses = []string{
	StatusApplied, StatusReviewed, StatusInterviewing, StatusAccepted, StatusRejected,
}

// IsValidApplicationStatus reports whether status is in the valid set (case-insensitive)
func IsValidApplicationStatus(status string) bool {
	for _, s := range ValidApplicationStatuses {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}

// Application model. EmployerID is denormalized from the job at apply time so
// unread counts and mark-read updates stay single-collection queries.
type Application struct {
	ID                 primitive.ObjectID `json:"applicationId,omitempty" bson:"_id,omitempty"`
	JobID              primitive.ObjectID `json:"jobId" bson:"jobId"`
	EmployerID         primitive.ObjectID `json:"-" bson:"employerId"`
	CandidateID        primitive.ObjectID `json:"candidateId" bson:"candidateId"`
	Status             string             `json:"status" bson:"status"`
	AppliedAt          time.Time          `json:"appliedAt" bson:"appliedAt"`
	UpdatedAt          *time.Time         `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	IsViewedByEmployer bool               `json:"isViewedByEmployer" bson:"isViewedByEmployer"`
	EmployerViewedAt   *time.Time         `json:"employerViewedAt,omitempty" bson:"employerViewedAt,omitempty"`
}

// JobApplicationCount holds per-job totals for one employer
type JobApplicationCount struct {
	JobID            primitive.ObjectID `json:"jobId"`
	JobTitle         string             `json:"jobTitle"`
	ApplicationCount int                `json:"applicationCount"`
	UnreadCount      int                `json:"unreadCount"`
}

// ApplicationNotification is the notification-shaped view of a recent application
type ApplicationNotification struct {
	ApplicationID     primitive.ObjectID `json:"applicationId"`
	JobID             primitive.ObjectID `json:"jobId"`
	JobTitle          string             `json:"jobTitle"`
	CandidateID       primitive.ObjectID `json:"candidateId"`
	CandidateName     string             `json:"candidateName"`
	CandidateEmail    string             `json:"candidateEmail,omitempty"`
	CandidateHeadline string             `json:"candidateHeadline,omitempty"`
	AppliedAt         time.Time          `json:"appliedAt"`
	IsViewed          bool               `json:"isViewed"`
}

// EmployerApplicationsSummary is the on-demand aggregate behind the bell view.
// It is never persisted; every request recomputes it from the rows.
type EmployerApplicationsSummary struct {
	TotalUnread         int                       `json:"totalUnread"`
	JobCounts           []JobApplicationCount     `json:"jobCounts"`
	RecentNotifications []ApplicationNotification `json:"recentNotifications"`
}

// ApplicationListItem is one row of the employer's application list
type ApplicationListItem struct {
	ApplicationID  primitive.ObjectID `json:"applicationId"`
	JobID          primitive.ObjectID `json:"jobId"`
	JobTitle       string             `json:"jobTitle"`
	CandidateID    primitive.ObjectID `json:"candidateId"`
	CandidateName  string             `json:"candidateName"`
	CandidateEmail string             `json:"candidateEmail,omitempty"`
	Status         string             `json:"status"`
	AppliedAt      time.Time          `json:"appliedAt"`
	UpdatedAt      *time.Time         `json:"updatedAt,omitempty"`
	IsViewed       bool               `json:"isViewed"`
}

// CandidateApplication is one row of a candidate's application history
type CandidateApplication struct {
	ApplicationID      primitive.ObjectID `json:"applicationId"`
	Status             string             `json:"status"`
	AppliedAt          time.Time          `json:"appliedAt"`
	UpdatedAt          *time.Time         `json:"updatedAt,omitempty"`
	IsViewedByEmployer bool               `json:"isViewedByEmployer"`
	EmployerViewedAt   *time.Time         `json:"employerViewedAt,omitempty"`
	JobID              primitive.ObjectID `json:"jobId"`
	JobTitle           string             `json:"jobTitle"`
	EmploymentType     string             `json:"employmentType,omitempty"`
	HiringStatus       string             `json:"hiringStatus,omitempty"`
	CompanyName        string             `json:"companyName,omitempty"`
}

// CandidateStatusUpdate is one entry of the candidate status digest. OldStatus
// is always reported as APPLIED because no status history is kept.
type CandidateStatusUpdate struct {
	ApplicationID primitive.ObjectID `json:"applicationId"`
	JobID         primitive.ObjectID `json:"jobId"`
	JobTitle      string             `json:"jobTitle"`
	OldStatus     string             `json:"oldStatus"`
	NewStatus     string             `json:"newStatus"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	CompanyName   string             `json:"companyName,omitempty"`
}

// StatusUpdateRequest is the body of PUT /applications/:id/status
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// StatusUpdateResult is the outcome of a status transition
type StatusUpdateResult struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	NewStatus string     `json:"newStatus,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ApplyResult is returned to a candidate who applied to a job
type ApplyResult struct {
	Message       string              `json:"message"`
	MessageType   string              `json:"messageType"` // success, error, warning, info
	ApplicationID *primitive.ObjectID `json:"applicationId,omitempty"`
}
