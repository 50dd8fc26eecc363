package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job model. Only the fields the notification subsystem depends on; the rest
// of the posting belongs to the job CRUD collaborator.
type Job struct {
	ID              primitive.ObjectID `json:"jobId,omitempty" bson:"_id,omitempty"`
	EmployerID      primitive.ObjectID `json:"employerId" bson:"employerId"` // owning employer profile
	PostedByUserID  primitive.ObjectID `json:"postedByUserId" bson:"postedByUserId"`
	Title           string             `json:"title" bson:"title"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	EmploymentType  string             `json:"employmentType,omitempty" bson:"employmentType,omitempty"`
	CompanyName     string             `json:"companyName,omitempty" bson:"companyName,omitempty"`
	HiringStatus    string             `json:"hiringStatus,omitempty" bson:"hiringStatus,omitempty"`
	PositionsNeeded int                `json:"positionsNeeded,omitempty" bson:"positionsNeeded,omitempty"`
	PositionsFilled int                `json:"positionsFilled" bson:"positionsFilled"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// JobCreateRequest is the body of POST /jobs
type JobCreateRequest struct {
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description"`
	EmploymentType  string `json:"employmentType"`
	CompanyName     string `json:"companyName"`
	PositionsNeeded int    `json:"positionsNeeded"`
}
