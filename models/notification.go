package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationTypeNewApplication    = "NewApplication"
	NotificationTypeApplicationStatus = "ApplicationStatus"
	NotificationTypeJobUpdate         = "JobUpdate"
)

// Notification model
type Notification struct {
	ID                   primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID               primitive.ObjectID  `json:"userId" bson:"userId"` // The user who owns the notification
	Type                 string              `json:"type" bson:"type"`     // NewApplication, ApplicationStatus, JobUpdate
	Title                string              `json:"title" bson:"title"`
	Message              string              `json:"message" bson:"message"`
	IsRead               bool                `json:"isRead" bson:"isRead"`
	RelatedJobID         *primitive.ObjectID `json:"relatedJobId,omitempty" bson:"relatedJobId,omitempty"`
	RelatedApplicationID *primitive.ObjectID `json:"relatedApplicationId,omitempty" bson:"relatedApplicationId,omitempty"`
	CreatedAt            time.Time           `json:"createdAt" bson:"createdAt"`
}
