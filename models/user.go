package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User types
const (
	UserTypeEmployer  = "employer"
	UserTypeCandidate = "candidate"
)

// User model
type User struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	FullName  string             `json:"fullName" bson:"fullName"`
	UserType  string             `json:"userType" bson:"userType"` // employer or candidate
	IsActive  bool               `json:"isActive" bson:"isActive"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// EmployerProfile model
type EmployerProfile struct {
	ID          primitive.ObjectID `json:"employerId,omitempty" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	DisplayName string             `json:"displayName" bson:"displayName"`
	CompanyName string             `json:"companyName,omitempty" bson:"companyName,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// CandidateProfile model
type CandidateProfile struct {
	ID        primitive.ObjectID `json:"candidateId,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	FullName  string             `json:"fullName" bson:"fullName"`
	Headline  string             `json:"headline,omitempty" bson:"headline,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// LoginRequest model
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
