package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/config"
	"github.com/jobnest/jobnest_backend/models"
)

// ProfileRepository resolves employer and candidate identities for a user.
// Profile CRUD itself belongs to the profile collaborator; the notification
// subsystem only reads.
type ProfileRepository struct {
	users      *mongo.Collection
	employers  *mongo.Collection
	candidates *mongo.Collection
}

func NewProfileRepository(db *mongo.Client) *ProfileRepository {
	return &ProfileRepository{
		users:      config.GetCollection(db, "users"),
		employers:  config.GetCollection(db, "employerProfiles"),
		candidates: config.GetCollection(db, "candidateProfiles"),
	}
}

// GetUserByID returns one user
func (r *ProfileRepository) GetUserByID(userID primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail returns one user by email
func (r *ProfileRepository) GetUserByEmail(email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetEmployerProfileByUserID returns the user's employer profile, or
// mongo.ErrNoDocuments when the user has none.
func (r *ProfileRepository) GetEmployerProfileByUserID(userID primitive.ObjectID) (*models.EmployerProfile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var profile models.EmployerProfile
	err := r.employers.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetCandidateProfileByUserID returns the user's candidate profile, or
// mongo.ErrNoDocuments when the user has none.
func (r *ProfileRepository) GetCandidateProfileByUserID(userID primitive.ObjectID) (*models.CandidateProfile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var profile models.CandidateProfile
	err := r.candidates.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetCandidateProfileByID returns one candidate profile
func (r *ProfileRepository) GetCandidateProfileByID(candidateID primitive.ObjectID) (*models.CandidateProfile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var profile models.CandidateProfile
	err := r.candidates.FindOne(ctx, bson.M{"_id": candidateID}).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
