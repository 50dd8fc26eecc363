package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jobnest/jobnest_backend/config"
	"github.com/jobnest/jobnest_backend/models"
)

type JobRepository struct {
	collection *mongo.Collection
}

func NewJobRepository(db *mongo.Client) *JobRepository {
	return &JobRepository{
		collection: config.GetCollection(db, "jobs"),
	}
}

// Create persists a new job posting
func (r *JobRepository) Create(job *models.Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, job)
	return err
}

// GetByID returns one job
func (r *JobRepository) GetByID(jobID primitive.ObjectID) (*models.Job, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var job models.Job
	err := r.collection.FindOne(ctx, bson.M{"_id": jobID}).Decode(&job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByEmployerID returns the employer's jobs in posting order. The summary's
// job counts follow this enumeration order.
func (r *JobRepository) GetByEmployerID(employerID primitive.ObjectID) ([]models.Job, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"employerId": employerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	jobs := []models.Job{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// AdjustPositionsFilled increments or decrements the filled counter when an
// application moves into or out of ACCEPTED. The counter never goes negative.
func (r *JobRepository) AdjustPositionsFilled(jobID primitive.ObjectID, delta int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.A{bson.M{"$set": bson.M{
		"positionsFilled": bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{"$positionsFilled", delta}}}},
		"updatedAt":       time.Now(),
	}}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": jobID}, update)
	return err
}
