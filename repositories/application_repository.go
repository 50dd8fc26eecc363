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

// JobCounts holds aggregated totals for one job
type JobCounts struct {
	Total  int
	Unread int
}

type ApplicationRepository struct {
	collection *mongo.Collection
}

func NewApplicationRepository(db *mongo.Client) *ApplicationRepository {
	return &ApplicationRepository{
		collection: config.GetCollection(db, "applications"),
	}
}

// Create persists a new application
func (r *ApplicationRepository) Create(application *models.Application) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, application)
	return err
}

// Has reports whether the candidate already applied to the job
func (r *ApplicationRepository) Has(jobID, candidateID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"jobId": jobID, "candidateId": candidateID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByID returns one application
func (r *ApplicationRepository) GetByID(applicationID primitive.ObjectID) (*models.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var application models.Application
	err := r.collection.FindOne(ctx, bson.M{"_id": applicationID}).Decode(&application)
	if err != nil {
		return nil, err
	}
	return &application, nil
}

// GetByEmployerID returns all of the employer's applications, newest first
func (r *ApplicationRepository) GetByEmployerID(employerID primitive.ObjectID) ([]models.Application, error) {
	return r.find(bson.M{"employerId": employerID}, nil)
}

// GetByJobID returns one job's applications, newest first
func (r *ApplicationRepository) GetByJobID(jobID primitive.ObjectID) ([]models.Application, error) {
	return r.find(bson.M{"jobId": jobID}, nil)
}

// GetByCandidateID returns the candidate's applications, newest first
func (r *ApplicationRepository) GetByCandidateID(candidateID primitive.ObjectID) ([]models.Application, error) {
	return r.find(bson.M{"candidateId": candidateID}, nil)
}

// GetRecentByEmployerID returns the employer's most recent applications,
// appliedAt descending with _id as the tie-break.
func (r *ApplicationRepository) GetRecentByEmployerID(employerID primitive.ObjectID, limit int) ([]models.Application, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "appliedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(bson.M{"employerId": employerID}, opts)
}

func (r *ApplicationRepository) find(filter bson.M, opts *options.FindOptions) ([]models.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if opts == nil {
		opts = options.Find().SetSort(bson.D{{Key: "appliedAt", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	applications := []models.Application{}
	if err := cursor.All(ctx, &applications); err != nil {
		return nil, err
	}
	return applications, nil
}

// CountsByJob aggregates total and unread application counts per job for one
// employer. Jobs without applications are simply absent from the result map.
func (r *ApplicationRepository) CountsByJob(employerID primitive.ObjectID) (map[primitive.ObjectID]JobCounts, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"employerId": employerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$jobId",
			"total": bson.M{"$sum": 1},
			"unread": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$isViewedByEmployer", false}}, 1, 0},
			}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		JobID  primitive.ObjectID `bson:"_id"`
		Total  int                `bson:"total"`
		Unread int                `bson:"unread"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[primitive.ObjectID]JobCounts, len(rows))
	for _, row := range rows {
		counts[row.JobID] = JobCounts{Total: row.Total, Unread: row.Unread}
	}
	return counts, nil
}

// CountUnreadByEmployerID returns the employer's total unread applications
func (r *ApplicationRepository) CountUnreadByEmployerID(employerID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{
		"employerId":         employerID,
		"isViewedByEmployer": false,
	})
}

// MarkViewedByJob marks one job's unread applications viewed, scoped to the
// owning employer. A single conditional update: rows created concurrently
// simply miss the condition and stay unread.
func (r *ApplicationRepository) MarkViewedByJob(employerID, jobID primitive.ObjectID) (int64, error) {
	return r.markViewed(bson.M{
		"employerId":         employerID,
		"jobId":              jobID,
		"isViewedByEmployer": false,
	})
}

// MarkAllViewed marks all of the employer's unread applications viewed
func (r *ApplicationRepository) MarkAllViewed(employerID primitive.ObjectID) (int64, error) {
	return r.markViewed(bson.M{
		"employerId":         employerID,
		"isViewedByEmployer": false,
	})
}

func (r *ApplicationRepository) markViewed(filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"isViewedByEmployer": true,
		"employerViewedAt":   time.Now(),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// UpdateStatus sets the application's status, stamps updatedAt, and marks the
// row viewed (an employer changing a status has necessarily seen it).
func (r *ApplicationRepository) UpdateStatus(applicationID primitive.ObjectID, status string, markViewed bool) (*time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	set := bson.M{
		"status":    status,
		"updatedAt": now,
	}
	if markViewed {
		set["isViewedByEmployer"] = true
		set["employerViewedAt"] = now
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": applicationID}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	return &now, nil
}
