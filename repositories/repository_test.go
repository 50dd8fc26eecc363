package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jobnest/jobnest_backend/config"
	"github.com/jobnest/jobnest_backend/models"
)

// testClient connects to the MongoDB named by MONGODB_URI. Tests are skipped
// when no database is available.
func testClient(t *testing.T) *mongo.Client {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping MongoDB integration tests")
	}
	t.Setenv("DB_NAME", "jobnest_test")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client.Disconnect(ctx)
	})
	return client
}

func cleanupDocs(t *testing.T, client *mongo.Client, collection string, filter bson.M) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		config.GetCollection(client, collection).DeleteMany(ctx, filter)
	})
}

func TestNotificationMarkReadIdempotent(t *testing.T) {
	client := testClient(t)
	repo := NewNotificationRepository(client)

	userID := primitive.NewObjectID()
	cleanupDocs(t, client, "notifications", bson.M{"userId": userID})

	created, err := repo.Create(userID, models.NotificationTypeNewApplication, "New applicant", "Someone applied", nil, nil)
	require.NoError(t, err)
	require.False(t, created.IsRead)

	count, err := repo.UnreadCount(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.MarkRead(created.ID))

	count, err = repo.UnreadCount(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Marking again is a no-op, not an error
	require.NoError(t, repo.MarkRead(created.ID))
}

func TestNotificationMarkAllRead(t *testing.T) {
	client := testClient(t)
	repo := NewNotificationRepository(client)

	userID := primitive.NewObjectID()
	cleanupDocs(t, client, "notifications", bson.M{"userId": userID})

	for i := 0; i < 3; i++ {
		_, err := repo.Create(userID, models.NotificationTypeApplicationStatus, "Status", "Changed", nil, nil)
		require.NoError(t, err)
	}

	updated, err := repo.MarkAllRead(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	// Second pass finds nothing unread
	updated, err = repo.MarkAllRead(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)
}

func TestNotificationListNewestFirst(t *testing.T) {
	client := testClient(t)
	repo := NewNotificationRepository(client)

	userID := primitive.NewObjectID()
	cleanupDocs(t, client, "notifications", bson.M{"userId": userID})

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		_, err := repo.Create(userID, models.NotificationTypeJobUpdate, title, "msg", nil, nil)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	notifications, err := repo.GetByUserID(userID, 2)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, "third", notifications[0].Title)
	assert.Equal(t, "second", notifications[1].Title)
}

func insertApplication(t *testing.T, repo *ApplicationRepository, employerID, jobID primitive.ObjectID, viewed bool) *models.Application {
	t.Helper()

	app := &models.Application{
		ID:                 primitive.NewObjectID(),
		JobID:              jobID,
		EmployerID:         employerID,
		CandidateID:        primitive.NewObjectID(),
		Status:             models.StatusApplied,
		AppliedAt:          time.Now(),
		IsViewedByEmployer: viewed,
	}
	require.NoError(t, repo.Create(app))
	return app
}

func TestApplicationCountsAndMarkViewed(t *testing.T) {
	client := testClient(t)
	repo := NewApplicationRepository(client)

	employerID := primitive.NewObjectID()
	job1 := primitive.NewObjectID()
	job2 := primitive.NewObjectID()
	cleanupDocs(t, client, "applications", bson.M{"employerId": employerID})

	insertApplication(t, repo, employerID, job1, true)
	insertApplication(t, repo, employerID, job1, false)
	insertApplication(t, repo, employerID, job1, false)
	insertApplication(t, repo, employerID, job2, false)

	counts, err := repo.CountsByJob(employerID)
	require.NoError(t, err)
	assert.Equal(t, JobCounts{Total: 3, Unread: 2}, counts[job1])
	assert.Equal(t, JobCounts{Total: 1, Unread: 1}, counts[job2])

	unread, err := repo.CountUnreadByEmployerID(employerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	updated, err := repo.MarkViewedByJob(employerID, job1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	counts, err = repo.CountsByJob(employerID)
	require.NoError(t, err)
	assert.Equal(t, JobCounts{Total: 3, Unread: 0}, counts[job1])
	assert.Equal(t, JobCounts{Total: 1, Unread: 1}, counts[job2])

	updated, err = repo.MarkAllViewed(employerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	// Everything read; the sweep is now a no-op
	updated, err = repo.MarkAllViewed(employerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)
}

func TestApplicationEmployerIsolation(t *testing.T) {
	client := testClient(t)
	repo := NewApplicationRepository(client)

	employerA := primitive.NewObjectID()
	employerB := primitive.NewObjectID()
	cleanupDocs(t, client, "applications", bson.M{"employerId": bson.M{"$in": bson.A{employerA, employerB}}})

	insertApplication(t, repo, employerA, primitive.NewObjectID(), false)
	insertApplication(t, repo, employerB, primitive.NewObjectID(), false)

	updated, err := repo.MarkAllViewed(employerA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	unread, err := repo.CountUnreadByEmployerID(employerB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestApplicationUpdateStatus(t *testing.T) {
	client := testClient(t)
	repo := NewApplicationRepository(client)

	employerID := primitive.NewObjectID()
	cleanupDocs(t, client, "applications", bson.M{"employerId": employerID})

	app := insertApplication(t, repo, employerID, primitive.NewObjectID(), false)

	updatedAt, err := repo.UpdateStatus(app.ID, models.StatusReviewed, true)
	require.NoError(t, err)
	require.NotNil(t, updatedAt)

	stored, err := repo.GetByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewed, stored.Status)
	assert.True(t, stored.IsViewedByEmployer)
	require.NotNil(t, stored.UpdatedAt)
	require.NotNil(t, stored.EmployerViewedAt)
}

func TestApplicationRecentOrdering(t *testing.T) {
	client := testClient(t)
	repo := NewApplicationRepository(client)

	employerID := primitive.NewObjectID()
	cleanupDocs(t, client, "applications", bson.M{"employerId": employerID})

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		app := insertApplication(t, repo, employerID, primitive.NewObjectID(), false)
		ids = append(ids, app.ID)
		time.Sleep(5 * time.Millisecond)
	}

	recent, err := repo.GetRecentByEmployerID(employerID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)
}

func TestHasApplication(t *testing.T) {
	client := testClient(t)
	repo := NewApplicationRepository(client)

	employerID := primitive.NewObjectID()
	cleanupDocs(t, client, "applications", bson.M{"employerId": employerID})

	app := insertApplication(t, repo, employerID, primitive.NewObjectID(), false)

	exists, err := repo.Has(app.JobID, app.CandidateID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Has(app.JobID, primitive.NewObjectID())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestJobAdjustPositionsFilled(t *testing.T) {
	client := testClient(t)
	repo := NewJobRepository(client)

	job := &models.Job{
		ID:             primitive.NewObjectID(),
		EmployerID:     primitive.NewObjectID(),
		PostedByUserID: primitive.NewObjectID(),
		Title:          "Backend Engineer",
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	cleanupDocs(t, client, "jobs", bson.M{"_id": job.ID})
	require.NoError(t, repo.Create(job))

	require.NoError(t, repo.AdjustPositionsFilled(job.ID, 1))
	stored, err := repo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.PositionsFilled)

	// The counter never drops below zero
	require.NoError(t, repo.AdjustPositionsFilled(job.ID, -1))
	require.NoError(t, repo.AdjustPositionsFilled(job.ID, -1))
	stored, err = repo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PositionsFilled)
}
