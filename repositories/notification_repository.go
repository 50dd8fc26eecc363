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

// DefaultNotificationLimit caps notification listings when no limit is given
const DefaultNotificationLimit = 20

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Client) *NotificationRepository {
	return &NotificationRepository{
		collection: config.GetCollection(db, "notifications"),
	}
}

// Create persists a new unread notification and returns it with its id set
func (r *NotificationRepository) Create(userID primitive.ObjectID, notifType, title, message string, relatedJobID, relatedApplicationID *primitive.ObjectID) (*models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notification := models.Notification{
		ID:                   primitive.NewObjectID(),
		UserID:               userID,
		Type:                 notifType,
		Title:                title,
		Message:              message,
		IsRead:               false,
		RelatedJobID:         relatedJobID,
		RelatedApplicationID: relatedApplicationID,
		CreatedAt:            time.Now(),
	}

	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

// GetByUserID returns the user's notifications, newest first
func (r *NotificationRepository) GetByUserID(userID primitive.ObjectID, limit int) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = DefaultNotificationLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for the user
func (r *NotificationRepository) UnreadCount(userID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "isRead": false})
}

// MarkRead flips one notification to read. Marking an already-read
// notification again matches zero rows and is a no-op.
func (r *NotificationRepository) MarkRead(notificationID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": notificationID, "isRead": false}
	update := bson.M{"$set": bson.M{"isRead": true}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// MarkAllRead flips every unread notification of the user in one conditional
// update, so a retry after failure is safe.
func (r *NotificationRepository) MarkAllRead(userID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"userId": userID, "isRead": false}
	update := bson.M{"$set": bson.M{"isRead": true}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
