package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobnest/jobnest_backend/models"
	"github.com/jobnest/jobnest_backend/repositories"
)

type NotificationController struct {
	notifications *repositories.NotificationRepository
}

func NewNotificationController(db *mongo.Client) *NotificationController {
	return &NotificationController{
		notifications: repositories.NewNotificationRepository(db),
	}
}

// GetNotifications lists the user's notifications, newest first. The optional
// limit query parameter defaults to 20.
func (nc *NotificationController) GetNotifications(c echo.Context) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	limit := repositories.DefaultNotificationLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid limit",
			})
		}
		limit = parsed
	}

	notifications, err := nc.notifications.GetByUserID(userID, limit)
	if err != nil {
		log.Printf("Error loading notifications for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load notifications",
		})
	}

	return c.JSON(http.StatusOK, notifications)
}

// GetUnreadCount returns the user's unread notification count
func (nc *NotificationController) GetUnreadCount(c echo.Context) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	count, err := nc.notifications.UnreadCount(userID)
	if err != nil {
		log.Printf("Error counting unread notifications for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count notifications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Unread notifications",
		Data:    map[string]int64{"unreadCount": count},
	})
}

// MarkRead flips one notification to read. Repeating the call is harmless and
// still returns 200.
func (nc *NotificationController) MarkRead(c echo.Context) error {
	if _, err := requestUserID(c); err != nil {
		return err
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
	}

	if err := nc.notifications.MarkRead(notificationID); err != nil {
		log.Printf("Error marking notification %s read: %v", notificationID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to mark notification read",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification marked read",
	})
}

// MarkAllRead flips every unread notification of the user
func (nc *NotificationController) MarkAllRead(c echo.Context) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	updated, err := nc.notifications.MarkAllRead(userID)
	if err != nil {
		log.Printf("Error marking notifications read for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to mark notifications read",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notifications marked read",
		Data:    map[string]int64{"updated": updated},
	})
}
