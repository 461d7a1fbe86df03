package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"content-platform-api/middleware"
	"content-platform-api/models"
	"content-platform-api/services"

	"github.com/gin-gonic/gin"
)

// notificationStore is the slice of services.NotificationStore the handlers
// use. Narrowed to an interface so handler tests can run without a database.
type notificationStore interface {
	ListByRecipient(recipientID string, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	ListSince(recipientID string, since time.Time) ([]models.Notification, error)
	CountByRecipient(recipientID string) (int64, error)
	CountUnread(recipientID string) (int64, error)
	MarkRead(recipientID string, id uint) error
	MarkAllRead(recipientID string) (int64, error)
	Stats(recipientID string, since time.Time) (services.NotificationStats, error)
}

type alertBroadcaster interface {
	Raise(rec models.Notification) (models.Notification, error)
	RaiseForRole(role string, build func(recipientID string) models.Notification) ([]models.Notification, error)
}

// NotificationController serves the catch-up/read-state API, the push
// stream and the upstream event intake.
type NotificationController struct {
	store       notificationStore
	registry    *services.ChannelRegistry
	broadcaster alertBroadcaster
}

func NewNotificationController(store *services.NotificationStore, registry *services.ChannelRegistry, broadcaster *services.Broadcaster) *NotificationController {
	return &NotificationController{
		store:       store,
		registry:    registry,
		broadcaster: broadcaster,
	}
}

// GetNotifications lists the caller's notifications, newest first, with
// total and unread counts. Supports unreadOnly, since (RFC 3339), limit and
// offset query parameters.
func (ctl *NotificationController) GetNotifications(c *gin.Context) {
	recipientID, ok := middleware.CurrentRecipient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	unreadOnly := strings.TrimSpace(c.Query("unreadOnly"))
	onlyUnread := unreadOnly == "1" || strings.EqualFold(unreadOnly, "true")

	limit := 20
	offset := 0
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("limit"))); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("offset"))); err == nil && v >= 0 {
		offset = v
	}

	var items []models.Notification
	var err error
	if sinceRaw := strings.TrimSpace(c.Query("since")); sinceRaw != "" {
		since, parseErr := time.Parse(time.RFC3339, sinceRaw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
			return
		}
		items, err = ctl.store.ListSince(recipientID, since)
	} else {
		items, err = ctl.store.ListByRecipient(recipientID, onlyUnread, limit, offset)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total, err := ctl.store.CountByRecipient(recipientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	unread, err := ctl.store.CountUnread(recipientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"total":  total,
		"unread": unread,
	})
}

// GetNotificationCounter returns the caller's unread count.
func (ctl *NotificationController) GetNotificationCounter(c *gin.Context) {
	recipientID, ok := middleware.CurrentRecipient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	n, err := ctl.store.CountUnread(recipientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// MarkNotificationRead flips one record's read flag. 404 for unknown ids,
// 403 when the record belongs to another recipient.
func (ctl *NotificationController) MarkNotificationRead(c *gin.Context) {
	recipientID, ok := middleware.CurrentRecipient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	switch err := ctl.store.MarkRead(recipientID, uint(id)); {
	case errors.Is(err, services.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// MarkAllNotificationsRead flips every unread record for the caller.
func (ctl *NotificationController) MarkAllNotificationsRead(c *gin.Context) {
	recipientID, ok := middleware.CurrentRecipient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	updated, err := ctl.store.MarkAllRead(recipientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated": updated})
}

// GetNotificationStats returns counts grouped by source and severity over a
// lookback window (hours query parameter, default 24, max 30 days).
func (ctl *NotificationController) GetNotificationStats(c *gin.Context) {
	recipientID, ok := middleware.CurrentRecipient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	hours := 24
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("hours"))); err == nil && v > 0 && v <= 720 {
		hours = v
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	stats, err := ctl.store.Stats(recipientID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window_hours": hours,
		"total":        stats.Total,
		"by_source":    stats.BySource,
		"by_severity":  stats.BySeverity,
	})
}
