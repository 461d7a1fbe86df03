package services

import (
	"errors"
	"time"

	"content-platform-api/models"

	"gorm.io/gorm"
)

var (
	// ErrNotificationNotFound means the notification id does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrNotOwner means a read-state mutation was attempted by a recipient
	// that does not own the record.
	ErrNotOwner = errors.New("notification belongs to another recipient")
)

// NotificationStore is the durable log of notifications: append-only except
// for the is_read flag.
type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Create persists a record, assigning create_at. Enum fields are normalized
// so an adapter bug can never write an open-ended value.
func (s *NotificationStore) Create(n *models.Notification) error {
	if n.CreateAt.IsZero() {
		n.CreateAt = time.Now()
	}
	n.Source = models.ParseSource(string(n.Source))
	if n.Severity.Priority() == 0 {
		n.Severity = models.SeverityInfo
	}
	return s.db.Create(n).Error
}

// listOrder sorts newest first. create_at has second granularity, so two
// back-to-back alerts can collide; the id tie-break keeps insertion order
// stable inside a colliding batch.
const listOrder = "create_at DESC, notification_id ASC"

// ListByRecipient returns the recipient's notifications, newest first.
func (s *NotificationStore) ListByRecipient(recipientID string, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := s.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var items []models.Notification
	err := q.Order(listOrder).Limit(limit).Offset(offset).Find(&items).Error
	return items, err
}

// ListSince returns the recipient's notifications created at or after the
// given time, newest first. Used for bounded-window aggregation.
func (s *NotificationStore) ListSince(recipientID string, since time.Time) ([]models.Notification, error) {
	var items []models.Notification
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND create_at >= ?", recipientID, since).
		Order(listOrder).
		Find(&items).Error
	return items, err
}

func (s *NotificationStore) CountByRecipient(recipientID string) (int64, error) {
	var n int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&n).Error
	return n, err
}

func (s *NotificationStore) CountUnread(recipientID string) (int64, error) {
	var n int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}

// MarkRead flips the read flag for one record after an ownership check.
// Idempotent: marking an already-read record succeeds without touching the
// row again.
func (s *NotificationStore) MarkRead(recipientID string, id uint) error {
	var n models.Notification
	if err := s.db.First(&n, "notification_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if n.RecipientID != recipientID {
		return ErrNotOwner
	}
	if n.IsRead {
		return nil
	}
	return s.db.Exec("UPDATE notifications SET is_read = 1 WHERE notification_id = ?", id).Error
}

// MarkAllRead flips every unread record for the recipient in one statement.
func (s *NotificationStore) MarkAllRead(recipientID string) (int64, error) {
	tx := s.db.Exec("UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0", recipientID)
	return tx.RowsAffected, tx.Error
}

// NotificationStats aggregates counts by source and severity over a window.
type NotificationStats struct {
	Total      int64                      `json:"total"`
	BySource   map[models.Source]int64    `json:"by_source"`
	BySeverity map[models.Severity]int64  `json:"by_severity"`
}

// Stats computes grouped counts by scanning the window; nothing is
// pre-materialized.
func (s *NotificationStore) Stats(recipientID string, since time.Time) (NotificationStats, error) {
	stats := NotificationStats{
		BySource:   make(map[models.Source]int64),
		BySeverity: make(map[models.Severity]int64),
	}

	var bySource []struct {
		Source models.Source
		Total  int64
	}
	if err := s.db.Raw(
		"SELECT source, COUNT(*) AS total FROM notifications WHERE recipient_id = ? AND create_at >= ? GROUP BY source",
		recipientID, since,
	).Scan(&bySource).Error; err != nil {
		return stats, err
	}
	for _, row := range bySource {
		stats.BySource[row.Source] = row.Total
		stats.Total += row.Total
	}

	var bySeverity []struct {
		Severity models.Severity
		Total    int64
	}
	if err := s.db.Raw(
		"SELECT severity, COUNT(*) AS total FROM notifications WHERE recipient_id = ? AND create_at >= ? GROUP BY severity",
		recipientID, since,
	).Scan(&bySeverity).Error; err != nil {
		return stats, err
	}
	for _, row := range bySeverity {
		stats.BySeverity[row.Severity] = row.Total
	}

	return stats, nil
}

// ActiveAccountsByRole lists the live accounts holding a role, for
// fan-out audiences such as "all current managers".
func (s *NotificationStore) ActiveAccountsByRole(role string) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.Where("role = ? AND delete_at IS NULL", role).Find(&accounts).Error
	return accounts, err
}

// AccountByRecipient resolves a recipient identity to its account.
func (s *NotificationStore) AccountByRecipient(recipientID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, "recipient_id = ? AND delete_at IS NULL", recipientID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// PurgeReadBefore deletes read records older than the cutoff. Retention is a
// cleanup concern: unread records are never purged.
func (s *NotificationStore) PurgeReadBefore(cutoff time.Time) (int64, error) {
	tx := s.db.Exec("DELETE FROM notifications WHERE is_read = 1 AND create_at < ?", cutoff)
	return tx.RowsAffected, tx.Error
}
