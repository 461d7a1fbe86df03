package services

import (
	"log"
	"time"
)

// RetentionJob purges read notifications past the retention window. Unread
// records are kept until their recipient has seen them.
type RetentionJob struct {
	store *NotificationStore
	days  int
}

func NewRetentionJob(store *NotificationStore, days int) *RetentionJob {
	if days <= 0 {
		days = 90
	}
	return &RetentionJob{store: store, days: days}
}

// Run executes one purge pass. Scheduled daily via cron.
func (j *RetentionJob) Run() {
	cutoff := time.Now().AddDate(0, 0, -j.days)
	purged, err := j.store.PurgeReadBefore(cutoff)
	if err != nil {
		log.Printf("notification retention purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("notification retention: purged %d read records older than %s", purged, cutoff.Format("2006-01-02"))
	}
}
