package models

import (
	"strings"
	"time"
)

// Source identifies the upstream origin of a notification.
type Source string

const (
	SourceMetricThreshold   Source = "METRIC_THRESHOLD"
	SourceLogEvent          Source = "LOG_EVENT"
	SourceDeployment        Source = "DEPLOYMENT"
	SourceMatchEvent        Source = "MATCH_EVENT"
	SourceProposalResult    Source = "PROPOSAL_RESULT"
	SourceReportResult      Source = "REPORT_RESULT"
	SourceOperatorBroadcast Source = "OPERATOR_BROADCAST"
)

// Severity levels, ordered by priority (CRITICAL highest).
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityError    Severity = "ERROR"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

var severityPriority = map[Severity]int{
	SeverityCritical: 4,
	SeverityError:    3,
	SeverityWarning:  2,
	SeverityInfo:     1,
}

// Priority returns the numeric rank of the severity. Unknown values rank
// lowest so degraded records never outrank real alerts.
func (s Severity) Priority() int {
	return severityPriority[s]
}

// NotificationWorthy reports whether the severity is WARNING or above.
func (s Severity) NotificationWorthy() bool {
	return s.Priority() >= severityPriority[SeverityWarning]
}

// ParseSeverity maps free-form upstream level strings to a closed severity.
// Unrecognized levels degrade to INFO instead of failing the write.
func ParseSeverity(raw string) Severity {
	switch Severity(strings.ToUpper(strings.TrimSpace(raw))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityError:
		return SeverityError
	case SeverityWarning:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

var validSources = map[Source]bool{
	SourceMetricThreshold:   true,
	SourceLogEvent:          true,
	SourceDeployment:        true,
	SourceMatchEvent:        true,
	SourceProposalResult:    true,
	SourceReportResult:      true,
	SourceOperatorBroadcast: true,
}

// ParseSource validates a source value, falling back to OPERATOR_BROADCAST
// for unknown origins so malformed input never blocks delivery.
func ParseSource(raw string) Source {
	s := Source(strings.ToUpper(strings.TrimSpace(raw)))
	if validSources[s] {
		return s
	}
	return SourceOperatorBroadcast
}

// Notification is one alert addressed to exactly one recipient. Immutable
// after insert except for the is_read flag, which only flips false to true.
type Notification struct {
	NotificationID uint      `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	RecipientID    string    `gorm:"column:recipient_id;index:idx_recipient_create,priority:1;index:idx_recipient_read,priority:1" json:"recipient_id"`
	Source         Source    `gorm:"column:source" json:"source"`
	Category       string    `gorm:"column:category" json:"category"`
	Title          string    `gorm:"column:title" json:"title"`
	Message        string    `gorm:"column:message" json:"message"`
	Severity       Severity  `gorm:"column:severity" json:"severity"`
	IsRead         bool      `gorm:"column:is_read;index:idx_recipient_read,priority:2" json:"is_read"`
	ActionURL      *string   `gorm:"column:action_url" json:"action_url,omitempty"`
	Metadata       *string   `gorm:"column:metadata" json:"metadata,omitempty"`
	CreateAt       time.Time `gorm:"column:create_at;index:idx_recipient_create,priority:2" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
