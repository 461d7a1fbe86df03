package services

import (
	"fmt"
	"strings"
	"time"

	"content-platform-api/models"
)

/* ==========================
   Source adapters

   One pure builder per notification source. Adapters absorb malformed
   upstream data (unknown levels, missing titles, oversized bodies) instead
   of failing the write; delivery itself is the broadcaster's job.
   ========================== */

// maxMessageRunes bounds the display length of a message body. A
// presentation contract only: callers keep the full text in metadata when a
// collaborator needs it.
const maxMessageRunes = 500

const truncationMarker = "…"

// TruncateMessage clips msg to the display bound, appending a marker.
func TruncateMessage(msg string) string {
	runes := []rune(msg)
	if len(runes) <= maxMessageRunes {
		return msg
	}
	return string(runes[:maxMessageRunes]) + truncationMarker
}

var severityPrefix = map[models.Severity]string{
	models.SeverityCritical: "🚨",
	models.SeverityError:    "❌",
	models.SeverityWarning:  "⚠️",
	models.SeverityInfo:     "ℹ️",
}

var sourceLabel = map[models.Source]string{
	models.SourceMetricThreshold:   "Resource alert",
	models.SourceLogEvent:          "Log alert",
	models.SourceDeployment:        "Deployment",
	models.SourceMatchEvent:        "Matching",
	models.SourceProposalResult:    "Proposal result",
	models.SourceReportResult:      "Report result",
	models.SourceOperatorBroadcast: "Notice",
}

// DefaultTitle synthesizes a title when the upstream event carries none.
func DefaultTitle(source models.Source, category string, severity models.Severity) string {
	prefix := severityPrefix[severity]
	if prefix == "" {
		prefix = severityPrefix[models.SeverityInfo]
	}
	label := sourceLabel[source]
	if label == "" {
		label = "Notification"
	}
	if category = strings.TrimSpace(category); category != "" {
		return fmt.Sprintf("%s %s: %s", prefix, label, category)
	}
	return fmt.Sprintf("%s %s", prefix, label)
}

// SeverityForLogLevel follows the fixed log-level table: ERROR maps to
// ERROR, WARN/WARNING to WARNING, everything else degrades to INFO.
func SeverityForLogLevel(level string) models.Severity {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "ERROR":
		return models.SeverityError
	case "WARN", "WARNING":
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

// SeverityForDeployStatus maps a deployment status to a severity.
func SeverityForDeployStatus(status string) models.Severity {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "FAILED":
		return models.SeverityError
	case "IN_PROGRESS":
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

// severityForMetricCategory derives a level for metric events, which carry
// none upstream: critical-suffixed categories escalate, the rest warn.
func severityForMetricCategory(category string) models.Severity {
	if strings.Contains(strings.ToUpper(category), "CRITICAL") {
		return models.SeverityCritical
	}
	return models.SeverityWarning
}

func severityForResultStatus(status string) models.Severity {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "FAILED", "ERROR":
		return models.SeverityError
	default:
		return models.SeverityInfo
	}
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// LogEntry is the upstream log-event payload.
type LogEntry struct {
	LogID     uint      `json:"log_id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"`
	Timestamp time.Time `json:"timestamp"`
}

// DeploymentEvent is the upstream deployment-record payload.
type DeploymentEvent struct {
	DeploymentID uint      `json:"deployment_id"`
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Environment  string    `json:"environment"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewMetricAlert builds a resource-threshold notification. The recipient is
// left blank: metric alerts fan out to every administrator.
func NewMetricAlert(category, message, metadata string) models.Notification {
	severity := severityForMetricCategory(category)
	return models.Notification{
		Source:   models.SourceMetricThreshold,
		Category: strings.TrimSpace(category),
		Title:    DefaultTitle(models.SourceMetricThreshold, category, severity),
		Message:  TruncateMessage(message),
		Severity: severity,
		Metadata: optional(metadata),
	}
}

// NewLogAlert builds a notification from an error/warning log entry.
func NewLogAlert(entry LogEntry) models.Notification {
	severity := SeverityForLogLevel(entry.Level)
	category := strings.TrimSpace(entry.Category)
	if category == "" {
		category = "APP_LOG"
	}
	metadata := entry.Metadata
	if metadata == "" && entry.LogID != 0 {
		metadata = fmt.Sprintf(`{"log_id":%d}`, entry.LogID)
	}
	return models.Notification{
		Source:   models.SourceLogEvent,
		Category: category,
		Title:    DefaultTitle(models.SourceLogEvent, category, severity),
		Message:  TruncateMessage(entry.Message),
		Severity: severity,
		Metadata: optional(metadata),
	}
}

// NewDeploymentAlert builds a notification for a deployment state change.
func NewDeploymentAlert(dep DeploymentEvent) models.Notification {
	severity := SeverityForDeployStatus(dep.Status)
	category := strings.ToUpper(strings.TrimSpace(dep.Status))
	if category == "" {
		category = "UNKNOWN"
	}
	message := strings.TrimSpace(dep.Description)
	if message == "" {
		message = fmt.Sprintf("Deployment %s %s on %s", dep.Version, strings.ToLower(category), dep.Environment)
	}
	metadata := ""
	if dep.DeploymentID != 0 {
		metadata = fmt.Sprintf(`{"deployment_id":%d,"version":%q,"environment":%q}`, dep.DeploymentID, dep.Version, dep.Environment)
	}
	return models.Notification{
		Source:   models.SourceDeployment,
		Category: category,
		Title:    DefaultTitle(models.SourceDeployment, dep.Version, severity),
		Message:  TruncateMessage(message),
		Severity: severity,
		Metadata: optional(metadata),
	}
}

// NewMatchAlert builds an author/manager matching notification for a single
// manager.
func NewMatchAlert(recipientID, title, message, actionURL string) models.Notification {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle(models.SourceMatchEvent, "", models.SeverityInfo)
	}
	return models.Notification{
		RecipientID: recipientID,
		Source:      models.SourceMatchEvent,
		Category:    "AUTHOR_MATCH",
		Title:       title,
		Message:     TruncateMessage(message),
		Severity:    models.SeverityInfo,
		ActionURL:   optional(actionURL),
	}
}

// NewProposalAlert builds a proposal-completion notification for the
// requesting manager.
func NewProposalAlert(recipientID string, proposalID uint, status, title string) models.Notification {
	severity := severityForResultStatus(status)
	category := strings.ToUpper(strings.TrimSpace(status))
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle(models.SourceProposalResult, category, severity)
	}
	metadata := ""
	if proposalID != 0 {
		metadata = fmt.Sprintf(`{"proposal_id":%d}`, proposalID)
	}
	actionURL := ""
	if proposalID != 0 {
		actionURL = fmt.Sprintf("/proposals/%d", proposalID)
	}
	return models.Notification{
		RecipientID: recipientID,
		Source:      models.SourceProposalResult,
		Category:    category,
		Title:       title,
		Message:     TruncateMessage(fmt.Sprintf("Proposal generation %s", strings.ToLower(category))),
		Severity:    severity,
		ActionURL:   optional(actionURL),
		Metadata:    optional(metadata),
	}
}

// NewReportAlert builds a report-completion notification. Recipient is
// assigned by the broadcaster: a report without an explicit requester fans
// out to every manager.
func NewReportAlert(reportID uint, status, category string) models.Notification {
	severity := severityForResultStatus(status)
	if category = strings.TrimSpace(category); category == "" {
		category = strings.ToUpper(strings.TrimSpace(status))
	}
	metadata := ""
	if reportID != 0 {
		metadata = fmt.Sprintf(`{"report_id":%d}`, reportID)
	}
	actionURL := ""
	if reportID != 0 {
		actionURL = fmt.Sprintf("/reports/%d", reportID)
	}
	return models.Notification{
		Source:    models.SourceReportResult,
		Category:  category,
		Title:     DefaultTitle(models.SourceReportResult, category, severity),
		Message:   TruncateMessage(fmt.Sprintf("Report processing %s", strings.ToLower(strings.TrimSpace(status)))),
		Severity:  severity,
		ActionURL: optional(actionURL),
		Metadata:  optional(metadata),
	}
}

// NewBroadcastNotice builds an operator-authored notice. The audience role
// is resolved by the broadcaster.
func NewBroadcastNotice(category, message string) models.Notification {
	if category = strings.TrimSpace(category); category == "" {
		category = "GENERAL"
	}
	return models.Notification{
		Source:   models.SourceOperatorBroadcast,
		Category: category,
		Title:    DefaultTitle(models.SourceOperatorBroadcast, category, models.SeverityInfo),
		Message:  TruncateMessage(message),
		Severity: models.SeverityInfo,
	}
}
