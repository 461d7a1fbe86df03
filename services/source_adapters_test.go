package services

import (
	"strings"
	"testing"

	"content-platform-api/models"
)

func TestSeverityForLogLevel(t *testing.T) {
	cases := []struct {
		level string
		want  models.Severity
	}{
		{"ERROR", models.SeverityError},
		{"error", models.SeverityError},
		{"WARN", models.SeverityWarning},
		{"WARNING", models.SeverityWarning},
		{"INFO", models.SeverityInfo},
		{"TRACE", models.SeverityInfo},
		{"", models.SeverityInfo},
		{"garbage", models.SeverityInfo},
	}
	for _, tc := range cases {
		if got := SeverityForLogLevel(tc.level); got != tc.want {
			t.Errorf("SeverityForLogLevel(%q) = %s, want %s", tc.level, got, tc.want)
		}
	}
}

func TestSeverityForDeployStatus(t *testing.T) {
	cases := []struct {
		status string
		want   models.Severity
	}{
		{"FAILED", models.SeverityError},
		{"IN_PROGRESS", models.SeverityWarning},
		{"SUCCESS", models.SeverityInfo},
		{"rolled_back", models.SeverityInfo},
	}
	for _, tc := range cases {
		if got := SeverityForDeployStatus(tc.status); got != tc.want {
			t.Errorf("SeverityForDeployStatus(%q) = %s, want %s", tc.status, got, tc.want)
		}
	}
}

func TestNewMetricAlertEscalatesCriticalCategories(t *testing.T) {
	alert := NewMetricAlert("RESOURCE_CRITICAL", "disk almost full", `{"disk_pct":97}`)
	if alert.Severity != models.SeverityCritical {
		t.Fatalf("severity = %s, want CRITICAL", alert.Severity)
	}
	if alert.Source != models.SourceMetricThreshold {
		t.Fatalf("source = %s, want METRIC_THRESHOLD", alert.Source)
	}
	if !strings.Contains(alert.Title, "RESOURCE_CRITICAL") {
		t.Fatalf("title %q does not mention the category", alert.Title)
	}
	if alert.Metadata == nil || *alert.Metadata != `{"disk_pct":97}` {
		t.Fatalf("metadata not preserved: %v", alert.Metadata)
	}

	warn := NewMetricAlert("CPU_HIGH", "cpu above threshold", "")
	if warn.Severity != models.SeverityWarning {
		t.Fatalf("severity = %s, want WARNING", warn.Severity)
	}
	if warn.Metadata != nil {
		t.Fatalf("empty metadata should stay nil")
	}
}

func TestNewLogAlertDegradesUnknownLevels(t *testing.T) {
	alert := NewLogAlert(LogEntry{Level: "TRACE", Message: "noisy detail"})
	if alert.Severity != models.SeverityInfo {
		t.Fatalf("severity = %s, want INFO", alert.Severity)
	}
	if alert.Category != "APP_LOG" {
		t.Fatalf("category = %q, want APP_LOG fallback", alert.Category)
	}

	warn := NewLogAlert(LogEntry{Level: "WARN", Category: "DB_BACKUP", Message: "backup slow", LogID: 42})
	if warn.Severity != models.SeverityWarning {
		t.Fatalf("severity = %s, want WARNING", warn.Severity)
	}
	if warn.Metadata == nil || !strings.Contains(*warn.Metadata, "42") {
		t.Fatalf("log id not carried in metadata: %v", warn.Metadata)
	}
}

func TestNewDeploymentAlertSynthesizesMessage(t *testing.T) {
	alert := NewDeploymentAlert(DeploymentEvent{
		DeploymentID: 7,
		Status:       "failed",
		Version:      "v2.4.1",
		Environment:  "production",
	})
	if alert.Severity != models.SeverityError {
		t.Fatalf("severity = %s, want ERROR", alert.Severity)
	}
	if alert.Category != "FAILED" {
		t.Fatalf("category = %q, want FAILED", alert.Category)
	}
	if !strings.Contains(alert.Message, "v2.4.1") || !strings.Contains(alert.Message, "production") {
		t.Fatalf("synthesized message %q is missing version/environment", alert.Message)
	}
}

func TestNewMatchAlertKeepsExplicitTitle(t *testing.T) {
	alert := NewMatchAlert("mgr-1", "New author", "Author Kim matched", "/authors/42")
	if alert.Title != "New author" {
		t.Fatalf("title = %q, want explicit title kept", alert.Title)
	}
	if alert.RecipientID != "mgr-1" {
		t.Fatalf("recipient = %q, want mgr-1", alert.RecipientID)
	}
	if alert.ActionURL == nil || *alert.ActionURL != "/authors/42" {
		t.Fatalf("action url not preserved: %v", alert.ActionURL)
	}

	fallback := NewMatchAlert("mgr-1", "  ", "Author Kim matched", "")
	if fallback.Title == "" || !strings.Contains(fallback.Title, "Matching") {
		t.Fatalf("blank title not synthesized: %q", fallback.Title)
	}
}

func TestNewReportAlertSeverity(t *testing.T) {
	failed := NewReportAlert(3, "FAILED", "MONTHLY_SETTLEMENT")
	if failed.Severity != models.SeverityError {
		t.Fatalf("severity = %s, want ERROR", failed.Severity)
	}
	if failed.Category != "MONTHLY_SETTLEMENT" {
		t.Fatalf("category = %q", failed.Category)
	}
	if failed.ActionURL == nil || *failed.ActionURL != "/reports/3" {
		t.Fatalf("action url = %v, want /reports/3", failed.ActionURL)
	}

	done := NewReportAlert(3, "completed", "")
	if done.Severity != models.SeverityInfo {
		t.Fatalf("severity = %s, want INFO", done.Severity)
	}
}

func TestTruncateMessage(t *testing.T) {
	short := strings.Repeat("a", maxMessageRunes)
	if got := TruncateMessage(short); got != short {
		t.Fatalf("message at the bound must not be truncated")
	}

	long := strings.Repeat("가", maxMessageRunes+50)
	got := TruncateMessage(long)
	runes := []rune(got)
	if len(runes) != maxMessageRunes+1 {
		t.Fatalf("truncated length = %d runes, want %d", len(runes), maxMessageRunes+1)
	}
	if !strings.HasSuffix(got, truncationMarker) {
		t.Fatalf("truncated message missing marker: %q", got[len(got)-12:])
	}
}

func TestParseSeverityDefaultsToInfo(t *testing.T) {
	if got := models.ParseSeverity("TRACE"); got != models.SeverityInfo {
		t.Fatalf("ParseSeverity(TRACE) = %s, want INFO", got)
	}
	if got := models.ParseSeverity("warning"); got != models.SeverityWarning {
		t.Fatalf("ParseSeverity(warning) = %s, want WARNING", got)
	}
	if !models.SeverityError.NotificationWorthy() || models.SeverityInfo.NotificationWorthy() {
		t.Fatalf("notification-worthy threshold is wrong")
	}
}
