package controllers

import (
	"net/http"
	"strings"
	"time"

	"content-platform-api/models"
	"content-platform-api/services"

	"github.com/gin-gonic/gin"
)

/* ==========================
   Event intake

   Upstream collaborators (metric collector, log shipper, CI, matching
   service, AI workers, operators) raise alerts here. Malformed enum values
   are degraded by the adapters, never rejected; only a failed persist is a
   hard error to the producer.
   ========================== */

type metricEventReq struct {
	Category string `json:"category" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Metadata string `json:"metadata"`
}

// RaiseMetricAlert fans a resource-threshold breach out to every admin.
// POST /api/v1/notifications/events/metrics
func (ctl *NotificationController) RaiseMetricAlert(c *gin.Context) {
	var req metricEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	alert := services.NewMetricAlert(req.Category, req.Message, req.Metadata)
	records, err := ctl.broadcaster.RaiseForRole(models.RoleAdmin, func(string) models.Notification {
		return alert
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(records)})
}

type logEventReq struct {
	LogID     uint      `json:"log_id"`
	Level     string    `json:"level" binding:"required"`
	Category  string    `json:"category"`
	Message   string    `json:"message" binding:"required"`
	Metadata  string    `json:"metadata"`
	Timestamp time.Time `json:"timestamp"`
}

// RaiseLogAlert fans an error/warning log entry out to every admin.
// POST /api/v1/notifications/events/logs
func (ctl *NotificationController) RaiseLogAlert(c *gin.Context) {
	var req logEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	alert := services.NewLogAlert(services.LogEntry{
		LogID:     req.LogID,
		Level:     req.Level,
		Category:  req.Category,
		Message:   req.Message,
		Metadata:  req.Metadata,
		Timestamp: req.Timestamp,
	})
	records, err := ctl.broadcaster.RaiseForRole(models.RoleAdmin, func(string) models.Notification {
		return alert
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(records)})
}

type deploymentEventReq struct {
	DeploymentID uint      `json:"deployment_id"`
	Status       string    `json:"status" binding:"required"`
	Version      string    `json:"version"`
	Environment  string    `json:"environment"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
}

// RaiseDeploymentAlert fans a deployment state change out to every admin.
// POST /api/v1/notifications/events/deployments
func (ctl *NotificationController) RaiseDeploymentAlert(c *gin.Context) {
	var req deploymentEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	alert := services.NewDeploymentAlert(services.DeploymentEvent{
		DeploymentID: req.DeploymentID,
		Status:       req.Status,
		Version:      req.Version,
		Environment:  req.Environment,
		Description:  req.Description,
		Timestamp:    req.Timestamp,
	})
	records, err := ctl.broadcaster.RaiseForRole(models.RoleAdmin, func(string) models.Notification {
		return alert
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(records)})
}

type matchEventReq struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Title       string `json:"title"`
	Message     string `json:"message" binding:"required"`
	ActionURL   string `json:"action_url"`
}

// RaiseMatchAlert notifies one manager of an author/manager matching event.
// POST /api/v1/notifications/events/matches
func (ctl *NotificationController) RaiseMatchAlert(c *gin.Context) {
	var req matchEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	rec, err := ctl.broadcaster.Raise(services.NewMatchAlert(req.RecipientID, req.Title, req.Message, req.ActionURL))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "notification_id": rec.NotificationID})
}

type proposalEventReq struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	ProposalID  uint   `json:"proposal_id"`
	Status      string `json:"status" binding:"required"`
	Title       string `json:"title"`
}

// RaiseProposalAlert notifies the requesting manager that proposal
// generation finished.
// POST /api/v1/notifications/events/proposals
func (ctl *NotificationController) RaiseProposalAlert(c *gin.Context) {
	var req proposalEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	rec, err := ctl.broadcaster.Raise(services.NewProposalAlert(req.RecipientID, req.ProposalID, req.Status, req.Title))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "notification_id": rec.NotificationID})
}

type reportEventReq struct {
	RecipientID string `json:"recipient_id"`
	ReportID    uint   `json:"report_id"`
	Status      string `json:"status" binding:"required"`
	Category    string `json:"category"`
}

// RaiseReportAlert notifies about a completed report. With an explicit
// recipient it targets that manager; without one it fans out to every
// manager.
// POST /api/v1/notifications/events/reports
func (ctl *NotificationController) RaiseReportAlert(c *gin.Context) {
	var req reportEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	alert := services.NewReportAlert(req.ReportID, req.Status, req.Category)

	if recipient := strings.TrimSpace(req.RecipientID); recipient != "" {
		alert.RecipientID = recipient
		rec, err := ctl.broadcaster.Raise(alert)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "notification_id": rec.NotificationID})
		return
	}

	records, err := ctl.broadcaster.RaiseForRole(models.RoleManager, func(string) models.Notification {
		return alert
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(records)})
}

type broadcastEventReq struct {
	Category     string `json:"category"`
	Message      string `json:"message" binding:"required"`
	AudienceRole string `json:"audience_role" binding:"required"`
}

// RaiseOperatorBroadcast fans an operator-authored notice out to every
// current holder of the audience role.
// POST /api/v1/notifications/events/broadcasts (service key)
// POST /api/v1/notifications/broadcasts       (admin JWT)
func (ctl *NotificationController) RaiseOperatorBroadcast(c *gin.Context) {
	var req broadcastEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	audience := strings.ToLower(strings.TrimSpace(req.AudienceRole))
	if audience != models.RoleManager && audience != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audience_role must be manager or admin"})
		return
	}

	notice := services.NewBroadcastNotice(req.Category, req.Message)
	records, err := ctl.broadcaster.RaiseForRole(audience, func(string) models.Notification {
		return notice
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(records)})
}
