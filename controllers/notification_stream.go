package controllers

import (
	"net/http"

	"content-platform-api/middleware"
	"content-platform-api/services"

	"github.com/gin-gonic/gin"
)

// StreamNotifications opens the long-lived push stream for the caller
// (Server-Sent Events). The first frame is a distinguished "connected"
// event; every pushed record follows as one "notification" event. Opening a
// second stream for the same identity evicts this one.
// GET /api/v1/notifications/stream
func (ctl *NotificationController) StreamNotifications(c *gin.Context) {
	recipientID, ok := middleware.CurrentRecipient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.CurrentRole(c)

	ch := ctl.registry.Open(recipientID, role)

	c.Writer.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{
		"recipient_id": recipientID,
		"channel_id":   ch.ID(),
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case rec := <-ch.Events():
			c.SSEvent("notification", rec)
			c.Writer.Flush()
		case <-ch.Done():
			// Evicted by a newer connection, timed out, or errored; either
			// way the terminal transition already deregistered us.
			return
		case <-clientGone:
			ctl.registry.Release(ch, services.ChannelCompleted)
			return
		}
	}
}
