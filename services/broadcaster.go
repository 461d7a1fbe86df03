package services

import (
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"content-platform-api/config"
	"content-platform-api/models"
)

// RecordStore is the slice of the notification store the broadcaster needs.
type RecordStore interface {
	Create(n *models.Notification) error
	ActiveAccountsByRole(role string) ([]models.Account, error)
	AccountByRecipient(recipientID string) (*models.Account, error)
}

// Broadcaster is the single choke point for raising a notification:
// persistence always happens before any push, and a missed push is never
// retried here — the catch-up API is the recovery path.
type Broadcaster struct {
	store    RecordStore
	registry *ChannelRegistry
	mail     func(to []string, subject, html string) error // nil disables mail copies
}

func NewBroadcaster(store RecordStore, registry *ChannelRegistry) *Broadcaster {
	b := &Broadcaster{store: store, registry: registry}
	if config.MailConfigured() {
		b.mail = config.SendMail
	}
	return b
}

// Raise persists the record, then pushes it to the recipient's channel if
// one is open. Persist failures are hard failures for the caller; push
// failures are purely diagnostic.
func (b *Broadcaster) Raise(rec models.Notification) (models.Notification, error) {
	if err := b.store.Create(&rec); err != nil {
		return models.Notification{}, fmt.Errorf("persist notification: %w", err)
	}
	if !b.registry.Send(rec.RecipientID, rec) {
		log.Printf("notification %d for %s not pushed (no open channel)", rec.NotificationID, rec.RecipientID)
	}
	b.mailCriticalCopy(rec)
	return rec, nil
}

// RaiseForRole fans a notification out to every live account holding the
// role: one persisted record per recipient, then one push per open channel.
// build receives each recipient identity so per-recipient fields (action
// URLs, salutations) can differ.
func (b *Broadcaster) RaiseForRole(role string, build func(recipientID string) models.Notification) ([]models.Notification, error) {
	accounts, err := b.store.ActiveAccountsByRole(role)
	if err != nil {
		return nil, fmt.Errorf("load %s accounts: %w", role, err)
	}

	persisted := make(map[string]models.Notification, len(accounts))
	out := make([]models.Notification, 0, len(accounts))
	now := time.Now()
	for _, acc := range accounts {
		rec := build(acc.RecipientID)
		rec.RecipientID = acc.RecipientID
		if rec.CreateAt.IsZero() {
			rec.CreateAt = now
		}
		if err := b.store.Create(&rec); err != nil {
			return out, fmt.Errorf("persist notification for %s: %w", acc.RecipientID, err)
		}
		persisted[acc.RecipientID] = rec
		out = append(out, rec)
		b.mailCriticalCopy(rec)
	}

	b.registry.Broadcast(
		func(_, chRole string) bool { return chRole == role },
		func(recipientID string) (models.Notification, bool) {
			rec, ok := persisted[recipientID]
			return rec, ok
		},
	)
	return out, nil
}

// mailCriticalCopy sends an asynchronous e-mail copy of CRITICAL
// notifications to the recipient's account address. Failures are logged and
// swallowed.
func (b *Broadcaster) mailCriticalCopy(rec models.Notification) {
	if b.mail == nil || rec.Severity != models.SeverityCritical {
		return
	}
	account, err := b.store.AccountByRecipient(rec.RecipientID)
	if err != nil || account.Email == nil || *account.Email == "" {
		return
	}
	email := *account.Email
	name := rec.RecipientID
	if account.DisplayName != nil && *account.DisplayName != "" {
		name = *account.DisplayName
	}
	go func() {
		html := buildAlertEmailHTML(rec.Title, name, rec.Message)
		if err := b.mail([]string{email}, rec.Title, html); err != nil {
			log.Printf("notification email send failed (subject=%q to=%s): %v", rec.Title, email, err)
		}
	}()
}

func buildAlertEmailHTML(subject, recipientName, message string) string {
	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", strings.TrimSpace(recipientName)))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
