// Package notify delivers run reports over email and webhooks.
// Delivery is best effort: a failed notification is logged, never
// allowed to fail the run that produced it.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/ilee165/network-device-backup/internal/config"
	"github.com/ilee165/network-device-backup/internal/log"
	"github.com/ilee165/network-device-backup/internal/model"
)

// Notifier sends run reports over the channels enabled in settings.
type Notifier struct {
	email   config.EmailSettings
	webhook config.WebhookSettings
	client  *http.Client
}

// New creates a notifier from the notification settings.
func New(settings config.NotificationSettings) *Notifier {
	return &Notifier{
		email:   settings.Email,
		webhook: settings.Webhook,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers the run report on every enabled channel. Errors are
// logged per channel; Send itself never fails.
func (n *Notifier) Send(result *model.RunResult, report string) {
	if n.email.Enabled {
		if err := n.sendEmail(result, report); err != nil {
			log.Error("Email notification failed", "error", err)
		} else {
			log.Info("Email notification sent", "to", strings.Join(n.email.To, ", "))
		}
	}

	if n.webhook.Enabled {
		if err := n.sendWebhook(result); err != nil {
			log.Error("Webhook notification failed", "error", err)
		} else {
			log.Info("Webhook notification sent")
		}
	}
}

func (n *Notifier) sendEmail(result *model.RunResult, report string) error {
	if n.email.SMTPServer == "" || len(n.email.To) == 0 {
		return fmt.Errorf("email enabled but smtp_server or to_addresses missing")
	}

	status := "OK"
	if result.Failed > 0 {
		status = "FAILURES"
	}
	subject := fmt.Sprintf("Backup report [%s]: %d/%d succeeded, %d changed",
		status, result.Succeeded, result.Total, result.Changed)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.email.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(n.email.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(report)

	addr := fmt.Sprintf("%s:%d", n.email.SMTPServer, n.email.SMTPPort)

	var auth smtp.Auth
	if n.email.Username != "" {
		auth = smtp.PlainAuth("", n.email.Username, n.email.Password, n.email.SMTPServer)
	}

	return smtp.SendMail(addr, auth, n.email.From, n.email.To, msg.Bytes())
}

func (n *Notifier) sendWebhook(result *model.RunResult) error {
	if n.webhook.URL == "" {
		return fmt.Errorf("webhook enabled but no URL resolved from environment")
	}

	payload := struct {
		RunID     string    `json:"run_id"`
		Selection string    `json:"selection"`
		Total     int       `json:"total"`
		Succeeded int       `json:"succeeded"`
		Failed    int       `json:"failed"`
		Changed   int       `json:"changed"`
		Unchanged int       `json:"unchanged"`
		StartedAt time.Time `json:"started_at"`
		EndedAt   time.Time `json:"ended_at"`
	}{
		RunID:     result.ID,
		Selection: result.Selection,
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Changed:   result.Changed,
		Unchanged: result.Unchanged,
		StartedAt: result.StartedAt,
		EndedAt:   result.EndedAt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	resp, err := n.client.Post(n.webhook.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
