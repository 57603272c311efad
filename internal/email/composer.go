// Package email builds the notification and auto-reply messages for a
// contact form submission. Field values arrive already HTML-escaped from the
// sanitization step, so templates interpolate them directly.
package email

import (
	"fmt"
	"strings"

	"github.com/osteele/liquid"

	"github.com/asomstudio/asomstudio-api/config"
	"github.com/asomstudio/asomstudio-api/internal/models"
	"github.com/asomstudio/asomstudio-api/pkg/mailer"
)

const notificationSubject = "New Contact Form Submission - %s"
const autoReplySubject = "Thank you for contacting ASOM Studio"

// autoReplySummaryLimit bounds the quoted message in the auto-reply.
const autoReplySummaryLimit = 200

const notificationHTML = `<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #FF6B35; color: white; padding: 20px; text-align: center; }
    .content { background: #f9f9f9; padding: 20px; }
    .field { margin-bottom: 15px; }
    .field strong { color: #FF6B35; }
    .footer { background: #1A1A1A; color: white; padding: 15px; text-align: center; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h2>New Contact Form Submission</h2>
      <p>ASOM Studio - asomstudio.ai</p>
    </div>
    <div class="content">
      <div class="field"><strong>Name:</strong> {{ name }}</div>
      <div class="field"><strong>Email:</strong> {{ email }}</div>
      <div class="field"><strong>Company:</strong> {{ company }}</div>
      <div class="field"><strong>Service Interest:</strong> {{ service }}</div>
      <div class="field"><strong>Message:</strong><br>{{ message | nl2br }}</div>
      <div class="field"><strong>Submitted:</strong> {{ submitted_at }}</div>
      <div class="field"><strong>IP Address:</strong> {{ client_ip }}</div>
      <div class="field"><strong>User Agent:</strong> {{ user_agent }}</div>
    </div>
    <div class="footer">
      <p>This email was sent from the ASOM Studio contact form</p>
      <p>To reply, use: {{ email }}</p>
    </div>
  </div>
</body>
</html>`

const notificationText = `New contact form submission

Name: {{ name }}
Email: {{ email }}
Company: {{ company }}
Service Interest: {{ service }}

Message:
{{ message }}

Submitted: {{ submitted_at }}
IP Address: {{ client_ip }}
User Agent: {{ user_agent }}`

const autoReplyHTML = `<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #FF6B35; color: white; padding: 20px; text-align: center; }
    .content { background: #f9f9f9; padding: 20px; }
    .footer { background: #1A1A1A; color: white; padding: 15px; text-align: center; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h2>Thank You, {{ name }}!</h2>
      <p>We've received your message</p>
    </div>
    <div class="content">
      <p>Thank you for reaching out to ASOM Studio. We've received your inquiry about
      <strong>{{ service }}</strong> and will get back to you within 24 hours.</p>
      <p><strong>Your message summary:</strong></p>
      <p style="background: white; padding: 15px; border-left: 4px solid #FF6B35;">{{ summary | nl2br }}</p>
    </div>
    <div class="footer">
      <p><strong>ASOM Studio</strong><br>
      AI-Powered Creative Solutions</p>
    </div>
  </div>
</body>
</html>`

const autoReplyText = `Thank you for reaching out to ASOM Studio, {{ name }}.

We've received your inquiry about {{ service }} and will get back to you
within 24 hours.

Your message summary:
{{ summary }}

ASOM Studio - AI-Powered Creative Solutions`

// Composer renders contact emails from liquid templates.
type Composer struct {
	cfg              config.ContactConfig
	notification     *liquid.Template
	notificationText *liquid.Template
	autoReply        *liquid.Template
	autoReplyText    *liquid.Template
}

// NewComposer parses the email templates. Template errors are programming
// errors, so parse failures are returned for startup to fail on.
func NewComposer(cfg config.ContactConfig) (*Composer, error) {
	engine := liquid.NewEngine()

	// Convert escaped newlines to <br> tags in HTML bodies
	engine.RegisterFilter("nl2br", func(s string) string {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return strings.ReplaceAll(s, "\n", "<br>")
	})

	c := &Composer{cfg: cfg}
	for _, t := range []struct {
		src string
		out **liquid.Template
	}{
		{src: notificationHTML, out: &c.notification},
		{src: notificationText, out: &c.notificationText},
		{src: autoReplyHTML, out: &c.autoReply},
		{src: autoReplyText, out: &c.autoReplyText},
	} {
		tpl, err := engine.ParseTemplate([]byte(t.src))
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template: %w", err)
		}
		*t.out = tpl
	}

	return c, nil
}

// BuildNotification creates the operator-facing email for a submission.
// Reply-To is set to the submitter so a plain reply reaches them.
func (c *Composer) BuildNotification(sub *models.Submission) (*mailer.Message, error) {
	company := sub.Company
	if company == "" {
		company = "Not provided"
	}

	bindings := map[string]any{
		"name":         sub.Name,
		"email":        sub.Email,
		"company":      company,
		"service":      sub.ServiceDisplayName(),
		"message":      sub.Message,
		"submitted_at": sub.ReceivedAt.Format("2006-01-02 15:04:05 MST"),
		"client_ip":    sub.ClientIP,
		"user_agent":   sub.UserAgent,
	}

	htmlBody, err := c.notification.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to render notification body: %w", err)
	}
	textBody, err := c.notificationText.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to render notification text body: %w", err)
	}

	return &mailer.Message{
		To:       c.cfg.RecipientEmail,
		From:     c.cfg.FromEmail,
		FromName: c.cfg.FromName,
		ReplyTo:  sub.Email,
		Subject:  c.cfg.SubjectPrefix + fmt.Sprintf(notificationSubject, sub.ServiceDisplayName()),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

// BuildAutoReply creates the confirmation email sent back to the submitter.
func (c *Composer) BuildAutoReply(sub *models.Submission) (*mailer.Message, error) {
	summary := sub.Message
	if len(summary) > autoReplySummaryLimit {
		summary = summary[:autoReplySummaryLimit] + "..."
	}

	bindings := map[string]any{
		"name":    sub.Name,
		"service": sub.ServiceDisplayName(),
		"summary": summary,
	}

	htmlBody, err := c.autoReply.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to render auto-reply body: %w", err)
	}
	textBody, err := c.autoReplyText.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to render auto-reply text body: %w", err)
	}

	return &mailer.Message{
		To:       sub.Email,
		From:     c.cfg.FromEmail,
		FromName: c.cfg.FromName,
		Subject:  autoReplySubject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}
