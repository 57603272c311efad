package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/asomstudio/asomstudio-api/internal/models"
	"github.com/asomstudio/asomstudio-api/internal/ratelimit"
	"github.com/asomstudio/asomstudio-api/pkg/mailer"
)

const thankYouMessage = "Thank you for your message! We'll get back to you within 24 hours."

func TestContactService_Submit_Success(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())
	ctx := context.Background()

	var notification, autoReply *mailer.Message
	limiter.On("Allow", ctx, ratelimit.ClientKey("203.0.113.7")).Return(true, nil).Once()
	sender.On("Send", ctx, mock.MatchedBy(func(msg *mailer.Message) bool {
		return msg.To == "hello@asomstudio.ai"
	})).Run(func(args mock.Arguments) {
		notification = args.Get(1).(*mailer.Message)
	}).Return(nil).Once()
	sender.On("Send", ctx, mock.MatchedBy(func(msg *mailer.Message) bool {
		return msg.To == "jane@example.com"
	})).Run(func(args mock.Arguments) {
		autoReply = args.Get(1).(*mailer.Message)
	}).Return(nil).Once()

	resp := service.Submit(ctx, validRequest(), localMeta())

	assert.True(t, resp.Success)
	assert.Equal(t, thankYouMessage, resp.Message)
	assert.NotEmpty(t, resp.Timestamp)

	limiter.AssertExpectations(t)
	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "Send", 2)

	// Notification goes to the operator with reply-to pointing back at the
	// submitter; the auto-reply goes to the submitter.
	assert.Equal(t, "jane@example.com", notification.ReplyTo)
	assert.Equal(t, "[ASOM Studio] New Contact Form Submission - AI Development", notification.Subject)
	assert.Contains(t, notification.HTMLBody, "Jane Doe")
	assert.Equal(t, "Thank you for contacting ASOM Studio", autoReply.Subject)
}

func TestContactService_Submit_ValidationMessages(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(req *models.ContactRequest)
		expected string
	}{
		{
			name:     "missing name",
			mutate:   func(req *models.ContactRequest) { req.Name = "" },
			expected: "Name is required",
		},
		{
			name:     "name too short",
			mutate:   func(req *models.ContactRequest) { req.Name = "J" },
			expected: "Name must be between 2 and 100 characters",
		},
		{
			name:     "name with digits",
			mutate:   func(req *models.ContactRequest) { req.Name = "Jane 123" },
			expected: "Name contains invalid characters",
		},
		{
			name:     "missing email",
			mutate:   func(req *models.ContactRequest) { req.Email = "" },
			expected: "Email is required",
		},
		{
			name:     "malformed email",
			mutate:   func(req *models.ContactRequest) { req.Email = "not-an-email" },
			expected: "Please enter a valid email address",
		},
		{
			name:     "missing service",
			mutate:   func(req *models.ContactRequest) { req.Service = "" },
			expected: "Please select a service",
		},
		{
			name:     "unknown service",
			mutate:   func(req *models.ContactRequest) { req.Service = "time-travel" },
			expected: "Invalid service selection",
		},
		{
			name:     "missing message",
			mutate:   func(req *models.ContactRequest) { req.Message = "" },
			expected: "Message is required",
		},
		{
			name:     "message too short",
			mutate:   func(req *models.ContactRequest) { req.Message = "Hi" },
			expected: "Message must be between 10 and 2000 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, limiter, sender := newTestService(t, testConfig())
			ctx := context.Background()
			limiter.On("Allow", ctx, mock.Anything).Return(true, nil).Once()

			req := validRequest()
			tt.mutate(req)

			resp := service.Submit(ctx, req, localMeta())

			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, tt.expected)
			sender.AssertNotCalled(t, "Send")
		})
	}
}

func TestContactService_Submit_CollectsAllValidationErrors(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())
	ctx := context.Background()
	limiter.On("Allow", ctx, mock.Anything).Return(true, nil).Once()

	resp := service.Submit(ctx, &models.ContactRequest{}, localMeta())

	assert.False(t, resp.Success)
	assert.Equal(t,
		"Name is required. Email is required. Please select a service. Message is required",
		resp.Message)
	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_TrimsWhitespaceBeforeValidation(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())
	ctx := context.Background()
	limiter.On("Allow", ctx, mock.Anything).Return(true, nil).Once()
	sender.On("Send", ctx, mock.Anything).Return(nil).Twice()

	req := validRequest()
	req.Name = "  Jane Doe  "
	req.Email = " jane@example.com "

	resp := service.Submit(ctx, req, localMeta())

	assert.True(t, resp.Success)
	sender.AssertExpectations(t)
}

func TestContactService_Submit_SpamIsSilentlySwallowed(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())
	ctx := context.Background()
	limiter.On("Allow", ctx, mock.Anything).Return(true, nil).Once()

	req := validRequest()
	req.Message = "Amazing offer, BUY NOW while supplies last!"

	resp := service.Submit(ctx, req, localMeta())

	// Indistinguishable from a genuine success, but nothing is sent.
	assert.True(t, resp.Success)
	assert.Equal(t, thankYouMessage, resp.Message)
	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_OriginRejected(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())

	meta := localMeta()
	meta.Origin = "https://evil.example"

	resp := service.Submit(context.Background(), validRequest(), meta)

	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid origin", resp.Message)
	// Rejected before the submission pipeline runs at all.
	limiter.AssertNotCalled(t, "Allow")
	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_OriginChecks(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		referer string
		allowed bool
	}{
		{name: "no origin or referer is trusted", allowed: true},
		{name: "allow-listed origin", origin: "https://www.asomstudio.ai", allowed: true},
		{name: "allow-listed referer only", referer: "https://asomstudio.ai/contact.html", allowed: true},
		{name: "localhost with port", origin: "http://localhost:3000", allowed: true},
		{name: "loopback address", origin: "http://127.0.0.1:8080", allowed: true},
		{name: "foreign origin", origin: "https://evil.example", allowed: false},
		{name: "subdomain of allowed host", origin: "https://phish.asomstudio.ai.evil.example", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, limiter, sender := newTestService(t, testConfig())
			ctx := context.Background()
			limiter.On("Allow", ctx, mock.Anything).Return(true, nil).Maybe()
			sender.On("Send", ctx, mock.Anything).Return(nil).Maybe()

			meta := localMeta()
			meta.Origin = tt.origin
			meta.Referer = tt.referer

			resp := service.Submit(ctx, validRequest(), meta)

			if tt.allowed {
				assert.True(t, resp.Success)
			} else {
				assert.False(t, resp.Success)
				assert.Equal(t, "Invalid origin", resp.Message)
			}
		})
	}
}

func TestContactService_Submit_RateLimited(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())
	ctx := context.Background()
	limiter.On("Allow", ctx, mock.Anything).Return(false, nil).Once()

	resp := service.Submit(ctx, validRequest(), localMeta())

	assert.False(t, resp.Success)
	assert.Equal(t, "Too many requests. Please try again later.", resp.Message)
	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_LimiterStoreFailure(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())
	ctx := context.Background()
	limiter.On("Allow", ctx, mock.Anything).Return(false, errors.New("store down")).Once()

	resp := service.Submit(ctx, validRequest(), localMeta())

	assert.False(t, resp.Success)
	assert.Equal(t, "An unexpected error occurred. Please try again later.", resp.Message)
	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_NotificationSendFailure(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())
	ctx := context.Background()
	limiter.On("Allow", ctx, mock.Anything).Return(true, nil).Once()
	sender.On("Send", ctx, mock.Anything).Return(errors.New("ses unavailable")).Once()

	resp := service.Submit(ctx, validRequest(), localMeta())

	assert.False(t, resp.Success)
	assert.Equal(t,
		"Sorry, there was a problem sending your message. Please try again or contact us directly.",
		resp.Message)
	// The auto-reply is never attempted when the notification fails.
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestContactService_Submit_AutoReplyFailureIsIgnored(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())
	ctx := context.Background()
	limiter.On("Allow", ctx, mock.Anything).Return(true, nil).Once()
	sender.On("Send", ctx, mock.MatchedBy(func(msg *mailer.Message) bool {
		return msg.To == "hello@asomstudio.ai"
	})).Return(nil).Once()
	sender.On("Send", ctx, mock.MatchedBy(func(msg *mailer.Message) bool {
		return msg.To == "jane@example.com"
	})).Return(errors.New("mailbox full")).Once()

	resp := service.Submit(ctx, validRequest(), localMeta())

	assert.True(t, resp.Success)
	assert.Equal(t, thankYouMessage, resp.Message)
	sender.AssertExpectations(t)
}

func TestContactService_Submit_EscapesHTMLInEmailBodies(t *testing.T) {
	service, limiter, sender := newTestService(t, testConfig())
	ctx := context.Background()

	var notification *mailer.Message
	limiter.On("Allow", ctx, mock.Anything).Return(true, nil).Once()
	sender.On("Send", ctx, mock.MatchedBy(func(msg *mailer.Message) bool {
		return msg.To == "hello@asomstudio.ai"
	})).Run(func(args mock.Arguments) {
		notification = args.Get(1).(*mailer.Message)
	}).Return(nil).Once()
	sender.On("Send", ctx, mock.Anything).Return(nil).Once()

	req := validRequest()
	req.Message = `Hello <script>alert("xss")</script> this is my message.`

	resp := service.Submit(ctx, req, localMeta())

	assert.True(t, resp.Success)
	assert.Contains(t, notification.HTMLBody, "&lt;script&gt;")
	assert.NotContains(t, notification.HTMLBody, "<script>")
}

func TestContactService_Submit_CSRFRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Token.CSRFRequired = true
	service, limiter, sender := newTestService(t, cfg)
	ctx := context.Background()

	req := validRequest()
	req.CSRFToken = "not-a-token"

	resp := service.Submit(ctx, req, localMeta())

	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid form token. Please reload the page and try again.", resp.Message)
	limiter.AssertNotCalled(t, "Allow")
	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_CSRFValidTokenAccepted(t *testing.T) {
	cfg := testConfig()
	cfg.Token.CSRFRequired = true
	service, limiter, sender := newTestService(t, cfg)
	ctx := context.Background()
	limiter.On("Allow", ctx, mock.Anything).Return(true, nil).Once()
	sender.On("Send", ctx, mock.Anything).Return(nil).Twice()

	tokenResp := service.Token()
	issued, ok := tokenResp.Data["csrf_token"].(string)
	assert.True(t, ok)

	req := validRequest()
	req.CSRFToken = issued

	resp := service.Submit(ctx, req, localMeta())

	assert.True(t, resp.Success)
	sender.AssertExpectations(t)
}

func TestContactService_Token(t *testing.T) {
	service, _, _ := newTestService(t, testConfig())

	resp := service.Token()

	assert.True(t, resp.Success)
	assert.Equal(t, "Contact form ready", resp.Message)
	assert.NotEmpty(t, resp.Data["csrf_token"])
	assert.NotEmpty(t, resp.Timestamp)
}
