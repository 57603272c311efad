package services

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/asomstudio/asomstudio-api/config"
	"github.com/asomstudio/asomstudio-api/internal/email"
	"github.com/asomstudio/asomstudio-api/internal/models"
	"github.com/asomstudio/asomstudio-api/internal/ratelimit"
	"github.com/asomstudio/asomstudio-api/pkg/logger"
	"github.com/asomstudio/asomstudio-api/pkg/mailer"
	"github.com/asomstudio/asomstudio-api/pkg/metrics"
	"github.com/asomstudio/asomstudio-api/pkg/token"
)

// Caller-facing messages. The same strings are returned for genuine and
// spam-flagged submissions so detection is never disclosed.
const (
	msgFormReady     = "Contact form ready"
	msgThankYou      = "Thank you for your message! We'll get back to you within 24 hours."
	msgInvalidOrigin = "Invalid origin"
	msgInvalidToken  = "Invalid form token. Please reload the page and try again."
	msgRateLimited   = "Too many requests. Please try again later."
	msgSendFailure   = "Sorry, there was a problem sending your message. Please try again or contact us directly."
	msgUnexpected    = "An unexpected error occurred. Please try again later."
)

var namePattern = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)

// spamIndicators are matched as substrings of the lower-cased concatenation
// of all free-text fields. A hit suppresses dispatch silently.
var spamIndicators = []string{
	"viagra", "casino", "loan", "bitcoin", "crypto", "investment",
	"make money", "click here", "buy now", "limited time",
}

// ContactService processes contact form submissions end to end: origin
// check, rate limiting, validation, spam heuristic, and email dispatch.
type ContactService struct {
	cfg      *config.Config
	limiter  ratelimit.Limiter
	sender   mailer.Sender
	tokens   *token.Manager
	composer *email.Composer
	validate *validator.Validate
	now      func() time.Time
}

// NewContactService creates a new contact service instance
func NewContactService(
	cfg *config.Config,
	limiter ratelimit.Limiter,
	sender mailer.Sender,
	tokens *token.Manager,
) (*ContactService, error) {
	composer, err := email.NewComposer(cfg.Contact)
	if err != nil {
		return nil, err
	}

	return &ContactService{
		cfg:      cfg,
		limiter:  limiter,
		sender:   sender,
		tokens:   tokens,
		composer: composer,
		validate: validator.New(),
		now:      time.Now,
	}, nil
}

// WithClock overrides the service clock. Used in tests.
func (s *ContactService) WithClock(now func() time.Time) *ContactService {
	s.now = now
	return s
}

// Token returns the informational payload for non-submit requests: a fresh
// anti-forgery token and no side effects.
func (s *ContactService) Token() *models.ContactResponse {
	resp := s.response(true, msgFormReady, nil)

	t, err := s.tokens.Issue()
	if err != nil {
		logger.Error("Failed to issue form token", zap.Error(err))
		return resp
	}

	metrics.ContactFormSubmissions.WithLabelValues("token_issued").Inc()
	resp.Data = map[string]any{"csrf_token": t}
	return resp
}

// Submit runs one submission through the processing pipeline and returns
// exactly one result. Internal failure kinds are logged but never exposed;
// the caller only sees success plus a human-readable message.
func (s *ContactService) Submit(ctx context.Context, req *models.ContactRequest, meta models.RequestMeta) *models.ContactResponse {
	// Origin check: absence of both origin and referrer is trusted
	// (permits direct and non-browser calls).
	if !s.originAllowed(meta) {
		metrics.ContactFormSubmissions.WithLabelValues("origin_rejected").Inc()
		logger.Warn("Contact form origin rejected",
			zap.String("origin", meta.Origin),
			zap.String("referer", meta.Referer),
			zap.String("client_ip", meta.ClientIP))
		return s.response(false, msgInvalidOrigin, nil)
	}

	if s.cfg.Token.CSRFRequired {
		if err := s.tokens.Verify(req.CSRFToken); err != nil {
			metrics.ContactFormSubmissions.WithLabelValues("csrf_failed").Inc()
			logger.Warn("Contact form token rejected",
				zap.Error(err),
				zap.String("client_ip", meta.ClientIP))
			return s.response(false, msgInvalidToken, nil)
		}
	}

	// Rate limiting: the attempt is recorded whether or not it is allowed.
	allowed, err := s.limiter.Allow(ctx, ratelimit.ClientKey(meta.ClientIP))
	if err != nil {
		metrics.ContactFormSubmissions.WithLabelValues("error").Inc()
		logger.Error("Rate limit store failure", zap.Error(err))
		return s.response(false, msgUnexpected, nil)
	}
	if !allowed {
		metrics.ContactFormSubmissions.WithLabelValues("rate_limited").Inc()
		metrics.RateLimitDecisions.WithLabelValues("denied").Inc()
		logger.Warn("Contact form rate limited", zap.String("client_ip", meta.ClientIP))
		// Generic message; remaining quota is never disclosed.
		return s.response(false, msgRateLimited, nil)
	}
	metrics.RateLimitDecisions.WithLabelValues("allowed").Inc()

	sub := s.sanitize(req, meta)

	if errs := s.validateSubmission(sub); len(errs) > 0 {
		metrics.ContactFormSubmissions.WithLabelValues("validation_failed").Inc()
		return s.response(false, strings.Join(errs, ". "), nil)
	}

	// Spam heuristic: flagged submissions get the standard thank-you
	// response with no dispatch, observable only in server logs.
	if matched, indicator := s.spamMatch(sub); matched {
		metrics.ContactFormSubmissions.WithLabelValues("spam_detected").Inc()
		logger.Warn("Spam attempt suppressed",
			zap.String("client_ip", meta.ClientIP),
			zap.String("indicator", indicator),
			zap.String("content", truncate(sub.Name+" "+sub.Email+" "+sub.Message, 100)))
		return s.response(true, msgThankYou, nil)
	}

	return s.dispatch(ctx, sub)
}

// dispatch sends the operator notification and, only if that succeeds, the
// best-effort auto-reply. Transport errors never reach the caller.
func (s *ContactService) dispatch(ctx context.Context, sub *models.Submission) *models.ContactResponse {
	notification, err := s.composer.BuildNotification(sub)
	if err != nil {
		metrics.ContactFormSubmissions.WithLabelValues("error").Inc()
		logger.Error("Failed to compose notification email", zap.Error(err))
		return s.response(false, msgUnexpected, nil)
	}

	start := s.now()
	err = s.sender.Send(ctx, notification)
	metrics.MailDispatchDuration.WithLabelValues("notification").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MailDispatchTotal.WithLabelValues("notification", "error").Inc()
		metrics.ContactFormSubmissions.WithLabelValues("mail_error").Inc()
		logger.Error("Failed to send contact notification",
			zap.Error(err),
			zap.String("submitter", sub.Email))
		return s.response(false, msgSendFailure, nil)
	}
	metrics.MailDispatchTotal.WithLabelValues("notification", "success").Inc()

	// The auto-reply is fire-and-forget from the caller's point of view:
	// awaited here for determinism, but its failure is only logged.
	if reply, composeErr := s.composer.BuildAutoReply(sub); composeErr != nil {
		logger.Warn("Failed to compose auto-reply email", zap.Error(composeErr))
	} else if sendErr := s.sender.Send(ctx, reply); sendErr != nil {
		metrics.MailDispatchTotal.WithLabelValues("auto_reply", "error").Inc()
		logger.Warn("Failed to send auto-reply",
			zap.Error(sendErr),
			zap.String("submitter", sub.Email))
	} else {
		metrics.MailDispatchTotal.WithLabelValues("auto_reply", "success").Inc()
	}

	metrics.ContactFormSubmissions.WithLabelValues("success").Inc()
	logger.Info("Contact form submission processed",
		zap.String("submitter", sub.Email),
		zap.String("service", sub.Service))

	return s.response(true, msgThankYou, nil)
}

// originAllowed checks the Origin header (falling back to Referer) against
// the configured host allow-list. When "localhost" is allow-listed, any
// host containing "localhost" or the loopback address is accepted.
func (s *ContactService) originAllowed(meta models.RequestMeta) bool {
	if meta.Origin == "" && meta.Referer == "" {
		return true
	}

	host := hostOf(meta.Origin)
	if host == "" {
		host = hostOf(meta.Referer)
	}
	if host == "" {
		return false
	}

	localhostAllowed := false
	for _, allowed := range s.cfg.Contact.AllowedOrigins {
		if host == allowed {
			return true
		}
		if allowed == "localhost" {
			localhostAllowed = true
		}
	}

	if localhostAllowed && (strings.Contains(host, "localhost") || strings.Contains(host, "127.0.0.1")) {
		return true
	}

	return false
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	// Bare host without a scheme
	host := strings.SplitN(rawURL, "/", 2)[0]
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// sanitize trims and HTML-escapes every free-text field before validation
// and before later interpolation into email bodies.
func (s *ContactService) sanitize(req *models.ContactRequest, meta models.RequestMeta) *models.Submission {
	return &models.Submission{
		Name:       sanitizeField(req.Name),
		Email:      sanitizeField(req.Email),
		Company:    sanitizeField(req.Company),
		Service:    sanitizeField(req.Service),
		Message:    sanitizeField(req.Message),
		ClientIP:   meta.ClientIP,
		UserAgent:  sanitizeField(meta.UserAgent),
		ReceivedAt: s.now(),
	}
}

func sanitizeField(v string) string {
	return html.EscapeString(strings.TrimSpace(v))
}

// validateSubmission collects all rule violations in field order; it does
// not short-circuit on the first failure.
func (s *ContactService) validateSubmission(sub *models.Submission) []string {
	var errs []string

	switch {
	case sub.Name == "":
		errs = append(errs, "Name is required")
	case len(sub.Name) < 2 || len(sub.Name) > 100:
		errs = append(errs, "Name must be between 2 and 100 characters")
	case !namePattern.MatchString(sub.Name):
		errs = append(errs, "Name contains invalid characters")
	}

	if sub.Email == "" {
		errs = append(errs, "Email is required")
	} else if err := s.validate.Var(sub.Email, "email"); err != nil {
		errs = append(errs, "Please enter a valid email address")
	}

	if sub.Company != "" && len(sub.Company) > 100 {
		errs = append(errs, "Company name is too long")
	}

	if sub.Service == "" {
		errs = append(errs, "Please select a service")
	} else if _, ok := models.ServiceKinds[sub.Service]; !ok {
		errs = append(errs, "Invalid service selection")
	}

	switch {
	case sub.Message == "":
		errs = append(errs, "Message is required")
	case len(sub.Message) < 10 || len(sub.Message) > 2000:
		errs = append(errs, "Message must be between 10 and 2000 characters")
	}

	return errs
}

func (s *ContactService) spamMatch(sub *models.Submission) (bool, string) {
	fullText := strings.ToLower(sub.Name + " " + sub.Email + " " + sub.Company + " " + sub.Message)
	for _, indicator := range spamIndicators {
		if strings.Contains(fullText, indicator) {
			return true, indicator
		}
	}
	return false, ""
}

func (s *ContactService) response(success bool, message string, data map[string]any) *models.ContactResponse {
	return &models.ContactResponse{
		Success:   success,
		Message:   message,
		Data:      data,
		Timestamp: s.now().Format(time.RFC3339),
	}
}

func truncate(v string, n int) string {
	if len(v) <= n {
		return v
	}
	return v[:n]
}
