package services_test

import (
	"testing"

	"github.com/asomstudio/asomstudio-api/config"
	"github.com/asomstudio/asomstudio-api/internal/models"
	"github.com/asomstudio/asomstudio-api/internal/services"
	"github.com/asomstudio/asomstudio-api/pkg/logger"
	"github.com/asomstudio/asomstudio-api/pkg/token"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{AppEnv: "development"},
		Contact: config.ContactConfig{
			RecipientEmail: "hello@asomstudio.ai",
			FromEmail:      "noreply@asomstudio.ai",
			FromName:       "ASOM Studio Contact Form",
			SubjectPrefix:  "[ASOM Studio] ",
			AllowedOrigins: []string{"asomstudio.ai", "www.asomstudio.ai", "localhost"},
		},
		RateLimit: config.RateLimitConfig{MaxAttempts: 5, WindowSeconds: 3600, Backend: "memory"},
		Token:     config.TokenConfig{Secret: "test-secret", TTLMinutes: 60},
	}
}

func newTestService(t *testing.T, cfg *config.Config) (*services.ContactService, *MockLimiter, *MockSender) {
	t.Helper()

	limiter := new(MockLimiter)
	sender := new(MockSender)
	tokens := token.NewManager(cfg.Token.Secret, "asomstudio-api", cfg.Token.TTLMinutes)

	service, err := services.NewContactService(cfg, limiter, sender, tokens)
	if err != nil {
		t.Fatalf("failed to create contact service: %v", err)
	}

	return service, limiter, sender
}

func validRequest() *models.ContactRequest {
	return &models.ContactRequest{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Company: "Example Corp",
		Service: "ai-development",
		Message: "I would like to discuss a project with your team.",
	}
}

func localMeta() models.RequestMeta {
	return models.RequestMeta{
		ClientIP:  "203.0.113.7",
		UserAgent: "test-agent/1.0",
	}
}
