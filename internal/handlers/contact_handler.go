package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asomstudio/asomstudio-api/internal/models"
)

// ContactService is the processing pipeline behind the contact endpoints.
type ContactService interface {
	Token() *models.ContactResponse
	Submit(ctx context.Context, req *models.ContactRequest, meta models.RequestMeta) *models.ContactResponse
}

// ContactHandler exposes the contact form over HTTP. This is the primary,
// JSON-flavored variant: every response is a ContactResponse object.
type ContactHandler struct {
	service ContactService
}

func NewContactHandler(service ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// GetToken handles non-submit requests: it returns a lightweight status
// payload with a fresh anti-forgery token and performs no side effects.
func (h *ContactHandler) GetToken(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Token())
}

// Submit processes one contact form submission. Accepts form-encoded,
// multipart, or JSON bodies.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp := h.service.Submit(c.Request.Context(), &req, requestMeta(c))

	if !resp.Success {
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// requestMeta extracts the request context the pipeline needs, so the
// service never touches the gin context directly.
func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{
		ClientIP:  c.ClientIP(),
		Origin:    c.GetHeader("Origin"),
		Referer:   c.GetHeader("Referer"),
		UserAgent: c.Request.UserAgent(),
	}
}
