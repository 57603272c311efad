package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asomstudio/asomstudio-api/internal/models"
)

// FormsHandler is the plain-text variant of the contact endpoint, kept for
// the legacy validate.js integration path: it answers a bare "OK" on
// success and an error string with a non-2xx status otherwise.
type FormsHandler struct {
	service ContactService
}

func NewFormsHandler(service ContactService) *FormsHandler {
	return &FormsHandler{service: service}
}

// Submit processes a form post and answers in plain text.
func (h *FormsHandler) Submit(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.String(http.StatusForbidden, "There was a problem with your submission, please try again.")
		return
	}

	var req models.ContactRequest
	if err := c.ShouldBind(&req); err != nil {
		attachError(c, err)
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}

	resp := h.service.Submit(c.Request.Context(), &req, requestMeta(c))
	if !resp.Success {
		c.String(http.StatusBadRequest, resp.Message)
		return
	}

	c.String(http.StatusOK, "OK")
}
