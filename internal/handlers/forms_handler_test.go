package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/asomstudio/asomstudio-api/internal/handlers"
	"github.com/asomstudio/asomstudio-api/internal/models"
)

func newFormsRouter(service handlers.ContactService) *gin.Engine {
	router := gin.New()
	handler := handlers.NewFormsHandler(service)
	router.GET("/forms/contact", handler.Submit)
	router.POST("/forms/contact", handler.Submit)
	return router
}

func TestFormsHandler_Submit_SuccessIsPlainOK(t *testing.T) {
	service := new(MockContactService)
	service.On("Submit", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.ContactResponse{Success: true, Message: "Thank you for your message! We'll get back to you within 24 hours."}).
		Once()
	router := newFormsRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader(validForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestFormsHandler_Submit_FailureReturnsMessage(t *testing.T) {
	service := new(MockContactService)
	service.On("Submit", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.ContactResponse{Success: false, Message: "Invalid origin"}).
		Once()
	router := newFormsRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader(validForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid origin", w.Body.String())
}

func TestFormsHandler_Submit_RejectsNonPost(t *testing.T) {
	service := new(MockContactService)
	router := newFormsRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/forms/contact", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "There was a problem with your submission")
	service.AssertNotCalled(t, "Submit")
}
