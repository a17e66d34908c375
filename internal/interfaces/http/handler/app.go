package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appapp "github.com/llmstack/backend/internal/application/app"
)

// AppHandler serves read-only app lookups
type AppHandler struct {
	BaseHandler
	service *appapp.AppService
}

// NewAppHandler creates a new AppHandler
func NewAppHandler(service *appapp.AppService) *AppHandler {
	return &AppHandler{service: service}
}

// GetPublished returns a published app by the UUID in its public URL
func (h *AppHandler) GetPublished(c *gin.Context) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		h.BadRequest(c, "Invalid published app UUID")
		return
	}

	resp, err := h.service.GetPublished(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
