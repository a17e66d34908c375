package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	connectionapp "github.com/llmstack/backend/internal/application/connection"
	"github.com/llmstack/backend/internal/interfaces/http/dto"
	"github.com/llmstack/backend/internal/interfaces/http/middleware"
)

// ConnectionHandler handles connection API endpoints
type ConnectionHandler struct {
	BaseHandler
	service *connectionapp.ConnectionService
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(service *connectionapp.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

// ListTypes returns the connection types and their configuration fields
func (h *ConnectionHandler) ListTypes(c *gin.Context) {
	h.Success(c, h.service.ListTypes())
}

// Create creates a connection
func (h *ConnectionHandler) Create(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req connectionapp.CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), owner, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List lists the caller's connections
func (h *ConnectionHandler) List(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter connectionapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	items, total, err := h.service.ListByOwner(c.Request.Context(), owner, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get returns one connection
func (h *ConnectionHandler) Get(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), owner, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update changes a connection's name, description or configuration
func (h *ConnectionHandler) Update(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req connectionapp.UpdateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), owner, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete deletes a connection
func (h *ConnectionHandler) Delete(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), owner, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Activate logs into the provider with the connection's credentials.
// 200 carries the ACTIVE connection; 422 carries {error, connection} when the
// provider rejected the login.
func (h *ConnectionHandler) Activate(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	resp, err := h.service.Activate(c.Request.Context(), owner, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp.Error != "" {
		c.JSON(http.StatusUnprocessableEntity, dto.Response{
			Success: false,
			Data:    resp,
			Error: &dto.ErrorInfo{
				Code:      dto.ErrCodeLoginRejected,
				Message:   resp.Error,
				RequestID: middleware.GetRequestID(c),
			},
		})
		return
	}
	h.Success(c, resp)
}
