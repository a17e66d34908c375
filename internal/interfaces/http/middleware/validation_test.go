package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/llmstack/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name     string `json:"name" binding:"required,max=5"`
	Provider string `json:"provider_slug" binding:"omitempty,oneof=linkedin"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req sampleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"too long","provider_slug":"x"}`)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "name", resp.Error.Details[0].Field)
	assert.Equal(t, "Must be at most 5 characters", resp.Error.Details[0].Message)
	assert.Equal(t, "provider_slug", resp.Error.Details[1].Field)
	assert.Equal(t, "Must be one of: linkedin", resp.Error.Details[1].Message)
}
