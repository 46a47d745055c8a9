package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/storefront-api/internal/handler"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
)

func performRequest(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, handler.Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/test", h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	r.ServeHTTP(w, req)

	var body handler.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", apperrors.NotFound("order", nil), http.StatusNotFound, "order not found"},
		{"validation", apperrors.Validation("subject is required"), http.StatusBadRequest, "subject is required"},
		{"access denied", apperrors.AccessDenied(""), http.StatusForbidden, "access denied"},
		{"conflict", apperrors.Conflict("message already has a reply", nil), http.StatusConflict, "message already has a reply"},
		{"unavailable", apperrors.Unavailable(errors.New("redis down")), http.StatusServiceUnavailable, "backend unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := performRequest(t, func(c *gin.Context) {
				handler.Fail(c, tt.err)
			})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestErrorHandlerHidesInternalCauses(t *testing.T) {
	w, body := performRequest(t, func(c *gin.Context) {
		handler.Fail(c, errors.New("pq: relation orders does not exist"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body.Message)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestErrorHandlerPassesCleanRequests(t *testing.T) {
	w, body := performRequest(t, func(c *gin.Context) {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"ok": true}))
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", body.Status)
}
