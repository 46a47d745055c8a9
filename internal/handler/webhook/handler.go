package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/handler"
	"github.com/quickbite/storefront-api/internal/service/user"
	"github.com/quickbite/storefront-api/pkg/security"
)

// Handler receives callbacks from the hosted auth collaborator. Calls
// are authenticated with a shared secret, stored hashed.
type Handler struct {
	service    *user.Service
	hasher     security.SecretHasher
	secretHash string
}

func NewHandler(service *user.Service, hasher security.SecretHasher, secretHash string) *Handler {
	return &Handler{
		service:    service,
		hasher:     hasher,
		secretHash: secretHash,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/signup", h.Signup)
	}
}

type signupPayload struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	Email    string    `json:"email" binding:"required,email"`
	FullName *string   `json:"full_name"`
}

func (h *Handler) Signup(c *gin.Context) {
	secret := c.GetHeader("X-Webhook-Secret")
	if secret == "" || h.hasher.Compare(h.secretHash, secret) != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid webhook secret"))
		return
	}

	var payload signupPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	profile, err := h.service.HandleSignup(c.Request.Context(), payload.UserID, payload.Email, payload.FullName)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(profile))
}
