package feed

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickbite/storefront-api/internal/handler"
	"github.com/quickbite/storefront-api/internal/middleware"
	"github.com/quickbite/storefront-api/pkg/feed"
)

// Handler streams live changes to clients over server-sent events. The
// storefront UI uses it to refresh notification badges and the menu
// without polling.
type Handler struct {
	feed *feed.Feed
}

func NewHandler(f *feed.Feed) *Handler {
	return &Handler{feed: f}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/feed/notifications", h.Notifications)
}

// RegisterPublicRoutes mounts streams that need no session.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/feed/products", h.Products)
}

// Notifications streams the caller's own notification changes.
func (h *Handler) Notifications(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	h.stream(c, feed.Filter{
		Table:  "notifications",
		Column: "user_id",
		Value:  session.UserID.String(),
	})
}

// Products streams catalog changes for live menu updates.
func (h *Handler) Products(c *gin.Context) {
	h.stream(c, feed.Filter{Table: "products"})
}

func (h *Handler) stream(c *gin.Context, filter feed.Filter) {
	changes, err := h.feed.Subscribe(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, handler.NewErrorResponse("change feed unavailable"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case change, ok := <-changes:
			if !ok {
				return false
			}
			data, err := json.Marshal(change)
			if err != nil {
				return true
			}
			c.SSEvent("change", string(data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
