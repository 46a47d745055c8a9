package message

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/handler"
	"github.com/quickbite/storefront-api/internal/middleware"
	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/service/message"
)

type Handler struct {
	service *message.Service
}

func NewHandler(service *message.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	messages := r.Group("/messages")
	{
		messages.POST("", h.Send)
		messages.GET("/inbox", h.ListInbox)
		messages.GET("/sent", h.ListSent)
		messages.POST("/:id/reply", h.Reply)
		messages.POST("/:id/read", h.MarkReplyRead)
		messages.POST("/:id/opened", h.MarkOpened)
		messages.DELETE("/:id", h.Delete)
	}
}

type sendRequest struct {
	Subject       string              `json:"subject" binding:"required"`
	Body          string              `json:"body" binding:"required"`
	RecipientType model.RecipientType `json:"recipient_type" binding:"required"`
	RecipientID   *uuid.UUID          `json:"recipient_id"`
}

func (h *Handler) Send(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	msg, err := h.service.Send(c.Request.Context(), session, message.SendInput{
		Subject: req.Subject,
		Body:    req.Body,
		Recipient: model.Recipient{
			Type:   req.RecipientType,
			UserID: req.RecipientID,
		},
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(msg))
}

func (h *Handler) ListInbox(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	messages, err := h.service.ListInbox(c.Request.Context(), session)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(messages))
}

func (h *Handler) ListSent(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	messages, err := h.service.ListSent(c.Request.Context(), session)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(messages))
}

type replyRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *Handler) Reply(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid message ID"))
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	msg, err := h.service.Reply(c.Request.Context(), session, id, req.Body)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(msg))
}

func (h *Handler) MarkReplyRead(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid message ID"))
		return
	}

	if err := h.service.MarkReplyRead(c.Request.Context(), session, id); err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) MarkOpened(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid message ID"))
		return
	}

	if err := h.service.MarkOpened(c.Request.Context(), session, id); err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) Delete(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid message ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), session, id); err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
