package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/handler"
	"github.com/quickbite/storefront-api/internal/middleware"
	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/service/order"
)

type Handler struct {
	service *order.Service
}

func NewHandler(service *order.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.Checkout)
		orders.GET("", h.ListMine)
		orders.GET("/:id", h.Get)
	}
}

// RegisterStaffRoutes mounts the management surface. Role checks are
// enforced again inside the service layer.
func (h *Handler) RegisterStaffRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.GET("", h.ListAll)
		orders.GET("/payment-queue", h.ListPaymentQueue)
		orders.GET("/assigned", h.ListAssigned)
		orders.PATCH("/:id/status", h.UpdateStatus)
		orders.POST("/:id/verify-payment", h.VerifyPayment)
		orders.POST("/:id/assign", h.AssignDelivery)
	}
}

type checkoutItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type checkoutRequest struct {
	Items           []checkoutItem `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress string         `json:"delivery_address" binding:"required"`
	Phone           string         `json:"phone" binding:"required"`
	PaymentMethod   string         `json:"payment_method" binding:"required"`
	TransactionID   *string        `json:"transaction_id"`
}

func (h *Handler) Checkout(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	items := make([]order.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, order.CheckoutItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	o, err := h.service.Checkout(c.Request.Context(), session, order.CheckoutInput{
		Items:           items,
		DeliveryAddress: req.DeliveryAddress,
		Phone:           req.Phone,
		PaymentMethod:   req.PaymentMethod,
		TransactionID:   req.TransactionID,
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(o))
}

func (h *Handler) Get(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid order ID"))
		return
	}

	o, err := h.service.Get(c.Request.Context(), session, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(o))
}

func (h *Handler) ListMine(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	orders, err := h.service.ListMine(c.Request.Context(), session)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(orders))
}

func (h *Handler) ListAll(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	orders, err := h.service.ListAll(c.Request.Context(), session)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(orders))
}

func (h *Handler) ListPaymentQueue(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	orders, err := h.service.ListPaymentQueue(c.Request.Context(), session)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(orders))
}

func (h *Handler) ListAssigned(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	orders, err := h.service.ListAssigned(c.Request.Context(), session)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(orders))
}

type updateStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid order ID"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), session, id, req.Status)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(o))
}

type verifyPaymentRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid order ID"))
		return
	}

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	o, err := h.service.VerifyPayment(c.Request.Context(), session, id, *req.Verified)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(o))
}

type assignDeliveryRequest struct {
	DeliveryPersonID uuid.UUID `json:"delivery_person_id" binding:"required"`
}

func (h *Handler) AssignDelivery(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid order ID"))
		return
	}

	var req assignDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	o, err := h.service.AssignDelivery(c.Request.Context(), session, id, req.DeliveryPersonID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(o))
}
