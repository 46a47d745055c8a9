package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/handler"
	"github.com/quickbite/storefront-api/internal/middleware"
	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/service/user"
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profile := r.Group("/profile")
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}
}

func (h *Handler) RegisterStaffRoutes(r *gin.RouterGroup) {
	r.GET("/employees", h.ListEmployees)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("/:id/roles", h.AssignRole)
		users.DELETE("/:id/roles/:role", h.RemoveRole)
		users.POST("/:id/restriction", h.ToggleRestriction)
		users.DELETE("/:id", h.DeleteUser)
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	profile, err := h.service.GetProfile(c.Request.Context(), session)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), session, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) ListUsers(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	users, err := h.service.ListUsers(c.Request.Context(), session)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}

func (h *Handler) ListEmployees(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	employees, err := h.service.ListEmployees(c.Request.Context(), session)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(employees))
}

type assignRoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

func (h *Handler) AssignRole(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.AssignRole(c.Request.Context(), session, userID, req.Role); err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "role assigned"}))
}

func (h *Handler) RemoveRole(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	role, err := model.ParseRole(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role"))
		return
	}

	if err := h.service.RemoveRole(c.Request.Context(), session, userID, role); err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "role removed"}))
}

func (h *Handler) ToggleRestriction(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	profile, err := h.service.ToggleRestriction(c.Request.Context(), session, userID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), session, userID); err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "user deleted"}))
}
