package handler

import (
	"net/http"
	"strconv"

	"tourguide/internal/model"
	"tourguide/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves Admin-only endpoints
type AdminHandler struct {
	service service.AdminService
	logger  *zap.Logger
}

func NewAdminHandler(s service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{service: s, logger: logger}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	filters := model.UserListFilters{
		Role:   c.DefaultQuery("role", "all"),
		Search: c.Query("search"),
		Sort:   c.DefaultQuery("sort", "full_name"),
		Order:  c.DefaultQuery("order", "ASC"),
	}
	filters.Page = queryInt(c, "page", 1)
	filters.Limit = queryInt(c, "limit", service.DefaultPageSize)

	page, err := h.service.ListUsers(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// queryInt falls back to def for missing or malformed values.
func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

// RegisterAdminRoutes registers admin routes behind authMW and adminMW
func (h *AdminHandler) RegisterAdminRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	adminGroup := rg.Group("/admin")
	adminGroup.Use(authMW, adminMW)
	{
		adminGroup.GET("/users", h.ListUsers)
	}
}
