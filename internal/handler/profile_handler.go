package handler

import (
	"net/http"
	"strconv"

	"tourguide/internal/model"
	"tourguide/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileHandler serves profile reads, updates and password changes
type ProfileHandler struct {
	service service.ProfileService
	logger  *zap.Logger
}

func NewProfileHandler(s service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{service: s, logger: logger}
}

// targetID reads the optional ?id= parameter; 0 means the caller.
func targetID(c *gin.Context) (int, bool) {
	idStr := c.Query("id")
	if idStr == "" {
		return 0, true
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return 0, false
	}
	return id, true
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := targetID(c)
	if !ok {
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Profile()})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := targetID(c)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), caller, id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user.Profile(),
	})
}

func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), caller, req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// RegisterProfileRoutes registers profile routes behind authMW
func (h *ProfileHandler) RegisterProfileRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	profileGroup := rg.Group("/profile")
	profileGroup.Use(authMW)
	{
		profileGroup.GET("/update", h.GetProfile)
		profileGroup.PUT("/update", h.UpdateProfile)
		profileGroup.POST("/change-password", h.ChangePassword)
		profileGroup.PUT("/change-password", h.ChangePassword)
	}
}
