// Package server assembles the HTTP router.
package server

import (
	"tourguide/internal/config"
	"tourguide/internal/handler"
	"tourguide/internal/middleware"
	"tourguide/internal/service"
	"tourguide/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the collaborators NewRouter wires together.
type Dependencies struct {
	Config         config.Config
	Logger         *zap.Logger
	JWT            *utils.JWTUtil
	DB             handler.Pinger
	AuthService    service.AuthService
	ProfileService service.ProfileService
	AdminService   service.AdminService
}

// NewRouter wires Gin routes and middleware.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(deps.Config))

	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Logger)
	profileHandler := handler.NewProfileHandler(deps.ProfileService, deps.Logger)
	adminHandler := handler.NewAdminHandler(deps.AdminService, deps.Logger)
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Logger)

	jwtAuthMW := middleware.JWTAuthMiddleware(deps.JWT, deps.AuthService)
	optionalAuthMW := middleware.OptionalJWTAuthMiddleware(deps.JWT, deps.AuthService)
	adminRoleMW := middleware.AdminMiddleware()

	api := r.Group("/api")
	authHandler.RegisterAuthRoutes(api, jwtAuthMW, optionalAuthMW)
	profileHandler.RegisterProfileRoutes(api, jwtAuthMW)
	adminHandler.RegisterAdminRoutes(api, jwtAuthMW, adminRoleMW)
	api.GET("/health-check", healthHandler.Check)

	return r
}
