package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/logger"
	"github.com/vidhub/backend/internal/service"
)

func NewRouter(authService *service.AuthService, cfg config.Config, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxMemory
	router.Use(gin.Recovery(), RequestLogger(log))
	router.Use(CORSMiddleware(cfg.Server.CORSOrigins, true))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/openapi.json", OpenAPIDoc)

	authHandler := NewAuthHandler(authService, cfg.Upload.TempDir)

	users := router.Group("/api/v1/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.POST("/refresh-token", authHandler.RefreshToken)

	secured := users.Group("")
	secured.Use(AuthMiddleware(authService))
	secured.POST("/logout", authHandler.Logout)
	secured.POST("/change-password", authHandler.ChangePassword)
	secured.GET("/current-user", authHandler.CurrentUser)
	secured.PATCH("/update-account-details", authHandler.UpdateAccountDetails)
	secured.PATCH("/update-avatar", authHandler.UpdateAvatar)
	secured.PATCH("/update-cover-image", authHandler.UpdateCoverImage)
	secured.GET("/history", authHandler.WatchHistory)

	return router
}
