package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumekit/internal/api/middleware"
	"resumekit/internal/auth"
	"resumekit/internal/config"
	"resumekit/internal/plugin"
	"resumekit/internal/render"
	"resumekit/internal/storage"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	registry *plugin.Registry,
	renderer *render.Renderer,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	authHandler := NewAuthHandler(db, authService, redisClient, logger)
	resumeHandler := NewResumeHandler(db, registry, renderer, storageClient, logger)
	inlineHandler := NewInlineHandler(db, registry, renderer, redisClient, logger, cfg.API.EditRatePerMin)
	adminHandler := NewAdminHandler(db, registry, renderer, logger)
	pluginAdminHandler := NewPluginAdminHandler(db, registry, redisClient, logger, cfg.Plugins.ReloadChannel)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedWSOrigins, cfg.Plugins.ReloadChannel)
	assetHandler := NewAssetHandler(db, storageClient, logger, cfg.Clamd.Addr)

	authMiddleware := middleware.AuthMiddleware(authService)
	optionalAuth := middleware.OptionalAuthMiddleware(authService)
	staffOnly := middleware.StaffMiddleware(db)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		resumes := v1.Group("/resumes")
		{
			resumes.POST("", authMiddleware, resumeHandler.CreateResume)
			resumes.GET("", authMiddleware, resumeHandler.ListResumes)
			resumes.GET("/:slug", optionalAuth, resumeHandler.ShowPage)
			resumes.GET("/:slug/export", authMiddleware, resumeHandler.ExportResume)
			resumes.PUT("/:slug", authMiddleware, resumeHandler.UpdateResume)
			resumes.DELETE("/:slug", authMiddleware, resumeHandler.DeleteResume)

			assets := resumes.Group("/:slug/assets")
			assets.Use(authMiddleware)
			{
				assets.POST("", assetHandler.UploadAsset)
				assets.GET("", assetHandler.ListAssets)
				assets.GET("/view", assetHandler.GetAssetURL)
				assets.DELETE("", assetHandler.DeleteAsset)
			}

			inline := resumes.Group("/:slug/plugins/:plugin")
			inline.Use(authMiddleware)
			{
				inline.GET("", inlineHandler.Show)
				inline.GET("/edit", inlineHandler.EditForm)
				inline.POST("/edit", inlineHandler.EditSave)
				inline.GET("/flat/edit", inlineHandler.FlatForm)
				inline.POST("/flat/edit", inlineHandler.FlatSave)
				inline.GET("/items/new", inlineHandler.ItemNewForm)
				inline.POST("/items", inlineHandler.ItemSave)
				inline.GET("/items/:item/edit", inlineHandler.ItemEditForm)
				inline.POST("/items/:item/delete", inlineHandler.ItemDelete)
			}
		}
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, staffOnly)
	{
		admin.GET("/resumes/:slug/plugins/:plugin", adminHandler.ChangeView)
		admin.POST("/resumes/:slug/plugins/:plugin/section", adminHandler.SectionSave)
		admin.POST("/resumes/:slug/plugins/:plugin/items", adminHandler.ItemSave)
		admin.POST("/resumes/:slug/plugins/:plugin/items/:item/delete", adminHandler.ItemDelete)

		admin.GET("/plugins", pluginAdminHandler.ListRows)
		admin.POST("/plugins", pluginAdminHandler.CreateRow)
		admin.PUT("/plugins/:id", pluginAdminHandler.UpdateRow)
		admin.DELETE("/plugins/:id", pluginAdminHandler.DeleteRow)
		admin.POST("/plugins/reload", pluginAdminHandler.Reload)
	}
}
