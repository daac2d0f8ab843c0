package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/filenest/filenest/config"
	"github.com/filenest/filenest/controllers"
	"github.com/filenest/filenest/middleware"
	"github.com/filenest/filenest/services"
	"github.com/filenest/filenest/storage"
	"github.com/filenest/filenest/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, blobs storage.BlobStore) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.Ginzap(utils.Logger))
	r.Use(utils.RecoveryWithZap(utils.Logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	identity := services.NewIdentityService(db, blobs, cfg.DefaultMaxStorage, cfg.DisableSignup)
	tokens := services.NewTokenService(db, cfg)
	quota := services.NewQuotaLedger(db)
	files := services.NewFileService(db, blobs, quota, services.MimeDetector{})

	userController := controllers.NewUserController(identity, tokens)
	filesController := controllers.NewFilesController(files)
	wsController := controllers.NewWSController()

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/sign_up", userController.SignUp)
	authGroup.POST("/login", userController.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(tokens))
	protected.DELETE("/remove_account", userController.RemoveAccount)
	protected.POST("/files", filesController.Upload)
	protected.GET("/files", filesController.List)
	protected.GET("/file", filesController.Download)
	protected.DELETE("/file", filesController.Delete)

	r.GET("/ws", wsController.Connect)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "route not found")
	})

	return r
}
