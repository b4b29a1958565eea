package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/ex-server/internal/config"
	"github.com/ignatzorin/ex-server/internal/http/handlers"
	"github.com/ignatzorin/ex-server/internal/http/middleware"
)

// Deps собирает зависимости HTTP слоя.
type Deps struct {
	Auth           *handlers.AuthHandler
	Users          *handlers.UserHandler
	Health         *handlers.HealthHandler
	Authenticator  middleware.Authenticator
	RateLimitStore limiter.Store

	// Каталог локального хранилища картинок. Пусто, если картинки лежат в S3.
	PicturesDir    string
	PicturesPrefix string
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = (cfg.MaxUploadSizeMB + 1) << 20
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", deps.Health.Health)
	if deps.PicturesDir != "" {
		r.Static(deps.PicturesPrefix, deps.PicturesDir)
	}

	// Лимит только на маршруты с учётными данными и кодами. Обмен refresh токена и logout не ограничены.
	limited := middleware.RateLimitMiddleware(deps.RateLimitStore, cfg.RateLimitLimit, cfg.RateLimitPeriod)
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", limited, deps.Auth.Register)
		authGroup.POST("/login", limited, deps.Auth.Login)
		authGroup.POST("/verify-email", limited, deps.Auth.VerifyEmail)
		authGroup.POST("/verify-code", limited, deps.Auth.VerifyCode)
		authGroup.POST("/forgot-password", limited, deps.Auth.ForgotPassword)
		authGroup.POST("/reset-password", limited, deps.Auth.ResetPassword)
		authGroup.POST("/rt", deps.Auth.Refresh)
		authGroup.POST("/logout", deps.Auth.Logout)
	}

	userGroup := r.Group("/user")
	userGroup.Use(middleware.AuthMiddleware(deps.Authenticator))
	{
		userGroup.GET("/me", deps.Users.Me)
		userGroup.GET("/get/:username", deps.Users.GetByUsername)
		userGroup.GET("/all", middleware.AdminOnly(deps.Authenticator), deps.Users.ListAll)
		userGroup.GET("/search", deps.Users.Search)
		userGroup.PUT("/username", deps.Users.UpdateUsername)
		userGroup.PUT("/update-image", deps.Users.UpdateImage)
		userGroup.DELETE("/", deps.Users.Delete)
	}

	return r
}
