package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

type RouterConfig struct {
	AllowOrigins  []string
	WebhookSecret string
	// MaxUploadBytes bounds multipart bodies held in memory.
	MaxUploadBytes int64
	// MaxBodyBytes caps JSON bodies; resume uploads are bounded by MaxUploadBytes.
	MaxBodyBytes int64
}

type Handlers struct {
	Portfolio *PortfolioHandler
	Resume    *ResumeHandler
	AI        *AIHandler
	Webhook   *WebhookHandler
}

func NewRouter(cfg RouterConfig, h Handlers, jwtSvc *auth.JWTService, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.AllowOrigins
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.MaxAge = 12 * time.Hour
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))
	router.Use(ErrorMiddleware(log))
	limitBody := BodyLimitMiddleware(cfg.MaxBodyBytes)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		public := api.Group("/")
		public.Use(OptionalAuthMiddleware(jwtSvc))
		{
			public.GET("/portfolios/:username", h.Portfolio.GetPublicPortfolio)
		}

		private := api.Group("/")
		private.Use(AuthMiddleware(jwtSvc, log))
		{
			p := private.Group("/portfolio")
			p.Use(limitBody)
			{
				p.GET("", h.Portfolio.GetOwnPortfolio)
				p.POST("", h.Portfolio.CreatePortfolio)
				p.PUT("", h.Portfolio.UpdatePortfolio)
				p.DELETE("", h.Portfolio.DeletePortfolio)
				p.GET("/exists", h.Portfolio.PortfolioExists)
				p.PATCH("/privacy", h.Portfolio.UpdatePrivacy)
			}
			private.POST("/resume/parse", h.Resume.ParseResume)
			private.POST("/ai/enhance", limitBody, h.AI.EnhanceText)
		}

		webhooks := api.Group("/webhooks")
		webhooks.Use(limitBody, WebhookAuthMiddleware(cfg.WebhookSecret))
		{
			webhooks.POST("/identity", h.Webhook.IdentityWebhook)
		}
	}

	return router
}
