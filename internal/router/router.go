package router

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unitv-next/internal/cache"
	"github.com/unitv-next/internal/config"
	adminhandlers "github.com/unitv-next/internal/http/handlers/admin"
	publichandlers "github.com/unitv-next/internal/http/handlers/public"
	"github.com/unitv-next/internal/logger"
	"github.com/unitv-next/internal/provider"
)

// SetupRouter builds the gin engine with all routes.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "unitv"
	}
	redisClient := cache.Client()
	chargeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:charge", redisPrefix),
		WindowSeconds: cfg.Security.ChargeRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ChargeRateLimit.MaxRequests,
	}
	adminRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin", redisPrefix),
		WindowSeconds: cfg.Security.AdminRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.AdminRateLimit.MaxRequests,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/ping", publicHandler.Ping)
	r.GET("/health", publicHandler.Health)

	api := r.Group("/api")
	{
		api.POST("/gerar-pagamento",
			RateLimitMiddleware(redisClient, chargeRule, KeyByIPAndJSONField("email")),
			publicHandler.CreateCharge,
		)
		api.POST("/verificar-pagamento", publicHandler.CheckPayment)
	}

	r.POST("/webhook", publicHandler.PaymentWebhook)

	admin := r.Group("/admin")
	admin.Use(RateLimitMiddleware(redisClient, adminRule, KeyByIP))
	admin.Use(adminhandlers.PasswordGate(cfg.Admin.Password))
	{
		admin.POST("/add-codes", adminHandler.AddCodes)
		admin.GET("/status", adminHandler.Status)
		admin.GET("/payments", adminHandler.Payments)
		admin.GET("/reset", adminHandler.Reset)
	}

	return r
}
