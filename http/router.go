package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"credit-advisor/metrics"
	"credit-advisor/service"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Prediction     *service.PredictionService
	Recommendation *service.RecommendationService
	Health         *HealthHandler
	// RateLimiter guards the scoring routes; nil disables limiting.
	RateLimiter *RateLimiter
	CORSOrigins []string
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Setup creates and configures the Gin router
func Setup(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(RequestID())
	router.Use(Logger(cfg.Logger))
	router.Use(Recovery(cfg.Logger))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	}

	if cfg.Health != nil {
		router.GET("/health", cfg.Health.Health)
	}
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	predict := router.Group("/predict")
	if cfg.RateLimiter != nil {
		predict.Use(RateLimit(cfg.RateLimiter, cfg.Metrics))
	}
	{
		predict.POST("", NewPredictHandler(cfg.Prediction).Predict)
		predict.POST("/recommend", NewRecommendationHandler(cfg.Recommendation).Recommend)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
