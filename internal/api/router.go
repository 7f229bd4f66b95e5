package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"laundry-coordinator/config"
	"laundry-coordinator/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.AccessLog())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheStore := cache.New(cfg.CacheTTL, 10*time.Minute)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter, mw.FlushOnWrite(cacheStore))
	{
		api.GET("/levels/:level/machines", caching, h.GetLevelMachines)
		api.GET("/machines/:id", caching, h.GetMachine)
		api.GET("/machines/:id/audit", h.GetMachineAudit)

		api.POST("/machines/:id/start", h.Start)
		api.POST("/machines/:id/override", h.Override)
		api.POST("/machines/:id/stop", h.simple(h.engine.StopPropose))
		api.POST("/machines/:id/stop/confirm", h.simple(h.engine.StopConfirm))
		api.POST("/machines/:id/force-stop", h.simple(h.engine.ForceStop))
		api.POST("/machines/:id/collect", h.simple(h.engine.Collect))
		api.POST("/machines/:id/ping", h.simple(h.engine.Ping))

		api.PUT("/users/:id", h.PutUser)

		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
