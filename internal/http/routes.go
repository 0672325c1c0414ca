package http

import (
	"zenithmedia_bot/internal/http/handlers"
	"zenithmedia_bot/internal/http/middleware"
	"zenithmedia_bot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires the health probes, the metrics endpoint and the
// JWT-protected admin API. Tokens are issued to admins through the bot.
func RegisterRoutes(
	r *gin.Engine,
	db *pgxpool.Pool,
	version string,
	payouts *service.PayoutService,
	videos *service.VideoService,
	admin *service.AdminService,
	audit *service.AuditService,
) {
	healthHandler := handlers.NewHealthHandler(db, version)
	adminHandler := handlers.NewAdminHandler(payouts, videos, admin, audit)

	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/admin", middleware.AdminAuth())
	{
		api.GET("/stats", adminHandler.Stats)
		api.GET("/payouts", adminHandler.PendingPayouts)
		api.POST("/payouts/:id/retry", adminHandler.RetryPayout)
		api.GET("/videos", adminHandler.ModerationQueue)
		api.GET("/audit", adminHandler.AuditLog)
	}
}
