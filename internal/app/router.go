package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"campuspark/internal/handler"
	"campuspark/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	SpotHandler         *handler.SpotHandler
	SessionHandler      *handler.SessionHandler
	SettlementHandler   *handler.SettlementHandler
	WalletHandler       *handler.WalletHandler
	VehicleHandler      *handler.VehicleHandler
	TicketHandler       *handler.TicketHandler
	NotificationHandler *handler.NotificationHandler
	RedisClient         redis.Cmdable
	NewRelicApp         *newrelic.Application
	Logger              *logrus.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.TransactionAttributesMiddleware())
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, logrus.NewEntry(deps.Logger).WithField("component", "idempotency")))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		spots := v1.Group("/spots")
		{
			spots.GET("", deps.SpotHandler.GetAll)
			spots.POST("", deps.SpotHandler.CreateSpot)
			spots.GET("/nearby", deps.SpotHandler.Nearby)
			spots.POST("/show-all", deps.SpotHandler.ShowAll)
			spots.POST("/:id/select", deps.SpotHandler.Select)
			spots.POST("/:id/toggle-hidden", deps.SpotHandler.ToggleHidden)
		}

		sessions := v1.Group("/session")
		{
			sessions.GET("", deps.SessionHandler.Get)
			sessions.POST("/start", deps.SessionHandler.Start)
			sessions.POST("/stop", deps.SessionHandler.Stop)
			sessions.POST("/add-time", deps.SessionHandler.AddTime)
		}

		settlement := v1.Group("/settlement")
		{
			settlement.GET("", deps.SettlementHandler.Get)
			settlement.POST("/confirm", deps.SettlementHandler.Confirm)
			settlement.POST("/cancel", deps.SettlementHandler.Cancel)
		}

		wallet := v1.Group("/wallet")
		{
			wallet.GET("", deps.WalletHandler.GetBalance)
			wallet.POST("/sync", deps.WalletHandler.Sync)
			wallet.GET("/topup/options", deps.WalletHandler.TopUpOptions)
			wallet.POST("/topup", deps.WalletHandler.TopUp)
			wallet.POST("/topup/pix/:code/confirm", deps.WalletHandler.ConfirmPix)
		}

		vehicle := v1.Group("/vehicle")
		{
			vehicle.GET("", deps.VehicleHandler.Get)
			vehicle.PUT("", deps.VehicleHandler.Update)
		}

		tickets := v1.Group("/tickets")
		{
			tickets.GET("", deps.TicketHandler.GetAll)
			tickets.GET("/:id", deps.TicketHandler.Get)
		}

		v1.GET("/notifications", deps.NotificationHandler.Drain)
	}

	return router
}
