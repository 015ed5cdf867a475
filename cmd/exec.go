package cmd

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	"membership-system/config"
	"membership-system/handlers"
	_ "membership-system/migrations"
	"membership-system/monitoring"
	"membership-system/security"
	"membership-system/services"
	"membership-system/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub (optional; redemptions work without realtime)
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		pn = pubnub.NewPubNub(pnConfig)
	}

	// Initialize services
	ticketStore := services.NewTicketStore(app)
	ledger := services.NewRedemptionLedger(app, cfg.DefaultTimezone)
	counter := services.NewDailyCounter(redisClient, ledger.StoreLocation)

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(redisClient)
		go startMetricsServer(cfg.MetricsPort)
	}

	redemptionService := services.NewRedemptionService(ticketStore, counter, pn, monitor, cfg)

	// Initialize handlers
	redemptionHandler := handlers.NewRedemptionHandler(app, redemptionService)
	ticketHandler := handlers.NewTicketHandler(app, ticketStore, ledger, counter, cfg)
	limiter := security.NewRateLimiter(redisClient, cfg.RedeemRateLimit, cfg.RedeemRateWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Redemption endpoints
		e.Router.GET("/api/v1/tickets/{ticketId}/eligibility", redemptionHandler.Eligibility)
		e.Router.POST("/api/v1/tickets/{ticketId}/redeem", redemptionHandler.Redeem).BindFunc(limiter.RedeemLimit())
		e.Router.POST("/api/v1/staff/redeem", redemptionHandler.RedeemOnBehalf).BindFunc(limiter.RedeemLimit())

		// Member endpoints
		e.Router.GET("/api/v1/members/tickets", ticketHandler.ListTickets)
		e.Router.GET("/api/v1/members/redemptions", ticketHandler.History)

		// Staff endpoints
		e.Router.GET("/api/v1/staff/redemptions/today", ticketHandler.StoreToday)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}

// startMetricsServer serves Prometheus metrics on a separate port so
// the scrape surface stays off the public API.
func startMetricsServer(port string) {
	e := echo.New()
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: e,
	}

	log.Printf("Metrics server listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Metrics server stopped: %v", err)
	}
}
