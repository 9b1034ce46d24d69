// File: uplift/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"

	"uplift/config"
	"uplift/cron"
	"uplift/database"
	appointmentRepo "uplift/database/repository/appointment"
	slotRepo "uplift/database/repository/slot"
	"uplift/handlers"
	"uplift/middleware"
	"uplift/routes"
	"uplift/services/booking"
	"uplift/services/payment"
	"uplift/services/tasks"
	"uplift/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitLockClient()

	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(cors.Default())

	// Repositories.
	slots := slotRepo.NewMongoSlotRepo()
	appointments := appointmentRepo.NewMongoAppointmentRepo()

	// External collaborators.
	processor := payment.NewStripeProcessor(logger)
	refundQueue := tasks.NewQueue(
		config.AppConfig.RedisAddr,
		config.AppConfig.RedisPassword,
		config.AppConfig.RedisRefundQueueDB,
	)
	defer refundQueue.Close()

	// Booking engine.
	bookingService := &booking.DefaultBookingService{
		SlotRepo: slots,
		ApptRepo: appointments,
		Payments: processor,
		Locker: booking.NewRedisSlotLocker(
			utils.GetLockClient(),
			time.Duration(config.AppConfig.SlotLockTTLSeconds)*time.Second,
		),
		RefundQueue: refundQueue,
		Policy: booking.Policy{
			Currency:         config.AppConfig.Currency,
			ClientURL:        config.AppConfig.ClientURL,
			CancellationLead: time.Duration(config.AppConfig.CancellationLeadHours) * time.Hour,
			Location:         time.Local,
		},
		Logger: logger,
	}

	bookingHandler := handlers.NewBookingHandler(bookingService)
	routes.RegisterBookingRoutes(router, bookingHandler)

	// Background collaborators.
	cron.InitRefundWorker(processor)
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetLockClient()},
		database.MongoClient,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
