package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/config"
	"github.com/HSouheill/teamboard_backend/controllers"
	"github.com/HSouheill/teamboard_backend/jobs"
	"github.com/HSouheill/teamboard_backend/middleware"
	"github.com/HSouheill/teamboard_backend/repositories"
	"github.com/HSouheill/teamboard_backend/routes"
	"github.com/HSouheill/teamboard_backend/services"
	"github.com/HSouheill/teamboard_backend/utils"
	"github.com/HSouheill/teamboard_backend/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database")
	}
	rdb := config.ConnectRedis(cfg)

	fcm, err := config.InitMessaging(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("push notifications disabled")
	}

	// Create WebSocket hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	companyRepo := repositories.NewCompanyRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	clickRepo := repositories.NewReferralClickRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	channels := services.NotificationChannels{Hub: hub, AdminEmail: cfg.AdminNotifyEmail}
	if fcm != nil {
		channels.Push = fcm
	}
	if cfg.SMTPEnabled() {
		channels.Mail = services.NewSMTPMailer(services.SMTPConfig{
			Host: cfg.SMTPHost, Port: cfg.SMTPPort, User: cfg.SMTPUser, Pass: cfg.SMTPPass, From: cfg.FromEmail,
		})
	}
	notifications := services.NewNotificationService(notificationRepo, userRepo, channels)

	whish := services.NewWhishService(services.WhishConfig{
		BaseURL:    cfg.WhishBaseURL,
		Channel:    cfg.WhishChannel,
		Secret:     cfg.WhishSecret,
		WebsiteURL: cfg.WhishWebsiteURL,
		Debug:      cfg.WhishDebug,
	})
	var gateway services.PaymentGateway
	if whish.Configured() {
		gateway = whish
	}

	fallback := cfg.FallbackAdmin()
	userService := services.NewUserService(userRepo, companyRepo, fallback)
	companyService := services.NewCompanyService(companyRepo, userRepo, fallback)
	commissionService := services.NewCommissionService(companyRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo, notifications)
	reportService := services.NewReportService(commissionService, companyRepo, taskRepo, userRepo)
	referralService := services.NewReferralService(userRepo, clickRepo, rdb, cfg.ReferralBaseURL, cfg.ReferralLandingURL)
	paymentService := services.NewPaymentService(companyRepo, paymentRepo, gateway, notifications, fallback, services.PaymentOptions{
		Currency:      cfg.WhishCurrency,
		PublicBaseURL: cfg.PublicBaseURL,
		RedirectURL:   cfg.WhishRedirectURL,
	})
	sweeper := services.NewSweeper(taskRepo)
	blacklist := services.NewTokenBlacklist(rdb)

	// Task sweep: asynq scheduler when Redis is up, a ticker otherwise
	var queue controllers.SweepQueue
	if rdb != nil && cfg.UseAsynq {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		worker, err := jobs.NewWorker(jobs.WorkerConfig{
			RedisOpts: redisOpts,
			Sweep:     jobs.NewSweepJob(sweeper),
			SweepCron: cfg.SweepCron,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("configuring job worker")
		}
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error().Err(err).Msg("job worker stopped")
			}
		}()
		jobClient := jobs.NewClient(redisOpts)
		defer jobClient.Close()
		queue = jobClient
	} else {
		go jobs.RunTicker(ctx, sweeper, cfg.SweepInterval)
	}

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewValidator()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(cfg.IsProduction())

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()
	go rateLimiter.RunCleanup(ctx, time.Minute)

	// Middleware
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.CORS(middleware.ParseOrigins(cfg.CORSAllowedOrigins)))
	e.Use(echoMiddleware.BodyLimit("2M"))
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: middleware.ParseOrigins(cfg.CORSAllowedOrigins),
		HSTS:           cfg.IsProduction(),
	}))

	t := cfg.RequestTimeout
	routes.SetupRoutes(e, routes.Handlers{
		Auth:          controllers.NewAuthController(userService, blacklist, cfg.JWTSecret, cfg.JWTTTL, t),
		Users:         controllers.NewUserController(userService, t),
		Companies:     controllers.NewCompanyController(companyService, t),
		Commissions:   controllers.NewCommissionController(commissionService, t),
		Reports:       controllers.NewReportController(reportService, t),
		Tasks:         controllers.NewTaskController(taskService, t),
		Referrals:     controllers.NewReferralController(referralService, t),
		Payments:      controllers.NewPaymentController(paymentService, t),
		Notifications: controllers.NewNotificationController(notifications, hub, t),
		Admin:         controllers.NewAdminController(sweeper, queue, t),
	}, routes.Guards{
		JWT:           middleware.JWTMiddleware(cfg.JWTSecret, blacklist, userRepo),
		WebhookSecret: middleware.WebhookSecret(cfg.PaymentWebhookSecret),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("database disconnect")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
