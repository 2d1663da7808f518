package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/sportbnb/internal/booking"
	"github.com/iliyamo/sportbnb/internal/config"
	"github.com/iliyamo/sportbnb/internal/database"
	"github.com/iliyamo/sportbnb/internal/handler"
	"github.com/iliyamo/sportbnb/internal/logging"
	"github.com/iliyamo/sportbnb/internal/middleware"
	"github.com/iliyamo/sportbnb/internal/notify"
	"github.com/iliyamo/sportbnb/internal/repository"
	"github.com/iliyamo/sportbnb/internal/router"
	"github.com/iliyamo/sportbnb/internal/service"
)

func main() {
	config.LoadDotEnv()
	log := logging.Init("api", os.Getenv("APP_ENV"))

	cfg := config.Load() // Load environment config
	notifyCfg := config.LoadNotifyConfig()

	db, err := database.Open(cfg.DB())
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		ran, err := database.Migrate(ctx, db, log)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		log.Info().Strs("applied", ran).Msg("migrations up to date")
	}

	rdb := config.NewRedisClient() // nil when Redis is down
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	// ---- Repositories ----
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	equipment := repository.NewEquipmentRepo(db)
	bookings := repository.NewBookingRepo(db, equipment, users)
	reviews := repository.NewReviewRepo(db)
	messages := repository.NewMessageRepo(db)
	stats := repository.NewStatsRepo(db)

	// ---- Services ----
	dispatcher := newDispatcher(notifyCfg, log)
	manager := booking.NewManager(bookings, dispatcher,
		booking.WithPolicy(booking.Policy{HostCanComplete: cfg.HostCanComplete}),
		booking.WithLogger(log),
		booking.WithNotifyTimeout(notifyCfg.Timeout),
	)
	var invalidator service.Invalidator
	if inv := middleware.NewRedisInvalidator(rdb, cacheCfg, log); inv != nil {
		invalidator = inv
	}
	catalog := service.NewEquipmentService(equipment, reviews, invalidator, log)
	reviewSvc := service.NewReviewService(bookings, reviews, invalidator, log)
	messageSvc := service.NewMessageService(messages, users, bookings, dispatcher, log)
	adminSvc := service.NewAdminService(stats, users, tokens, log)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewValidator()
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(middleware.Language())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	authH := handler.NewAuthHandler(cfg, users, tokens, log)
	equipmentH := handler.NewEquipmentHandler(catalog, booking.NewChecker(bookings))
	bookingH := handler.NewBookingHandler(manager)
	reviewH := handler.NewReviewHandler(reviewSvc)
	messageH := handler.NewMessageHandler(messageSvc)
	adminH := handler.NewAdminHandler(adminSvc)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, equipmentH, reviewH, bookingH, middleware.NewRedisCache(cacheCfg, rdb, service.CatalogTag))
	router.RegisterMember(e, equipmentH, bookingH, reviewH, messageH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	// let in-flight notifications finish before the process exits
	manager.Wait()
	messageSvc.Wait()
}

// newDispatcher picks the notification transport named by NOTIFY_DRIVER.
func newDispatcher(c config.NotifyConfig, log zerolog.Logger) notify.Dispatcher {
	switch c.Driver {
	case "amqp", "rabbitmq":
		return notify.NewAMQPPublisher(c.AMQPURL, c.Queue, log)
	case "none":
		return nil
	default:
		return notify.LogDispatcher{Log: log}
	}
}
