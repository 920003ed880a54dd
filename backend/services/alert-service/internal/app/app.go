package app

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "evmalert/backend/libs/db"
	libredis "evmalert/backend/libs/redis"
	"evmalert/backend/services/alert-service/internal/auth"
	"evmalert/backend/services/alert-service/internal/bus"
	"evmalert/backend/services/alert-service/internal/clients"
	"evmalert/backend/services/alert-service/internal/config"
	httpserver "evmalert/backend/services/alert-service/internal/http"
	"evmalert/backend/services/alert-service/internal/http/handlers"
	"evmalert/backend/services/alert-service/internal/http/middleware"
	"evmalert/backend/services/alert-service/internal/notify"
	redisstore "evmalert/backend/services/alert-service/internal/redis"
	"evmalert/backend/services/alert-service/internal/repository"
	"evmalert/backend/services/alert-service/internal/service"
	"evmalert/backend/services/alert-service/internal/ws"
)

// serviceName identifies this process to Postgres and Redis.
const serviceName = "evmalert-alert-service"

// App wires alert service dependencies.
type App struct {
	server      *httpserver.Server
	controller  *service.Controller
	listener    *service.TriggerListener
	hub         *ws.Hub
	db          *sql.DB
	redisClient *redis.Client
	smtp        *clients.SMTPClient
	publisher   *bus.Publisher
	logger      *zap.Logger
}

// New constructs the application graph. Redis, NATS and SMTP are optional.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	sqlDB, err := libdb.NewPostgresDB(ctx, cfg.Database.DSN, serviceName)
	if err != nil {
		return nil, err
	}
	a.db = sqlDB

	var suppressorOpts []service.SuppressorOption
	if cfg.Redis.Addr != "" {
		a.redisClient, err = libredis.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, serviceName)
		if err != nil {
			a.Close()
			return nil, err
		}
		store := redisstore.NewSuppressionStore(a.redisClient, cfg.SnapshotTTL())
		suppressorOpts = append(suppressorOpts, service.WithSuppressionStore(store))
	}

	var mail notify.MailTransport
	if cfg.SMTP.Enabled {
		a.smtp = clients.NewSMTPClient(clients.SMTPSettings{
			Addr:       cfg.SMTPAddress(),
			Login:      cfg.SMTP.Login,
			Password:   cfg.SMTP.Password,
			From:       cfg.SMTP.From,
			Recipients: cfg.SMTP.Recipients,
		}, logger)
		// the first send reconnects if this fails
		if err := a.smtp.Connect(ctx); err != nil {
			logger.Warn("smtp session not established at start", zap.Error(err))
		}
		mail = a.smtp
	}

	a.hub = ws.NewHub(logger)
	feeds := []notify.Feed{a.hub}
	if cfg.NATS.URL != "" {
		a.publisher, err = bus.NewPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			a.Close()
			return nil, err
		}
		feeds = append(feeds, a.publisher)
	}

	// long polls hold the request open for the poll timeout
	httpClient := clients.NewDefaultHTTPClient(time.Duration(cfg.TelegramPollTimeout()+10) * time.Second)
	telegram := clients.NewTelegramClient(cfg.Telegram.APIURL, cfg.Telegram.Token, httpClient, logger)

	suppressor := service.NewSuppressor(cfg.SuppressionWindow(), logger, suppressorOpts...)
	restored, err := suppressor.Restore(ctx)
	if err != nil {
		logger.Warn("failed to restore suppression state", zap.Error(err))
	} else if restored > 0 {
		logger.Info("suppression state restored", zap.Int("entries", restored))
	}

	evaluator := service.NewEvaluator(service.Thresholds{
		BatteryFloor:       cfg.Monitor.BatteryFloor,
		TemperatureCeiling: cfg.Monitor.TemperatureCeiling,
		FaultCodes:         cfg.Monitor.FaultCodes,
	})
	dispatcher := notify.NewDispatcher(telegram, cfg.Telegram.BroadcastChannel, mail, logger, feeds...)
	monitor := service.NewMonitor(
		repository.NewTelemetryRepository(sqlDB),
		evaluator,
		suppressor,
		dispatcher,
		service.MonitorSettings{
			Interval:     cfg.PollInterval(),
			FetchLimit:   cfg.FetchLimit(),
			SegmentFloor: cfg.Monitor.SegmentVoltageFloor,
		},
		logger,
	)
	a.controller = service.NewController(monitor, suppressor, logger)
	a.listener = service.NewTriggerListener(telegram, a.controller, cfg.TelegramPollTimeout(), logger)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.JWTExpiration())
	operators := auth.NewOperatorService(cfg.Auth.OperatorLogin, cfg.Auth.OperatorHash, auth.NewBcryptVerifier(0), tokens)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandlers:    handlers.NewAuthHandlers(operators, logger),
		MonitorHandlers: handlers.NewMonitorHandlers(a.controller, logger),
		AlertFeed:       ws.NewServer(a.hub, 10*time.Second, logger).HandleWS,
		HealthHandler:   handlers.NewHealthHandler(),
	}, middleware.AuthMiddleware(tokens))

	a.server = httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		httpserver.WithMiddleware(middleware.RecoveryMiddleware(logger), middleware.LoggingMiddleware(logger)),
		httpserver.WithShutdownHook(a.hub.CloseAll),
	)

	return a, nil
}

// Run serves HTTP, listens for chat triggers and runs the poll loop once started.
// The first component to fail stops the others.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	components := []struct {
		name string
		run  func(context.Context) error
	}{
		{"http", a.server.Run},
		{"telegram listener", a.listener.Run},
		{"monitor", a.controller.Run},
	}

	errCh := make(chan error, len(components))
	var wg sync.WaitGroup
	for _, c := range components {
		wg.Add(1)
		go func(name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("component stopped with error", zap.String("component", name), zap.Error(err))
				errCh <- err
			}
			cancel()
		}(c.name, c.run)
	}
	wg.Wait()
	close(errCh)

	return <-errCh
}

// Close releases resources.
func (a *App) Close() {
	if a.hub != nil {
		a.hub.CloseAll()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.smtp != nil {
		if err := a.smtp.Close(); err != nil {
			a.logger.Warn("failed to close smtp session", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
