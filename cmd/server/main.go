package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-backend/internal/auth"
	"clinic-backend/internal/cache"
	"clinic-backend/internal/config"
	"clinic-backend/internal/database"
	"clinic-backend/internal/db"
	"clinic-backend/internal/handlers"
	"clinic-backend/internal/health"
	httpRouter "clinic-backend/internal/http"
	"clinic-backend/internal/logger"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/realtime"
	"clinic-backend/internal/repositories"
	"clinic-backend/internal/services"
	"clinic-backend/internal/storage"
	"clinic-backend/internal/telemetry"
	"clinic-backend/internal/timeutil"
	"clinic-backend/migrations"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		IsDevelopment: cfg.Log.Development,
		Encoding:      cfg.Log.Encoding,
		Level:         cfg.Log.Level,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := timeutil.SetLocation(cfg.Clinic.Timezone); err != nil {
		return fmt.Errorf("clinic timezone: %w", err)
	}

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		zlog.Warn("tracing disabled", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	zlog.Info("connected to database", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	migrator := database.NewMigratorWithFS(pool, migrations.FS, ".", zlog)
	if err := migrator.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	redisCache, err := cache.New(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		zlog.Warn("redis unavailable, invoice reprints read from the database", zap.Error(err))
	}
	defer redisCache.Close()

	var archive storage.Archiver = storage.Noop{}
	if cfg.StorageEnabled() {
		s3, err := storage.NewS3Archiver(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
		})
		if err != nil {
			zlog.Warn("report archiving disabled", zap.Error(err))
		} else {
			archive = s3
		}
	}

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	partyRepo := repositories.NewPartyRepository(pool)
	appointmentRepo := repositories.NewAppointmentRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	invoiceRepo := repositories.NewInvoiceRepository(pool)
	cashRepo := repositories.NewCashMovementRepository(pool)
	auditRepo := repositories.NewAuditLogRepository(pool)

	txRunner := db.NewTxRunner(pool, cfg.Database.TxTimeout)
	jwtManager := auth.NewJWTManager(cfg)
	hub := realtime.NewHub(zlog)

	// Services
	auditService := services.NewAuditService(auditRepo, zlog)
	userService := services.NewUserService(userRepo, jwtManager, zlog)
	appointmentService := services.NewAppointmentService(txRunner, appointmentRepo, partyRepo, auditService, zlog)
	appointmentService.SetNotifier(hub)
	inventoryService := services.NewInventoryService(txRunner, productRepo, auditService, zlog)
	cashService := services.NewCashLedgerService(txRunner, cashRepo, auditService, zlog)
	invoiceService := services.NewInvoiceService(txRunner, invoiceRepo, partyRepo, inventoryService, cashService, auditService, zlog)
	invoiceService.SetCache(redisCache, cfg.Redis.InvoiceCacheTTL)
	reportService := services.NewReportService(invoiceService, archive, cfg.Clinic.ReceiptHeading, zlog)

	if cfg.Clinic.AdminEmail != "" && cfg.Clinic.AdminPassword != "" {
		if err := userService.EnsureAdmin(ctx, cfg.Clinic.AdminName, cfg.Clinic.AdminEmail, cfg.Clinic.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	go hub.Run(ctx)

	router := httpRouter.NewRouter(httpRouter.Handlers{
		Auth:        handlers.NewAuthHandler(userService),
		Appointment: handlers.NewAppointmentHandler(appointmentService),
		Invoice:     handlers.NewInvoiceHandler(invoiceService, reportService),
		Cash:        handlers.NewCashHandler(cashService),
		Product:     handlers.NewProductHandler(inventoryService),
		Audit:       handlers.NewAuditHandler(auditService),
		Report:      handlers.NewReportHandler(reportService),
		Health:      handlers.NewHealthHandler(health.NewHealthChecker(pool, redisCache)),
		Agenda:      http.HandlerFunc(hub.ServeWS),
	}, middleware.NewAuthMiddleware(jwtManager, userRepo))

	handler := middleware.PanicRecovery(zlog)(
		middleware.RequestLogger(zlog)(
			middleware.NewCORS(cfg)(router),
		),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
