package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/dispatcher"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/service"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/config"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/infrastructure/notify"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/infrastructure/persistence/repository"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/Jayaprakash8887/easy-qlaim-sub000/internal/interfaces/http"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/worker"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/pkg/database"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/pkg/logging"
)

func main() {
	// .env overrides are optional; absence is not an error
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting claim workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	rawDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer rawDB.Close()

	migrator := database.NewMigrator(rawDB, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(rawDB.DB, logger)

	// Repositories
	claimRepo := repository.NewClaimRepository(db, logger)
	settingRepo := repository.NewSettingRepository(db, logger)
	skipRuleRepo := repository.NewSkipRuleRepository(db, logger)
	recordRepo := repository.NewApprovalRecordRepository(db, logger)
	execLogRepo := repository.NewExecutionLogRepository(db, logger)

	// Event dispatcher
	kvLogger := kvAdapter{logger.Sugar()}
	events := dispatcher.NewDispatcher(dispatcher.WithLogger(kvLogger))
	defer events.Close()

	// Application services
	policyStore := service.NewTenantPolicyStore(settingRepo, cfg.Routing.PolicyCacheTTL, logger)
	skipMatcher := service.NewSkipRuleMatcher(skipRuleRepo, logger)
	claimService := service.NewClaimService(claimRepo, recordRepo, execLogRepo, skipMatcher, db, events, logger)
	transitionService := service.NewTransitionService(claimRepo, recordRepo, execLogRepo, policyStore, skipMatcher, db, events, logger)
	adminService := service.NewTenantAdminService(settingRepo, skipRuleRepo, policyStore, logger)

	// Background workers
	notifier := notify.NewLogNotifier(logger)
	dashboards := notify.NewDashboardCache(logger)
	notificationWorker := worker.NewNotificationWorker(claimRepo, notifier, dashboards, events, logger)

	workers := worker.NewManager(logger)
	workers.Register(notificationWorker)

	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := workers.StartAll(runCtx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}
	defer workers.StopAll()

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		CORSOrigins:  cfg.Server.CORSOrigins,
	}, claimService, transitionService, adminService, kvLogger)

	if err := server.Start(runCtx); err != nil {
		logger.Error("HTTP server exited with error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// kvAdapter exposes a zap sugared logger through the key/value Logger
// interfaces of the http and dispatcher packages
type kvAdapter struct {
	s *zap.SugaredLogger
}

func (l kvAdapter) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l kvAdapter) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}
