package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/metrics"
	invapp "github.com/wyfcoding/tradingledger/internal/inventory/application"
	invdomain "github.com/wyfcoding/tradingledger/internal/inventory/domain"
	invpersistence "github.com/wyfcoding/tradingledger/internal/inventory/infrastructure/persistence"
	ledgerapp "github.com/wyfcoding/tradingledger/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/tradingledger/internal/ledger/domain"
	"github.com/wyfcoding/tradingledger/internal/ledger/infrastructure/messaging"
	ledgerpersistence "github.com/wyfcoding/tradingledger/internal/ledger/infrastructure/persistence"
	refapp "github.com/wyfcoding/tradingledger/internal/referencedata/application"
	refdomain "github.com/wyfcoding/tradingledger/internal/referencedata/domain"
	refpersistence "github.com/wyfcoding/tradingledger/internal/referencedata/infrastructure/persistence"
	reportapp "github.com/wyfcoding/tradingledger/internal/reporting/application"
	tradingapp "github.com/wyfcoding/tradingledger/internal/trading/application"
	tradingdomain "github.com/wyfcoding/tradingledger/internal/trading/domain"
	tradingpersistence "github.com/wyfcoding/tradingledger/internal/trading/infrastructure/persistence"
	httpserver "github.com/wyfcoding/tradingledger/internal/trading/interfaces/http"
	"golang.org/x/sync/errgroup"
)

var (
	configPath   = flag.String("config", "configs/ledger/config.toml", "config file path")
	kafkaBrokers = flag.String("kafka-brokers", "", "comma separated kafka brokers, empty disables event publishing")
	kafkaTopic   = flag.String("kafka-topic", "ledger.entry.posted", "topic for posted entry events")
)

func main() {
	flag.Parse()

	// 1. 初始化配置
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	logCfg := &logging.Config{
		Service:    cfg.Server.Name,
		Module:     "ledger",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. 初始化指标
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)
	if cfg.Metrics.Enabled {
		go metricsImpl.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. 初始化基础设施
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	rawDB := db.RawDB()

	// Auto Migrate (仅用于开发方便)
	if cfg.Server.Environment == "dev" {
		if err := rawDB.AutoMigrate(
			&ledgerdomain.User{},
			&ledgerdomain.TradingAccount{},
			&ledgerdomain.Account{},
			&ledgerdomain.JournalEntry{},
			&ledgerdomain.JournalEntryLine{},
			&refdomain.Asset{},
			&refdomain.Currency{},
			&invdomain.AssetLot{},
			&tradingdomain.Trade{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. 初始化仓储
	tradingAccountRepo := ledgerpersistence.NewTradingAccountRepository(rawDB)
	accountRepo := ledgerpersistence.NewAccountRepository(rawDB)
	journalRepo := ledgerpersistence.NewJournalRepository(rawDB)
	userRepo := ledgerpersistence.NewUserRepository(rawDB)
	assetRepo := refpersistence.NewAssetRepository(rawDB)
	currencyRepo := refpersistence.NewCurrencyRepository(rawDB)
	lotRepo := invpersistence.NewLotRepository(rawDB)
	tradeRepo := tradingpersistence.NewTradeRepository(rawDB)

	var publisher ledgerdomain.EntryPublisher
	if *kafkaBrokers != "" {
		kafkaPub := messaging.NewEntryEventPublisher(strings.Split(*kafkaBrokers, ","), *kafkaTopic)
		defer kafkaPub.Close()
		publisher = kafkaPub
	}

	// 6. 初始化应用服务
	ledgerSvc := ledgerapp.NewLedgerService(accountRepo, journalRepo, tradingAccountRepo, userRepo, publisher)
	chartBuilder := ledgerapp.NewChartBuilder(rawDB, tradingAccountRepo, accountRepo)
	lotManager := invapp.NewLotManager(lotRepo)
	tradingSvc := tradingapp.NewTradingService(rawDB, ledgerSvc, lotManager, tradeRepo, assetRepo,
		tradingAccountRepo, accountRepo, journalRepo, userRepo)
	reportingSvc := reportapp.NewReportingService(accountRepo, journalRepo, tradingAccountRepo, tradeRepo, lotManager)
	refdataSvc := refapp.NewReferenceDataService(assetRepo, currencyRepo)

	// 7. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	handler := httpserver.NewLedgerHandler(chartBuilder, tradingSvc, reportingSvc, refdataSvc)
	handler.RegisterRoutes(r)

	// 8. 启动服务
	g, ctx := errgroup.WithContext(context.Background())

	addr := fmt.Sprintf(":%d", cfg.Server.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 9. 优雅关闭
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
