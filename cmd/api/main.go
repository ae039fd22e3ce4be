package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"catering/internal/config"
	"catering/internal/infra/db"
	infraRepo "catering/internal/infra/repository"
	"catering/internal/notify"
	"catering/internal/pricing"
	"catering/internal/realtime"
	"catering/internal/server"
	"catering/internal/usecase"
	"catering/internal/validator"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	//.envは無くてもよい（本番は環境変数で渡す）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormLevel := logger.Warn
	if cfg.IsDev() {
		gormLevel = logger.Info
	}
	gormDB, err := db.Connect(db.Options{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DSN(),
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ApplicationName: "catering-api",
		LogLevel:        gormLevel,
	})
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.Ping(ctx, gormDB); err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//通知先：WebSocketは常に、RabbitMQは設定があるときだけ
	hub := realtime.NewHub(log, realtime.WithAllowedOrigin(cfg.FEURL))
	defer hub.Close()

	publishers := []notify.Publisher{hub}
	if cfg.AMQPURL != "" {
		amqpPub, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer func() {
			if err := amqpPub.Close(); err != nil {
				log.Warn("amqp close", "err", err)
			}
		}()
		publishers = append(publishers, amqpPub)
	}
	dispatcher := notify.NewDispatcher(log, cfg.NotifyPublishTimeout, publishers...)
	//HTTPが止まった後、残っている通知を送り切ってからsinkを閉じる
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := dispatcher.Close(drainCtx); err != nil {
			log.Warn("notify drain", "err", err)
		}
	}()

	//Repository / Usecase
	txm := infraRepo.NewTxManagerGorm(gormDB)
	rules := validator.DefaultRules()
	rules.MaxQuantityPerLine = cfg.MaxQuantityPerLine

	orderUC := usecase.NewOrderUsecase(
		txm,
		infraRepo.NewMenuItemGormRepository(gormDB),
		pricing.NewEngine(cfg.Pricing),
		dispatcher,
		usecase.OrderUsecaseConfig{
			Rules:     rules,
			Currency:  cfg.Currency,
			TxTimeout: cfg.OrderTxTimeout,
		},
	)
	adminUC := usecase.NewAdminOrderUsecase(txm, dispatcher, cfg.Currency)

	e := server.New(server.Deps{
		Config:      cfg,
		Users:       infraRepo.NewUserGormRepository(gormDB),
		Orders:      orderUC,
		AdminOrders: adminUC,
		Hub:         hub,
		Ping:        func(ctx context.Context) error { return db.Ping(ctx, gormDB) },
		Logger:      log,
	})

	addr := cfg.Port
	if !strings.HasPrefix(addr, ":") {
		addr = ":" + addr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", addr, "env", cfg.GoEnv)
		return server.Run(gctx, e, addr, shutdownTimeout)
	})
	//WebSocketはShutdownで待たれないので先に切る
	g.Go(func() error {
		<-gctx.Done()
		hub.Close()
		return nil
	})
	return g.Wait()
}
