package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/SergeyBogomolovv/storefront-orders/docs"
	"github.com/SergeyBogomolovv/storefront-orders/internal/app"
	"github.com/SergeyBogomolovv/storefront-orders/internal/config"
	"github.com/SergeyBogomolovv/storefront-orders/internal/handler"
	"github.com/SergeyBogomolovv/storefront-orders/internal/postgres"
	"github.com/SergeyBogomolovv/storefront-orders/internal/repo"
	"github.com/SergeyBogomolovv/storefront-orders/internal/service"
	"github.com/SergeyBogomolovv/storefront-orders/internal/sqlite"
	"github.com/SergeyBogomolovv/storefront-orders/pkg/cache"
	"github.com/SergeyBogomolovv/storefront-orders/pkg/trm"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// @title           Storefront Orders API
// @version         1.0
// @description     Order submission and tracking API for the storefront
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, err := newStore(ctx, conf)
	panicIfErr("failed to open store", err)
	defer store.Close()
	logger.Info("store opened", slog.String("driver", conf.Store.Driver))

	cache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	orderService := service.NewOrderService(logger, store.txManager, store.repo, cache)

	handler.RegisterMetrics(prometheus.DefaultRegisterer)
	httpHandler := handler.NewHTTPHandler(logger, orderService)

	app := app.New(logger, conf)

	app.SetHTTPHandlers(httpHandler)
	if conf.Kafka.Enabled {
		app.SetConsumers(handler.NewKafkaHandler(logger, conf.Kafka, orderService))
	}
	app.SetStarters(cache, cacheWarmUpAdapter{svc: orderService, count: conf.Cache.Capacity})

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

type orderStore struct {
	txManager trm.Manager
	repo      service.OrderRepo
	io.Closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newStore(ctx context.Context, conf config.Config) (orderStore, error) {
	switch conf.Store.Driver {
	case config.StoreDriverFile:
		fileRepo, err := repo.NewFileRepo(conf.Store.FilePath)
		if err != nil {
			return orderStore{}, err
		}
		return orderStore{txManager: fileRepo, repo: fileRepo, Closer: nopCloser{}}, nil

	case config.StoreDriverSQLite:
		db, err := sqlite.New(conf.Store.SQLitePath)
		if err != nil {
			return orderStore{}, err
		}
		if err := repo.Migrate(db.DB, repo.DialectSQLite); err != nil {
			db.Close()
			return orderStore{}, err
		}
		return orderStore{txManager: trm.NewManager(db), repo: repo.NewSQLRepo(db, repo.DialectSQLite), Closer: db}, nil

	case config.StoreDriverPostgres:
		db, err := postgres.New(ctx, conf.Postgres)
		if err != nil {
			return orderStore{}, err
		}
		if err := repo.Migrate(db.DB, repo.DialectPostgres); err != nil {
			db.Close()
			return orderStore{}, err
		}
		return orderStore{txManager: trm.NewManager(db), repo: repo.NewSQLRepo(db, repo.DialectPostgres), Closer: db}, nil
	}
	return orderStore{}, fmt.Errorf("unknown store driver %q", conf.Store.Driver)
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

type warmUpper interface {
	WarmUpCache(ctx context.Context, count int) error
}

type cacheWarmUpAdapter struct {
	svc   warmUpper
	count int
}

func (a cacheWarmUpAdapter) Start(ctx context.Context) error {
	return a.svc.WarmUpCache(ctx, a.count)
}
