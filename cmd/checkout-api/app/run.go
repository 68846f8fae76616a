package app

import (
	"context"
	"database/sql"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/CroosRRAF/ChefSync-sub012/configs"
	"github.com/CroosRRAF/ChefSync-sub012/internal/adapter/backend"
	"github.com/CroosRRAF/ChefSync-sub012/internal/adapter/cache"
	httpadapter "github.com/CroosRRAF/ChefSync-sub012/internal/adapter/http"
	"github.com/CroosRRAF/ChefSync-sub012/internal/adapter/http/middleware"
	"github.com/CroosRRAF/ChefSync-sub012/internal/adapter/kafka"
	"github.com/CroosRRAF/ChefSync-sub012/internal/adapter/queue"
	"github.com/CroosRRAF/ChefSync-sub012/internal/adapter/repo"
	"github.com/CroosRRAF/ChefSync-sub012/internal/logging"
	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	log := logging.Init(cfg.App.Name, "./logs/app.log", cfg.App.LogLevel)

	// database for the order snapshot read model
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ReadTimeout)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	cancel()

	log.Info("checkout-api: starting up")

	// redis for cart sessions and the status cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// rabbitmq for lifecycle notifications
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	notifier, err := queue.NewRabbitNotifier(ch, cfg.Rabbit.Exchange)
	if err != nil {
		return nil, nil, err
	}

	// remote backend client serves checkout, orders and addresses
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, cfg.Backend.UserAgent, logging.New("backend"))

	// infra
	carts := cache.NewRedisCartStore(rdb, cfg.Redis.CartTTL)
	statusCache := cache.NewRedisStatusCache(rdb, cfg.Redis.CartTTL)
	snapshots := repo.NewMySQLSnapshotRepo(db)

	// kafka listener keeps snapshots fresh from backend status events
	setupKafkaListener(cfg, snapshots, statusCache)

	// use cases
	estimator := usecase.NewFeeEstimator(client, usecase.FeeSchedule{
		BaseFee:      cfg.Fees.BaseFee,
		FreeRadiusKm: cfg.Fees.FreeRadiusKm,
		PerKmRate:    cfg.Fees.PerKmRate,
		Currency:     cfg.Fees.Currency,
	}, logging.New("fees"))

	checkout := usecase.NewCheckout(estimator, client, client, carts, notifier, cfg.Fees.TaxRate, logging.New("checkout"))
	invoices := usecase.NewInvoices(client, logging.New("invoices"))

	trackerCfg := usecase.TrackerConfig{
		PollInterval:      cfg.Tracking.PollInterval,
		MaxPolls:          cfg.Tracking.MaxPolls,
		DefaultWindowSecs: cfg.Tracking.CancelWindowSecs,
		CloseDelay:        cfg.Tracking.CloseDelay,
	}
	trackers := usecase.NewTrackerRegistry(func(orderID string) *usecase.Tracker {
		return usecase.NewTracker(orderID, client, snapshots, notifier, trackerCfg, logging.New("tracker"))
	})

	// handlers + router + middleware
	cartH := httpadapter.NewCartHandler(carts)
	checkoutH := httpadapter.NewCheckoutHandler(checkout)
	orderH := httpadapter.NewOrderHandler(client, snapshots, statusCache, trackers, invoices)
	auth := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(cartH, checkoutH, orderH, auth)

	cleanup := func() {
		trackers.StopAll()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupKafkaListener(cfg configs.Config, snapshots usecase.OrderSnapshots, statusCache usecase.StatusCache) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		panic(err)
	}

	h := kafka.NewOrderStatusChangedHandler(snapshots, statusCache, logging.New("kafka"))
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicStatus}, h.Handle, logging.New("kafka"))

	go func() {
		if err := consumer.Start(context.Background()); err != nil && err != context.Canceled {
			panic(err)
		}
	}()
}
