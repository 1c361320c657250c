package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-storefront/internal/admin"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logger"
	"github.com/ariefcatur/go-storefront/internal/mongostore"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// stores is the persistence selected by STORE_DRIVER.
type stores struct {
	products catalog.Store
	carts    cart.Store
	orders   orders.Store
	close    func()
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return stores{}, fmt.Errorf("postgres connect: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return stores{}, err
		}
		return stores{
			products: &catalog.Repo{DB: db},
			carts:    &cart.Repo{DB: db},
			orders:   &orders.Repo{DB: db},
			close:    db.Close,
		}, nil
	case config.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return stores{}, fmt.Errorf("mongo connect: %w", err)
		}
		db := client.Database(cfg.MongoDB)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return stores{}, err
		}
		s := mongostore.New(db)
		return stores{
			products: s.Products,
			carts:    s.Carts,
			orders:   s.Orders,
			close:    func() { _ = client.Disconnect(context.Background()) },
		}, nil
	default:
		return stores{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(logger.Options{Service: cfg.ServiceName, Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal("open stores", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	created := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	created.Start(ctx)
	statusChanged := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024, log)
	statusChanged.Start(ctx)

	catalogSvc := catalog.NewService(st.products)
	cartSvc := cart.NewService(st.carts, catalogSvc, log.Named("cart"))
	orderSvc := orders.NewService(st.orders, catalogSvc)
	adminSvc := admin.NewService(catalogSvc, orderSvc)

	events := &httpx.OrderEvents{
		Created:       created,
		StatusChanged: statusChanged,
		Cache:         redisx.NewCache(rdb),
		Service:       cfg.ServiceName,
		Log:           log,
	}
	router := httpx.NewRouter(log, httpx.Handlers{
		Products: &httpx.ProductsHandler{Catalog: catalogSvc, Log: log, Timeout: cfg.RequestTimeout},
		Cart:     &httpx.CartHandler{Cart: cartSvc, Log: log, Timeout: cfg.RequestTimeout},
		Orders:   &httpx.OrdersHandler{Orders: orderSvc, Events: events, Log: log, Timeout: cfg.RequestTimeout},
		Admin: &httpx.AdminHandler{
			Catalog:   catalogSvc,
			Orders:    orderSvc,
			Dashboard: adminSvc,
			Events:    events,
			Log:       log,
			Timeout:   cfg.RequestTimeout,
		},
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	// Closing the inbox flushes what is queued before the writer closes.
	created.Close()
	statusChanged.Close()
	created.WaitClosed()
	statusChanged.WaitClosed()
	cancel()
}
