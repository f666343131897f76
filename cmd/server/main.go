package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/firestoredb"
	"storefront/internal/identity"
	"storefront/internal/localstore"
	"storefront/internal/redisclient"
	"storefront/internal/remote"
	"storefront/internal/render"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

const (
	sessionIdleTimeout = 2 * time.Hour
	evictInterval      = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeKV, err := openSessionStore(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer closeKV()

	var gcpOpts []option.ClientOption
	if cfg.Remote.Backend == config.BackendFirestore || cfg.Auth.Provider == config.ProviderFirebase {
		creds, err := cfg.FirestoreCredentials(ctx)
		if err != nil {
			logger.Fatal("Failed to read Firestore credentials", zap.Error(err))
		}
		gcpOpts = firestoredb.CredentialOptions(cfg.Firestore.CredentialsFile, creds)
	}

	remoteStore, closeRemote, err := openRemoteStore(ctx, cfg, gcpOpts)
	if err != nil {
		logger.Fatal("Failed to open remote store", zap.String("backend", cfg.Remote.Backend), zap.Error(err))
	}
	defer closeRemote()

	identities, err := openIdentityProvider(ctx, cfg, gcpOpts)
	if err != nil {
		logger.Fatal("Failed to initialize identity provider", zap.Error(err))
	}

	var writer broker.EventWriter = broker.LogWriter{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStorefront)
		defer producer.Close()
		writer = producer
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}
	eventPublisher := broker.NewEventPublisher(writer)

	catalogService := service.NewCatalogService(remoteStore)
	sessions := service.NewSessionManager(service.SessionDeps{
		KV:         kv,
		Remote:     remoteStore,
		Identities: identities,
		Publisher:  eventPublisher,
		AdminEmail: cfg.Auth.AdminEmail,
	}, catalogService)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Services{
		Sessions: sessions,
		Coupons:  service.NewCouponService(remoteStore),
		Checkout: service.NewCheckoutService(sessions, eventPublisher, cfg.Storefront.CheckoutPath),
		Assistant: service.NewAssistant(remoteStore, service.AssistantConfig{
			SupportURL:    cfg.Assistant.SupportURL,
			TypingDelay:   cfg.Assistant.TypingDelay,
			RedirectDelay: cfg.Assistant.RedirectDelay,
		}),
		Remote:     remoteStore,
		Identities: identities,
		Formatter:  render.NewFormatter(cfg.Storefront.CurrencySymbol),
	}, cfg.Storefront.CookieSecure)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	sessionWorker := worker.NewSessionWorker(sessions, evictInterval, sessionIdleTimeout)
	g.Go(func() error {
		return sessionWorker.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
		_ = sessionWorker.Stop()
		if err := sessions.Close(shutdownCtx); err != nil {
			logger.Error("Pending favorites syncs abandoned", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server exited")
}

// openSessionStore connects to Redis, or keeps sessions in memory when no address is set
func openSessionStore(cfg *config.Config) (localstore.KV, func(), error) {
	if cfg.Redis.Addr == "" {
		util.GetLogger().Warn("REDIS_ADDR not set, session records kept in memory")
		return localstore.NewMemoryKV(), func() {}, nil
	}

	client, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	util.GetLogger().Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	return client, func() { _ = client.Close() }, nil
}

// openRemoteStore opens the configured catalog/order/coupon/customer backend
func openRemoteStore(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (service.RemoteStore, func(), error) {
	logger := util.GetLogger()

	switch cfg.Remote.Backend {
	case config.BackendFirestore:
		cw, err := firestoredb.NewClient(ctx, cfg.Firestore.ProjectID, opts...)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Firestore connected", zap.String("project", cfg.Firestore.ProjectID))
		return firestoredb.NewStore(cw), func() { _ = cw.Close() }, nil

	case config.BackendPostgres:
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("Database connected")
		return db, func() { _ = db.Close() }, nil

	default:
		mem := remote.NewMemory()
		mem.SeedDemo(time.Now())
		logger.Warn("Using in-memory remote store with demo data")
		return mem, func() {}, nil
	}
}

// openIdentityProvider returns the Firebase verifier, or the development verifier
func openIdentityProvider(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (service.IdentityProvider, error) {
	if cfg.Auth.Provider == config.ProviderFirebase {
		fb, err := identity.NewFirebase(ctx, cfg.Firestore.ProjectID, opts...)
		if err != nil {
			return nil, err
		}
		return fb, nil
	}
	util.GetLogger().Warn("Using development identity provider")
	return identity.NewDev(), nil
}
