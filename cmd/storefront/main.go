package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/eltovar/DeiiwoCoffee/internal/checkout"
	"github.com/eltovar/DeiiwoCoffee/internal/config"
	h "github.com/eltovar/DeiiwoCoffee/internal/http"
	"github.com/eltovar/DeiiwoCoffee/internal/logger"
	"github.com/eltovar/DeiiwoCoffee/internal/notifier"
	"github.com/eltovar/DeiiwoCoffee/internal/payment"
	"github.com/eltovar/DeiiwoCoffee/internal/repository"
	"github.com/eltovar/DeiiwoCoffee/internal/shipping"
	"github.com/eltovar/DeiiwoCoffee/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync()
	zap.ReplaceGlobals(lg)

	ctx := context.Background()

	// Storage: Redis when configured, in-process otherwise.
	var (
		st          storage.Storage
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			lg.Fatal("redis connection failed", zap.Error(err))
		}
		lg.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
		st = storage.NewRedisStorage(redisClient, storage.DefaultTTL)
	} else {
		mem := storage.NewMemoryStorage(0)
		defer mem.Close()
		st = mem
		lg.Warn("REDIS_ADDR not set, carts are kept in memory")
	}

	// Shipping
	shipCfg := shipping.DefaultConfig()
	shipCfg.LookupTimeout = cfg.LookupTimeout
	var lookup shipping.DistanceLookup
	if cfg.ORSAPIKey != "" {
		ors := shipping.NewORSClient(cfg.ORSAPIKey, lg,
			shipping.WithBaseURL(cfg.ORSBaseURL),
			shipping.WithOrigin(shipping.Coordinates{cfg.StoreLon, cfg.StoreLat}),
		)
		lookup = shipping.NewCachedLookup(ors, redisClient, lg, shipping.WithCallTimeout(2*cfg.LookupTimeout))
	} else {
		lg.Warn("ORS_API_KEY not set, local shipping is priced from the distance table")
	}
	estimator := shipping.NewEstimator(shipCfg, lookup, lg)

	// Payment
	links := payment.NewClient(cfg.BoldIdentityKey, lg, payment.WithEndpoint(cfg.BoldAPIURL))
	widget := payment.NewHostedWidget(cfg.BoldPublicKey, lg)

	// Notifier and its optional collaborators
	var mailer notifier.Mailer = notifier.NewLogMailer(lg)
	if cfg.MailConfigured() {
		mailer = notifier.NewSMTPMailer(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
		})
	} else {
		lg.Warn("EMAIL_USER/EMAIL_PASS not set, order emails are only logged")
	}

	sender := cfg.EmailAlias
	if sender == "" {
		sender = cfg.EmailUser
	}
	var notifierOpts []notifier.Option

	if cfg.DBHost != "" {
		repo, err := repository.NewRepository(&repository.Credentials{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
		}, lg)
		if err != nil {
			lg.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer repo.Close()
		if err := repo.RunMigrations(); err != nil {
			lg.Fatal("failed to run migrations", zap.Error(err))
		}
		notifierOpts = append(notifierOpts, notifier.WithLedger(repo))
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		pub := notifier.NewKafkaPublisher(cfg.KafkaTopic, brokers...)
		defer pub.Close()
		notifierOpts = append(notifierOpts, notifier.WithPublisher(pub))
		lg.Info("publishing paid orders", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}

	orderNotifier := notifier.New(mailer, notifier.Config{
		Sender:     sender,
		OpsMailbox: cfg.OpsAddress(),
	}, lg, notifierOpts...)

	// Sessions
	registry := checkout.NewRegistry(checkout.NewSessionFactory(checkout.SessionDeps{
		Storage:   st,
		Estimator: estimator,
		Widget:    widget,
		Flow: checkout.FlowConfig{
			Origin:    cfg.AppURL,
			PublicKey: cfg.BoldPublicKey,
			Debounce:  cfg.QuoteDebounce,
		},
		Logger: lg,
	}), cfg.SessionIdleTTL, lg)
	defer registry.Close()

	router := h.NewRouter(h.RouterDeps{
		Registry:       registry,
		Estimator:      estimator,
		Links:          links,
		Notifier:       orderNotifier,
		Signature:      notifier.SignaturePolicy{Secret: cfg.BoldSecretKey, Required: cfg.RequireSignature},
		Limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		RequestTimeout: cfg.RequestTimeout,
		IdentityKeySet: cfg.BoldIdentityKey != "",
		SecretKeySet:   cfg.BoldSecretKey != "",
		Logger:         lg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC health endpoint for orchestrators
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		lg.Fatal("failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		lg.Info("grpc health listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			lg.Error("grpc server error", zap.Error(err))
		}
	}()

	go func() {
		lg.Info("storefront starting",
			zap.String("port", cfg.HTTPPort),
			zap.Bool("bold_identity_key", cfg.BoldIdentityKey != ""),
			zap.Bool("bold_secret_key", cfg.BoldSecretKey != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	lg.Info("server exited")
}
