package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/depotmaster/internal/auth"
	"github.com/dropDatabas3/depotmaster/internal/authz"
	"github.com/dropDatabas3/depotmaster/internal/cache"
	"github.com/dropDatabas3/depotmaster/internal/config"
	depothttp "github.com/dropDatabas3/depotmaster/internal/http"
	"github.com/dropDatabas3/depotmaster/internal/http/handlers"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
	"github.com/dropDatabas3/depotmaster/internal/mail"
	"github.com/dropDatabas3/depotmaster/internal/metrics"
	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
	"github.com/dropDatabas3/depotmaster/internal/rate"
	"github.com/dropDatabas3/depotmaster/internal/security/password"
	"github.com/dropDatabas3/depotmaster/internal/storage/s3"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/memory"
	"github.com/dropDatabas3/depotmaster/internal/store/pg"
	"github.com/dropDatabas3/depotmaster/internal/token"

	rdb "github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "depotmaster:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "ruta al config YAML (vacío = defaults + env)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── storage ──
	var (
		repos  *store.Store
		pinger handlers.Pinger
	)
	met, err := metrics.New()
	if err != nil {
		return err
	}

	switch cfg.Storage.Driver {
	case "postgres":
		pgStore, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxConns,
			MinIdleConns:    cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: config.Duration(cfg.Storage.Postgres.ConnMaxLifetime),
		})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pgStore.Close()
		if err := met.RegisterPool(pgStore.Pool()); err != nil {
			return err
		}
		repos, pinger = pgStore.Repos(), pgStore
	case "memory":
		memStore := memory.New()
		repos, pinger = memStore.Repos(), memStore
		log.Warn("storage en memoria: todos los datos se pierden al apagar")
	default:
		return fmt.Errorf("storage driver desconocido: %q", cfg.Storage.Driver)
	}

	// ── cache ──
	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Host:     cfg.Cache.Host,
		Port:     cfg.Cache.Port,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cacheClient.Close()

	// ── tokens ──
	secret := []byte(cfg.JWT.Secret)
	if len(secret) == 0 {
		// solo dev: el validate() de config ya exige JWT_SECRET en prod
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		log.Warn("JWT_SECRET no seteado: usando secreto efímero, los tokens no sobreviven reinicios")
	}
	issuer, err := token.NewIssuer(cfg.JWT.Issuer, secret, config.Duration(cfg.JWT.TTL))
	if err != nil {
		return err
	}

	// ── dominio ──
	svc, err := auth.NewService(repos, issuer, password.Default, met)
	if err != nil {
		return err
	}
	twoFactor := auth.NewTwoFactor(repos, cfg.TwoFactor.IssuerName)
	policy := authz.NewPolicy(repos, cacheClient)

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		window := config.Duration(cfg.Rate.Login.Window)
		if cfg.Cache.Driver == "redis" {
			client := rdb.NewClient(&rdb.Options{
				Addr:     fmt.Sprintf("%s:%d", cfg.Cache.Host, cfg.Cache.Port),
				Password: cfg.Cache.Password,
				DB:       cfg.Cache.DB,
			})
			defer client.Close()
			limiter = rate.NewRedisLimiter(client, cfg.Cache.Prefix+"rl:", cfg.Rate.Login.Limit, window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, window)
		}
	}

	var notifier *mail.Notifier
	if cfg.SMTP.Host != "" {
		sender := mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From,
			cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.TLS)
		notifier = mail.NewNotifier(sender, cfg.App.Name)
	} else {
		notifier = mail.NewNotifier(mail.NopSender{}, cfg.App.Name)
	}

	var blobs *s3.Client
	if cfg.S3.Enabled {
		blobs, err = s3.New(ctx, s3.Config{
			Endpoint:   cfg.S3.Endpoint,
			Region:     cfg.S3.Region,
			Bucket:     cfg.S3.Bucket,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			PresignTTL: config.Duration(cfg.S3.PresignTTL),
		})
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
	}

	// ── http ──
	middlewares.TrustProxyHeaders(cfg.Server.TrustProxy)
	deps := middlewares.AuthDeps{Issuer: issuer, Users: repos.Users, TOTP: repos.TOTP, Metrics: met}

	health := handlers.NewHealthHandler(cfg.App.Version)
	health.AddCheck("storage", pinger)
	health.AddCheck("cache", cacheClient)

	router := depothttp.NewRouter(met,
		handlers.NewAuthHandler(svc, repos, deps, notifier, limiter),
		handlers.NewMFAHandler(twoFactor, deps),
		handlers.NewGroupHandler(policy, deps),
		handlers.NewUserAdminHandler(repos.Users, policy, deps, notifier),
		handlers.NewDepotHandler(repos.Depots, policy, deps),
		handlers.NewSupplierHandler(repos.Suppliers, policy, deps),
		handlers.NewAttachmentHandler(repos.Attachments, blobs, policy, deps, cfg.Upload.MaxBytes),
		health,
	)

	appServer := depothttp.NewServer(depothttp.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.Duration(cfg.Server.ReadTimeout),
		IdleTimeout:     config.Duration(cfg.Server.IdleTimeout),
		ShutdownTimeout: 10 * time.Second,
	}, router)

	metricsMux := stdhttp.NewServeMux()
	metricsMux.Handle("/metrics", met.Handler())
	metricsServer := depothttp.NewServer(depothttp.ServerConfig{
		Addr:            cfg.Server.MetricsAddr,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, metricsMux)

	log.Info("arrancando",
		logger.String("env", cfg.App.Env),
		logger.String("addr", cfg.Server.Addr),
		logger.String("storage", cfg.Storage.Driver))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return appServer.Run(gctx) })
	g.Go(func() error { return metricsServer.Run(gctx) })
	return g.Wait()
}
