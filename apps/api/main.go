package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zenGate-Global/hello-audit/contracts"
	greetinghandler "github.com/zenGate-Global/hello-audit/domains/greeting/be/handler"
	greetingservice "github.com/zenGate-Global/hello-audit/domains/greeting/be/service"
	"github.com/zenGate-Global/hello-audit/platform/go/accesslog"
	platformlogging "github.com/zenGate-Global/hello-audit/platform/go/logging"
)

type config struct {
	Port              string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowedOrigin string        `env:"CORS_ALLOWED_ORIGIN"`
	AuthProvider      string        `env:"AUTH_PROVIDER" envDefault:"oidc"` // oidc | firebase | dev

	OIDCIssuerURL    string   `env:"OIDC_ISSUER_URL"`
	OIDCClientID     string   `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string   `env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string   `env:"OIDC_REDIRECT_URL" envDefault:"http://localhost:3000/login/oauth2/code/oidc"`
	OIDCScopes       []string `env:"OIDC_SCOPES" envDefault:"openid,profile,email" envSeparator:","`

	SessionHashKey      string        `env:"SESSION_HASH_KEY"`  // base64, at least 32 bytes decoded
	SessionBlockKey     string        `env:"SESSION_BLOCK_KEY"` // base64, 16/24/32 bytes decoded; empty disables encryption
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"true"`

	DevJWTSecret   string `env:"DEV_JWT_SECRET"`
	FirebaseConfig string `env:"FIREBASE_CONFIG"` // service account json; empty uses ADC

	AccessLogIncludeUser bool `env:"ACCESS_LOG_INCLUDE_USER" envDefault:"true"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	authentication, err := buildAuth(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init authentication", zap.String("provider", cfg.AuthProvider), zap.Error(err))
	}

	helloSpec, err := contracts.GetHelloSwagger()
	if err != nil {
		logger.Fatal("load openapi spec", zap.String("path", contracts.HelloPath), zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	accessMetrics, err := accesslog.NewMetrics(registry)
	if err != nil {
		logger.Fatal("register access log metrics", zap.Error(err))
	}

	greetingHTTPHandler := greetinghandler.New(greetingservice.New(), logger)

	rootRouter := buildRouter(routerDeps{
		logger:         logger,
		requestTimeout: cfg.RequestTimeout,
		corsOrigin:     cfg.CORSAllowedOrigin,
		auth:           authentication,
		greeting:       greetingHTTPHandler,
		helloSpec:      helloSpec,
		metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	emitter := accesslog.New(accesslog.Config{
		Logger:        logger.Named("access"),
		Authenticator: authentication.authenticator,
		Metrics:       accessMetrics,
		IncludeUser:   cfg.AccessLogIncludeUser,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      emitter.Handler(rootRouter),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port), zap.String("auth_provider", cfg.AuthProvider))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
