package http

import (
	"context"
	"fmt"
	"net/http"

	appsession "github.com/astro-web3/mobile-access-gate/internal/app/session"
	"github.com/astro-web3/mobile-access-gate/internal/config"
	"github.com/astro-web3/mobile-access-gate/internal/domain/access"
	"github.com/astro-web3/mobile-access-gate/internal/domain/session"
	"github.com/astro-web3/mobile-access-gate/internal/infra/authbackend"
	"github.com/astro-web3/mobile-access-gate/internal/infra/revocation"
	"github.com/astro-web3/mobile-access-gate/pkg/logger"
	"github.com/astro-web3/mobile-access-gate/pkg/otel"
	"github.com/astro-web3/mobile-access-gate/pkg/tracer"
)

type Server struct {
	httpServer *http.Server
}

const (
	idleTimeoutMultiplier = 2
	serviceName           = "mobile-access-gate"
)

func NewServer(cfg *config.Config) (*Server, error) {
	logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.Format)

	otelCfg := otel.Config{
		ServiceName:        serviceName,
		EndpointURL:        cfg.Observability.TracingEndpointURL,
		Enabled:            cfg.Observability.TraceEnabled,
		SampleRatio:        1.0,
		Insecure:           true,
		ResourceAttributes: make(map[string]string),
	}
	if err := tracer.InitTracer(serviceName, otelCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	// The revocation registry is optional; without redis a previously denied
	// token is simply re-resolved and denied again on its next appearance.
	var registry revocation.Registry
	if cfg.Redis.URL != "" {
		redisClient, err := revocation.NewRedisClient(cfg.Redis.URL, cfg.Redis.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		registry = revocation.NewRegistry(redisClient)
	}

	store := authbackend.NewClient(cfg.SessionStore.BaseURL)
	gate := access.NewGate(cfg.Auth.PrivilegedRole)

	workflow := session.NewService(
		store,
		gate,
		registry,
		cfg.Auth.RevocationTTL,
		cfg.Auth.PlatformTag,
	)
	appService := appsession.NewService(workflow)

	handler := NewHandler(appService, cfg)
	router := NewRouter(handler, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout * idleTimeoutMultiplier,
	}

	return &Server{
		httpServer: httpServer,
	}, nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
