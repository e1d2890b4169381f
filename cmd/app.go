package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/nexcast/internal/config"
	"github.com/Vovarama1992/nexcast/internal/delivery"
	"github.com/Vovarama1992/nexcast/internal/delivery/ws"
	"github.com/Vovarama1992/nexcast/internal/domain"
	"github.com/Vovarama1992/nexcast/internal/infra"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type app struct {
	cfg    *config.Config
	zap    *zap.Logger
	log    *logger.ZapLogger
	pool   *pgxpool.Pool
	router http.Handler
}

func newLogger(cfg *config.Config) (*zap.Logger, *logger.ZapLogger, error) {
	zcore, err := zap.NewProduction()
	if cfg.IsDevelopment() {
		zcore, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return zcore, logger.NewZapLogger(zcore.Sugar()), nil
}

// newApp wires stores, services and the router. withStream enables the websocket
// frame stream, which only a long-running server can host.
func newApp(ctx context.Context, withStream bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	zcore, zl, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	// POSTGRES
	if cfg.MigrateOnStart {
		if err := infra.MigrateUp(cfg.DatabaseURL(), zl); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	pool, err := infra.NewPgxPool(ctx, cfg.DatabaseURL(), cfg.DB.MaxConns)
	if err != nil {
		return nil, err
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	// AWS
	awsCfg, err := infra.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		pool.Close()
		return nil, err
	}
	store := infra.NewS3FrameStore(awsCfg, cfg.S3Bucket, cfg.S3Endpoint)
	idp := infra.NewCognitoIdentityProvider(awsCfg, cfg.CognitoClientID, cfg.CognitoClientSecret)

	// SERVICES
	uow := infra.NewPostgresUnitOfWork(pool)
	sessions := domain.NewSessionService(uow, cfg.SessionEndRequireOwner)
	frames := domain.NewFrameService(uow, store)
	history := domain.NewHistoryService(uow)
	auth := domain.NewAuthService(idp)

	// HANDLERS
	hub := ws.NewHub(zl)
	handlers := delivery.Handlers{
		Auth:    delivery.NewAuthHandler(auth, zl),
		Session: delivery.NewSessionHandler(sessions, hub, zl),
		Frame:   delivery.NewFrameHandler(frames, zl),
		History: delivery.NewHistoryHandler(history, zl),
	}
	if withStream {
		handlers.FrameStream = ws.NewFrameStreamHandler(hub, sessions, frames, zl)
	}

	identity := delivery.IdentityMiddleware(domain.NewIdentityResolver(), cfg.IdentityHeader())

	return &app{
		cfg:    cfg,
		zap:    zcore,
		log:    zl,
		pool:   pool,
		router: delivery.NewRouter(handlers, identity),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
	_ = a.zap.Sync()
}
