package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/carbonchain/carbonchain-backend/config"
	"github.com/carbonchain/carbonchain-backend/internal/auth"
	authmw "github.com/carbonchain/carbonchain-backend/internal/auth/middleware"
	authrepo "github.com/carbonchain/carbonchain-backend/internal/auth/repository"
	authservice "github.com/carbonchain/carbonchain-backend/internal/auth/service"
	escrowrepo "github.com/carbonchain/carbonchain-backend/internal/escrow/repository"
	escrowservice "github.com/carbonchain/carbonchain-backend/internal/escrow/service"
	"github.com/carbonchain/carbonchain-backend/internal/marketplace/cache"
	"github.com/carbonchain/carbonchain-backend/internal/marketplace/catalog"
	"github.com/carbonchain/carbonchain-backend/internal/marketplace/client"
	cronjob "github.com/carbonchain/carbonchain-backend/internal/marketplace/cron"
	mktservice "github.com/carbonchain/carbonchain-backend/internal/marketplace/service"
	"github.com/carbonchain/carbonchain-backend/internal/orders/certificates"
	ordersrepo "github.com/carbonchain/carbonchain-backend/internal/orders/repository"
	ordersservice "github.com/carbonchain/carbonchain-backend/internal/orders/service"
	quotesrepo "github.com/carbonchain/carbonchain-backend/internal/quotes/repository"
	quotesservice "github.com/carbonchain/carbonchain-backend/internal/quotes/service"
)

const serviceName = "carbonchain-backend"

// App is the assembled service: HTTP router, background jobs and the
// connections they share.
type App struct {
	Router    *gin.Engine
	Scheduler *cronjob.Scheduler
	Escrow    *escrowservice.EscrowService

	closers []func()
}

// Build wires every component from cfg. Postgres, Redis, Firebase and S3 are
// optional: an unset setting selects the in-memory store or disables the
// feature, while a set but unreachable backend is an error.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	source, err := marketplaceSource(cfg.Marketplace, log)
	if err != nil {
		return nil, err
	}

	deps := RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		DevMode:        cfg.App.DevMode,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            log,
	}

	// Redis: quotes and the reference cache.
	var quoteStore quotesservice.Store = quotesrepo.NewMemoryRepository()
	var refCache *cache.ReferenceCache
	if cfg.Redis.Addr != "" {
		rdb, err := OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		deps.Redis = rdb
		quoteStore = quotesrepo.NewQuoteRepository(rdb)
		refCache = cache.NewReferenceCache(rdb, cfg.Marketplace.ReferenceTTL)
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Warn("REDIS_ADDR not set, quotes are kept in memory")
	}

	// lib/pq: users and order history.
	var userStore authservice.Repository = authrepo.NewMemoryRepository()
	var orderStore ordersservice.Repository = ordersrepo.NewMemoryRepository()
	if cfg.Database.PostgresURL() != "" {
		db, err := OpenSQL(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = db.Close() })
		users := authrepo.NewUserRepository(db)
		if err := users.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		orders := ordersrepo.NewOrderRepository(db)
		if err := orders.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		userStore = users
		orderStore = orders
		log.Info("postgres (users, orders) connected", zap.String("host", cfg.Database.Host))
	} else {
		log.Warn("DB_HOST not set, users and orders are kept in memory")
	}

	// pgx: escrow ledger.
	var escrowStore escrowservice.Repository = escrowrepo.NewMemoryRepository()
	if cfg.Database.DSN != "" {
		pool, err := OpenPool(ctx, DBOptions{DSN: cfg.Database.DSN})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, pool.Close)
		repo := escrowrepo.NewPgxRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		deps.DB = pool
		escrowStore = repo
		log.Info("postgres (escrow) connected")
	} else {
		log.Warn("DB_DSN not set, escrow ledger is kept in memory")
	}

	if cfg.Firebase.CredentialsPath != "" {
		fb, err := auth.NewTokenClient(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
		deps.Verifier = authmw.TokenVerifier(fb)
		log.Info("firebase token verification enabled")
	}

	var certStore certificates.Store
	if cfg.Storage.CertificateBucket != "" {
		s3store, err := certificates.NewS3Store(ctx, cfg.Storage.CertificateBucket, cfg.Storage.Region)
		if err != nil {
			return nil, err
		}
		certStore = s3store
		log.Info("certificate archival enabled", zap.String("bucket", cfg.Storage.CertificateBucket))
	}

	mkt := mktservice.NewMarketplaceService(source, refCache, log)
	orders := ordersservice.NewOrderService(orderStore, certStore, log)
	quotes := quotesservice.NewQuoteService(mkt, quoteStore, orders, quotesservice.Options{
		TTL:           cfg.Quote.TTL,
		CostTolerance: cfg.Quote.CostTolerance,
	}, log)
	escrow := escrowservice.NewEscrowService(escrowStore, log).
		WithFundingView(userDirectory{users: userStore}, cfg.Escrow.EthUSD)

	deps.Marketplace = mkt
	deps.Quotes = quotes
	deps.Orders = orders
	deps.Auth = authservice.NewAuthService(userStore, log)
	deps.Escrow = escrow

	app.Router = BuildRouter(deps)
	app.Escrow = escrow

	app.Scheduler = cronjob.NewScheduler(log)
	if refCache != nil {
		if err := app.Scheduler.AddReferenceRefresh(cfg.Marketplace.RefreshSchedule, mkt); err != nil {
			return nil, err
		}
	}
	if err := app.Scheduler.AddJob("escrow-sweep", cfg.Escrow.SweepSchedule, func(ctx context.Context) error {
		n, err := escrow.SweepExpired(ctx)
		if n > 0 {
			log.Info("expired escrow projects cancelled", zap.Int("count", n))
		}
		return err
	}); err != nil {
		return nil, err
	}

	ok = true
	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func marketplaceSource(cfg config.MarketplaceConfig, log *zap.Logger) (mktservice.Source, error) {
	if cfg.CatalogPath != "" {
		c, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		log.Info("serving marketplace from offline catalog", zap.String("path", cfg.CatalogPath))
		return c, nil
	}
	return client.New(clientOptions(cfg), log), nil
}

func clientOptions(cfg config.MarketplaceConfig) client.Options {
	return client.Options{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		RateLimit:      rate.Limit(cfg.RateLimit),
		Burst:          cfg.Burst,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		BackoffInitial: cfg.BackoffInitial,
		BackoffMax:     cfg.BackoffMax,
	}
}
