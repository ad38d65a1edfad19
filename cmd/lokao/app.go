package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/denisok6893-rgb/lokao-advisor/internal/catalog"
	"github.com/denisok6893-rgb/lokao-advisor/internal/config"
	"github.com/denisok6893-rgb/lokao-advisor/internal/cub"
	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
	"github.com/denisok6893-rgb/lokao-advisor/internal/market"
	"github.com/denisok6893-rgb/lokao-advisor/internal/matching"
	"github.com/denisok6893-rgb/lokao-advisor/internal/payment"
	"github.com/denisok6893-rgb/lokao-advisor/internal/pilot"
	"github.com/denisok6893-rgb/lokao-advisor/internal/report"
	"github.com/denisok6893-rgb/lokao-advisor/internal/storage"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      config.Config
	log      *logging.Logger
	catalog  *catalog.Catalog
	engine   *matching.Engine
	payments *payment.Service
	pilot    *pilot.Service
	reports  *report.Builder

	closers []func() error
}

func loadConfig() (config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Logging.Mode, verbose || cfg.Logging.Verbose)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func newEngine(cfg config.Config, log *logging.Logger) *matching.Engine {
	policy := matching.DefaultPolicy()
	if cfg.Matching.PolicyPath != "" {
		p, err := matching.LoadPolicyFromFile(cfg.Matching.PolicyPath)
		if err != nil {
			log.Warn("use default matching policy", "error", err)
		}
		policy = p
	}
	return matching.NewEngine(policy)
}

func loadCatalog(cfg config.Config, log *logging.Logger) (*catalog.Catalog, error) {
	path, err := storage.FindCatalog(cfg.Data.CatalogPaths)
	if err != nil {
		return nil, err
	}
	items, err := storage.LoadNeighborhoodsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Info("catalog loaded", "path", path, "bairros", len(items))
	return catalog.New(items), nil
}

// newApp wires every component. withCatalog=false skips the catalog for
// commands that only touch pilot or payment state.
func newApp(ctx context.Context, withCatalog bool) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, engine: newEngine(cfg, log)}

	if withCatalog {
		if a.catalog, err = loadCatalog(cfg, log); err != nil {
			return nil, err
		}
	}

	var (
		payStore   payment.Store
		pilotStore pilot.Store
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := storage.OpenSQLite(cfg.Storage.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		payStore, pilotStore = db, db
	default:
		payStore = storage.NewPaymentFileStore(cfg.Data.PaymentsPath, log)
		pilotStore = storage.NewPilotFileStore(cfg.Data.PilotPath, log)
	}
	log.Info("storage ready", "backend", cfg.Storage.Backend)

	a.payments = payment.NewService(payStore, cfg.Payment.CheckoutURL, log)
	a.pilot = pilot.NewService(pilotStore, pilot.Options{
		Salt:     cfg.Pilot.CPFSalt,
		Duration: cfg.Pilot.WindowDuration(),
		Sink:     storage.NewEventLog(cfg.Data.PilotEventsPath),
		Logger:   log,
	})

	if !withCatalog {
		return a, nil
	}

	series, err := cub.LoadSeries(cfg.Data.CUBPath)
	if err != nil {
		log.Warn("cub series unavailable", "error", err)
	}
	resolver, err := a.newResolver(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.reports = report.NewBuilder(report.Options{
		Catalog:    a.catalog,
		Engine:     a.engine,
		CUB:        series,
		Market:     resolver,
		Payments:   a.payments,
		Pilot:      a.pilot,
		PriceCents: cfg.Payment.PriceCents,
		Logger:     log,
	})
	return a, nil
}

func (a *app) newResolver(ctx context.Context) (*market.Resolver, error) {
	mc := a.cfg.Market
	var cache market.Cache
	switch mc.CacheBackend {
	case "redis":
		rc, err := market.NewRedisCache(ctx, mc.RedisAddr, mc.RedisPrefix, mc.CacheTTLDuration())
		if err != nil {
			return nil, fmt.Errorf("connect market cache: %w", err)
		}
		a.closers = append(a.closers, rc.Close)
		cache = rc
	default:
		cache = market.NewFileCache(a.cfg.Data.MarketCachePath, a.log)
	}

	var fetcher market.Fetcher
	if mc.ExternalEnabled {
		fetcher = market.NewHTTPFetcher(mc.Endpoint, &http.Client{Timeout: mc.TimeoutDuration()})
	}
	return market.NewResolver(cache, market.Options{
		Fetcher:  fetcher,
		External: mc.ExternalEnabled,
		Timeout:  mc.TimeoutDuration(),
		TTL:      mc.CacheTTLDuration(),
		Cooldown: mc.FailureCooldownDuration(),
		Logger:   a.log,
	}), nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	a.log.Sync()
	return errors.Join(errs...)
}
