package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"milkfactory/config"
	"milkfactory/core/events"
	"milkfactory/core/state"
	"milkfactory/gateway/middleware"
	"milkfactory/gateway/routes"
	"milkfactory/integrations/audit"
	"milkfactory/integrations/webhooks"
	"milkfactory/native/access"
	"milkfactory/native/itemfactory"
	"milkfactory/native/items"
	"milkfactory/native/milk"
	"milkfactory/native/rewards"
	"milkfactory/observability"
	"milkfactory/storage"
)

// node holds the engines and the HTTP handler serving them.
type node struct {
	db           storage.Database
	manager      *state.Manager
	milkRoles    *access.Registry
	factoryRoles *access.Registry
	ledger       *milk.Ledger
	factory      *itemfactory.Factory
	sink         *audit.Sink
	auditDB      *gorm.DB
	hooks        *webhooks.Dispatcher
	handler      http.Handler
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	if cfg.Node.Backend == config.BackendMemory {
		return storage.NewMemDB(), nil
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.Node.DataDir, "state"))
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return db, nil
}

func newNode(cfg *config.Config, logger *slog.Logger) (*node, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	n := &node{db: db, manager: state.NewManager(db)}

	emitters := events.Multi{observability.Events()}
	if cfg.Audit.Driver != "" {
		auditDB, err := audit.Open(cfg.Audit.Driver, cfg.Audit.DSN)
		if err != nil {
			n.Close()
			return nil, err
		}
		n.auditDB = auditDB
		sink, err := audit.NewSink(auditDB, logger.With("component", "audit"))
		if err != nil {
			n.Close()
			return nil, err
		}
		n.sink = sink
		emitters = append(emitters, sink)
	}
	if cfg.Webhooks.URL != "" {
		opts := []webhooks.Option{
			webhooks.WithLogger(logger.With("component", "webhooks")),
			webhooks.WithRetryPolicy(cfg.Webhooks.MaxAttempts, 0, 0),
		}
		if len(cfg.Webhooks.Events) > 0 {
			opts = append(opts, webhooks.WithTopics(cfg.Webhooks.Events...))
		}
		hooks, err := webhooks.NewDispatcher(cfg.Webhooks.URL, []byte(cfg.WebhookSecret()), opts...)
		if err != nil {
			n.Close()
			return nil, err
		}
		n.hooks = hooks
		emitters = append(emitters, hooks)
	}
	n.manager.SetEmitter(emitters)

	n.milkRoles = access.NewRegistry(n.manager, access.NamespaceMilk)
	n.factoryRoles = access.NewRegistry(n.manager, access.NamespaceItemFactory)
	n.ledger = milk.NewLedger(n.manager, n.milkRoles, cfg.MilkConfig())
	catalog := rewards.NewCatalog(n.manager, n.factoryRoles)
	if err := catalog.SetDefaultRarityRolls(cfg.RarityRolls()); err != nil {
		n.Close()
		return nil, err
	}
	n.factory = itemfactory.NewFactory(n.manager, n.factoryRoles, catalog, n.ledger, items.NewStore(n.manager), cfg.FactoryConfig())
	if err := n.factory.SetDefaultTypeWeights(cfg.TypeWeights()); err != nil {
		n.Close()
		return nil, err
	}

	if err := bootstrapRoles(cfg, n.milkRoles, n.factoryRoles, n.factory.Address(), logger); err != nil {
		n.Close()
		return nil, err
	}

	handler, err := buildHandler(cfg, n, logger)
	if err != nil {
		n.Close()
		return nil, err
	}
	n.handler = handler
	return n, nil
}

// bootstrapRoles makes the configured owner the default admin of both role
// tables and applies the configured grants. Existing memberships are left
// alone so restarts are no-ops. A table already owned by another account
// keeps its admins and the configured grants for it are skipped.
func bootstrapRoles(cfg *config.Config, milkRoles, factoryRoles *access.Registry, factoryAddr common.Address, logger *slog.Logger) error {
	owner, ok := cfg.Owner()
	if !ok {
		logger.Warn("no owner configured; role tables used as persisted")
		return nil
	}
	registries := map[string]*access.Registry{
		access.NamespaceMilk:        milkRoles,
		access.NamespaceItemFactory: factoryRoles,
	}
	owned := make(map[string]bool, len(registries))
	for _, ns := range []string{access.NamespaceMilk, access.NamespaceItemFactory} {
		reg := registries[ns]
		if reg.HasRole(access.DefaultAdminRole, owner) {
			owned[ns] = true
			continue
		}
		err := reg.Bootstrap(owner)
		switch {
		case errors.Is(err, access.ErrAlreadyBootstrapped):
			logger.Warn("role table owned by another account; configured grants skipped", "namespace", ns, "owner", owner.Hex())
			continue
		case err != nil:
			return fmt.Errorf("bootstrap %s roles: %w", ns, err)
		}
		owned[ns] = true
		logger.Info("role table bootstrapped", "namespace", ns, "owner", owner.Hex())
	}

	grant := func(reg *access.Registry, role access.Role, account common.Address) error {
		if !owned[reg.Namespace()] || reg.HasRole(role, account) {
			return nil
		}
		if err := reg.GrantRole(owner, role, account); err != nil {
			return fmt.Errorf("grant %s on %s to %s: %w", role, reg.Namespace(), account.Hex(), err)
		}
		logger.Info("role granted", "namespace", reg.Namespace(), "role", role.String(), "account", account.Hex())
		return nil
	}
	if cfg.Roles.FactoryContract {
		if err := grant(milkRoles, access.ContractRole, factoryAddr); err != nil {
			return err
		}
	}
	for _, g := range cfg.Roles.Grants {
		ns, role, account, err := g.Parse()
		if err != nil {
			return err
		}
		if err := grant(registries[ns], role, account); err != nil {
			return err
		}
	}
	return nil
}

func buildHandler(cfg *config.Config, n *node, logger *slog.Logger) (http.Handler, error) {
	gw := cfg.Gateway
	secret := cfg.JWTSecret()
	if secret == "" {
		logger.Warn("gateway JWT secret not configured; mutating routes will reject every request")
	}
	limits := map[string]middleware.RateLimit{}
	if gw.RequestsPerMinute > 0 {
		for _, module := range []string{"roles", "milk", "factory", "items", "audit"} {
			limits[module] = middleware.RateLimit{RequestsPerMinute: gw.RequestsPerMinute, Burst: gw.Burst}
		}
	}
	var auditLog routes.AuditLog
	if n.sink != nil {
		auditLog = n.sink
	}
	router, err := routes.New(routes.Config{
		Ledger:  n.ledger,
		Factory: n.factory,
		Audit:   auditLog,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			HMACSecret:          secret,
			Issuer:              gw.Issuer,
			Audience:            gw.Audience,
			AllowAnonymousReads: gw.AllowAnonymousReads,
		}, logger.With("component", "auth")),
		RateLimiter: middleware.NewRateLimiter(limits, logger.With("component", "ratelimit")),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: "milkd",
			LogRequests: gw.LogRequests,
		}, logger.With("component", "http")),
		CORS:   middleware.CORSConfig{AllowedOrigins: gw.AllowedOrigins},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configure routes: %w", err)
	}
	if cfg.Telemetry.Traces {
		return otelhttp.NewHandler(router, "milkd"), nil
	}
	return router, nil
}

func (n *node) server(cfg config.Gateway) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           n.handler,
		ReadHeaderTimeout: seconds(cfg.ReadHeaderTimeout, 5),
	}
}

func (n *node) Close() {
	n.hooks.Close()
	if n.auditDB != nil {
		if sqlDB, err := n.auditDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if n.db != nil {
		n.db.Close()
	}
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
