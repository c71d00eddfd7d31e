// Package di provides dependency injection container
package di

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ssargent/vifgate/pkg/api"
	"github.com/ssargent/vifgate/pkg/cache"
	"github.com/ssargent/vifgate/pkg/config"
	"github.com/ssargent/vifgate/pkg/events"
	"github.com/ssargent/vifgate/pkg/gateway"
	"github.com/ssargent/vifgate/pkg/journal"
)

// Container holds all the dependencies for the application. Components are
// built on first use and closed together by Close.
type Container struct {
	cfg        *config.Config
	logger     *zap.Logger
	registerer prometheus.Registerer

	serverFactory api.ServerFactory

	mu        sync.Mutex
	metrics   *api.Metrics
	journal   *journal.Journal
	redis     *redis.Client
	catalog   *cache.Catalog
	publisher *events.Publisher
	gateway   *gateway.Gateway
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Container{
		cfg:           cfg,
		logger:        logger,
		registerer:    prometheus.DefaultRegisterer,
		serverFactory: api.NewServerFactory(),
	}
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config { return c.cfg }

// Logger returns the application logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// SetRegisterer replaces the Prometheus registerer (for testing). It must
// be called before Metrics.
func (c *Container) SetRegisterer(reg prometheus.Registerer) {
	c.registerer = reg
}

// Metrics returns the shared metrics set.
func (c *Container) Metrics() *api.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metricsLocked()
}

func (c *Container) metricsLocked() *api.Metrics {
	if c.metrics == nil {
		c.metrics = api.NewMetrics(c.registerer)
	}
	return c.metrics
}

// Journal opens the exchange journal. It returns nil when the journal is
// disabled.
func (c *Container) Journal() (*journal.Journal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.journalLocked()
}

func (c *Container) journalLocked() (*journal.Journal, error) {
	if !c.cfg.Journal.Enabled {
		return nil, nil
	}
	if c.journal == nil {
		j, err := journal.Open(c.cfg.Journal.Dir, c.logger.Named("journal"))
		if err != nil {
			return nil, err
		}
		c.journal = j
	}
	return c.journal, nil
}

// Catalog connects the catalog cache. It returns nil when caching is
// disabled.
func (c *Container) Catalog(ctx context.Context) (*cache.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cfg.Cache.Enabled {
		return nil, nil
	}
	if c.catalog == nil {
		rdb, err := cache.NewRedisClient(ctx, c.cfg.Cache)
		if err != nil {
			return nil, err
		}
		c.redis = rdb
		c.catalog = cache.NewCatalog(rdb, c.cfg.Cache.TTL, c.logger.Named("cache"))
	}
	return c.catalog, nil
}

// Publisher dials the booking event broker. It returns nil when events are
// disabled.
func (c *Container) Publisher() (*events.Publisher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cfg.Events.Enabled {
		return nil, nil
	}
	if c.publisher == nil {
		p, err := events.Dial(c.cfg.Events.URL, c.cfg.Events.Queue)
		if err != nil {
			return nil, err
		}
		c.publisher = p
	}
	return c.publisher, nil
}

// GatewayConfig converts the gateway section of the configuration.
func GatewayConfig(g config.Gateway) gateway.Config {
	return gateway.Config{
		Host:        g.Host,
		Port:        g.Port,
		Timeout:     g.Timeout,
		SiteName:    g.SiteName,
		AuthKey:     g.AuthKey,
		AgentNo:     g.AgentNo,
		Comment:     g.Comment,
		GatewayType: g.GatewayType,
	}
}

// Gateway returns the venue gateway with the journal and metrics attached
// as exchange observers.
func (c *Container) Gateway() (*gateway.Gateway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gateway != nil {
		return c.gateway, nil
	}

	opts := []gateway.Option{
		gateway.WithLogger(c.logger.Named("gateway")),
		gateway.WithObserver(c.metricsLocked()),
	}
	j, err := c.journalLocked()
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if j != nil {
		opts = append(opts, gateway.WithObserver(j))
	}

	c.gateway = gateway.New(GatewayConfig(c.cfg.Gateway), opts...)
	return c.gateway, nil
}

// ServerDependencies assembles everything the API server needs. Optional
// components are left unset when disabled.
func (c *Container) ServerDependencies(ctx context.Context) (api.Dependencies, error) {
	gw, err := c.Gateway()
	if err != nil {
		return api.Dependencies{}, err
	}
	deps := api.Dependencies{
		Venue:   gw,
		Metrics: c.Metrics(),
		Logger:  c.logger.Named("api"),
	}

	catalog, err := c.Catalog(ctx)
	if err != nil {
		return api.Dependencies{}, fmt.Errorf("failed to connect catalog cache: %w", err)
	}
	if catalog != nil {
		deps.Cache = catalog
	}

	publisher, err := c.Publisher()
	if err != nil {
		return api.Dependencies{}, fmt.Errorf("failed to connect event broker: %w", err)
	}
	if publisher != nil {
		deps.Publisher = publisher
	}

	// the journal was opened by Gateway
	c.mu.Lock()
	if c.journal != nil {
		deps.Journal = c.journal
	}
	c.mu.Unlock()

	return deps, nil
}

// ServerConfig returns the API server settings.
func (c *Container) ServerConfig() api.ServerConfig {
	return api.ServerConfig{
		Bind:     c.cfg.Server.Bind,
		Port:     c.cfg.Server.Port,
		APIKey:   c.cfg.Server.APIKey,
		SiteName: c.cfg.Gateway.SiteName,
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// Close releases every component that was built.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
		c.publisher = nil
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
		c.redis = nil
		c.catalog = nil
	}
	if c.journal != nil {
		errs = append(errs, c.journal.Close())
		c.journal = nil
	}
	c.gateway = nil
	return errors.Join(errs...)
}
