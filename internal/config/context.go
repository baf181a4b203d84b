// Package config holds the runtime context shared by the CLI commands: the
// loaded settings and the lazily opened datastore, metrics and inventory
// service.
package config

import (
	"context"
	"sync"

	"github.com/tphakala/pcrdb/internal/buildinfo"
	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/datastore"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/mqtt"
	"github.com/tphakala/pcrdb/internal/observability"
)

// Context holds the overall application state.
type Context struct {
	Settings *conf.Settings
	Build    *buildinfo.Context
	Metrics  *observability.Metrics

	mu      sync.Mutex
	store   *datastore.Store
	service *inventory.Service
	closers []func()
}

// NewContext creates a Context for the given build. Settings are filled in
// once the configuration has been loaded.
func NewContext(build *buildinfo.Context) *Context {
	return &Context{Build: build}
}

// OnClose registers fn to run when the context is closed. Functions run in
// reverse registration order.
func (c *Context) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, fn)
}

// Service returns the inventory service, opening the datastore and the
// optional MQTT publisher on first use.
func (c *Context) Service(ctx context.Context) (*inventory.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.service != nil {
		return c.service, nil
	}
	if c.Settings == nil {
		return nil, errors.Newf("settings not loaded").
			Component("config").
			Category(errors.CategoryConfiguration).
			Build()
	}

	log := logger.Global().Module("config")

	storeOpts := []datastore.Option{datastore.WithLogger(logger.Global().Module("datastore"))}
	if c.Metrics != nil {
		storeOpts = append(storeOpts, datastore.WithMetrics(c.Metrics.Datastore))
	}
	store := datastore.New(&c.Settings.Database, storeOpts...)
	if err := store.Open(ctx); err != nil {
		return nil, err
	}
	c.store = store
	c.closers = append(c.closers, func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close datastore", logger.Error(err))
		}
	})

	opts := []inventory.Option{
		inventory.WithLogger(logger.Global().Module("inventory")),
		inventory.WithCache(c.Settings.Cache),
	}
	if c.Metrics != nil {
		opts = append(opts, inventory.WithMetrics(c.Metrics.Inventory, c.Metrics.Notification))
	}

	if c.Settings.MQTT.Enabled {
		client := mqtt.NewClient(mqtt.ConfigFromSettings(c.Settings), logger.Global().Module("mqtt"))
		if err := client.Connect(ctx); err != nil {
			log.Warn("MQTT broker not reachable, lifecycle events will not be published",
				logger.String("broker", c.Settings.MQTT.Broker),
				logger.Error(err))
		}
		c.closers = append(c.closers, client.Disconnect)
		opts = append(opts, inventory.WithPublisher(mqtt.NewEventPublisher(client, c.Settings.MQTT.Topic)))
	}

	c.service = inventory.NewService(store, c.Settings.Inventory, opts...)
	return c.service, nil
}

// Store returns the datastore opened by Service, or nil.
func (c *Context) Store() *datastore.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// Close releases everything the context opened.
func (c *Context) Close() {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.service = nil
	c.store = nil
	c.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
