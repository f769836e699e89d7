package main

import (
	"fmt"

	"github.com/jtomasevic/entityctl/address"
	"github.com/jtomasevic/entityctl/callable"
	"github.com/jtomasevic/entityctl/config"
	"github.com/jtomasevic/entityctl/eventbus"
	"github.com/jtomasevic/entityctl/registry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	jsonLogs   bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "entityctl",
		Short: "Demonstrates the entity store end to end: registration, publication, address resolution, and event subscription.",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a store config YAML file")
	root.PersistentFlags().BoolVar(&jsonLogs, "json", false, "emit structured JSON logs instead of the development console format")

	root.AddCommand(newRegisterDemoCmd())
	root.AddCommand(newPublishCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newWatchCmd())
	return root
}

// store bundles one run's entity registry, address resolver, callable
// registry, and event bus — built fresh per invocation, since this CLI
// demonstrates the library rather than fronting a persistent service.
type store struct {
	logger   *zap.Logger
	bus      *eventbus.Bus
	registry *registry.Registry
	resolver *address.Resolver
	callable *callable.Registry
}

func newStore() (*store, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(eventbus.Options{
		QueueCapacity:      cfg.EventBus.QueueCapacity,
		MaxConcurrentCalls: cfg.EventBus.MaxConcurrentCalls,
		HistoryCapacity:    cfg.EventBus.HistoryCapacity,
		DefaultTimeout:     cfg.EventBus.DefaultTimeout.AsDuration(),
		Logger:             logger,
	})
	reg := registry.New(registry.Options{Bus: bus, Logger: logger})
	resolver := address.NewResolver(reg)
	callables := callable.New(callable.Options{
		Registry:           reg,
		Resolver:           resolver,
		Bus:                bus,
		Logger:             logger,
		DefaultCallTimeout: cfg.Callable.DefaultCallTimeout.AsDuration(),
	})

	return &store{logger: logger, bus: bus, registry: reg, resolver: resolver, callable: callables}, nil
}

func (s *store) close() {
	s.bus.Close()
	_ = s.logger.Sync()
}

func newLogger() (*zap.Logger, error) {
	if jsonLogs {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func fail(err error) error {
	return fmt.Errorf("entityctl: %w", err)
}
