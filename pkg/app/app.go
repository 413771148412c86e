// Package app assembles the storefront service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/auth"
	"github.com/example/candleshop/pkg/config"
	"github.com/example/candleshop/pkg/discovery"
	"github.com/example/candleshop/pkg/metrics"
	"github.com/example/candleshop/pkg/notify"
	"github.com/example/candleshop/pkg/repository"
	"github.com/example/candleshop/pkg/service"
)

type App struct {
	Store     repository.Store
	Service   *service.Service
	Metrics   *metrics.Metrics
	Notifier  *notify.ActorNotifier
	Discovery *discovery.ServiceDiscovery

	logger        *zap.Logger
	closeSequence func() error
	registered    []*discovery.ServiceInstance
}

// New connects storage, the order-number sequencer, the notification actor
// and, when enabled, etcd.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := repository.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Store: store, logger: logger}

	seq, closeSeq, err := repository.OpenSequencer(ctx, cfg, store, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.closeSequence = closeSeq

	a.Notifier, err = notify.NewActorNotifier(logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("failed to start notifier: %w", err)
	}

	if cfg.Etcd.Enabled {
		a.Discovery, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		}
	}

	a.Metrics = metrics.New()
	a.Service = service.New(store, auth.NewTokenManager(&cfg.Auth), cfg.Shop, logger,
		service.WithSequencer(seq),
		service.WithNotifier(a.Notifier),
		service.WithMetrics(a.Metrics))
	return a, nil
}

// Register publishes instance in etcd when discovery is available.
func (a *App) Register(ctx context.Context, instance *discovery.ServiceInstance) {
	if a.Discovery == nil {
		return
	}
	if err := a.Discovery.Register(ctx, instance); err != nil {
		a.logger.Error("Failed to register service", zap.String("name", instance.Name), zap.Error(err))
		return
	}
	a.registered = append(a.registered, instance)
	a.logger.Info("Service registered in etcd",
		zap.String("name", instance.Name),
		zap.String("address", instance.Addr()))
}

// Close releases everything New acquired, in reverse order.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.Discovery != nil {
		for _, inst := range a.registered {
			if err := a.Discovery.Deregister(ctx, inst); err != nil {
				errs = append(errs, err)
			}
		}
		if err := a.Discovery.Close(); err != nil {
			errs = append(errs, fmt.Errorf("etcd close error: %w", err))
		}
	}
	if a.Notifier != nil {
		if stats, err := a.Notifier.Stats(time.Second); err == nil {
			a.logger.Info("Notifications sent", zap.Int("count", stats.Sent))
		}
		if err := a.Notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notifier close error: %w", err))
		}
	}
	if a.closeSequence != nil {
		if err := a.closeSequence(); err != nil {
			errs = append(errs, fmt.Errorf("sequencer close error: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("store close error: %w", err))
		}
	}
	return errors.Join(errs...)
}
