package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/auth"
	"github.com/example/candleshop/pkg/config"
	"github.com/example/candleshop/pkg/logger"
	"github.com/example/candleshop/pkg/metrics"
	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/notify"
	"github.com/example/candleshop/pkg/repository"
)

// Service holds the storefront business rules shared by the HTTP gateway
// and the gRPC order service.
type Service struct {
	store     repository.Store
	sequencer repository.Sequencer
	tokens    *auth.TokenManager
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	shop      config.ShopConfig
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
}

type Option func(*Service)

// WithSequencer allocates order numbers from seq instead of the store.
func WithSequencer(seq repository.Sequencer) Option {
	return func(s *Service) { s.sequencer = seq }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store repository.Store, tokens *auth.TokenManager, shop config.ShopConfig, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		sequencer: store,
		tokens:    tokens,
		notifier:  notify.NopNotifier{},
		shop:      shop,
		logger:    logger,
		validate:  newValidator(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}

func requireUser(caller *models.User) error {
	if caller == nil {
		return newError(KindUnauthorized, "Not authorized, no token")
	}
	return nil
}

func requireAdmin(caller *models.User) error {
	if err := requireUser(caller); err != nil {
		return err
	}
	if !caller.IsAdmin {
		return newError(KindForbidden, "Not authorized as an admin")
	}
	return nil
}

func canAccessOrder(caller *models.User, o *models.Order) bool {
	return caller.IsAdmin || o.UserID == caller.ID
}
