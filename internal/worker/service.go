package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
)

var refreshFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rates_refresh_failures_total",
	Help: "Failed background refreshes of the crypto rates cache",
})

type Service struct {
	rates  RatesRefresher
	logger *slog.Logger
	cron   *cron.Cron
}

func NewService(rates RatesRefresher, logger *slog.Logger) *Service {
	return &Service{
		rates:  rates,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start starts the cron workers
func (s *Service) Start() error {
	s.logger.Info("Starting worker service")

	// Rates refresh worker: runs every 5 minutes
	_, err := s.cron.AddFunc("*/5 * * * *", func() {
		ctx := context.Background()
		if err := s.runRatesRefresh(ctx); err != nil {
			refreshFailures.Inc()
			s.logger.Error("Rates refresh worker failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add rates refresh worker: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Worker service started successfully")

	return nil
}

// Stop stops the cron workers
func (s *Service) Stop() {
	s.logger.Info("Stopping worker service")
	s.cron.Stop()
	s.logger.Info("Worker service stopped")
}

func (s *Service) runRatesRefresh(ctx context.Context) error {
	if !s.rates.Enabled() {
		return nil
	}
	return s.rates.Refresh(ctx)
}
