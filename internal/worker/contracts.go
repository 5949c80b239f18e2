package worker

import "context"

type (
	// RatesRefresher warms the crypto rates cache
	RatesRefresher interface {
		Enabled() bool
		Refresh(ctx context.Context) error
	}
)
