package gifts

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goattech/giftflow/pkg/logger"
)

// Reconciler periodically backfills orders for claimed gifts that never
// got one because the process died or the order service was down between
// the claim swap and the order write.
type Reconciler struct {
	service  *Service
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReconciler creates a new claim reconciler
func NewReconciler(service *Service, interval time.Duration) *Reconciler {
	return &Reconciler{
		service:  service,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine
func (r *Reconciler) Start() {
	go r.loop()
}

// Stop stops the loop and waits for an in-flight sweep to finish
func (r *Reconciler) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *Reconciler) loop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runOnce()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Reconciler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repaired, err := r.service.ReconcileUnfilledClaims(ctx)
	if err != nil {
		logger.Error("Claim reconciliation sweep failed", zap.Error(err))
		return
	}
	if repaired > 0 {
		logger.Info("Claim reconciliation sweep completed", zap.Int("repaired", repaired))
	}
}
