package engine

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Run drives Tick and Reconcile at the configured intervals until ctx is
// done. Both cadences run on their own goroutine, so a long sweep never
// delays spoofing. One reconcile happens right away.
func (e *Engine) Run(ctx context.Context) {
	log.WithFields(log.Fields{
		"spoof_interval": e.cfg.SpoofInterval,
		"scan_interval":  e.cfg.ScanInterval,
		"subnet":         e.cache.Subnet(),
	}).Info("engine running")

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		every(ctx, e.cfg.SpoofInterval, false, e.Tick)
	}()

	go func() {
		defer wg.Done()
		every(ctx, e.cfg.ScanInterval, true, func() {
			if err := e.Reconcile(ctx); err != nil && ctx.Err() == nil {
				log.Debugf("reconcile: %v", err)
			}
		})
	}()

	wg.Wait()
}

func every(ctx context.Context, interval time.Duration, now bool, fn func()) {
	if now {
		fn()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
