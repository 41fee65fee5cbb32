package repository

import (
	"context"
	"sync"
	"time"

	"github.com/tgsai/aiops-console/pkg/metrics"
)

// metricsUpdater periodically publishes per-environment detector counts.
type metricsUpdater struct {
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

func (u *metricsUpdater) start(ctx context.Context, interval time.Duration, counts func() map[string]int) {
	u.stopChan = make(chan struct{})
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-u.stopChan:
				return
			case <-ticker.C:
				for env, n := range counts() {
					metrics.UpdateDetectorCount(env, n)
				}
			}
		}
	}()
}

func (u *metricsUpdater) stop() {
	u.stopOnce.Do(func() {
		if u.stopChan != nil {
			close(u.stopChan)
		}
	})
	u.wg.Wait()
}
