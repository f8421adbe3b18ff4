// Package janitor runs the expired-session sweep on a fixed interval.
package janitor

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper is the part of the session manager the janitor drives.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

type Config struct {
	Interval time.Duration
	Logger   logrus.FieldLogger
}

// Janitor periodically purges expired sessions in the background.
type Janitor struct {
	cfg     Config
	sweeper Sweeper

	wg     sync.WaitGroup
	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(cfg Config, sweeper Sweeper) *Janitor {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Janitor{cfg: cfg, sweeper: sweeper}
}

// Start launches the sweep loop. It is a no-op when the interval is not positive or the loop already runs.
func (j *Janitor) Start(ctx context.Context) {
	if j.cfg.Interval <= 0 {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return
	}

	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(ctx)
	}()
	j.cfg.Logger.Infof("session janitor started, interval: %s", j.cfg.Interval)
}

// Shutdown stops the loop and waits for an in-flight sweep to finish.
func (j *Janitor) Shutdown() {
	j.mu.Lock()
	cancel := j.cancel
	j.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	j.wg.Wait()
	j.cfg.Logger.Info("session janitor stopped")
}

func (j *Janitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.sweeper.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				j.cfg.Logger.Warnf("sweep sessions: %v", err)
				continue
			}
			if n > 0 {
				j.cfg.Logger.WithField("count", n).Info("purged expired sessions")
			}
		}
	}
}
