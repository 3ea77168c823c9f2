package handler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/young1lin/aisearch/pkg/logger"
)

const defaultProbeTimeout = 10 * time.Second

// Probe makes one cheap call to an upstream and reports failure
type Probe func(ctx context.Context) error

// StatusChecker runs named probes concurrently
type StatusChecker struct {
	probes  map[string]Probe
	timeout time.Duration
	log     *zap.Logger
}

// NewStatusChecker creates a checker; timeout <= 0 uses 10 seconds
func NewStatusChecker(probes map[string]Probe, timeout time.Duration, log *zap.Logger) *StatusChecker {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &StatusChecker{probes: probes, timeout: timeout, log: logger.OrNop(log)}
}

// Check returns name -> reachable for every probe
func (c *StatusChecker) Check(ctx context.Context) map[string]bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log := logger.ForContext(ctx, c.log)

	var (
		g      errgroup.Group
		mu     sync.Mutex
		report = make(map[string]bool, len(c.probes))
	)
	for name, probe := range c.probes {
		name, probe := name, probe
		g.Go(func() error {
			err := probe(ctx)
			if err != nil {
				log.Warn("status probe failed", zap.String("upstream", name), zap.Error(err))
			}
			mu.Lock()
			report[name] = err == nil
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return report
}
