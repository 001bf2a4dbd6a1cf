package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/ironflow/pkg/metrics"
)

type counter interface {
	TournamentCount(ctx context.Context) (int, error)
	RecordCount(ctx context.Context) (int, error)
}

// gaugeUpdater refreshes the store size gauges in the background.
type gaugeUpdater struct {
	wg       sync.WaitGroup
	stopChan chan struct{}
	once     sync.Once
}

func (g *gaugeUpdater) start(ctx context.Context, c counter, interval time.Duration) {
	g.stopChan = make(chan struct{})
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-g.stopChan:
				return
			case <-ticker.C:
				updateGauges(ctx, c)
			}
		}
	}()
}

// stop is idempotent and waits for the goroutine to exit.
func (g *gaugeUpdater) stop() {
	g.once.Do(func() {
		if g.stopChan != nil {
			close(g.stopChan)
		}
	})
	g.wg.Wait()
}

func updateGauges(ctx context.Context, c counter) {
	if n, err := c.TournamentCount(ctx); err == nil {
		metrics.UpdateTournamentsTotal(n)
	}
	if n, err := c.RecordCount(ctx); err == nil {
		metrics.UpdateRecordsTotal(n)
	}
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
