package stats

import (
	"context"
	"time"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
)

// SummaryCounter produces the pool-wide census. Every count is taken
// against the same instant so the working and active figures agree.
type SummaryCounter struct {
	store        Store
	activeWindow time.Duration
	version      string
}

func NewSummaryCounter(store Store, activeWindow time.Duration, version string) *SummaryCounter {
	return &SummaryCounter{store: store, activeWindow: activeWindow, version: version}
}

func (s *SummaryCounter) Count(ctx context.Context, now time.Time) (*Summary, error) {
	sum := &Summary{
		Version: s.version,
		UTCTime: util.FormatTime(now),
	}

	var err error
	if sum.Nodes.All, err = s.store.CountNodes(ctx); err != nil {
		return nil, err
	}
	if sum.Nodes.Active, err = s.store.CountActiveNodes(ctx, s.activeWindow); err != nil {
		return nil, err
	}
	if sum.Miners, err = s.store.CountMiners(ctx); err != nil {
		return nil, err
	}
	if sum.Workers.All, err = s.store.CountWorkers(ctx); err != nil {
		return nil, err
	}
	if sum.Workers.Active, err = s.store.CountActiveWorkers(ctx, s.activeWindow); err != nil {
		return nil, err
	}
	if sum.Works.All, err = s.store.CountWorks(ctx); err != nil {
		return nil, err
	}
	if sum.Works.Working, err = s.store.CountWorkingWorks(ctx, now); err != nil {
		return nil, err
	}
	if sum.Works.Finished, err = s.store.CountFinishedWorks(ctx); err != nil {
		return nil, err
	}
	if sum.Works.Verified, err = s.store.CountVerifiedResults(ctx); err != nil {
		return nil, err
	}
	return sum, nil
}
