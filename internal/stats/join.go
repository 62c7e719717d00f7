package stats

import (
	"context"
	"time"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
)

// WorkJoin assembles per-identity views by joining the record store's
// work, result and index data.
type WorkJoin struct {
	store       Store
	latestCount int
}

func NewWorkJoin(store Store, latestCount int) *WorkJoin {
	return &WorkJoin{store: store, latestCount: latestCount}
}

// NodeLatestWorks lists the node's most recent works, newest first.
func (j *WorkJoin) NodeLatestWorks(ctx context.Context, pubKey string) ([]WorkInfo, error) {
	works, err := j.store.GetNodeWorks(ctx, pubKey, j.latestCount)
	if err != nil {
		return nil, err
	}
	out := make([]WorkInfo, 0, len(works))
	for _, w := range works {
		start := time.Unix(w.StartTime, 0).UTC()
		expire := time.Unix(w.ExpireTime, 0).UTC()
		out = append(out, WorkInfo{
			BlockNum:   w.BlockNum,
			StartTime:  util.FormatTimePtr(&start),
			ExpireTime: util.FormatTimePtr(&expire),
			Finished:   w.Finished,
		})
	}
	return out, nil
}

// LastFinishedTime reports when the wallet (optionally narrowed to one
// worker) last submitted an accepted result, or nil if it never has.
func (j *WorkJoin) LastFinishedTime(ctx context.Context, wallet, worker string) (*string, error) {
	res, err := j.store.LatestResult(ctx, wallet, worker)
	if err != nil || res == nil {
		return nil, err
	}
	t := time.Unix(res.FinishedTime, 0).UTC()
	return util.FormatTimePtr(&t), nil
}
