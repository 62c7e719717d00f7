package stats

import (
	"context"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
)

// EpochAggregator folds hashrate submissions and PoW results over block
// windows.
type EpochAggregator struct {
	store Store
	clock *EpochClock
}

func NewEpochAggregator(store Store, clock *EpochClock) *EpochAggregator {
	return &EpochAggregator{store: store, clock: clock}
}

// Hashrate reports the summed hashrate per requested block. A nil entry
// stands for the current epoch and is resolved against the latest local
// work at call time. Blocks with no submissions report zero.
func (a *EpochAggregator) Hashrate(ctx context.Context, blocks []*uint64, wallet, worker string) ([]HashrateStats, error) {
	out := make([]HashrateStats, 0, len(blocks))
	for _, b := range blocks {
		var blockNum uint64
		if b != nil {
			blockNum = *b
		} else {
			n, err := a.clock.LatestBlock(ctx)
			if err != nil {
				return nil, err
			}
			blockNum = n
		}
		rate, err := a.store.EpochHashrate(ctx, blockNum, wallet, worker)
		if err != nil {
			return nil, err
		}
		out = append(out, HashrateStats{BlockNum: blockNum, Hashrate: rate})
	}
	return out, nil
}

// Rewards folds results over the inclusive block window. Unset bounds
// resolve independently: a nil start to the oldest retained epoch, a nil
// end to the newest. The wallet and worker filters echo back as passed,
// nil meaning pool-wide.
func (a *EpochAggregator) Rewards(ctx context.Context, start, end *uint64, wallet, worker *string) (*RewardStats, error) {
	var startBlock, endBlock uint64
	var err error
	if start != nil {
		startBlock = *start
	} else if startBlock, err = a.clock.FirstBlock(ctx); err != nil {
		return nil, err
	}
	if end != nil {
		endBlock = *end
	} else if endBlock, err = a.clock.LatestBlock(ctx); err != nil {
		return nil, err
	}

	var walletFilter, workerFilter string
	if wallet != nil {
		walletFilter = util.NormalizeWallet(*wallet)
		wallet = &walletFilter
	}
	if worker != nil {
		workerFilter = util.NormalizeWorker(*worker)
		worker = &workerFilter
	}

	agg, err := a.store.EpochRewards(ctx, startBlock, endBlock, walletFilter, workerFilter)
	if err != nil {
		return nil, err
	}

	info := RewardInfo{
		Count:       agg.Count,
		Rewards:     agg.Rewards,
		PowFee:      agg.PowFee,
		FirstWorkAt: util.FormatTimePtr(agg.FirstWorkAt),
		LastWorkAt:  util.FormatTimePtr(agg.LastWorkAt),
	}
	if agg.Count > 0 {
		info.AvgPowFee = agg.PowFee / float64(agg.Count)
	}

	return &RewardStats{
		StartBlock:    startBlock,
		EndBlock:      endBlock,
		WalletAddress: wallet,
		WorkerName:    worker,
		Rewards:       info,
	}, nil
}
