package stats

import (
	"context"
	"time"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/ethash"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
)

// epochPoint is the resolved "now" of the PoW cycle: which epoch the
// proxy considers current and how far away the next PoW round is.
type epochPoint struct {
	BlockNum      uint64
	TxBlockNum    *uint64
	Difficulty    [2]float64
	StartTime     *string
	SecsToNextPow float64
}

// EpochClock resolves the current epoch. With a chain source attached it
// reads the live chain state and fails when no snapshot has been taken
// yet; without one it falls back to the most recent locally registered
// work.
type EpochClock struct {
	store Store
	chain ChainSource
}

func NewEpochClock(store Store, chain ChainSource) *EpochClock {
	return &EpochClock{store: store, chain: chain}
}

// Current resolves the epoch point at the given instant. The start time
// always comes from the latest local work, even when the block numbers
// and difficulty come from the chain.
func (c *EpochClock) Current(ctx context.Context, now time.Time) (*epochPoint, error) {
	pt := &epochPoint{}

	latest, err := c.store.GetLatestWork(ctx)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		pt.BlockNum = latest.BlockNum
		start := time.Unix(latest.StartTime, 0).UTC()
		s := util.FormatTime(start)
		pt.StartTime = &s

		shard, ds, ok, err := c.store.EpochDifficulty(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			// Local pair carries no shard/DS ordering, report low to high.
			lo, hi := shard, ds
			if lo > hi {
				lo, hi = hi, lo
			}
			pt.Difficulty = [2]float64{
				ethash.DifficultyToHashPower(lo),
				ethash.DifficultyToHashPower(hi),
			}
		}
	}

	if c.chain == nil {
		secs, err := c.store.SecondsToNextPow(ctx, now)
		if err != nil {
			return nil, err
		}
		pt.SecsToNextPow = secs
		return pt, nil
	}

	state, ok := c.chain.Snapshot()
	if !ok {
		return nil, ErrUnavailable
	}
	pt.BlockNum = state.DSBlockNum
	tx := state.TxBlockNum
	pt.TxBlockNum = &tx
	pt.Difficulty = [2]float64{
		ethash.DifficultyToHashPower(state.ShardDifficulty),
		ethash.DifficultyToHashPower(state.DSDifficulty),
	}
	pt.SecsToNextPow = state.SecsToNextPow()
	return pt, nil
}

// LatestBlock resolves an unspecified block number to the newest locally
// registered epoch, or zero when no work has ever been seen.
func (c *EpochClock) LatestBlock(ctx context.Context) (uint64, error) {
	n, ok, err := c.store.GetLatestBlockNum(ctx)
	if err != nil || !ok {
		return 0, err
	}
	return n, nil
}

// FirstBlock resolves an unspecified range start to the oldest retained
// epoch.
func (c *EpochClock) FirstBlock(ctx context.Context) (uint64, error) {
	n, ok, err := c.store.GetFirstBlockNum(ctx)
	if err != nil || !ok {
		return 0, err
	}
	return n, nil
}
