// Package stats implements the epoch-windowed statistics aggregation
// engine behind the proxy's read-only RPC surface.
package stats

import (
	"context"
	"time"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/storage"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/zilliqa"
)

// Store is the read surface of the record store the engine aggregates
// over. *storage.RedisClient satisfies it; tests substitute an in-memory
// implementation.
type Store interface {
	GetNode(ctx context.Context, pubKey string, authorized *bool) (*storage.Node, error)
	CountNodes(ctx context.Context) (int64, error)
	CountActiveNodes(ctx context.Context, window time.Duration) (int64, error)

	GetMiner(ctx context.Context, wallet string) (*storage.Miner, error)
	CountMiners(ctx context.Context) (int64, error)
	MinerWorkerNames(ctx context.Context, wallet string) ([]string, error)

	GetWorker(ctx context.Context, wallet, name string) (*storage.Worker, error)
	CountWorkers(ctx context.Context) (int64, error)
	CountActiveWorkers(ctx context.Context, window time.Duration) (int64, error)

	GetLatestWork(ctx context.Context) (*storage.PowWork, error)
	GetLatestBlockNum(ctx context.Context) (uint64, bool, error)
	GetFirstBlockNum(ctx context.Context) (uint64, bool, error)
	GetNodeWorks(ctx context.Context, pubKey string, count int) ([]*storage.PowWork, error)
	CountWorks(ctx context.Context) (int64, error)
	CountWorkingWorks(ctx context.Context, now time.Time) (int64, error)
	CountFinishedWorks(ctx context.Context) (int64, error)
	CountVerifiedResults(ctx context.Context) (int64, error)
	EpochDifficulty(ctx context.Context) (shard, ds uint64, ok bool, err error)

	NodeWorkCounts(ctx context.Context, pubKey string) (*storage.WorkCounts, error)
	MinerWorkCounts(ctx context.Context, wallet string) (*storage.WorkCounts, error)
	WorkerWorkCounts(ctx context.Context, wallet, worker string) (*storage.WorkCounts, error)

	LatestResult(ctx context.Context, wallet, worker string) (*storage.PowResult, error)
	EpochHashrate(ctx context.Context, blockNum uint64, wallet, worker string) (float64, error)
	EpochRewards(ctx context.Context, start, end uint64, wallet, worker string) (*storage.RewardAggregate, error)
	AvgPowFee(ctx context.Context, blockNum uint64) (float64, error)

	SecondsToNextPow(ctx context.Context, now time.Time) (float64, error)
}

// ChainSource supplies the live chain-state snapshot when the external
// source is enabled. *zilliqa.Poller satisfies it.
type ChainSource interface {
	Snapshot() (zilliqa.ChainState, bool)
}
