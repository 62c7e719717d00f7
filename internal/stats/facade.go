package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/config"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
)

// Service answers the read-only statistics queries. It owns no state of
// its own, every answer is assembled from the record store and, when
// enabled, the live chain snapshot.
type Service struct {
	store   Store
	clock   *EpochClock
	agg     *EpochAggregator
	join    *WorkJoin
	summary *SummaryCounter
}

// NewService wires the aggregation core. chain may be nil, in which case
// the current-work view degrades to local work records only.
func NewService(store Store, chain ChainSource, cfg *config.StatsConfig, version string) *Service {
	clock := NewEpochClock(store, chain)
	return &Service{
		store:   store,
		clock:   clock,
		agg:     NewEpochAggregator(store, clock),
		join:    NewWorkJoin(store, cfg.LatestWorksCount),
		summary: NewSummaryCounter(store, cfg.ActiveWindow, version),
	}
}

// Summary reports the pool-wide census.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.summary.Count(ctx, time.Now().UTC())
}

// Current reports the in-progress epoch. The average hashrate always
// covers the latest locally registered epoch, while the average PoW fee
// follows whichever block number the clock resolved to.
func (s *Service) Current(ctx context.Context) (*CurrentWork, error) {
	now := time.Now().UTC()
	pt, err := s.clock.Current(ctx, now)
	if err != nil {
		return nil, err
	}

	latestLocal, err := s.clock.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}
	avgHashrate, err := s.store.EpochHashrate(ctx, latestLocal, "", "")
	if err != nil {
		return nil, err
	}
	avgPowFee, err := s.store.AvgPowFee(ctx, pt.BlockNum)
	if err != nil {
		return nil, err
	}

	nextPow := now.Add(time.Duration(pt.SecsToNextPow * float64(time.Second)))
	return &CurrentWork{
		BlockNum:    pt.BlockNum,
		TxBlockNum:  pt.TxBlockNum,
		Difficulty:  pt.Difficulty,
		UTCTime:     util.FormatTime(now),
		StartTime:   pt.StartTime,
		NextPowTime: util.FormatTime(nextPow),
		AvgHashrate: avgHashrate,
		AvgPowFee:   avgPowFee,
	}, nil
}

// Node reports one mining node. A nil result with a nil error means the
// key is well formed but unknown.
func (s *Service) Node(ctx context.Context, pubKey string) (*NodeStats, error) {
	normalized, err := util.NormalizePubKey(pubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	node, err := s.store.GetNode(ctx, normalized, nil)
	if err != nil || node == nil {
		return nil, err
	}

	latest, err := s.join.NodeLatestWorks(ctx, node.PubKey)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.NodeWorkCounts(ctx, node.PubKey)
	if err != nil {
		return nil, err
	}
	return &NodeStats{
		PubKey:      node.PubKey,
		PowFee:      node.PowFee,
		Authorized:  node.Authorized,
		LatestWorks: latest,
		Works:       counts,
	}, nil
}

// Miner reports one wallet. A nil result with a nil error means the
// wallet is unknown.
func (s *Service) Miner(ctx context.Context, wallet string) (*MinerStats, error) {
	wallet = util.NormalizeWallet(wallet)
	m, err := s.store.GetMiner(ctx, wallet)
	if err != nil || m == nil {
		return nil, err
	}

	lastFinished, err := s.join.LastFinishedTime(ctx, wallet, "")
	if err != nil {
		return nil, err
	}
	latestBlock, err := s.clock.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}
	hashrate, err := s.store.EpochHashrate(ctx, latestBlock, wallet, "")
	if err != nil {
		return nil, err
	}
	workers, err := s.store.MinerWorkerNames(ctx, wallet)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.MinerWorkCounts(ctx, wallet)
	if err != nil {
		return nil, err
	}

	joined := time.Unix(m.JoinDate, 0).UTC()
	return &MinerStats{
		WalletAddress:    m.WalletAddress,
		Authorized:       m.Authorized,
		NickName:         m.NickName,
		Rewards:          m.Rewards,
		JoinDate:         util.FormatTimePtr(&joined),
		LastFinishedTime: lastFinished,
		Hashrate:         hashrate,
		Workers:          workers,
		Works:            counts,
	}, nil
}

// Worker reports one worker of one wallet. A nil result with a nil
// error means the pair is unknown.
func (s *Service) Worker(ctx context.Context, wallet, worker string) (*WorkerStats, error) {
	wallet = util.NormalizeWallet(wallet)
	worker = util.NormalizeWorker(worker)
	w, err := s.store.GetWorker(ctx, wallet, worker)
	if err != nil || w == nil {
		return nil, err
	}

	lastFinished, err := s.join.LastFinishedTime(ctx, wallet, worker)
	if err != nil {
		return nil, err
	}
	latestBlock, err := s.clock.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}
	hashrate, err := s.store.EpochHashrate(ctx, latestBlock, wallet, worker)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.WorkerWorkCounts(ctx, wallet, worker)
	if err != nil {
		return nil, err
	}
	return &WorkerStats{
		Miner:            wallet,
		WorkerName:       w.WorkerName,
		LastFinishedTime: lastFinished,
		Hashrate:         hashrate,
		Works:            counts,
	}, nil
}

// Hashrate expands the block specifier and reports each block's summed
// hashrate, optionally filtered by wallet and worker.
func (s *Service) Hashrate(ctx context.Context, blockSpec, wallet, worker string) ([]HashrateStats, error) {
	blocks, err := ParseBlockSpec(blockSpec)
	if err != nil {
		return nil, err
	}
	return s.agg.Hashrate(ctx, blocks, util.NormalizeWallet(wallet), util.NormalizeWorker(worker))
}

// Reward folds results over an inclusive block window, optionally
// filtered by wallet and worker. Nil bounds resolve to the oldest and
// newest retained epochs respectively.
func (s *Service) Reward(ctx context.Context, start, end *uint64, wallet, worker *string) (*RewardStats, error) {
	return s.agg.Rewards(ctx, start, end, wallet, worker)
}
