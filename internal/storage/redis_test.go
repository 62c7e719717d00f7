package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

const testPubKey = "0x02a3f1e7b4c8d9605142332415161718191a1b1c1d1e1f202122232425262728"

func newTestRedis(t *testing.T) *RedisClient {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNodeRoundTrip(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	node := &Node{
		PubKey:     testPubKey,
		PowFee:     0.015,
		Authorized: true,
		LastActive: time.Now().Unix(),
	}
	if err := r.WriteNode(ctx, node); err != nil {
		t.Fatalf("WriteNode: %v", err)
	}

	got, err := r.GetNode(ctx, testPubKey, nil)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if got == nil {
		t.Fatal("node not found after write")
	}
	if got.PowFee != 0.015 || !got.Authorized || got.LastActive != node.LastActive {
		t.Errorf("node = %+v, want %+v", got, node)
	}

	// Authorized filter mismatch hides the record.
	unauth := false
	got, err = r.GetNode(ctx, testPubKey, &unauth)
	if err != nil {
		t.Fatalf("GetNode filtered: %v", err)
	}
	if got != nil {
		t.Errorf("filter mismatch returned %+v, want nil", got)
	}

	count, err := r.CountNodes(ctx)
	if err != nil {
		t.Fatalf("CountNodes: %v", err)
	}
	if count != 1 {
		t.Errorf("CountNodes = %d, want 1", count)
	}
}

func TestGetNodeMissing(t *testing.T) {
	r := newTestRedis(t)

	got, err := r.GetNode(context.Background(), "0xmissing", nil)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if got != nil {
		t.Errorf("missing node = %+v, want nil", got)
	}
}

func TestCountActiveNodes(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	r.WriteNode(ctx, &Node{PubKey: "0xaa", LastActive: now.Unix()})
	r.WriteNode(ctx, &Node{PubKey: "0xbb", LastActive: now.Add(-3 * time.Hour).Unix()})

	active, err := r.CountActiveNodes(ctx, 2*time.Hour)
	if err != nil {
		t.Fatalf("CountActiveNodes: %v", err)
	}
	if active != 1 {
		t.Errorf("active = %d, want 1", active)
	}
}

func TestMinerRoundTrip(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	miner := &Miner{
		WalletAddress: "ZIL1Abc",
		Authorized:    true,
		NickName:      "rigfarm",
		Rewards:       2.5,
		JoinDate:      time.Now().Unix(),
	}
	if err := r.WriteMiner(ctx, miner); err != nil {
		t.Fatalf("WriteMiner: %v", err)
	}

	// Stored under the lowercased wallet.
	got, err := r.GetMiner(ctx, "zil1abc")
	if err != nil {
		t.Fatalf("GetMiner: %v", err)
	}
	if got == nil {
		t.Fatal("miner not found after write")
	}
	if got.NickName != "rigfarm" || got.Rewards != 2.5 || !got.Authorized {
		t.Errorf("miner = %+v", got)
	}

	count, _ := r.CountMiners(ctx)
	if count != 1 {
		t.Errorf("CountMiners = %d, want 1", count)
	}
}

func TestWorkerRoundTrip(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	r.WriteWorker(ctx, &Worker{WalletAddress: "zil1abc", WorkerName: "Rig0", LastActive: now.Unix()})
	r.WriteWorker(ctx, &Worker{WalletAddress: "zil1abc", WorkerName: "rig1", LastActive: now.Add(-5 * time.Hour).Unix()})

	got, err := r.GetWorker(ctx, "zil1abc", "rig0")
	if err != nil {
		t.Fatalf("GetWorker: %v", err)
	}
	if got == nil {
		t.Fatal("worker not found after write")
	}

	names, err := r.MinerWorkerNames(ctx, "zil1abc")
	if err != nil {
		t.Fatalf("MinerWorkerNames: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("worker names = %v, want 2 entries", names)
	}

	count, _ := r.CountWorkers(ctx)
	if count != 2 {
		t.Errorf("CountWorkers = %d, want 2", count)
	}
	active, _ := r.CountActiveWorkers(ctx, 2*time.Hour)
	if active != 1 {
		t.Errorf("CountActiveWorkers = %d, want 1", active)
	}
}

func TestWorkLifecycle(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	now := time.Now().UTC()

	r.WriteWork(ctx, &PowWork{
		BlockNum:        99,
		PubKey:          testPubKey,
		StartTime:       now.Add(-2 * time.Hour).Unix(),
		ExpireTime:      now.Add(-1 * time.Hour).Unix(),
		ShardDifficulty: 20,
		DSDifficulty:    25,
	})
	r.WriteWork(ctx, &PowWork{
		BlockNum:        100,
		PubKey:          testPubKey,
		StartTime:       now.Add(-10 * time.Minute).Unix(),
		ExpireTime:      now.Add(50 * time.Minute).Unix(),
		ShardDifficulty: 21,
		DSDifficulty:    26,
	})

	if err := r.FinishWork(ctx, 99, testPubKey); err != nil {
		t.Fatalf("FinishWork: %v", err)
	}

	latest, err := r.GetLatestWork(ctx)
	if err != nil {
		t.Fatalf("GetLatestWork: %v", err)
	}
	if latest == nil || latest.BlockNum != 100 {
		t.Fatalf("latest = %+v, want block 100", latest)
	}

	first, ok, _ := r.GetFirstBlockNum(ctx)
	if !ok || first != 99 {
		t.Errorf("first block = %d ok=%v, want 99", first, ok)
	}
	last, ok, _ := r.GetLatestBlockNum(ctx)
	if !ok || last != 100 {
		t.Errorf("latest block = %d ok=%v, want 100", last, ok)
	}

	works, err := r.GetNodeWorks(ctx, testPubKey, 6)
	if err != nil {
		t.Fatalf("GetNodeWorks: %v", err)
	}
	if len(works) != 2 || works[0].BlockNum != 100 || works[1].BlockNum != 99 {
		t.Errorf("node works not newest first: %+v", works)
	}
	if !works[1].Finished {
		t.Error("finished flag not persisted into node works")
	}

	total, _ := r.CountWorks(ctx)
	if total != 2 {
		t.Errorf("CountWorks = %d, want 2", total)
	}
	working, _ := r.CountWorkingWorks(ctx, now)
	if working != 1 {
		t.Errorf("CountWorkingWorks = %d, want 1 (block 100 only)", working)
	}
	finished, _ := r.CountFinishedWorks(ctx)
	if finished != 1 {
		t.Errorf("CountFinishedWorks = %d, want 1", finished)
	}

	counts, err := r.NodeWorkCounts(ctx, testPubKey)
	if err != nil {
		t.Fatalf("NodeWorkCounts: %v", err)
	}
	if counts.All != 2 || counts.Finished != 1 {
		t.Errorf("node counts = %+v, want all=2 finished=1", counts)
	}

	shard, ds, ok, err := r.EpochDifficulty(ctx)
	if err != nil || !ok {
		t.Fatalf("EpochDifficulty: ok=%v err=%v", ok, err)
	}
	if shard != 21 || ds != 26 {
		t.Errorf("difficulty = (%d,%d), want (21,26)", shard, ds)
	}
}

func TestEpochDifficultyEmpty(t *testing.T) {
	r := newTestRedis(t)

	_, _, ok, err := r.EpochDifficulty(context.Background())
	if err != nil {
		t.Fatalf("EpochDifficulty: %v", err)
	}
	if ok {
		t.Error("ok = true on an empty store")
	}
}

func TestResultsAndLatest(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	now := time.Now().UTC()

	r.WriteResult(ctx, &PowResult{
		BlockNum:     99,
		PubKey:       testPubKey,
		MinerWallet:  "zil1abc",
		WorkerName:   "rig0",
		FinishedTime: now.Add(-30 * time.Minute).Unix(),
		Verified:     true,
		PowFee:       0.02,
		Reward:       1.0,
	})
	r.WriteResult(ctx, &PowResult{
		BlockNum:     100,
		PubKey:       testPubKey,
		MinerWallet:  "zil1abc",
		WorkerName:   "rig1",
		FinishedTime: now.Add(-10 * time.Minute).Unix(),
		PowFee:       0.04,
		Reward:       2.0,
	})

	// The wallet-scope head is the most recently written result.
	latest, err := r.LatestResult(ctx, "zil1abc", "")
	if err != nil {
		t.Fatalf("LatestResult: %v", err)
	}
	if latest == nil || latest.WorkerName != "rig1" {
		t.Fatalf("latest = %+v, want rig1", latest)
	}

	// Narrowing to a worker reads that worker's own list.
	latest, err = r.LatestResult(ctx, "zil1abc", "rig0")
	if err != nil {
		t.Fatalf("LatestResult worker: %v", err)
	}
	if latest == nil || latest.WorkerName != "rig0" {
		t.Fatalf("latest = %+v, want rig0", latest)
	}

	none, err := r.LatestResult(ctx, "zil1nobody", "")
	if err != nil {
		t.Fatalf("LatestResult missing: %v", err)
	}
	if none != nil {
		t.Errorf("latest for unknown wallet = %+v, want nil", none)
	}

	verified, _ := r.CountVerifiedResults(ctx)
	if verified != 1 {
		t.Errorf("CountVerifiedResults = %d, want 1", verified)
	}

	// WriteResult accrues the miner's reward balance.
	miner, err := r.GetMiner(ctx, "zil1abc")
	if err != nil {
		t.Fatalf("GetMiner: %v", err)
	}
	if miner == nil || miner.Rewards != 3.0 {
		t.Errorf("miner rewards = %+v, want 3.0", miner)
	}

	counts, _ := r.MinerWorkCounts(ctx, "zil1abc")
	if counts.All != 2 || counts.Finished != 2 || counts.Verified != 1 {
		t.Errorf("miner counts = %+v", counts)
	}
	wcounts, _ := r.WorkerWorkCounts(ctx, "zil1abc", "rig0")
	if wcounts.All != 1 || wcounts.Verified != 1 {
		t.Errorf("worker counts = %+v", wcounts)
	}
}

func TestEpochRewards(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, res := range []*PowResult{
		{BlockNum: 99, MinerWallet: "zil1abc", WorkerName: "rig0", PowFee: 0.02, Reward: 1.0},
		{BlockNum: 100, MinerWallet: "zil1abc", WorkerName: "rig1", PowFee: 0.04, Reward: 2.0},
		{BlockNum: 101, MinerWallet: "zil1other", WorkerName: "rig0", PowFee: 0.06, Reward: 4.0},
	} {
		res.FinishedTime = now.Add(time.Duration(i) * time.Minute).Unix()
		if err := r.WriteResult(ctx, res); err != nil {
			t.Fatalf("WriteResult: %v", err)
		}
	}

	// Pool-wide over the full range.
	agg, err := r.EpochRewards(ctx, 99, 101, "", "")
	if err != nil {
		t.Fatalf("EpochRewards: %v", err)
	}
	if agg.Count != 3 || agg.Rewards != 7.0 {
		t.Errorf("agg = %+v, want count=3 rewards=7.0", agg)
	}
	if agg.FirstWorkAt == nil || agg.LastWorkAt == nil || agg.FirstWorkAt.After(*agg.LastWorkAt) {
		t.Errorf("work-at bounds wrong: %v .. %v", agg.FirstWorkAt, agg.LastWorkAt)
	}

	// Range excludes block 101.
	agg, _ = r.EpochRewards(ctx, 99, 100, "", "")
	if agg.Count != 2 || agg.Rewards != 3.0 {
		t.Errorf("range agg = %+v, want count=2 rewards=3.0", agg)
	}

	// Wallet scope.
	agg, _ = r.EpochRewards(ctx, 99, 101, "zil1abc", "")
	if agg.Count != 2 || agg.Rewards != 3.0 {
		t.Errorf("wallet agg = %+v", agg)
	}

	// Worker scope.
	agg, _ = r.EpochRewards(ctx, 99, 101, "zil1abc", "rig1")
	if agg.Count != 1 || agg.Rewards != 2.0 {
		t.Errorf("worker agg = %+v", agg)
	}

	// Worker filter without a wallet matches rig0 across miners.
	agg, _ = r.EpochRewards(ctx, 99, 101, "", "rig0")
	if agg.Count != 2 || agg.Rewards != 5.0 {
		t.Errorf("worker-only agg = %+v, want count=2 rewards=5.0", agg)
	}

	// Empty window.
	agg, _ = r.EpochRewards(ctx, 200, 300, "", "")
	if agg.Count != 0 || agg.FirstWorkAt != nil {
		t.Errorf("empty agg = %+v", agg)
	}
}

func TestAvgPowFee(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	r.WriteResult(ctx, &PowResult{BlockNum: 99, MinerWallet: "zil1a", WorkerName: "w", PowFee: 0.02})
	r.WriteResult(ctx, &PowResult{BlockNum: 99, MinerWallet: "zil1b", WorkerName: "w", PowFee: 0.04})
	r.WriteResult(ctx, &PowResult{BlockNum: 100, MinerWallet: "zil1c", WorkerName: "w", PowFee: 0.5})

	avg, err := r.AvgPowFee(ctx, 99)
	if err != nil {
		t.Fatalf("AvgPowFee: %v", err)
	}
	if avg < 0.03-1e-12 || avg > 0.03+1e-12 {
		t.Errorf("avg = %v, want 0.03", avg)
	}

	avg, _ = r.AvgPowFee(ctx, 500)
	if avg != 0 {
		t.Errorf("avg for empty block = %v, want 0", avg)
	}
}

func TestEpochHashrate(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	r.WriteHashrate(ctx, 100, "zil1abc", "rig0", 1000)
	r.WriteHashrate(ctx, 100, "zil1abc", "rig1", 500)
	r.WriteHashrate(ctx, 100, "zil1other", "rig0", 200)
	r.WriteHashrate(ctx, 101, "zil1abc", "rig0", 9999)
	// Second sample from the same worker in the same epoch stays distinct.
	r.WriteHashrate(ctx, 100, "zil1abc", "rig0", 300)

	total, err := r.EpochHashrate(ctx, 100, "", "")
	if err != nil {
		t.Fatalf("EpochHashrate: %v", err)
	}
	if total != 2000 {
		t.Errorf("pool total = %v, want 2000", total)
	}

	wallet, _ := r.EpochHashrate(ctx, 100, "zil1abc", "")
	if wallet != 1800 {
		t.Errorf("wallet total = %v, want 1800", wallet)
	}

	worker, _ := r.EpochHashrate(ctx, 100, "zil1abc", "rig0")
	if worker != 1300 {
		t.Errorf("worker total = %v, want 1300", worker)
	}

	empty, _ := r.EpochHashrate(ctx, 500, "", "")
	if empty != 0 {
		t.Errorf("empty epoch = %v, want 0", empty)
	}
}

func TestWriteHashrateRejectsSeparator(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	if err := r.WriteHashrate(ctx, 100, "zil1abc", "rig|0", 1000); err == nil {
		t.Error("WriteHashrate accepted a worker name containing the separator")
	}
	if err := r.WriteHashrate(ctx, 100, "zil1|abc", "rig0", 1000); err == nil {
		t.Error("WriteHashrate accepted a wallet containing the separator")
	}

	total, err := r.EpochHashrate(ctx, 100, "", "")
	if err != nil {
		t.Fatalf("EpochHashrate: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %v, want 0 after rejected writes", total)
	}
}

func TestPowWindow(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Unknown schedule reads as zero.
	secs, err := r.SecondsToNextPow(ctx, now)
	if err != nil {
		t.Fatalf("SecondsToNextPow: %v", err)
	}
	if secs != 0 {
		t.Errorf("secs = %v, want 0 when unset", secs)
	}

	if err := r.SetNextPowTime(ctx, now.Add(90*time.Second)); err != nil {
		t.Fatalf("SetNextPowTime: %v", err)
	}
	secs, _ = r.SecondsToNextPow(ctx, now)
	if secs != 90 {
		t.Errorf("secs = %v, want 90", secs)
	}

	// A window already open reads as zero, never negative.
	secs, _ = r.SecondsToNextPow(ctx, now.Add(5*time.Minute))
	if secs != 0 {
		t.Errorf("secs = %v, want 0 for a past window", secs)
	}
}
