package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
)

const (
	keyPrefix = "zil:"

	// Key patterns
	keyNode         = keyPrefix + "node:%s"
	keyNodesIndex   = keyPrefix + "nodes"
	keyMiner        = keyPrefix + "miner:%s"
	keyMinersIndex  = keyPrefix + "miners"
	keyMinerWorkers = keyPrefix + "miner:%s:workers"
	keyWorker       = keyPrefix + "worker:%s"
	keyWorkersIndex = keyPrefix + "workers"
	keyWorks        = keyPrefix + "works"
	keyNodeWorks    = keyPrefix + "works:node:%s"
	keyResults      = keyPrefix + "results"
	keyResultsScope = keyPrefix + "results:%s"
	keyLastResult   = keyPrefix + "results:last:%s"
	keyHashrate     = keyPrefix + "hashrate"
	keyNodeCounts   = keyPrefix + "counts:node:%s"
	keyMinerCounts  = keyPrefix + "counts:miner:%s"
	keyWorkerCounts = keyPrefix + "counts:worker:%s"
	keyGlobalCounts = keyPrefix + "counts"
	keyPowWindow    = keyPrefix + "powwindow"
)

// Only recent works can still be inside their expiry window, so the
// working-works count scans at most this many of the newest entries.
const workingScanLimit = 1024

// Results kept per identity in the recency lists.
const lastResultKeep = 100

// RedisClient wraps Redis operations for the record store
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(url, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	util.Info("Connected to Redis at ", url)
	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

//
// Nodes
//

// WriteNode stores a node record
func (r *RedisClient) WriteNode(ctx context.Context, node *Node) error {
	nodeKey := fmt.Sprintf(keyNode, node.PubKey)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, nodeKey,
		"pow_fee", node.PowFee,
		"authorized", strconv.FormatBool(node.Authorized),
		"last_active", node.LastActive,
	)
	pipe.SAdd(ctx, keyNodesIndex, node.PubKey)
	_, err := pipe.Exec(ctx)
	return err
}

// GetNode returns a node by canonical public key, or nil if absent.
// A non-nil authorized filter additionally requires a matching flag.
func (r *RedisClient) GetNode(ctx context.Context, pubKey string, authorized *bool) (*Node, error) {
	data, err := r.client.HGetAll(ctx, fmt.Sprintf(keyNode, pubKey)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	node := &Node{PubKey: pubKey}
	if v, ok := data["pow_fee"]; ok {
		node.PowFee, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := data["authorized"]; ok {
		node.Authorized = v == "true"
	}
	if v, ok := data["last_active"]; ok {
		node.LastActive, _ = strconv.ParseInt(v, 10, 64)
	}

	if authorized != nil && node.Authorized != *authorized {
		return nil, nil
	}
	return node, nil
}

// CountNodes returns the number of registered nodes
func (r *RedisClient) CountNodes(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, keyNodesIndex).Result()
}

// CountActiveNodes counts nodes with activity inside the window
func (r *RedisClient) CountActiveNodes(ctx context.Context, window time.Duration) (int64, error) {
	pubKeys, err := r.client.SMembers(ctx, keyNodesIndex).Result()
	if err != nil {
		return 0, err
	}

	minTime := time.Now().Add(-window).Unix()
	var count int64
	for _, pubKey := range pubKeys {
		lastActive, err := r.client.HGet(ctx, fmt.Sprintf(keyNode, pubKey), "last_active").Int64()
		if err == nil && lastActive >= minTime {
			count++
		}
	}
	return count, nil
}

//
// Miners and workers
//

// WriteMiner stores a miner record
func (r *RedisClient) WriteMiner(ctx context.Context, miner *Miner) error {
	wallet := util.NormalizeWallet(miner.WalletAddress)
	minerKey := fmt.Sprintf(keyMiner, wallet)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, minerKey,
		"authorized", strconv.FormatBool(miner.Authorized),
		"nick_name", miner.NickName,
		"rewards", miner.Rewards,
		"join_date", miner.JoinDate,
	)
	pipe.SAdd(ctx, keyMinersIndex, wallet)
	_, err := pipe.Exec(ctx)
	return err
}

// GetMiner returns a miner by lowercased wallet address, or nil if absent
func (r *RedisClient) GetMiner(ctx context.Context, wallet string) (*Miner, error) {
	data, err := r.client.HGetAll(ctx, fmt.Sprintf(keyMiner, wallet)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	miner := &Miner{WalletAddress: wallet}
	if v, ok := data["authorized"]; ok {
		miner.Authorized = v == "true"
	}
	if v, ok := data["nick_name"]; ok {
		miner.NickName = v
	}
	if v, ok := data["rewards"]; ok {
		miner.Rewards, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := data["join_date"]; ok {
		miner.JoinDate, _ = strconv.ParseInt(v, 10, 64)
	}
	return miner, nil
}

// CountMiners returns the number of registered miners
func (r *RedisClient) CountMiners(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, keyMinersIndex).Result()
}

// MinerWorkerNames returns the worker names registered under a wallet
func (r *RedisClient) MinerWorkerNames(ctx context.Context, wallet string) ([]string, error) {
	names, err := r.client.SMembers(ctx, fmt.Sprintf(keyMinerWorkers, wallet)).Result()
	if err != nil {
		return nil, err
	}
	return names, nil
}

// WriteWorker stores a worker record and links it to its miner
func (r *RedisClient) WriteWorker(ctx context.Context, worker *Worker) error {
	wallet := util.NormalizeWallet(worker.WalletAddress)
	name := util.NormalizeWorker(worker.WorkerName)
	field := util.WorkerKey(wallet, name)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, fmt.Sprintf(keyWorker, field),
		"wallet_address", wallet,
		"worker_name", name,
		"last_active", worker.LastActive,
	)
	pipe.SAdd(ctx, keyWorkersIndex, field)
	pipe.SAdd(ctx, fmt.Sprintf(keyMinerWorkers, wallet), name)
	_, err := pipe.Exec(ctx)
	return err
}

// GetWorker returns a worker by (wallet, name), or nil if absent
func (r *RedisClient) GetWorker(ctx context.Context, wallet, name string) (*Worker, error) {
	field := util.WorkerKey(wallet, name)
	data, err := r.client.HGetAll(ctx, fmt.Sprintf(keyWorker, field)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	worker := &Worker{WalletAddress: wallet, WorkerName: name}
	if v, ok := data["last_active"]; ok {
		worker.LastActive, _ = strconv.ParseInt(v, 10, 64)
	}
	return worker, nil
}

// CountWorkers returns the number of registered workers
func (r *RedisClient) CountWorkers(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, keyWorkersIndex).Result()
}

// CountActiveWorkers counts workers with activity inside the window
func (r *RedisClient) CountActiveWorkers(ctx context.Context, window time.Duration) (int64, error) {
	fields, err := r.client.SMembers(ctx, keyWorkersIndex).Result()
	if err != nil {
		return 0, err
	}

	minTime := time.Now().Add(-window).Unix()
	var count int64
	for _, field := range fields {
		lastActive, err := r.client.HGet(ctx, fmt.Sprintf(keyWorker, field), "last_active").Int64()
		if err == nil && lastActive >= minTime {
			count++
		}
	}
	return count, nil
}

//
// Works
//

// WriteWork stores a PoW work record
func (r *RedisClient) WriteWork(ctx context.Context, work *PowWork) error {
	workJSON, err := json.Marshal(work)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, keyWorks, &redis.Z{
		Score:  float64(work.BlockNum),
		Member: string(workJSON),
	})
	if work.PubKey != "" {
		pipe.ZAdd(ctx, fmt.Sprintf(keyNodeWorks, work.PubKey), &redis.Z{
			Score:  float64(work.BlockNum),
			Member: string(workJSON),
		})
		pipe.HIncrBy(ctx, fmt.Sprintf(keyNodeCounts, work.PubKey), "all", 1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// FinishWork marks a stored work as finished
func (r *RedisClient) FinishWork(ctx context.Context, blockNum uint64, pubKey string) error {
	work, raw, err := r.findWork(ctx, keyWorks, blockNum, pubKey)
	if err != nil || work == nil {
		return err
	}

	work.Finished = true
	updated, err := json.Marshal(work)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.ZRem(ctx, keyWorks, raw)
	pipe.ZAdd(ctx, keyWorks, &redis.Z{Score: float64(blockNum), Member: string(updated)})
	if pubKey != "" {
		nodeKey := fmt.Sprintf(keyNodeWorks, pubKey)
		pipe.ZRem(ctx, nodeKey, raw)
		pipe.ZAdd(ctx, nodeKey, &redis.Z{Score: float64(blockNum), Member: string(updated)})
		pipe.HIncrBy(ctx, fmt.Sprintf(keyNodeCounts, pubKey), "finished", 1)
	}
	pipe.HIncrBy(ctx, keyGlobalCounts, "finished_works", 1)
	_, err = pipe.Exec(ctx)
	return err
}

// findWork locates a work member at a block number, optionally by node
func (r *RedisClient) findWork(ctx context.Context, key string, blockNum uint64, pubKey string) (*PowWork, string, error) {
	score := strconv.FormatUint(blockNum, 10)
	members, err := r.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: score, Max: score}).Result()
	if err != nil {
		return nil, "", err
	}

	for _, member := range members {
		var work PowWork
		if err := json.Unmarshal([]byte(member), &work); err != nil {
			continue
		}
		if pubKey == "" || work.PubKey == pubKey {
			return &work, member, nil
		}
	}
	return nil, "", nil
}

// GetLatestWork returns the work with the highest block number, or nil
func (r *RedisClient) GetLatestWork(ctx context.Context) (*PowWork, error) {
	members, err := r.client.ZRevRange(ctx, keyWorks, 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	var work PowWork
	if err := json.Unmarshal([]byte(members[0]), &work); err != nil {
		return nil, fmt.Errorf("corrupt work record: %w", err)
	}
	return &work, nil
}

// GetLatestBlockNum returns the highest block number with a work record
func (r *RedisClient) GetLatestBlockNum(ctx context.Context) (uint64, bool, error) {
	return r.edgeBlockNum(ctx, true)
}

// GetFirstBlockNum returns the lowest block number with a work record
func (r *RedisClient) GetFirstBlockNum(ctx context.Context) (uint64, bool, error) {
	return r.edgeBlockNum(ctx, false)
}

func (r *RedisClient) edgeBlockNum(ctx context.Context, latest bool) (uint64, bool, error) {
	var zs []redis.Z
	var err error
	if latest {
		zs, err = r.client.ZRevRangeWithScores(ctx, keyWorks, 0, 0).Result()
	} else {
		zs, err = r.client.ZRangeWithScores(ctx, keyWorks, 0, 0).Result()
	}
	if err != nil {
		return 0, false, err
	}
	if len(zs) == 0 {
		return 0, false, nil
	}
	return uint64(zs[0].Score), true, nil
}

// GetNodeWorks returns the newest works pushed by a node, newest first
func (r *RedisClient) GetNodeWorks(ctx context.Context, pubKey string, count int) ([]*PowWork, error) {
	members, err := r.client.ZRevRange(ctx, fmt.Sprintf(keyNodeWorks, pubKey), 0, int64(count)-1).Result()
	if err != nil {
		return nil, err
	}

	works := make([]*PowWork, 0, len(members))
	for _, member := range members {
		var work PowWork
		if err := json.Unmarshal([]byte(member), &work); err != nil {
			continue
		}
		works = append(works, &work)
	}
	return works, nil
}

// CountWorks returns the total number of work records
func (r *RedisClient) CountWorks(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, keyWorks).Result()
}

// CountWorkingWorks counts works whose expiry is in the future and that
// are not finished
func (r *RedisClient) CountWorkingWorks(ctx context.Context, now time.Time) (int64, error) {
	members, err := r.client.ZRevRange(ctx, keyWorks, 0, workingScanLimit-1).Result()
	if err != nil {
		return 0, err
	}

	var count int64
	for _, member := range members {
		var work PowWork
		if err := json.Unmarshal([]byte(member), &work); err != nil {
			continue
		}
		if work.Working(now) {
			count++
		}
	}
	return count, nil
}

// CountFinishedWorks returns the number of finished work records
func (r *RedisClient) CountFinishedWorks(ctx context.Context) (int64, error) {
	return r.globalCount(ctx, "finished_works")
}

// CountVerifiedResults returns the number of verified result records
func (r *RedisClient) CountVerifiedResults(ctx context.Context) (int64, error) {
	return r.globalCount(ctx, "verified_results")
}

func (r *RedisClient) globalCount(ctx context.Context, field string) (int64, error) {
	v, err := r.client.HGet(ctx, keyGlobalCounts, field).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// EpochDifficulty returns the (shard, DS) difficulty pair of the latest
// work, or ok=false when no work exists
func (r *RedisClient) EpochDifficulty(ctx context.Context) (shard, ds uint64, ok bool, err error) {
	work, err := r.GetLatestWork(ctx)
	if err != nil || work == nil {
		return 0, 0, false, err
	}
	return work.ShardDifficulty, work.DSDifficulty, true, nil
}

//
// Results
//

func resultScopes(wallet, worker string) []string {
	scopes := []string{keyResults}
	if wallet != "" {
		scopes = append(scopes, fmt.Sprintf(keyResultsScope, wallet))
		if worker != "" {
			scopes = append(scopes, fmt.Sprintf(keyResultsScope, util.WorkerKey(wallet, worker)))
		}
	}
	return scopes
}

// scopeKey picks the narrowest result index for a wallet/worker filter
func scopeKey(wallet, worker string) string {
	switch {
	case wallet == "":
		return keyResults
	case worker == "":
		return fmt.Sprintf(keyResultsScope, wallet)
	default:
		return fmt.Sprintf(keyResultsScope, util.WorkerKey(wallet, worker))
	}
}

// WriteResult stores a completed submission and updates the derived
// counters and recency lists
func (r *RedisClient) WriteResult(ctx context.Context, result *PowResult) error {
	result.MinerWallet = util.NormalizeWallet(result.MinerWallet)
	result.WorkerName = util.NormalizeWorker(result.WorkerName)

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}
	raw := string(resultJSON)
	z := &redis.Z{Score: float64(result.BlockNum), Member: raw}

	pipe := r.client.Pipeline()
	for _, key := range resultScopes(result.MinerWallet, result.WorkerName) {
		pipe.ZAdd(ctx, key, z)
	}

	// Recency lists: head is the newest finished_time; equal timestamps
	// keep insertion order, which is the stable tie-break.
	for _, scope := range []string{
		result.MinerWallet,
		util.WorkerKey(result.MinerWallet, result.WorkerName),
	} {
		listKey := fmt.Sprintf(keyLastResult, scope)
		pipe.LPush(ctx, listKey, raw)
		pipe.LTrim(ctx, listKey, 0, lastResultKeep-1)
	}

	minerCounts := fmt.Sprintf(keyMinerCounts, result.MinerWallet)
	workerCounts := fmt.Sprintf(keyWorkerCounts, util.WorkerKey(result.MinerWallet, result.WorkerName))
	pipe.HIncrBy(ctx, minerCounts, "all", 1)
	pipe.HIncrBy(ctx, minerCounts, "finished", 1)
	pipe.HIncrBy(ctx, workerCounts, "all", 1)
	pipe.HIncrBy(ctx, workerCounts, "finished", 1)
	if result.Verified {
		pipe.HIncrBy(ctx, minerCounts, "verified", 1)
		pipe.HIncrBy(ctx, workerCounts, "verified", 1)
		pipe.HIncrBy(ctx, keyGlobalCounts, "verified_results", 1)
		if result.PubKey != "" {
			pipe.HIncrBy(ctx, fmt.Sprintf(keyNodeCounts, result.PubKey), "verified", 1)
		}
	}
	pipe.HIncrByFloat(ctx, fmt.Sprintf(keyMiner, result.MinerWallet), "rewards", result.Reward)

	_, err = pipe.Exec(ctx)
	return err
}

// LatestResult returns the most recent result for a wallet (and worker,
// when given) by finished time, or nil when none exists
func (r *RedisClient) LatestResult(ctx context.Context, wallet, worker string) (*PowResult, error) {
	scope := wallet
	if worker != "" {
		scope = util.WorkerKey(wallet, worker)
	}

	raw, err := r.client.LIndex(ctx, fmt.Sprintf(keyLastResult, scope), 0).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result PowResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("corrupt result record: %w", err)
	}
	return &result, nil
}

// EpochRewards folds results in the inclusive block range [start, end]
// matching the wallet/worker scope
func (r *RedisClient) EpochRewards(ctx context.Context, start, end uint64, wallet, worker string) (*RewardAggregate, error) {
	key := scopeKey(wallet, worker)
	members, err := r.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatUint(start, 10),
		Max: strconv.FormatUint(end, 10),
	}).Result()
	if err != nil {
		return nil, err
	}

	agg := &RewardAggregate{}
	for _, member := range members {
		var result PowResult
		if err := json.Unmarshal([]byte(member), &result); err != nil {
			continue
		}
		// The scope index narrows the scan but cannot express a
		// worker filter without a wallet, so match on the record too.
		if wallet != "" && result.MinerWallet != wallet {
			continue
		}
		if worker != "" && result.WorkerName != worker {
			continue
		}

		agg.Count++
		agg.Rewards += result.Reward
		agg.PowFee += result.PowFee

		finished := time.Unix(result.FinishedTime, 0).UTC()
		if agg.FirstWorkAt == nil || finished.Before(*agg.FirstWorkAt) {
			t := finished
			agg.FirstWorkAt = &t
		}
		if agg.LastWorkAt == nil || finished.After(*agg.LastWorkAt) {
			t := finished
			agg.LastWorkAt = &t
		}
	}
	return agg, nil
}

// AvgPowFee returns the mean fee of results at one block number
func (r *RedisClient) AvgPowFee(ctx context.Context, blockNum uint64) (float64, error) {
	score := strconv.FormatUint(blockNum, 10)
	members, err := r.client.ZRangeByScore(ctx, keyResults, &redis.ZRangeBy{Min: score, Max: score}).Result()
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	var total float64
	var count int64
	for _, member := range members {
		var result PowResult
		if err := json.Unmarshal([]byte(member), &result); err != nil {
			continue
		}
		total += result.PowFee
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}

//
// Work-count breakdowns
//

// NodeWorkCounts returns the work breakdown for a node
func (r *RedisClient) NodeWorkCounts(ctx context.Context, pubKey string) (*WorkCounts, error) {
	return r.readCounts(ctx, fmt.Sprintf(keyNodeCounts, pubKey))
}

// MinerWorkCounts returns the work breakdown for a miner
func (r *RedisClient) MinerWorkCounts(ctx context.Context, wallet string) (*WorkCounts, error) {
	return r.readCounts(ctx, fmt.Sprintf(keyMinerCounts, wallet))
}

// WorkerWorkCounts returns the work breakdown for a worker
func (r *RedisClient) WorkerWorkCounts(ctx context.Context, wallet, worker string) (*WorkCounts, error) {
	return r.readCounts(ctx, fmt.Sprintf(keyWorkerCounts, util.WorkerKey(wallet, worker)))
}

func (r *RedisClient) readCounts(ctx context.Context, key string) (*WorkCounts, error) {
	data, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	counts := &WorkCounts{}
	if v, ok := data["all"]; ok {
		counts.All, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := data["finished"]; ok {
		counts.Finished, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := data["verified"]; ok {
		counts.Verified, _ = strconv.ParseInt(v, 10, 64)
	}
	return counts, nil
}

//
// Hashrate samples
//

// WriteHashrate stores a reported hashrate sample for an epoch
func (r *RedisClient) WriteHashrate(ctx context.Context, blockNum uint64, wallet, worker string, hashrate float64) error {
	wallet = util.NormalizeWallet(wallet)
	worker = util.NormalizeWorker(worker)
	// "|" is the member field separator
	if strings.Contains(wallet, "|") || strings.Contains(worker, "|") {
		return fmt.Errorf("invalid hashrate identity %q/%q", wallet, worker)
	}

	// seq keeps members unique when one worker reports twice per epoch
	seq := time.Now().UnixNano()
	member := fmt.Sprintf("%s|%s|%s|%d", wallet, worker, strconv.FormatFloat(hashrate, 'f', -1, 64), seq)

	return r.client.ZAdd(ctx, keyHashrate, &redis.Z{
		Score:  float64(blockNum),
		Member: member,
	}).Err()
}

// EpochHashrate sums the hashrate samples at one block number, optionally
// narrowed to a wallet or a single worker
func (r *RedisClient) EpochHashrate(ctx context.Context, blockNum uint64, wallet, worker string) (float64, error) {
	score := strconv.FormatUint(blockNum, 10)
	members, err := r.client.ZRangeByScore(ctx, keyHashrate, &redis.ZRangeBy{Min: score, Max: score}).Result()
	if err != nil {
		return 0, err
	}

	var total float64
	for _, member := range members {
		parts := strings.SplitN(member, "|", 4)
		if len(parts) != 4 {
			continue
		}
		if wallet != "" && parts[0] != wallet {
			continue
		}
		if worker != "" && parts[1] != worker {
			continue
		}
		rate, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			continue
		}
		total += rate
	}
	return total, nil
}

//
// PoW window schedule
//

// SetNextPowTime persists the locally tracked next PoW window opening
func (r *RedisClient) SetNextPowTime(ctx context.Context, at time.Time) error {
	return r.client.HSet(ctx, keyPowWindow, "next_pow_at", at.Unix()).Err()
}

// SecondsToNextPow returns seconds until the next PoW window opens per
// the locally tracked schedule, zero when unknown or already open
func (r *RedisClient) SecondsToNextPow(ctx context.Context, now time.Time) (float64, error) {
	at, err := r.client.HGet(ctx, keyPowWindow, "next_pow_at").Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	secs := float64(at - now.Unix())
	if secs < 0 {
		return 0, nil
	}
	return secs, nil
}
