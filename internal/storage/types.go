// Package storage provides the Redis-backed record store for the proxy.
package storage

import "time"

// Node is a registered Zilliqa node, keyed by its canonical public key.
type Node struct {
	PubKey     string  `json:"pub_key"`
	PowFee     float64 `json:"pow_fee"`
	Authorized bool    `json:"authorized"`
	LastActive int64   `json:"last_active"`
}

// Miner is a mining account, keyed by lowercased wallet address.
type Miner struct {
	WalletAddress string  `json:"wallet_address"`
	Authorized    bool    `json:"authorized"`
	NickName      string  `json:"nick_name"`
	Rewards       float64 `json:"rewards"`
	JoinDate      int64   `json:"join_date"`
}

// Worker is one mining rig, keyed by (wallet, name). It belongs to exactly
// one miner.
type Worker struct {
	WalletAddress string `json:"wallet_address"`
	WorkerName    string `json:"worker_name"`
	LastActive    int64  `json:"last_active"`
}

// PowWork is one schedulable PoW unit tied to a block number.
type PowWork struct {
	BlockNum        uint64 `json:"block_num"`
	PubKey          string `json:"pub_key"`
	StartTime       int64  `json:"start_time"`
	ExpireTime      int64  `json:"expire_time"`
	Finished        bool   `json:"finished"`
	ShardDifficulty uint64 `json:"shard_difficulty"`
	DSDifficulty    uint64 `json:"ds_difficulty"`
}

// Working reports whether the work is still open: expiry in the future and
// not finished.
func (w *PowWork) Working(now time.Time) bool {
	return !w.Finished && w.ExpireTime >= now.Unix()
}

// PowResult is a completed submission attributable to a miner/worker.
type PowResult struct {
	BlockNum     uint64  `json:"block_num"`
	PubKey       string  `json:"pub_key"`
	MinerWallet  string  `json:"miner_wallet"`
	WorkerName   string  `json:"worker_name"`
	FinishedTime int64   `json:"finished_time"`
	Verified     bool    `json:"verified"`
	PowFee       float64 `json:"pow_fee"`
	Reward       float64 `json:"reward"`
}

// WorkCounts is the per-identity work breakdown.
type WorkCounts struct {
	All      int64 `json:"all"`
	Finished int64 `json:"finished"`
	Verified int64 `json:"verified"`
}

// RewardAggregate folds the results matched by a reward query.
type RewardAggregate struct {
	Count       int64      `json:"count"`
	Rewards     float64    `json:"rewards"`
	PowFee      float64    `json:"pow_fee"`
	FirstWorkAt *time.Time `json:"-"`
	LastWorkAt  *time.Time `json:"-"`
}
