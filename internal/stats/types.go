package stats

import "github.com/mattyr/Zilliqa-Mining-Proxy/internal/storage"

// Summary is the stats() response
type Summary struct {
	Version string       `json:"version"`
	UTCTime string       `json:"utc_time"`
	Nodes   NodeCounts   `json:"nodes"`
	Miners  int64        `json:"miners"`
	Workers WorkerCounts `json:"workers"`
	Works   WorkTotals   `json:"works"`
}

// NodeCounts holds the node section of the summary
type NodeCounts struct {
	All    int64 `json:"all"`
	Active int64 `json:"active"`
}

// WorkerCounts holds the worker section of the summary
type WorkerCounts struct {
	All    int64 `json:"all"`
	Active int64 `json:"active"`
}

// WorkTotals holds the work section of the summary
type WorkTotals struct {
	All      int64 `json:"all"`
	Working  int64 `json:"working"`
	Finished int64 `json:"finished"`
	Verified int64 `json:"verified"`
}

// CurrentWork is the stats_current() response
type CurrentWork struct {
	BlockNum    uint64     `json:"block_num"`
	TxBlockNum  *uint64    `json:"tx_block_num"`
	Difficulty  [2]float64 `json:"difficulty"`
	UTCTime     string     `json:"utc_time"`
	StartTime   *string    `json:"start_time"`
	NextPowTime string     `json:"next_pow_time"`
	AvgHashrate float64    `json:"avg_hashrate"`
	AvgPowFee   float64    `json:"avg_pow_fee"`
}

// WorkInfo is one entry of a node's latest-works list
type WorkInfo struct {
	BlockNum   uint64  `json:"block_num"`
	StartTime  *string `json:"start_time"`
	ExpireTime *string `json:"expire_time"`
	Finished   bool    `json:"finished"`
}

// NodeStats is the stats_node() response
type NodeStats struct {
	PubKey      string              `json:"pub_key"`
	PowFee      float64             `json:"pow_fee"`
	Authorized  bool                `json:"authorized"`
	LatestWorks []WorkInfo          `json:"latest_works"`
	Works       *storage.WorkCounts `json:"works"`
}

// MinerStats is the stats_miner() response
type MinerStats struct {
	WalletAddress    string              `json:"wallet_address"`
	Authorized       bool                `json:"authorized"`
	NickName         string              `json:"nick_name"`
	Rewards          float64             `json:"rewards"`
	JoinDate         *string             `json:"join_date"`
	LastFinishedTime *string             `json:"last_finished_time"`
	Hashrate         float64             `json:"hashrate"`
	Workers          []string            `json:"workers"`
	Works            *storage.WorkCounts `json:"works"`
}

// WorkerStats is the stats_worker() response
type WorkerStats struct {
	Miner            string              `json:"miner"`
	WorkerName       string              `json:"worker_name"`
	LastFinishedTime *string             `json:"last_finished_time"`
	Hashrate         float64             `json:"hashrate"`
	Works            *storage.WorkCounts `json:"works"`
}

// HashrateStats is one entry of the stats_hashrate() response list
type HashrateStats struct {
	BlockNum uint64  `json:"block_num"`
	Hashrate float64 `json:"hashrate"`
}

// RewardInfo is the folded aggregate inside a RewardStats response
type RewardInfo struct {
	Count       int64   `json:"count"`
	Rewards     float64 `json:"rewards"`
	PowFee      float64 `json:"pow_fee"`
	AvgPowFee   float64 `json:"avg_pow_fee"`
	FirstWorkAt *string `json:"first_work_at"`
	LastWorkAt  *string `json:"last_work_at"`
}

// RewardStats is the stats_reward() response with the resolved block
// bounds echoed back
type RewardStats struct {
	StartBlock    uint64     `json:"start_block"`
	EndBlock      uint64     `json:"end_block"`
	WalletAddress *string    `json:"wallet_address"`
	WorkerName    *string    `json:"worker_name"`
	Rewards       RewardInfo `json:"rewards"`
}
