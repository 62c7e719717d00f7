package zilliqa

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/config"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
)

// TxBlocksPerDSBlock is the protocol's transaction-block count per DS
// epoch; PoW windows open at DS epoch boundaries.
const TxBlocksPerDSBlock = 100

// fallbackTxBlockTime is used when the API reports no block rate yet.
const fallbackTxBlockTime = 40.0 // seconds

// ChainState is one snapshot of the chain's current epoch state
type ChainState struct {
	DSBlockNum      uint64
	TxBlockNum      uint64
	ShardDifficulty uint64
	DSDifficulty    uint64
	TxBlockRate     float64
	UpdatedAt       time.Time
}

// SecsToNextPow estimates seconds until the next PoW window opens from
// the tx-block progress inside the current DS epoch
func (s *ChainState) SecsToNextPow() float64 {
	remaining := TxBlocksPerDSBlock - s.TxBlockNum%TxBlocksPerDSBlock
	if s.TxBlockRate > 0 {
		return float64(remaining) / s.TxBlockRate
	}
	return float64(remaining) * fallbackTxBlockTime
}

// Poller refreshes a chain-state snapshot on an interval, failing over
// across the configured API endpoints in order
type Poller struct {
	clients   []*Client
	interval  time.Duration
	onRefresh func(url string, ok bool)

	mu        sync.RWMutex
	state     ChainState
	haveState bool
	activeIdx int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a poller over the configured endpoints
func NewPoller(ctx context.Context, cfg *config.ZilliqaConfig) *Poller {
	pollCtx, cancel := context.WithCancel(ctx)

	p := &Poller{
		interval: cfg.PollInterval,
		ctx:      pollCtx,
		cancel:   cancel,
	}
	for _, url := range cfg.APIURLs {
		p.clients = append(p.clients, NewClient(url, cfg.Timeout))
	}
	return p
}

// OnRefresh registers a hook invoked after every endpoint attempt with
// the endpoint URL and whether the fetch succeeded. Set before Start.
func (p *Poller) OnRefresh(fn func(url string, ok bool)) {
	p.onRefresh = fn
}

// Start performs an initial refresh and begins the poll loop
func (p *Poller) Start() {
	if len(p.clients) == 0 {
		util.Warn("No Zilliqa API endpoints configured")
		return
	}

	util.Infof("Starting Zilliqa chain-state poller with %d endpoints", len(p.clients))
	if err := p.refresh(); err != nil {
		util.Warnf("Initial chain-state refresh failed: %v", err)
	}

	p.wg.Add(1)
	go p.loop()
}

// Stop shuts down the poll loop
func (p *Poller) Stop() {
	p.cancel()
	p.wg.Wait()
	util.Info("Zilliqa chain-state poller stopped")
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.refresh(); err != nil {
				util.Warnf("Chain-state refresh failed: %v", err)
			}
		}
	}
}

// refresh queries the active endpoint, trying the others in order when
// it fails
func (p *Poller) refresh() error {
	p.mu.RLock()
	start := p.activeIdx
	p.mu.RUnlock()

	var lastErr error
	for i := 0; i < len(p.clients); i++ {
		idx := (start + i) % len(p.clients)
		client := p.clients[idx]

		state, err := p.fetch(client)
		if p.onRefresh != nil {
			p.onRefresh(client.URL(), err == nil)
		}
		if err != nil {
			lastErr = err
			util.Warnf("Zilliqa endpoint %s failed: %v", client.URL(), err)
			continue
		}

		p.mu.Lock()
		if idx != p.activeIdx {
			util.Infof("Switched to Zilliqa endpoint %s", client.URL())
			p.activeIdx = idx
		}
		p.state = *state
		p.haveState = true
		p.mu.Unlock()
		return nil
	}
	return fmt.Errorf("all Zilliqa endpoints failed: %w", lastErr)
}

func (p *Poller) fetch(client *Client) (*ChainState, error) {
	timeout := client.client.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	dsBlock, err := client.GetCurrentDSEpoch(ctx)
	if err != nil {
		return nil, err
	}
	txBlock, err := client.GetCurrentMiniEpoch(ctx)
	if err != nil {
		return nil, err
	}
	shardDiff, err := client.GetPrevDifficulty(ctx)
	if err != nil {
		return nil, err
	}
	dsDiff, err := client.GetPrevDSDifficulty(ctx)
	if err != nil {
		return nil, err
	}
	rate, err := client.GetTxBlockRate(ctx)
	if err != nil {
		return nil, err
	}

	return &ChainState{
		DSBlockNum:      dsBlock,
		TxBlockNum:      txBlock,
		ShardDifficulty: shardDiff,
		DSDifficulty:    dsDiff,
		TxBlockRate:     rate,
		UpdatedAt:       time.Now().UTC(),
	}, nil
}

// Snapshot returns the latest chain state; ok is false until the first
// successful refresh
func (p *Poller) Snapshot() (ChainState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state, p.haveState
}
