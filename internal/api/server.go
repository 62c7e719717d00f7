// Package api serves the read-only statistics JSON-RPC API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/config"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/newrelic"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/stats"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
)

// maxRequestBytes bounds a single JSON-RPC request body.
const maxRequestBytes = 64 * 1024

type methodFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

type cacheEntry struct {
	value interface{}
	at    time.Time
}

// Server is the JSON-RPC API server
type Server struct {
	cfg     *config.Config
	svc     *stats.Service
	nr      *newrelic.Agent
	router  *gin.Engine
	server  *http.Server
	methods map[string]methodFunc

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry

	hub *wsHub
}

// NewServer creates a new API server. nr may be nil.
func NewServer(cfg *config.Config, svc *stats.Service, nr *newrelic.Agent) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		nr:     nr,
		router: router,
		cache:  make(map[string]cacheEntry),
	}
	if cfg.API.WSEnabled {
		s.hub = newWSHub(cfg, svc)
	}

	s.setupMethods()
	s.setupRoutes()
	return s
}

func (s *Server) setupMethods() {
	s.methods = map[string]methodFunc{
		"stats":          s.rpcStats,
		"stats_current":  s.rpcStatsCurrent,
		"stats_node":     s.rpcStatsNode,
		"stats_miner":    s.rpcStatsMiner,
		"stats_worker":   s.rpcStatsWorker,
		"stats_hashrate": s.rpcStatsHashrate,
		"stats_reward":   s.rpcStatsReward,
	}
}

// setupRoutes configures API endpoints
func (s *Server) setupRoutes() {
	s.router.Use(s.corsMiddleware())

	s.router.POST("/api", s.handleRPC)
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if s.hub != nil {
		s.router.GET("/ws", s.hub.handleConnect)
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	origins := s.cfg.API.CORSOrigins
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		default:
			for _, o := range origins {
				if o == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// Start begins the API server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.cfg.API.Bind,
		Handler: s.router,
	}

	util.Infof("API server listening on %s", s.cfg.API.Bind)

	if s.hub != nil {
		s.hub.start()
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Errorf("API server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts down the API server
func (s *Server) Stop() error {
	if s.hub != nil {
		s.hub.stop()
	}
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleRPC decodes and dispatches one JSON-RPC request
func (s *Server) handleRPC(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
	if err != nil {
		s.writeError(c, nil, codeParseError, "unable to read request")
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(c, nil, codeParseError, "parse error")
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		s.writeError(c, req.ID, codeInvalidRequest, "invalid request")
		return
	}

	fn, ok := s.methods[req.Method]
	if !ok {
		s.writeError(c, req.ID, codeMethodNotFound, "method not found")
		return
	}

	ctx := c.Request.Context()
	started := time.Now()

	result, err := s.dispatch(ctx, req.Method, fn, req.Params)
	if err != nil {
		switch {
		case errors.Is(err, stats.ErrInvalidArgument):
			s.writeError(c, req.ID, codeInvalidParams, err.Error())
		case errors.Is(err, stats.ErrUnavailable):
			s.writeError(c, req.ID, codeUnavailable, "chain state unavailable")
		default:
			util.Errorf("rpc %s failed: %v", req.Method, err)
			s.writeError(c, req.ID, codeInternalError, "internal error")
		}
		if s.nr != nil {
			s.nr.RecordStatsQuery(req.Method, float64(time.Since(started).Microseconds())/1000.0, false)
		}
		return
	}

	if s.nr != nil {
		s.nr.RecordStatsQuery(req.Method, float64(time.Since(started).Microseconds())/1000.0, true)
	}
	c.JSON(200, successResponse{JSONRPC: "2.0", Result: result, ID: req.ID})
}

// dispatch runs the method, wrapping it in a New Relic transaction when
// the agent is live.
func (s *Server) dispatch(ctx context.Context, method string, fn methodFunc, params json.RawMessage) (interface{}, error) {
	if s.nr != nil && s.nr.IsEnabled() {
		txn := s.nr.StartTransaction("rpc/" + method)
		defer txn.End()
		ctx = s.nr.NewContext(ctx, txn)
		result, err := fn(ctx, params)
		if err != nil {
			s.nr.NoticeError(txn, err)
		}
		return result, err
	}
	return fn(ctx, params)
}

func (s *Server) writeError(c *gin.Context, id json.RawMessage, code int, message string) {
	c.JSON(200, errorResponse{
		JSONRPC: "2.0",
		Error:   &rpcError{Code: code, Message: message},
		ID:      id,
	})
}

// cached serves the parameterless census methods from a short TTL cache.
func (s *Server) cached(method string, fn func() (interface{}, error)) (interface{}, error) {
	ttl := s.cfg.API.StatsCache
	if ttl <= 0 {
		return fn()
	}

	s.cacheMu.RLock()
	entry, ok := s.cache[method]
	s.cacheMu.RUnlock()
	if ok && time.Since(entry.at) < ttl {
		return entry.value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache[method] = cacheEntry{value: value, at: time.Now()}
	s.cacheMu.Unlock()
	return value, nil
}

func (s *Server) rpcStats(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return s.cached("stats", func() (interface{}, error) {
		sum, err := s.svc.Summary(ctx)
		if err != nil {
			return nil, err
		}
		if s.nr != nil {
			s.nr.UpdateSummaryMetrics(sum.Nodes.All, sum.Miners, sum.Workers.All)
		}
		return sum, nil
	})
}

func (s *Server) rpcStatsCurrent(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return s.cached("stats_current", func() (interface{}, error) {
		return s.svc.Current(ctx)
	})
}

func (s *Server) rpcStatsNode(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p nodeParams
	if err := decodeParams(params, []string{"pub_key"}, &p); err != nil {
		return nil, err
	}
	if err := requireParam("pub_key", p.PubKey); err != nil {
		return nil, err
	}
	node, err := s.svc.Node(ctx, p.PubKey)
	if err != nil || node == nil {
		return nil, err
	}
	return node, nil
}

func (s *Server) rpcStatsMiner(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p minerParams
	if err := decodeParams(params, []string{"wallet_address"}, &p); err != nil {
		return nil, err
	}
	if err := requireParam("wallet_address", p.WalletAddress); err != nil {
		return nil, err
	}
	miner, err := s.svc.Miner(ctx, p.WalletAddress)
	if err != nil || miner == nil {
		return nil, err
	}
	return miner, nil
}

func (s *Server) rpcStatsWorker(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p workerParams
	if err := decodeParams(params, []string{"wallet_address", "worker_name"}, &p); err != nil {
		return nil, err
	}
	if err := requireParam("wallet_address", p.WalletAddress); err != nil {
		return nil, err
	}
	if err := requireParam("worker_name", p.WorkerName); err != nil {
		return nil, err
	}
	worker, err := s.svc.Worker(ctx, p.WalletAddress, p.WorkerName)
	if err != nil || worker == nil {
		return nil, err
	}
	return worker, nil
}

func (s *Server) rpcStatsHashrate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p hashrateParams
	if err := decodeParams(params, []string{"block_num", "wallet_address", "worker_name"}, &p); err != nil {
		return nil, err
	}
	return s.svc.Hashrate(ctx, string(p.BlockNum), p.WalletAddress, p.WorkerName)
}

func (s *Server) rpcStatsReward(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p rewardParams
	if err := decodeParams(params, []string{"start_block", "end_block", "wallet_address", "worker_name"}, &p); err != nil {
		return nil, err
	}
	return s.svc.Reward(ctx, p.StartBlock, p.EndBlock, p.WalletAddress, p.WorkerName)
}
