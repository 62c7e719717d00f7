// zilstats - read-only statistics service for the Zilliqa mining proxy
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/api"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/config"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/newrelic"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/profiling"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/stats"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/storage"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/zilliqa"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("zilstats v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := util.InitLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	util.Infof("zilstats v%s starting", version)

	redis, err := storage.NewRedisClient(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		util.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nrAgent := newrelic.NewAgent(&cfg.NewRelic)
	if err := nrAgent.Start(); err != nil {
		util.Warnf("Failed to start New Relic agent: %v", err)
	}

	// Chain-state poller feeds the current-work view when enabled.
	var chain stats.ChainSource
	var poller *zilliqa.Poller
	if cfg.Zilliqa.Enabled {
		poller = zilliqa.NewPoller(ctx, &cfg.Zilliqa)
		poller.OnRefresh(nrAgent.RecordChainRefresh)
		poller.Start()
		chain = poller
	}

	svc := stats.NewService(redis, chain, &cfg.Stats, version)

	apiServer := api.NewServer(cfg, svc, nrAgent)
	if err := apiServer.Start(); err != nil {
		util.Fatalf("Failed to start API server: %v", err)
	}

	profServer := profiling.NewServer(&cfg.Profiling)
	if err := profServer.Start(); err != nil {
		util.Fatalf("Failed to start profiling server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	util.Info("Stats service started. Press Ctrl+C to stop.")

	<-sigChan
	util.Info("Shutting down...")

	if err := apiServer.Stop(); err != nil {
		util.Errorf("API server shutdown: %v", err)
	}
	if err := profServer.Stop(); err != nil {
		util.Errorf("Profiling server shutdown: %v", err)
	}
	if poller != nil {
		poller.Stop()
	}
	nrAgent.Stop()

	util.Info("Stats service stopped")
}
