package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cyclechain/config"
	"cyclechain/core"
	"cyclechain/native/auction"
	"cyclechain/observability/logging"
	"cyclechain/rpc"
	"cyclechain/storage"
)

const rpcTokenEnv = "CYCLE_RPC_TOKEN"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("cycled", cfg.Node.Env, logging.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	epochs, err := cfg.EpochConfig()
	if err != nil {
		logger.Error("Invalid epoch configuration", slog.Any("error", err))
		os.Exit(1)
	}
	params, err := cfg.Params()
	if err != nil {
		logger.Error("Invalid auction parameters", slog.Any("error", err))
		os.Exit(1)
	}
	owner, err := cfg.OwnerAddress()
	if err != nil {
		logger.Error("Invalid owner address", slog.Any("error", err))
		os.Exit(1)
	}
	mintCap, err := cfg.MintCapAmount()
	if err != nil {
		logger.Error("Invalid mint cap", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.Node.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ledger, err := core.NewLedger(core.Options{
		DB:      db,
		Epochs:  epochs,
		Params:  params,
		Owner:   owner,
		MintCap: mintCap,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("Failed to initialise ledger", slog.Any("error", err))
		os.Exit(1)
	}

	if lpToken, ok, err := cfg.LPTokenAddress(); err != nil {
		logger.Error("Invalid liquidity token address", slog.Any("error", err))
		os.Exit(1)
	} else if ok {
		if err := ledger.RegisterPair(lpToken); err != nil && !errors.Is(err, auction.ErrAlreadyConfigured) {
			logger.Error("Failed to register liquidity pair", slog.Any("error", err))
			os.Exit(1)
		}
	}

	authToken := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	if authToken == "" {
		authToken = strings.TrimSpace(cfg.Node.RPCToken)
	}

	server := rpc.NewServer(ledger, authToken)
	logger.Info("Starting JSON-RPC server",
		slog.String("addr", cfg.Node.ListenRPC),
		slog.Uint64("currentEpoch", ledger.CurrentEpoch()))
	if err := server.Start(cfg.Node.ListenRPC); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
