package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"pharos/config"
	"pharos/core"
	"pharos/observability"
	"pharos/observability/logging"
	"pharos/rpc"
	"pharos/storage"
)

const (
	envVar       = "PHAROS_ENV"
	authTokenEnv = "PHAROS_RPC_TOKEN"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Setup("pharosd", env, "info").Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.Setup("pharosd", env, cfg.LogLevel)

	genesis, err := cfg.GenesisConfig()
	if err != nil {
		logger.Error("Invalid genesis configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err), slog.String("dir", cfg.DataDir))
		os.Exit(1)
	}
	defer db.Close()

	node, err := core.NewNode(db, genesis)
	if err != nil {
		logger.Error("Failed to initialise node", slog.Any("error", err))
		os.Exit(1)
	}
	node.AddEventSink(observability.NewCollector())

	authToken := strings.TrimSpace(os.Getenv(authTokenEnv))
	if authToken == "" {
		authToken = cfg.RPCAuthToken
	}
	if authToken == "" {
		logger.Warn("RPC auth token not configured; mutating methods are disabled")
	}

	logger.Info("node ready",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress),
	)

	server := rpc.NewServer(node, authToken, cfg.RPCRateLimit, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
