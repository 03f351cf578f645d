package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"github.com/Knarf49/leganizebackend/internal/bus"
	"github.com/Knarf49/leganizebackend/internal/config"
	"github.com/Knarf49/leganizebackend/internal/history"
	"github.com/Knarf49/leganizebackend/internal/ipc"
	"github.com/Knarf49/leganizebackend/internal/pipeline"
	"github.com/Knarf49/leganizebackend/internal/proxy"
)

const historyTTL = 24 * time.Hour

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	cfgPath := cli.StringP("config", "c", "", "YAML config file")
	flagged := config.Default()
	flagged.RegisterFlags(cli.CommandLine)
	flagged.RegisterDaemonFlags(cli.CommandLine)
	cli.Parse()

	godotenv.Load(*envFile)

	cfg, err := config.Resolve(cli.CommandLine, flagged, *cfgPath, os.Getenv)
	if err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	log.SetDefault(config.NewLogger(os.Stderr, cfg.LogLevel))
	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := proxy.NewClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	tr, err := pipeline.NewTranscriber(cfg, httpClient, log.Default())
	if err != nil {
		log.Error("Failed to init transcriber", "backend", cfg.Backend, "err", err)
		os.Exit(1)
	}
	defer tr.Close()

	log.Debug("Loaded transcriber", "backend", cfg.Backend)

	store, err := openHistory(ctx, cfg)
	if err != nil {
		log.Error("Failed to open history", "redis", cfg.Daemon.Redis, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	cleaner := cfg.Cleaner()
	cleaner.Log = log.Default()
	p := &pipeline.Pipeline{
		STT:     tr,
		Cleaner: cleaner,
		Options: cfg.Options(),
		History: store,
		Log:     log.Default(),
	}

	if cfg.Daemon.BusURL != "" {
		b, err := bus.Dial(cfg.Daemon.BusURL, "transcribe")
		if err != nil {
			log.Error("Failed to connect to bus", "url", cfg.Daemon.BusURL, "err", err)
			os.Exit(1)
		}
		defer b.Close()
		p.Publisher = b
	}

	ln, err := ipc.Listen(cfg.Daemon.Socket)
	if err != nil {
		log.Error("Failed ipc server", "socket", cfg.Daemon.Socket, "err", err)
		os.Exit(1)
	}
	defer os.Remove(cfg.Daemon.Socket)

	log.Info("Boot up - successful", "socket", cfg.Daemon.Socket)

	err = ipc.Serve(ctx, ln, func(ctx context.Context, req ipc.Request) any {
		switch req.Cmd {
		case "ping":
			return pipeline.Success("pong", "")
		case "transcribe":
			ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
			return p.Run(ctx, req.Path, req.Session)
		default:
			log.Warn("Unknown command", "cmd", req.Cmd)
			return pipeline.Failure("unknown command: " + req.Cmd)
		}
	})
	if err != nil {
		log.Error("IPC server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Shutting down")
}

func openHistory(ctx context.Context, cfg *config.Config) (history.Store, error) {
	if cfg.Daemon.Redis == "" {
		return history.NewMemory(cfg.Daemon.HistorySize), nil
	}
	return history.NewRedis(ctx, cfg.Daemon.Redis, cfg.Daemon.HistorySize, historyTTL)
}
