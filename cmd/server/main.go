package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/grove/internal/config"
	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	worldPath := flag.String("world", "", "world document, overrides simulation.world")
	seed := flag.Uint64("seed", 0, "random seed, overrides simulation.seed when non-zero")
	listen := flag.String("listen", "", "observer listen address, overrides server.listen_addr")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error loading config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *worldPath != "" {
		cfg.Simulation.World = *worldPath
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *listen != "" {
		cfg.Server.ListenAddr = *listen
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error starting grove:", err)
		os.Exit(1)
	}
	defer cleanup()

	app.Logger.Info("Starting grove",
		log.String("world", cfg.Simulation.World),
		log.Uint64("seed", cfg.Simulation.Seed),
		log.String("listen_addr", cfg.Server.ListenAddr),
	)
	if err := app.Run(ctx); err != nil {
		app.Logger.Error("Simulation stopped", log.Error(err))
		_ = app.Logger.Sync()
		cleanup()
		os.Exit(1)
	}
	_ = app.Logger.Sync()
}
