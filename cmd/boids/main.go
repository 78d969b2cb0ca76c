package main

import (
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/viewer"
	"github.com/spf13/pflag"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := pflag.String("config", "", "path to a JSON or YAML config file")
	schemaFile := pflag.String("schema", "", "path to a JSON schema (default: embedded)")
	seed := pflag.Uint64("seed", 0, "placement seed (overrides the config)")
	silent := pflag.Bool("silent", false, "do not open an audio device")
	verbose := pflag.Bool("verbose", false, "debug logging")
	pflag.Parse()

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger := log.New(level, os.Stderr)

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		loaded, err := simulation.LoadConfig(*configFile, *schemaFile)
		if err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	simulation.ApplyEnv(cfg)
	if pflag.CommandLine.Changed("seed") {
		cfg.Seed = *seed
	}
	logger.Debugf("config: %+v", *cfg)

	game, err := viewer.NewGame(cfg, !*silent, logger)
	if err != nil {
		logger.Fatalf("Failed to start: %v", err)
	}
	defer game.Close()

	ebiten.SetWindowSize(viewer.ScreenWidth, viewer.ScreenHeight)
	ebiten.SetWindowTitle("Boids oscillator")
	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal(err)
	}
}
