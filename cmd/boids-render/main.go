package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/oscillator"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/trace"
	"github.com/spf13/pflag"
	"github.com/tochemey/goakt/v3/log"
)

type options struct {
	configFile string
	schemaFile string
	seconds    float64
	out        string
	tracePath  string
	play       bool
	voices     int
	verbose    bool
}

func main() {
	var opts options
	pflag.StringVar(&opts.configFile, "config", "", "path to a JSON or YAML config file")
	pflag.StringVar(&opts.schemaFile, "schema", "", "path to a JSON schema (default: embedded)")
	pflag.Float64Var(&opts.seconds, "seconds", 5, "length of the rendered audio")
	pflag.StringVar(&opts.out, "out", "boids.wav", "output WAV file")
	pflag.StringVar(&opts.tracePath, "trace", "", "also write a CBOR trace of the mixed blocks")
	pflag.BoolVar(&opts.play, "play", false, "play the result on the default audio device")
	pflag.IntVar(&opts.voices, "voices", 0, "number of voices (default: from config)")
	pflag.BoolVar(&opts.verbose, "verbose", false, "debug logging")
	pflag.Parse()

	level := log.InfoLevel
	if opts.verbose {
		level = log.DebugLevel
	}
	logger := log.New(level, os.Stderr)

	if err := run(context.Background(), opts, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, opts options, logger log.Logger) error {
	cfg := simulation.DefaultConfig()
	if opts.configFile != "" {
		loaded, err := simulation.LoadConfig(opts.configFile, opts.schemaFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	simulation.ApplyEnv(cfg)
	if opts.voices > 0 {
		cfg.Voices = opts.voices
	}

	host, err := simulation.NewHost(ctx, cfg, simulation.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Stop(ctx); err != nil {
			logger.Warnf("failed to stop host: %v", err)
		}
	}()

	voices := make([]*oscillator.Streamer, 0, cfg.Voices)
	streamers := make([]beep.Streamer, 0, cfg.Voices)
	for i := range cfg.Voices {
		name := fmt.Sprintf("voice-%d", i)
		if err := host.SpawnVoice(ctx, name, cfg.Seed+uint64(i)); err != nil {
			return err
		}
		s := oscillator.NewStreamer(host.Voice(name), cfg.BlockSize)
		voices = append(voices, s)
		streamers = append(streamers, s)
	}

	var source beep.Streamer = oscillator.Mix(streamers, cfg.Volume)
	var tap *trace.Tap
	if opts.tracePath != "" {
		f, err := os.Create(opts.tracePath)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		defer f.Close()
		tap = trace.NewTap(source, f)
		source = tap
	}

	out, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	rate := beep.SampleRate(cfg.SampleRate)
	frames := rate.N(time.Duration(opts.seconds * float64(time.Second)))
	start := time.Now()
	if err := oscillator.WriteWAV(out, source, rate, frames); err != nil {
		return err
	}
	for i, v := range voices {
		if err := v.Err(); err != nil {
			return fmt.Errorf("voice-%d failed: %w", i, err)
		}
	}
	logger.Infof("wrote %d frames to %s in %v", frames, opts.out, time.Since(start))
	if tap != nil {
		logger.Infof("wrote %d trace records to %s", tap.Chunks(), opts.tracePath)
	}

	if opts.play {
		return play(opts.out)
	}
	return nil
}

// play decodes the written file and blocks until the speaker has drained it.
func play(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	defer streamer.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	defer speaker.Close()

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}
