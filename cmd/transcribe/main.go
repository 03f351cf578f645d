package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/Knarf49/leganizebackend/internal/audio"
	"github.com/Knarf49/leganizebackend/internal/config"
	"github.com/Knarf49/leganizebackend/internal/pipeline"
	"github.com/Knarf49/leganizebackend/internal/proxy"
	"github.com/Knarf49/leganizebackend/pkg/audioconv"
)

const (
	usage    = "Usage: transcribe <audio_file_path> [api_key]"
	errNoKey = "OPENAI_API_KEY not set and no api_key argument given"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

// run executes the CLI and returns the process exit code. Exactly one JSON
// result is written to stdout unless help was requested.
func run(argv []string, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := cli.NewFlagSet("transcribe", cli.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.StringP("env", "e", ".env", "Env file path")
	cfgPath := fs.StringP("config", "c", "", "YAML config file")
	record := fs.BoolP("record", "r", false, "Record from the microphone instead of reading a file")
	flagged := config.Default()
	flagged.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return 0
		}
		return emit(stdout, pipeline.Failure(err.Error()))
	}

	godotenv.Load(*envFile)

	cfg, err := config.Resolve(fs, flagged, *cfgPath, getenv)
	if err != nil {
		return emit(stdout, pipeline.Failure(err.Error()))
	}

	logger := config.NewLogger(stderr, cfg.LogLevel)
	log.SetDefault(logger)

	args := fs.Args()
	var path string
	if !*record {
		if len(args) == 0 {
			return emit(stdout, pipeline.Failure(usage))
		}
		path, args = args[0], args[1:]
		if _, err := os.Stat(path); err != nil {
			return emit(stdout, pipeline.Failure("File not found: "+path))
		}
	}
	if len(args) > 0 {
		cfg.APIKey = args[0]
	}
	if cfg.Backend == "openai" && cfg.APIKey == "" {
		return emit(stdout, pipeline.Failure(errNoKey))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if *record {
		if path, err = recordToFile(ctx, logger); err != nil {
			return emit(stdout, pipeline.Failure(err.Error()))
		}
		defer os.Remove(path)
	}

	httpClient, err := proxy.NewClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		logger.Error("Failed to dial socks proxy", "proxy", cfg.Proxy, "err", err)
		return emit(stdout, pipeline.Failure(err.Error()))
	}

	tr, err := pipeline.NewTranscriber(cfg, httpClient, logger)
	if err != nil {
		return emit(stdout, pipeline.Failure(err.Error()))
	}
	defer tr.Close()

	cleaner := cfg.Cleaner()
	cleaner.Log = logger
	p := &pipeline.Pipeline{
		STT:     tr,
		Cleaner: cleaner,
		Options: cfg.Options(),
		Log:     logger,
	}
	return emit(stdout, p.Run(ctx, path, ""))
}

// recordToFile captures one utterance and stores it as a temporary WAV file.
func recordToFile(ctx context.Context, logger *log.Logger) (string, error) {
	rec, err := audio.NewRecorder()
	if err != nil {
		return "", err
	}
	defer rec.Close()

	logger.Info("Listening...")
	pcm, err := rec.Record(ctx, audio.DefaultOptions())
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	logger.Info("Recorded", "samples", len(pcm))

	f, err := os.CreateTemp("", "transcribe-*.wav")
	if err != nil {
		return "", err
	}
	path := f.Name()
	f.Close()

	if err := audioconv.WriteWAV(path, pcm, audio.SampleRate); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// emit writes res as one JSON line and returns the process exit code.
func emit(w io.Writer, res pipeline.Result) int {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		log.Error("Failed to write result", "err", err)
		return 1
	}
	if !res.Success {
		return 1
	}
	return 0
}
