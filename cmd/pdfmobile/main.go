package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdfmobile/internal/app"
	"pdfmobile/internal/extract"
	"pdfmobile/internal/llm"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath  string
		inputPath   string
		outputPath  string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		maxTokens   int
		mode        string
		scale       float64
		stream      bool
		previewAddr string
		cacheDir    string
		cacheMaxAge time.Duration
		cacheClear  bool
		verbose     bool
	)

	flag.StringVar(&configPath, "config", "", "Path to YAML/JSON config file")
	flag.StringVar(&inputPath, "input", "", "Path to the PDF document to convert")
	flag.StringVar(&outputPath, "output", "", "Path for the HTML artifact (default: derived from the document title)")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL (default local loopback)")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "Bearer token for the endpoint (optional)")
	flag.IntVar(&maxTokens, "llm.maxTokens", 0, "Completion token budget ceiling (0 uses the default)")
	flag.StringVar(&mode, "mode", "", "Extraction modality: text or vision (default text)")
	flag.Float64Var(&scale, "scale", 0, "Linear render scale for vision mode (default 2.0)")
	flag.BoolVar(&stream, "stream", true, "Stream the completion and render the preview per chunk")
	flag.StringVar(&previewAddr, "preview.addr", "", "Listen address for the live preview server (empty disables)")
	flag.StringVar(&cacheDir, "cache.dir", "", "Result cache directory (empty disables)")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 168h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	visited := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { visited[f.Name] = true })

	cfg := app.Config{
		InputPath:   inputPath,
		OutputPath:  outputPath,
		LLMBaseURL:  llmBaseURL,
		LLMModel:    llmModel,
		LLMAPIKey:   llmKey,
		MaxTokens:   maxTokens,
		Mode:        mode,
		Scale:       scale,
		Stream:      stream,
		PreviewAddr: previewAddr,
		CacheDir:    cacheDir,
		CacheMaxAge: cacheMaxAge,
		CacheClear:  cacheClear,
		Verbose:     verbose,
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("config file")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
		// Explicit flags always win over the file.
		if visited["stream"] {
			cfg.Stream = stream
		}
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.InputPath == "" && flag.NArg() > 0 {
		cfg.InputPath = flag.Arg(0)
	}
	if cfg.InputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pdfmobile [flags] document.pdf")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		if errors.Is(err, llm.ErrCancelled) {
			// Stopped by the user, not a failure.
			log.Info().Msg("conversion cancelled")
			os.Exit(0)
		}
		logFailure(err)
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}

// logFailure surfaces a single user-facing message with the most specific
// detail the error taxonomy offers.
func logFailure(err error) {
	var ee *llm.EndpointError
	var ex *extract.ExtractionError
	var rs *extract.RasterizationError
	switch {
	case errors.As(err, &ee):
		log.Error().Int("status", ee.Status).Str("detail", ee.Body).Msg("inference endpoint rejected the request")
	case errors.As(err, &ex):
		log.Error().Err(err).Msg("could not extract document text")
	case errors.As(err, &rs):
		log.Error().Err(err).Msg("could not rasterize document pages")
	default:
		log.Error().Err(err).Msg("conversion failed")
	}
}
