package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"pdfmobile/internal/cache"
	"pdfmobile/internal/export"
	"pdfmobile/internal/extract"
	"pdfmobile/internal/llm"
	"pdfmobile/internal/preview"
)

// App wires the conversion pipeline: extract, complete, reduce, preview,
// export. One job at a time; a new run clears the preview first.
type App struct {
	cfg     Config
	client  *llm.Client
	cache   *cache.ResultCache
	preview *preview.Server
	httpSrv *http.Server
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.InputPath == "" {
		return nil, errors.New("no input document")
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeText
	}
	if cfg.Mode != ModeText && cfg.Mode != ModeVision {
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.Scale <= 0 {
		cfg.Scale = extract.DefaultScale
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}

	a := &App{
		cfg: cfg,
		client: &llm.Client{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
		},
	}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.cache = &cache.ResultCache{Dir: cfg.CacheDir}
	}

	if cfg.PreviewAddr != "" {
		a.preview = preview.NewServer()
		ln, err := net.Listen("tcp", cfg.PreviewAddr)
		if err != nil {
			return nil, fmt.Errorf("preview listen: %w", err)
		}
		a.httpSrv = &http.Server{Handler: a.preview.Handler()}
		go func() {
			if err := a.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn().Err(err).Msg("preview server stopped")
			}
		}()
		log.Info().Str("url", "http://"+ln.Addr().String()+"/").Msg("live preview available")
	}

	return a, nil
}

func (a *App) Close() {
	if a.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.httpSrv.Shutdown(shutdownCtx)
	}
}

// Run performs one conversion end to end and writes the exported artifact.
func (a *App) Run(ctx context.Context) error {
	info, err := extract.Inspect(a.cfg.InputPath)
	if err != nil {
		return err
	}
	log.Info().
		Str("input", a.cfg.InputPath).
		Int("pages", info.PageCount).
		Str("mode", a.cfg.Mode).
		Msg("document opened")
	if a.cfg.Mode == ModeText && info.HasImageStreams {
		log.Info().Msg("document embeds images; if it is a scan, -mode=vision will convert better")
	}

	var cacheKey string
	if a.cache != nil {
		digest, err := cache.DigestFile(a.cfg.InputPath)
		if err != nil {
			return fmt.Errorf("digest input: %w", err)
		}
		cacheKey = cache.Key(digest, a.cfg.LLMModel, a.cfg.Mode, a.cfg.Scale)
		if raw, ok, _ := a.cache.Get(ctx, cacheKey); ok {
			var cached llm.Completion
			if err := json.Unmarshal(raw, &cached); err == nil && cached.HTML != "" {
				log.Info().Msg("cache hit; skipping model call")
				return a.finish(ctx, cached, cacheKey, false)
			}
		}
	}

	extraction, err := a.extract()
	if err != nil {
		return err
	}

	j := newJob(a.preview)
	result, err := a.client.Complete(ctx, llm.Request{
		Extraction: extraction,
		MaxTokens:  a.cfg.MaxTokens,
		Stream:     a.cfg.Stream,
		Observer:   j.observe,
	})
	if err != nil {
		return err
	}
	if a.cfg.Stream {
		log.Debug().Int("chunks", j.chunks).Msg("stream complete")
	}

	return a.finish(ctx, result, cacheKey, true)
}

// extract produces the modality-appropriate extraction.
func (a *App) extract() (extract.Extraction, error) {
	switch a.cfg.Mode {
	case ModeVision:
		pages, err := extract.Rasterize(a.cfg.InputPath, a.cfg.Scale)
		if err != nil {
			return extract.Extraction{}, err
		}
		log.Info().Int("pages", len(pages)).Float64("scale", a.cfg.Scale).Msg("pages rasterized")
		return extract.NewImages(pages), nil
	default:
		text, err := extract.Text(a.cfg.InputPath)
		if err != nil {
			return extract.Extraction{}, err
		}
		log.Info().Int("chars", len(text)).Msg("transcript extracted")
		return extract.NewText(text), nil
	}
}

// finish renders the terminal result, exports the artifact, and saves the
// cache entry for fresh results.
func (a *App) finish(ctx context.Context, result llm.Completion, cacheKey string, fresh bool) error {
	if result.HTML == "" {
		return errors.New("model produced no HTML payload")
	}
	if a.preview != nil {
		a.preview.Render(result.HTML)
	}
	if result.Usage != nil {
		log.Info().
			Int("promptTokens", result.Usage.PromptTokens).
			Int("completionTokens", result.Usage.CompletionTokens).
			Str("model", result.Model).
			Msg("completion usage")
	}
	if result.HasReasoning {
		log.Debug().Int("reasoningBytes", len(result.Reasoning)).Msg("reasoning excerpt captured")
	}

	artifact := export.Asset(result.HTML)
	outPath := a.cfg.OutputPath
	if outPath == "" {
		outPath = artifact.Name()
	}
	if err := artifact.WriteFile(outPath); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	log.Info().Str("out", outPath).Int("bytes", len(artifact.Bytes())).Msg("wrote HTML artifact")

	if fresh && a.cache != nil && cacheKey != "" {
		if payload, err := json.Marshal(result); err == nil {
			_ = a.cache.Save(ctx, cacheKey, payload)
		}
	}

	if a.preview != nil {
		log.Info().Msg("preview still serving; interrupt to exit")
		<-ctx.Done()
	}
	return nil
}
