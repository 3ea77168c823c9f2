package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/young1lin/aisearch/internal/classifier"
	"github.com/young1lin/aisearch/internal/config"
	"github.com/young1lin/aisearch/internal/handler"
	"github.com/young1lin/aisearch/internal/llm"
	"github.com/young1lin/aisearch/internal/pipeline"
	"github.com/young1lin/aisearch/internal/search"
	"github.com/young1lin/aisearch/internal/summary"
	"github.com/young1lin/aisearch/internal/upstream"
	"github.com/young1lin/aisearch/pkg/logger"
)

// app holds the components built once at startup
type app struct {
	pipeline *pipeline.Pipeline
	status   *handler.StatusChecker
}

func newApp(cfg *config.Config, log *zap.Logger) *app {
	log = logger.OrNop(log)

	searchClient := upstream.New("serper", upstream.Options{
		BaseURL: cfg.Search.BaseURL,
		Timeout: cfg.Search.RequestTimeout(),
		Headers: map[string]string{"X-API-KEY": cfg.Search.APIKey},
	}, log.Named("upstream"))

	llmClient := upstream.New("gemini", upstream.Options{
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.RequestTimeout(),
		QueryParams: map[string]string{"key": cfg.LLM.APIKey},
	}, log.Named("upstream"))

	gemini := llm.NewGeminiClient(llmClient, cfg.LLM.Model)
	provider := search.NewSerperProvider(&cfg.Search, searchClient, log.Named("search"))

	p := pipeline.New(
		classifier.New(gemini, log.Named("classifier")),
		search.NewFetcher(provider, log.Named("search")),
		summary.New(gemini, log.Named("summary")),
		log.Named("pipeline"),
	)

	status := handler.NewStatusChecker(map[string]handler.Probe{
		"search": func(ctx context.Context) error {
			if !provider.IsAvailable() {
				return search.ErrNotConfigured
			}
			_, err := provider.Web(ctx, "test")
			return err
		},
		"llm": func(ctx context.Context) error {
			_, err := gemini.Generate(ctx, "Reply with the word ok.", classifier.GenerationConfig)
			return err
		},
	}, max(cfg.Search.RequestTimeout(), cfg.LLM.RequestTimeout()), log.Named("status"))

	return &app{pipeline: p, status: status}
}
