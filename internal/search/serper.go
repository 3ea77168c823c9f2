package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/young1lin/aisearch/internal/config"
	"github.com/young1lin/aisearch/internal/models"
	"github.com/young1lin/aisearch/internal/upstream"
	"github.com/young1lin/aisearch/pkg/logger"
)

const (
	defaultNum      = 8
	defaultImageNum = 8
	defaultGL       = "rw"
	defaultHL       = "en"
)

// SerperProvider implements the Provider interface using the Serper API
type SerperProvider struct {
	name     string
	apiKey   string
	num      int
	imageNum int
	gl       string
	hl       string
	poster   upstream.Poster
	log      *zap.Logger
}

var _ Provider = (*SerperProvider)(nil)

// NewSerperProvider creates a new Serper provider posting through poster
func NewSerperProvider(cfg *config.SearchConfig, poster upstream.Poster, log *zap.Logger) *SerperProvider {
	p := &SerperProvider{
		name:     "serper",
		apiKey:   cfg.APIKey,
		num:      cfg.Num,
		imageNum: cfg.ImageNum,
		gl:       cfg.GL,
		hl:       cfg.HL,
		poster:   poster,
		log:      logger.OrNop(log),
	}
	if p.num <= 0 {
		p.num = defaultNum
	}
	if p.imageNum <= 0 {
		p.imageNum = defaultImageNum
	}
	if p.gl == "" {
		p.gl = defaultGL
	}
	if p.hl == "" {
		p.hl = defaultHL
	}
	return p
}

// Name returns the provider name
func (p *SerperProvider) Name() string {
	return p.name
}

// IsAvailable returns true if the provider is properly configured
func (p *SerperProvider) IsAvailable() bool {
	return strings.TrimSpace(p.apiKey) != ""
}

// Web performs POST /search
func (p *SerperProvider) Web(ctx context.Context, query string) (*models.WebSearchResponse, error) {
	req := models.WebSearchRequest{
		Q:    query,
		Num:  p.num,
		GL:   p.gl,
		HL:   p.hl,
		Type: "search",
	}

	var resp models.WebSearchResponse
	if err := p.poster.Post(ctx, "/search", req, &resp); err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	logger.ForContext(ctx, p.log).Info("web search completed",
		zap.String("provider", p.name),
		zap.String("query", query),
		zap.Int("result_count", len(resp.Organic)),
		zap.Bool("answer_box", resp.AnswerBox != nil),
	)
	return &resp, nil
}

// Images performs POST /images
func (p *SerperProvider) Images(ctx context.Context, query string) (*models.ImageSearchResponse, error) {
	req := models.ImageSearchRequest{
		Q:   query,
		Num: p.imageNum,
	}

	var resp models.ImageSearchResponse
	if err := p.poster.Post(ctx, "/images", req, &resp); err != nil {
		return nil, fmt.Errorf("image search: %w", err)
	}

	logger.ForContext(ctx, p.log).Info("image search completed",
		zap.String("provider", p.name),
		zap.String("query", query),
		zap.Int("result_count", len(resp.Images)),
	)
	return &resp, nil
}
