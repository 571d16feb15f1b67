package llm

import (
	"context"
	"fmt"
	"time"

	"english_tutor_backend/internal/config"
	"english_tutor_backend/pkg/logger"
	"english_tutor_backend/pkg/monitoring"

	"go.uber.org/zap"
)

func NewTextGenerator(ctx context.Context, cfg config.AIConfig) (TextGenerator, error) {
	var (
		gen TextGenerator
		err error
	)
	switch cfg.TextProvider {
	case "openai":
		gen, err = NewOpenAIClient(cfg.OpenAI)
	case "gemini":
		gen, err = NewGeminiClient(ctx, cfg.Gemini)
	case "anthropic":
		gen, err = NewAnthropicClient(cfg.Anthropic)
	default:
		return nil, fmt.Errorf("%w: unknown text provider %q", ErrNotConfigured, cfg.TextProvider)
	}
	if err != nil {
		return nil, err
	}
	return &timedGenerator{next: gen, provider: cfg.TextProvider, timeout: cfg.Timeout}, nil
}

func NewEmbedder(ctx context.Context, cfg config.AIConfig) (Embedder, error) {
	var (
		emb Embedder
		err error
	)
	switch cfg.EmbeddingProvider {
	case "openai":
		emb, err = NewOpenAIClient(cfg.OpenAI)
	case "gemini":
		emb, err = NewGeminiClient(ctx, cfg.Gemini)
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", ErrNotConfigured, cfg.EmbeddingProvider)
	}
	if err != nil {
		return nil, err
	}
	return &timedEmbedder{next: emb, provider: cfg.EmbeddingProvider, timeout: cfg.Timeout}, nil
}

// timedGenerator 为每次调用加超时并记录耗时
type timedGenerator struct {
	next     TextGenerator
	provider string
	timeout  time.Duration
}

func (g *timedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.next.Generate(ctx, req)
	monitoring.ObserveAI(g.provider, "generate", start, err)
	fields := []zap.Field{
		zap.String("provider", g.provider),
		zap.Duration("latency", time.Since(start)),
	}
	if req.Schema != nil {
		fields = append(fields, zap.String("schema", req.Schema.Name))
	}
	if err != nil {
		logger.L(ctx).Warn("Text generation failed", append(fields, zap.Error(err))...)
		return "", err
	}
	logger.L(ctx).Debug("Text generated", fields...)
	return out, nil
}

type timedEmbedder struct {
	next     Embedder
	provider string
	timeout  time.Duration
}

func (e *timedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	vec, err := e.next.Embed(ctx, text)
	monitoring.ObserveAI(e.provider, "embed", start, err)
	if err != nil {
		logger.L(ctx).Warn("Embedding failed",
			zap.String("provider", e.provider),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		return nil, err
	}
	logger.L(ctx).Debug("Embedding generated",
		zap.String("provider", e.provider),
		zap.Int("dims", len(vec)),
		zap.Duration("latency", time.Since(start)))
	return vec, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Disabled 在提供方未配置时代替真实客户端，每次调用都返回 Err
type Disabled struct {
	Err error
}

func (d Disabled) Generate(ctx context.Context, req Request) (string, error) {
	return "", d.Err
}

func (d Disabled) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, d.Err
}
