package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"lecture-slides-backend/internal/config"
	"lecture-slides-backend/internal/logger"
	"lecture-slides-backend/internal/telemetry"
)

type embedFunc func(ctx context.Context, text string) ([]float32, error)

// GeminiEncoder produces embeddings with Google's embedding models. One instance is
// shared by the whole process.
type GeminiEncoder struct {
	model       string
	dims        int
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	embed       embedFunc
	client      *genai.Client
	metrics     *telemetry.Metrics
}

func NewGeminiEncoder(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*GeminiEncoder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := client.EmbeddingModel(cfg.GoogleEmbeddingsModel)
	embed := func(ctx context.Context, text string) ([]float32, error) {
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	}

	enc := newGeminiEncoder(cfg.GoogleEmbeddingsModel, cfg.VectorDimensions, cfg.EmbeddingsRPM, embed)
	enc.client = client
	enc.metrics = metrics
	return enc, nil
}

func newGeminiEncoder(model string, dims, rpm int, embed embedFunc) *GeminiEncoder {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiEmbeddings",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	if rpm <= 0 {
		rpm = 60
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}

	return &GeminiEncoder{
		model:       model,
		dims:        dims,
		breaker:     breaker,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
		embed:       embed,
	}
}

func (e *GeminiEncoder) Dimensions() int { return e.dims }

func (e *GeminiEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("gemini-embeddings").Start(ctx, "gemini.embed_content")
	defer span.End()
	span.SetAttributes(
		attribute.String("embedding.model", e.model),
		attribute.Int("embedding.input_chars", len(text)),
	)

	if err := e.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("embedding.rate_limited", true))
		return nil, fmt.Errorf("%w: %w", ErrEncoderUnavailable, err)
	}

	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.embed(ctx, text)
	})
	e.metrics.RecordEmbedding(e.model, err == nil)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("embedding.circuit_breaker_open", true))
		}
		return nil, fmt.Errorf("%w: %w", ErrEncoderUnavailable, err)
	}

	vec := result.([]float32)
	if err := checkDimensions(vec, e.dims); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return vec, nil
}

// Close the client
func (e *GeminiEncoder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
