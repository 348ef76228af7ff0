package cache

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/x-research-team/dtx-mediator/bus/mediator"
)

const (
	instrumentationName = "github.com/x-research-team/dtx-mediator/bus/mediator/cache"
	metricKeyPrefix     = "messaging.cache."
)

// Pipeline - промежуточный пайплайн, который возвращает ответ из кеша при
// попадании и сохраняет ответ следующего звена при промахе.
type Pipeline struct {
	mediator.BasePipeline
	provider   Provider
	serializer Serializer
	logger     *slog.Logger
	hits       metric.Int64Counter
	misses     metric.Int64Counter
}

// NewPipeline создает пайплайн кеширования. Если provider равен nil,
// кеширование отключено и пайплайн только делегирует запросы дальше.
func NewPipeline(provider Provider, opts ...Option) (*Pipeline, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.serializer == nil {
		s, err := NewJSONSerializer()
		if err != nil {
			return nil, err
		}
		cfg.serializer = s
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	p := &Pipeline{
		provider:   provider,
		serializer: cfg.serializer,
		logger:     cfg.logger,
	}

	if cfg.meterProvider != nil {
		meter := cfg.meterProvider.Meter(instrumentationName)

		var err error
		p.hits, err = meter.Int64Counter(
			metricKeyPrefix+"hits",
			metric.WithDescription("Количество ответов, возвращенных из кеша"),
			metric.WithUnit("{requests}"),
		)
		if err != nil {
			return nil, fmt.Errorf("не удалось создать счетчик cache.hits: %w", err)
		}

		p.misses, err = meter.Int64Counter(
			metricKeyPrefix+"misses",
			metric.WithDescription("Количество промахов кеша"),
			metric.WithUnit("{requests}"),
		)
		if err != nil {
			return nil, fmt.Errorf("не удалось создать счетчик cache.misses: %w", err)
		}
	}

	return p, nil
}

// Handle проверяет следующее звено и, если запрос допускает кеширование,
// обращается к провайдеру. Ошибки провайдера и сериализатора возвращаются
// без изменений и без повторов.
func (p *Pipeline) Handle(ctx context.Context, req mediator.Request) (mediator.Response, error) {
	next, err := mediator.NextOf(p)
	if err != nil {
		return nil, err
	}

	if p.provider == nil {
		return next.Handle(ctx, req)
	}

	c, ok := shouldCache(req)
	if !ok {
		return next.Handle(ctx, req)
	}

	key := c.CacheKey()
	reqType := mediator.TypeName(req)

	data, found, err := p.provider.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if found {
		p.count(ctx, p.hits, reqType)
		p.logger.DebugContext(ctx, "ответ получен из кеша", slog.String("request_type", reqType), slog.String("cache_key", key))
		return p.serializer.Unmarshal(data)
	}

	p.count(ctx, p.misses, reqType)

	resp, err := next.Handle(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err = p.serializer.Marshal(resp)
	if err != nil {
		return nil, err
	}

	if err := p.provider.Add(ctx, key, data, c.CacheDuration()); err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "ответ сохранен в кеш",
		slog.String("request_type", reqType),
		slog.String("cache_key", key),
		slog.Duration("expires", c.CacheDuration()),
	)

	return resp, nil
}

func (p *Pipeline) count(ctx context.Context, counter metric.Int64Counter, reqType string) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("request.type", reqType)))
}
