package cache

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
)

// config содержит неэкспортируемую конфигурацию пайплайна кеширования.
type config struct {
	serializer    Serializer
	logger        *slog.Logger
	meterProvider metric.MeterProvider
}

// Option определяет тип для функциональных опций пайплайна кеширования.
type Option func(*config)

// WithSerializer устанавливает сериализатор ответов.
// По умолчанию используется JSONSerializer.
func WithSerializer(s Serializer) Option {
	return func(c *config) {
		c.serializer = s
	}
}

// WithLogger устанавливает логгер для отладочных сообщений о попаданиях и промахах.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMeterProvider включает счетчики попаданий и промахов.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = provider
	}
}
