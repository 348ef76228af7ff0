package mediator

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// config содержит неэкспортируемую конфигурацию медиатора.
type config struct {
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	propagator     propagation.TextMapPropagator
	logDispatch    bool
}

// Option определяет тип для функциональных опций, которые изменяют конфигурацию медиатора.
type Option func(*config)

// WithLogger устанавливает логгер и добавляет в голову цепочки пайплайн логирования.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
		c.logDispatch = logger != nil
	}
}

// WithTracerProvider добавляет в цепочку пайплайн трассировки.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = provider
	}
}

// WithMeterProvider добавляет в цепочку пайплайн сбора метрик.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = provider
	}
}

// WithPropagator устанавливает механизм распространения контекста трассировки.
func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(c *config) {
		c.propagator = propagator
	}
}

// publishConfig - параметры одного вызова Publish.
type publishConfig struct {
	throwException bool
}

// PublishOption настраивает вызов Publish.
type PublishOption func(*publishConfig)

// WithThrowException заставляет Publish вернуть первую ошибку обработчика
// и не вызывать оставшиеся обработчики.
func WithThrowException() PublishOption {
	return func(c *publishConfig) {
		c.throwException = true
	}
}
