package mediator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName    = "github.com/x-research-team/dtx-mediator/bus/mediator"
	instrumentationVersion = "0.1.0"
	metricKeyPrefix        = "messaging."
)

// loggingPipeline логирует отправку запроса и ошибки цепочки.
type loggingPipeline struct {
	BasePipeline
	logger *slog.Logger
}

// NewLoggingPipeline создает пайплайн логирования.
// Если логгер не предоставлен, используется slog.Default().
func NewLoggingPipeline(logger *slog.Logger) Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingPipeline{logger: logger}
}

// Handle логирует и передает запрос дальше по цепочке.
func (p *loggingPipeline) Handle(ctx context.Context, req Request) (resp Response, err error) {
	next, err := NextOf(p)
	if err != nil {
		return nil, err
	}

	reqType, reqID := requestTypeAndID(req)
	p.logger.InfoContext(ctx, "отправка запроса", slog.String("request_type", reqType), slog.String("request_id", reqID))

	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime)
		if err != nil {
			p.logger.ErrorContext(ctx, "ошибка обработки запроса",
				slog.String("request_type", reqType),
				slog.String("request_id", reqID),
				slog.Any("error", err),
				slog.Duration("duration", duration),
			)
			return
		}
		p.logger.DebugContext(ctx, "запрос обработан",
			slog.String("request_type", reqType),
			slog.String("request_id", reqID),
			slog.Duration("duration", duration),
		)
	}()

	return next.Handle(ctx, req)
}

// metricsPipeline собирает метрики OpenTelemetry по обработке запросов.
type metricsPipeline struct {
	BasePipeline
	dispatchCounter     metric.Int64Counter
	processDurationHist metric.Float64Histogram
}

// NewMetricsPipeline создает пайплайн сбора метрик.
func NewMetricsPipeline(provider metric.MeterProvider) (Pipeline, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: провайдер метрик не задан", ErrConfiguration)
	}

	meter := provider.Meter(instrumentationName)

	dispatchCounter, err := meter.Int64Counter(
		metricKeyPrefix+"dispatch.count",
		metric.WithDescription("Количество отправленных запросов"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать счетчик dispatch.count: %w", err)
	}

	processDurationHist, err := meter.Float64Histogram(
		metricKeyPrefix+"process.duration",
		metric.WithDescription("Длительность обработки запроса"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать гистограмму process.duration: %w", err)
	}

	return &metricsPipeline{
		dispatchCounter:     dispatchCounter,
		processDurationHist: processDurationHist,
	}, nil
}

// Handle собирает метрики и передает запрос дальше по цепочке.
func (p *metricsPipeline) Handle(ctx context.Context, req Request) (Response, error) {
	next, err := NextOf(p)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	resp, err := next.Handle(ctx, req)
	duration := milliseconds(time.Since(startTime))

	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("request.type", TypeName(req)),
		attribute.String("status", status),
	)

	p.dispatchCounter.Add(ctx, 1, attrs)
	p.processDurationHist.Record(ctx, duration, attrs)

	return resp, err
}

// tracingPipeline создает спан на каждый запрос.
type tracingPipeline struct {
	BasePipeline
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewTracingPipeline создает пайплайн трассировки.
// Если пропагатор не задан, используется TraceContext + Baggage.
func NewTracingPipeline(tp trace.TracerProvider, prop propagation.TextMapPropagator) (Pipeline, error) {
	if tp == nil {
		return nil, fmt.Errorf("%w: провайдер трассировки не задан", ErrConfiguration)
	}
	if prop == nil {
		prop = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}

	return &tracingPipeline{
		tracer: tp.Tracer(
			instrumentationName,
			trace.WithInstrumentationVersion(instrumentationVersion),
		),
		propagator: prop,
	}, nil
}

// Handle извлекает контекст трассировки из метаданных запроса, открывает спан
// и передает запрос дальше по цепочке.
func (p *tracingPipeline) Handle(ctx context.Context, req Request) (resp Response, err error) {
	next, err := NextOf(p)
	if err != nil {
		return nil, err
	}

	if md, ok := req.(Metadatable); ok {
		ctx = p.propagator.Extract(ctx, propagation.MapCarrier(md.Metadata()))
	}

	ctx, span := p.tracer.Start(ctx, TypeName(req)+" process", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return next.Handle(ctx, req)
}

// milliseconds переводит длительность в дробные миллисекунды.
func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// requestTypeAndID извлекает тип запроса и значение поля ID.
// Если поля нет, генерируется идентификатор для корреляции записей лога.
func requestTypeAndID(req any) (string, string) {
	reqType := TypeName(req)

	val := reflect.ValueOf(req)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return reqType, uuid.NewString()
		}
		val = val.Elem()
	}

	if val.Kind() == reflect.Struct {
		if idField := val.FieldByName("ID"); idField.IsValid() && idField.CanInterface() {
			return reqType, fmt.Sprintf("%v", idField.Interface())
		}
	}

	return reqType, uuid.NewString()
}
