package mediator

import (
	"context"
	"fmt"
	"log/slog"
)

// IMediator - публичная точка входа медиатора.
type IMediator interface {
	// Send проводит запрос через подготовленную цепочку и возвращает ответ
	// обработчика или ошибку без изменений.
	Send(ctx context.Context, req Request) (Response, error)

	// Publish вызывает всех обработчиков уведомления в порядке регистрации.
	// Отсутствие обработчиков не является ошибкой.
	Publish(ctx context.Context, n Notification, opts ...PublishOption) error
}

// mediatorImpl владеет подготовленной цепочкой и контейнером уведомлений.
type mediatorImpl struct {
	container *Container
	head      Pipeline
	cfg       *config
}

// New подготавливает цепочку пайплайнов контейнера c и возвращает медиатор.
// Контейнер после вызова заморожен. Опции WithLogger, WithMeterProvider и
// WithTracerProvider добавляют в голову цепочки пайплайны логирования,
// метрик и трассировки соответственно.
func New(c *Container, opts ...Option) (IMediator, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: контейнер не задан", ErrConfiguration)
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	leading := make([]Pipeline, 0, 3)
	if cfg.logDispatch {
		leading = append(leading, NewLoggingPipeline(cfg.logger))
	}
	if cfg.meterProvider != nil {
		p, err := NewMetricsPipeline(cfg.meterProvider)
		if err != nil {
			return nil, err
		}
		leading = append(leading, p)
	}
	if cfg.tracerProvider != nil {
		p, err := NewTracingPipeline(cfg.tracerProvider, cfg.propagator)
		if err != nil {
			return nil, err
		}
		leading = append(leading, p)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	head, err := c.prepare(NewDefaultPipeline(c), leading...)
	if err != nil {
		return nil, fmt.Errorf("не удалось подготовить цепочку пайплайнов: %w", err)
	}

	return &mediatorImpl{
		container: c,
		head:      head,
		cfg:       cfg,
	}, nil
}

// Send отправляет запрос в голову цепочки.
func (m *mediatorImpl) Send(ctx context.Context, req Request) (Response, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	return m.head.Handle(ctx, req)
}

// Publish рассылает уведомление всем обработчикам его типа.
func (m *mediatorImpl) Publish(ctx context.Context, n Notification, opts ...PublishOption) error {
	if n == nil {
		return ErrInvalidRequest
	}

	pc := publishConfig{}
	for _, opt := range opts {
		opt(&pc)
	}

	handlers := m.container.notificationHandlers(n)
	if len(handlers) == 0 {
		return nil
	}

	nType := TypeName(n)
	for i, h := range handlers {
		if err := h.Handle(ctx, n); err != nil {
			if pc.throwException {
				return err
			}
			m.cfg.logger.WarnContext(ctx, "ошибка обработчика уведомления подавлена",
				slog.String("notification_type", nType),
				slog.Int("handler_index", i),
				slog.Any("error", err),
			)
		}
	}

	return nil
}
