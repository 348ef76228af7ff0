package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/x-research-team/dtx-mediator/bus/mediator"
)

// Publisher - получатель пересылаемых уведомлений. Ему удовлетворяет mediator.IMediator,
// в том числе тот же, в котором зарегистрирован Handler: контекст пересылки
// помечен, и Handler не сохраняет уведомление повторно.
type Publisher interface {
	Publish(ctx context.Context, n mediator.Notification, opts ...mediator.PublishOption) error
}

// RetransmitterOption определяет функцию для конфигурации Retransmitter.
type RetransmitterOption[T mediator.Notification] func(*Retransmitter[T])

// WithInterval устанавливает интервал опроса хранилища.
func WithInterval[T mediator.Notification](interval time.Duration) RetransmitterOption[T] {
	return func(r *Retransmitter[T]) {
		r.interval = interval
	}
}

// WithLimit устанавливает максимальное количество сообщений, извлекаемых за один раз.
func WithLimit[T mediator.Notification](limit int) RetransmitterOption[T] {
	return func(r *Retransmitter[T]) {
		r.limit = limit
	}
}

// WithLogger устанавливает логгер.
func WithLogger[T mediator.Notification](logger *slog.Logger) RetransmitterOption[T] {
	return func(r *Retransmitter[T]) {
		r.logger = logger
	}
}

// WithRetransmitTopic задает топик, если Handler сохранял сообщения с WithTopic.
func WithRetransmitTopic[T mediator.Notification](topic string) RetransmitterOption[T] {
	return func(r *Retransmitter[T]) {
		r.topic = topic
	}
}

// Retransmitter - это фоновый процесс для надежной доставки уведомлений.
// Он типизирован параметром T и пересылает только сообщения своего топика.
type Retransmitter[T mediator.Notification] struct {
	storage   Storage
	publisher Publisher
	topic     string
	ticker    *time.Ticker
	done      chan struct{}
	stopOnce  sync.Once
	interval  time.Duration
	limit     int
	logger    *slog.Logger
}

// NewRetransmitter создает новый экземпляр Retransmitter.
func NewRetransmitter[T mediator.Notification](storage Storage, publisher Publisher, opts ...RetransmitterOption[T]) *Retransmitter[T] {
	var zero T
	r := &Retransmitter[T]{
		storage:   storage,
		publisher: publisher,
		topic:     mediator.TypeName(zero),
		done:      make(chan struct{}),
		interval:  5 * time.Second,
		limit:     100,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start запускает фоновый процесс.
func (r *Retransmitter[T]) Start() {
	r.ticker = time.NewTicker(r.interval)
	go func() {
		r.logger.Info("Retransmitter запущен", slog.String("topic", r.topic))
		for {
			select {
			case <-r.ticker.C:
				if err := r.processBatch(context.Background()); err != nil {
					r.logger.Error("Ошибка при обработке пакета", slog.String("topic", r.topic), slog.Any("error", err))
				}
			case <-r.done:
				r.logger.Info("Retransmitter остановлен", slog.String("topic", r.topic))
				return
			}
		}
	}()
}

// processBatch выполняет один цикл выборки и пересылки сообщений.
// Сообщение помечается обработанным, только если получатель принял его без ошибки.
func (r *Retransmitter[T]) processBatch(ctx context.Context) error {
	messages, err := r.storage.Fetch(ctx, r.topic, r.limit)
	if err != nil {
		return err
	}

	if len(messages) == 0 {
		return nil
	}

	r.logger.Debug("Извлечено сообщений для ретрансляции", slog.Int("count", len(messages)))

	ctx = withRedelivery(ctx)
	processedIDs := make([]uuid.UUID, 0, len(messages))
	for _, msg := range messages {
		var n T
		if err := sonic.Unmarshal(msg.Payload, &n); err != nil {
			r.logger.Error("Ошибка десериализации сообщения", slog.String("message_id", msg.ID.String()), slog.Any("error", err))
			continue
		}

		if md, ok := any(n).(mediator.Metadatable); ok && md.Metadata() != nil {
			for k, v := range msg.Metadata {
				md.Metadata()[k] = v
			}
		}

		if err := r.publisher.Publish(ctx, n, mediator.WithThrowException()); err != nil {
			r.logger.Error("Ошибка пересылки уведомления", slog.String("message_id", msg.ID.String()), slog.Any("error", err))
			continue
		}

		processedIDs = append(processedIDs, msg.ID)
	}

	if len(processedIDs) > 0 {
		if err := r.storage.MarkProcessed(ctx, processedIDs...); err != nil {
			return err
		}
		r.logger.Debug("Успешно переслано и помечено сообщений", slog.Int("count", len(processedIDs)))
	}

	return nil
}

// Stop останавливает фоновый процесс. Повторный вызов безопасен.
func (r *Retransmitter[T]) Stop() {
	r.stopOnce.Do(func() {
		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.done)
	})
}
