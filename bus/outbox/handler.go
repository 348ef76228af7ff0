// Package outbox реализует паттерн Transactional Outbox для уведомлений
// медиатора: Handler сохраняет уведомления в Storage, а Retransmitter
// пересылает их получателю, когда тот доступен.
package outbox

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/x-research-team/dtx-mediator/bus/mediator"
)

// NewHandler создает обработчик уведомлений, сохраняющий их в storage.
func NewHandler(storage Storage, opts ...Option) *Handler {
	h := &Handler{
		storage: storage,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handler - обработчик уведомлений, который вместо доставки пишет их в Storage.
// Регистрируется в контейнере медиатора как обычный NotificationHandler.
type Handler struct {
	storage Storage
	topic   string
}

// Handle сериализует уведомление и сохраняет его со статусом PENDING.
// Уведомления, пересылаемые Retransmitter, повторно не сохраняются.
func (h *Handler) Handle(ctx context.Context, n mediator.Notification) error {
	if IsRedelivery(ctx) {
		return nil
	}

	payload, err := sonic.Marshal(n)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать уведомление '%s': %w", mediator.TypeName(n), err)
	}

	topic := h.topic
	if topic == "" {
		topic = mediator.TypeName(n)
	}

	var metadata map[string]string
	if md, ok := n.(mediator.Metadatable); ok {
		metadata = maps.Clone(md.Metadata())
	}

	msg := &Message{
		ID:        uuid.New(),
		Topic:     topic,
		Payload:   payload,
		Metadata:  metadata,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	return h.storage.Save(ctx, msg)
}

type redeliveryKey struct{}

// withRedelivery помечает контекст пересылки из outbox.
func withRedelivery(ctx context.Context) context.Context {
	return context.WithValue(ctx, redeliveryKey{}, true)
}

// IsRedelivery сообщает, что уведомление пересылается из outbox.
func IsRedelivery(ctx context.Context) bool {
	v, _ := ctx.Value(redeliveryKey{}).(bool)
	return v
}
