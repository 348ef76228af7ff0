package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Storage определяет контракт для персистентного хранения сообщений outbox.
// Все операции должны быть потокобезопасными.
type Storage interface {
	// Save сохраняет сообщение в хранилище.
	Save(ctx context.Context, msg *Message) error

	// Fetch извлекает необработанные сообщения топика в порядке создания.
	Fetch(ctx context.Context, topic string, limit int) ([]*Message, error)

	// MarkProcessed помечает сообщения как обработанные.
	MarkProcessed(ctx context.Context, ids ...uuid.UUID) error
}
