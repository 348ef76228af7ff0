package outbox

import (
	"time"

	"github.com/google/uuid"
)

const (
	// StatusPending означает, что сообщение ожидает отправки.
	StatusPending = "PENDING"
	// StatusProcessed означает, что сообщение было успешно переслано.
	StatusProcessed = "PROCESSED"
)

// Message представляет уведомление, сохраненное в хранилище outbox.
type Message struct {
	ID          uuid.UUID         // Уникальный идентификатор сообщения
	Topic       string            // Имя типа уведомления
	Payload     []byte            // Сериализованное тело уведомления
	Metadata    map[string]string // Метаданные (для трассировки и т.д.)
	Status      string            // Статус (PENDING, PROCESSED)
	CreatedAt   time.Time         // Время создания
	ProcessedAt *time.Time        // Время пересылки
}
