package outbox

// Option определяет функцию для конфигурации Handler.
type Option func(*Handler)

// WithTopic устанавливает топик, в который будут сохраняться сообщения.
// По умолчанию топиком служит имя типа уведомления.
func WithTopic(topic string) Option {
	return func(h *Handler) {
		h.topic = topic
	}
}
