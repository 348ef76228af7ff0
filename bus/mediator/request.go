// Package mediator реализует внутрипроцессный медиатор: вызывающая сторона
// отправляет типизированные запросы и публикует уведомления, не зная о
// конкретных обработчиках. Каждый запрос проходит через упорядоченную цепочку
// пайплайнов, последним звеном которой всегда является DefaultPipeline,
// вызывающий зарегистрированный обработчик.
package mediator

import (
	"context"
)

// Request представляет собой интерфейс-маркер для запроса.
// Запрос идентифицируется своим типом времени выполнения.
type Request any

// Response - результат обработки запроса.
type Response any

// Notification - широковещательное уведомление, доставляемое нулю или более
// обработчикам.
type Notification any

// Result - значение, которое асинхронный обработчик передает через канал.
type Result struct {
	Response Response
	Err      error
}

// Handler - блокирующий обработчик запроса.
type Handler interface {
	Handle(ctx context.Context, req Request) (Response, error)
}

// HandlerFunc является адаптером, позволяющим использовать обычные функции как Handler.
type HandlerFunc func(ctx context.Context, req Request) (Response, error)

// Handle реализует интерфейс Handler.
func (f HandlerFunc) Handle(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// AsyncHandler - обработчик, результат которого становится доступен позже.
// Канал должен получить ровно одно значение.
type AsyncHandler interface {
	HandleAsync(ctx context.Context, req Request) <-chan Result
}

// AsyncHandlerFunc является адаптером для функций вида AsyncHandler.
type AsyncHandlerFunc func(ctx context.Context, req Request) <-chan Result

// HandleAsync реализует интерфейс AsyncHandler.
func (f AsyncHandlerFunc) HandleAsync(ctx context.Context, req Request) <-chan Result {
	return f(ctx, req)
}

// NotificationHandler обрабатывает уведомление.
type NotificationHandler interface {
	Handle(ctx context.Context, n Notification) error
}

// NotificationHandlerFunc является адаптером для функций-обработчиков уведомлений.
type NotificationHandlerFunc func(ctx context.Context, n Notification) error

// Handle реализует интерфейс NotificationHandler.
func (f NotificationHandlerFunc) Handle(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Metadatable определяет интерфейс для объектов, которые могут нести метаданные.
type Metadatable interface {
	Metadata() map[string]string
}

// awaitHandler приводит AsyncHandler к Handler, дожидаясь результата.
// Создается один раз при регистрации, поэтому DefaultPipeline не различает
// способ вызова обработчика.
type awaitHandler struct {
	async AsyncHandler
}

// Handle ожидает результат асинхронного обработчика или отмену контекста.
func (h *awaitHandler) Handle(ctx context.Context, req Request) (Response, error) {
	ch := h.async.HandleAsync(ctx, req)
	if ch == nil {
		return nil, ErrInvalidHandler
	}

	select {
	case res, ok := <-ch:
		if !ok {
			return nil, ErrInvalidHandler
		}
		return res.Response, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
