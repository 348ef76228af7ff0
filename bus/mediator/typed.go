package mediator

import (
	"context"
	"fmt"
)

// RequestHandler определяет строго типизированную функцию-обработчик для запроса Q,
// которая возвращает результат типа R.
type RequestHandler[Q Request, R Response] func(ctx context.Context, req Q) (R, error)

// Handle реализует интерфейс Handler.
func (f RequestHandler[Q, R]) Handle(ctx context.Context, req Request) (Response, error) {
	q, ok := req.(Q)
	if !ok {
		var want Q
		return nil, fmt.Errorf("%w: ожидался запрос '%s', получен '%s'", ErrInvalidRequest, TypeName(want), TypeName(req))
	}
	return f(ctx, q)
}

// NotificationHandlerOf - строго типизированный обработчик уведомления N.
type NotificationHandlerOf[N Notification] func(ctx context.Context, n N) error

// Handle реализует интерфейс NotificationHandler.
func (f NotificationHandlerOf[N]) Handle(ctx context.Context, n Notification) error {
	typed, ok := n.(N)
	if !ok {
		var want N
		return fmt.Errorf("%w: ожидалось уведомление '%s', получено '%s'", ErrInvalidRequest, TypeName(want), TypeName(n))
	}
	return f(ctx, typed)
}

// Register связывает тип Q со строго типизированным обработчиком.
// Для указательных типов используется nil-значение *T, так что регистрировать
// нужно тот же вид типа, который передается в Send.
func Register[Q Request, R Response](c *Container, handler RequestHandler[Q, R]) error {
	var q Q
	if handler == nil {
		return fmt.Errorf("запрос '%s': %w", TypeName(q), ErrInvalidHandler)
	}
	return c.RegisterRequest(q, handler)
}

// RegisterNotifications сохраняет список строго типизированных обработчиков уведомления N.
func RegisterNotifications[N Notification](c *Container, handlers ...NotificationHandlerOf[N]) error {
	var n N
	list := make([]NotificationHandler, 0, len(handlers))
	for i, h := range handlers {
		if h == nil {
			return fmt.Errorf("уведомление '%s', обработчик #%d: %w", TypeName(n), i, ErrInvalidHandler)
		}
		list = append(list, h)
	}
	return c.RegisterNotification(n, list...)
}

// Send отправляет запрос и приводит ответ к типу R.
func Send[R Response](ctx context.Context, m IMediator, req Request) (R, error) {
	var zero R

	resp, err := m.Send(ctx, req)
	if err != nil {
		return zero, err
	}
	if resp == nil {
		return zero, nil
	}

	typed, ok := resp.(R)
	if !ok {
		return zero, fmt.Errorf("%w: ожидался '%s', получен '%s'", ErrUnexpectedResponse, TypeName(zero), TypeName(resp))
	}
	return typed, nil
}
