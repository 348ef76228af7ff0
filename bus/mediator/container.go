package mediator

import (
	"fmt"
	"sync"

	"github.com/goccy/go-reflect"
)

// Container - реестр медиатора. Он связывает типы запросов с обработчиками,
// типы уведомлений со списками обработчиков и хранит упорядоченный список
// пайплайнов. После PreparePipes контейнер замораживается и любые попытки
// регистрации завершаются ошибкой ErrContainerFrozen.
type Container struct {
	requests      map[reflect.Type]requestEntry
	notifications map[reflect.Type]notificationEntry
	pipelines     []Pipeline
	frozen        bool
	mu            sync.RWMutex
}

type requestEntry struct {
	name    string
	handler Handler
}

type notificationEntry struct {
	name     string
	handlers []NotificationHandler
}

// NewContainer создает пустой контейнер.
func NewContainer() *Container {
	return &Container{
		requests:      make(map[reflect.Type]requestEntry),
		notifications: make(map[reflect.Type]notificationEntry),
	}
}

// RegisterRequest связывает тип запроса req с блокирующим обработчиком.
// Повторная регистрация того же типа возвращает ErrAlreadyRegistered.
func (c *Container) RegisterRequest(req Request, handler Handler) error {
	if isNil(handler) {
		return fmt.Errorf("запрос '%s': %w", TypeName(req), ErrInvalidHandler)
	}
	return c.registerRequest(req, handler)
}

// RegisterAsyncRequest связывает тип запроса req с асинхронным обработчиком.
// Обработчик один раз приводится к Handler, ожидающему результат.
func (c *Container) RegisterAsyncRequest(req Request, handler AsyncHandler) error {
	if isNil(handler) {
		return fmt.Errorf("запрос '%s': %w", TypeName(req), ErrInvalidHandler)
	}
	return c.registerRequest(req, &awaitHandler{async: handler})
}

func (c *Container) registerRequest(req Request, handler Handler) error {
	if req == nil {
		return ErrInvalidRequest
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return ErrContainerFrozen
	}

	reqType := reflect.TypeOf(req)
	if _, exists := c.requests[reqType]; exists {
		return fmt.Errorf("обработчик для запроса '%s' уже зарегистрирован: %w", reqType, ErrAlreadyRegistered)
	}

	c.requests[reqType] = requestEntry{name: reqType.String(), handler: handler}
	return nil
}

// RegisterNotification сохраняет упорядоченный список обработчиков для типа
// уведомления n, заменяя ранее зарегистрированный список.
func (c *Container) RegisterNotification(n Notification, handlers ...NotificationHandler) error {
	if n == nil {
		return ErrInvalidRequest
	}
	for i, h := range handlers {
		if isNil(h) {
			return fmt.Errorf("уведомление '%s', обработчик #%d: %w", TypeName(n), i, ErrInvalidHandler)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return ErrContainerFrozen
	}

	nType := reflect.TypeOf(n)
	c.notifications[nType] = notificationEntry{
		name:     nType.String(),
		handlers: append([]NotificationHandler(nil), handlers...),
	}
	return nil
}

// RegisterPipeline добавляет пайплайн в конец списка. Порядок вызовов
// определяет порядок выполнения.
func (c *Container) RegisterPipeline(p Pipeline) error {
	if isNil(p) {
		return ErrInvalidPipeline
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return ErrContainerFrozen
	}

	c.pipelines = append(c.pipelines, p)
	return nil
}

// GetRequests возвращает копию соответствия "имя типа запроса -> обработчик".
func (c *Container) GetRequests() map[string]Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Handler, len(c.requests))
	for _, e := range c.requests {
		out[e.name] = e.handler
	}
	return out
}

// GetNotifications возвращает копию соответствия "имя типа уведомления -> обработчики".
func (c *Container) GetNotifications() map[string][]NotificationHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]NotificationHandler, len(c.notifications))
	for _, e := range c.notifications {
		out[e.name] = append([]NotificationHandler(nil), e.handlers...)
	}
	return out
}

// GetPipelines возвращает копию списка пайплайнов в порядке регистрации.
func (c *Container) GetPipelines() []Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Pipeline(nil), c.pipelines...)
}

// PreparePipes связывает зарегистрированные пайплайны в порядке регистрации,
// направляет последний на terminal и возвращает голову цепочки. Если пайплайнов
// нет, головой является terminal. После успешного вызова контейнер заморожен,
// и повторная подготовка возвращает ErrContainerFrozen.
func (c *Container) PreparePipes(terminal Pipeline) (Pipeline, error) {
	return c.prepare(terminal)
}

// prepare собирает цепочку из leading, зарегистрированных пайплайнов и terminal.
func (c *Container) prepare(terminal Pipeline, leading ...Pipeline) (Pipeline, error) {
	if isNil(terminal) {
		return nil, ErrInvalidPipeline
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return nil, ErrContainerFrozen
	}

	stages := make([]Pipeline, 0, len(leading)+len(c.pipelines))
	stages = append(stages, leading...)
	stages = append(stages, c.pipelines...)

	seen := make(map[uintptr]struct{}, len(stages)+1)
	for _, p := range append(stages, terminal) {
		if isNil(p) {
			return nil, ErrInvalidPipeline
		}
		val := reflect.ValueOf(p)
		if val.Kind() != reflect.Ptr {
			continue
		}
		if _, dup := seen[val.Pointer()]; dup {
			return nil, fmt.Errorf("%w: пайплайн '%s' встречается в цепочке дважды", ErrConfiguration, TypeName(p))
		}
		seen[val.Pointer()] = struct{}{}
	}

	for i, p := range stages {
		if i+1 < len(stages) {
			p.SetNext(stages[i+1])
		} else {
			p.SetNext(terminal)
		}
	}

	c.frozen = true

	if len(stages) == 0 {
		return terminal, nil
	}
	return stages[0], nil
}

// Freeze запрещает дальнейшую регистрацию.
func (c *Container) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// IsFrozen сообщает, заморожен ли контейнер.
func (c *Container) IsFrozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// handler возвращает обработчик для типа запроса req.
func (c *Container) handler(req Request) (requestEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.requests[reflect.TypeOf(req)]
	return e, ok
}

// notificationHandlers возвращает список обработчиков для типа уведомления n.
// Срез не копируется: медиатор вызывает метод только после заморозки,
// когда список больше не меняется.
func (c *Container) notificationHandlers(n Notification) []NotificationHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.notifications[reflect.TypeOf(n)].handlers
}
