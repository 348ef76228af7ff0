package mediator

import (
	"context"
	"fmt"
)

// DefaultPipeline - завершающее звено цепочки. Он находит в контейнере
// обработчик по типу запроса и вызывает его. Следующего звена у него нет.
type DefaultPipeline struct {
	container *Container
}

// NewDefaultPipeline создает завершающее звено, работающее с контейнером c.
func NewDefaultPipeline(c *Container) *DefaultPipeline {
	return &DefaultPipeline{container: c}
}

// Handle находит и выполняет обработчик для указанного запроса.
// Ошибка обработчика возвращается без изменений.
func (p *DefaultPipeline) Handle(ctx context.Context, req Request) (Response, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	entry, ok := p.container.handler(req)
	if !ok {
		return nil, &HandlerNotFoundError{RequestType: TypeName(req)}
	}

	if isNil(entry.handler) {
		return nil, fmt.Errorf("запрос '%s': %w", entry.name, ErrInvalidHandler)
	}

	return entry.handler.Handle(ctx, req)
}

// SetNext ничего не делает: DefaultPipeline всегда последний.
func (p *DefaultPipeline) SetNext(Pipeline) {}

// Next всегда возвращает nil.
func (p *DefaultPipeline) Next() Pipeline { return nil }

// HasNext всегда возвращает false.
func (p *DefaultPipeline) HasNext() bool { return false }
