// Package validation содержит пайплайн, проверяющий запросы по тегам
// `validate` до того, как они попадут к обработчику.
package validation

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-reflect"

	"github.com/x-research-team/dtx-mediator/bus/mediator"
)

// Validatable реализуется запросами с собственной проверкой.
// Она выполняется после проверки по тегам.
type Validatable interface {
	Validate() error
}

// Pipeline проверяет запрос и при ошибке не вызывает следующее звено.
type Pipeline struct {
	mediator.BasePipeline
	validate *validator.Validate
}

// Option настраивает пайплайн валидации.
type Option func(*Pipeline)

// WithValidator заменяет экземпляр validator, например, с зарегистрированными
// пользовательскими правилами.
func WithValidator(v *validator.Validate) Option {
	return func(p *Pipeline) {
		if v != nil {
			p.validate = v
		}
	}
}

// NewPipeline создает пайплайн валидации.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle проверяет структуру запроса и передает его дальше.
func (p *Pipeline) Handle(ctx context.Context, req mediator.Request) (mediator.Response, error) {
	next, err := mediator.NextOf(p)
	if err != nil {
		return nil, err
	}

	if isStruct(req) {
		if err := p.validate.StructCtx(ctx, req); err != nil {
			return nil, fmt.Errorf("запрос '%s' не прошел валидацию: %w", mediator.TypeName(req), err)
		}
	}

	if v, ok := req.(Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("запрос '%s' не прошел валидацию: %w", mediator.TypeName(req), err)
		}
	}

	return next.Handle(ctx, req)
}

// isStruct сообщает, можно ли передать значение в StructCtx.
func isStruct(v any) bool {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return false
		}
		val = val.Elem()
	}
	return val.Kind() == reflect.Struct
}
