package mediator

import (
	"context"

	"github.com/goccy/go-reflect"
)

// Pipeline - звено цепочки обработки запроса.
// Звено либо возвращает ответ самостоятельно, либо делегирует запрос Next().
type Pipeline interface {
	// Handle обрабатывает запрос.
	Handle(ctx context.Context, req Request) (Response, error)

	// SetNext устанавливает следующее звено цепочки.
	SetNext(next Pipeline)

	// Next возвращает следующее звено или nil.
	Next() Pipeline

	// HasNext сообщает, установлено ли следующее звено.
	HasNext() bool
}

// BasePipeline хранит ссылку на следующее звено и встраивается в конкретные пайплайны.
type BasePipeline struct {
	next Pipeline
}

// SetNext устанавливает следующее звено.
func (b *BasePipeline) SetNext(next Pipeline) {
	b.next = next
}

// Next возвращает следующее звено.
func (b *BasePipeline) Next() Pipeline {
	return b.next
}

// HasNext сообщает, установлено ли следующее звено.
func (b *BasePipeline) HasNext() bool {
	return b.next != nil
}

// NextOf возвращает следующее звено пайплайна p, проверяя, что им можно воспользоваться.
// Промежуточные пайплайны вызывают ее на каждом запросе, даже если собираются
// вернуть ответ без делегирования.
func NextOf(p Pipeline) (Pipeline, error) {
	if !p.HasNext() {
		return nil, ErrNoNextPipeline
	}

	next := p.Next()
	if isNil(next) {
		return nil, ErrInvalidNextPipeline
	}

	return next, nil
}

// PipelineFunc позволяет описать промежуточный пайплайн одной функцией.
// Функция получает уже проверенное следующее звено.
type PipelineFunc func(ctx context.Context, req Request, next Pipeline) (Response, error)

// funcPipeline - пайплайн на основе PipelineFunc.
type funcPipeline struct {
	BasePipeline
	fn PipelineFunc
}

// NewPipelineFunc оборачивает функцию в Pipeline.
func NewPipelineFunc(fn PipelineFunc) Pipeline {
	return &funcPipeline{fn: fn}
}

// Handle проверяет следующее звено и вызывает функцию.
func (p *funcPipeline) Handle(ctx context.Context, req Request) (Response, error) {
	next, err := NextOf(p)
	if err != nil {
		return nil, err
	}
	return p.fn(ctx, req, next)
}

// TypeName возвращает имя типа времени выполнения, по которому медиатор
// сопоставляет запросы и уведомления с обработчиками.
func TypeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

// isNil распознает как пустой интерфейс, так и интерфейс с типизированным nil внутри.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return val.IsNil()
	default:
		return false
	}
}
