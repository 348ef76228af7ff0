// Package ratelimit содержит пайплайн, ограничивающий частоту запросов,
// проходящих через медиатор.
package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/x-research-team/dtx-mediator/bus/mediator"
)

// ErrRateLimited возвращается в режиме WithFailFast, если лимит исчерпан.
var ErrRateLimited = errors.New("ratelimit: превышен лимит запросов")

// Pipeline пропускает запросы дальше не чаще, чем позволяет лимитер.
type Pipeline struct {
	mediator.BasePipeline
	limiter  *rate.Limiter
	failFast bool
}

// Option настраивает пайплайн ограничения частоты.
type Option func(*Pipeline)

// WithFailFast включает немедленный отказ вместо ожидания токена.
func WithFailFast() Option {
	return func(p *Pipeline) {
		p.failFast = true
	}
}

// NewPipeline создает пайплайн с лимитом limit запросов в секунду и запасом burst.
func NewPipeline(limit rate.Limit, burst int, opts ...Option) *Pipeline {
	p := &Pipeline{
		limiter: rate.NewLimiter(limit, burst),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle дожидается разрешения лимитера и передает запрос дальше.
func (p *Pipeline) Handle(ctx context.Context, req mediator.Request) (mediator.Response, error) {
	next, err := mediator.NextOf(p)
	if err != nil {
		return nil, err
	}

	if p.failFast {
		if !p.limiter.Allow() {
			return nil, fmt.Errorf("запрос '%s': %w", mediator.TypeName(req), ErrRateLimited)
		}
	} else if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("запрос '%s': ожидание лимитера прервано: %w", mediator.TypeName(req), err)
	}

	return next.Handle(ctx, req)
}
