package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/x-research-team/dtx-mediator/bus/mediator"
	"github.com/x-research-team/dtx-mediator/bus/mediator/ratelimit"
)

type ping struct{}

func newMediator(t *testing.T, p mediator.Pipeline) mediator.IMediator {
	t.Helper()

	c := mediator.NewContainer()
	require.NoError(t, c.RegisterRequest(ping{}, mediator.HandlerFunc(func(ctx context.Context, req mediator.Request) (mediator.Response, error) {
		return "pong", nil
	})))
	require.NoError(t, c.RegisterPipeline(p))

	m, err := mediator.New(c)
	require.NoError(t, err)
	return m
}

func TestPipeline_FailFast(t *testing.T) {
	t.Parallel()

	m := newMediator(t, ratelimit.NewPipeline(rate.Every(time.Hour), 2, ratelimit.WithFailFast()))

	for i := 0; i < 2; i++ {
		resp, err := m.Send(context.Background(), ping{})
		require.NoError(t, err)
		assert.Equal(t, "pong", resp)
	}

	_, err := m.Send(context.Background(), ping{})
	require.ErrorIs(t, err, ratelimit.ErrRateLimited)
	assert.Contains(t, err.Error(), "ratelimit_test.ping")
}

func TestPipeline_WaitCanceledByContext(t *testing.T) {
	t.Parallel()

	m := newMediator(t, ratelimit.NewPipeline(rate.Every(time.Hour), 1))

	_, err := m.Send(context.Background(), ping{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = m.Send(ctx, ping{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ratelimit.ErrRateLimited)
}

func TestPipeline_Wait(t *testing.T) {
	t.Parallel()

	m := newMediator(t, ratelimit.NewPipeline(rate.Every(10*time.Millisecond), 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := m.Send(context.Background(), ping{})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestPipeline_NoNext(t *testing.T) {
	t.Parallel()

	_, err := ratelimit.NewPipeline(rate.Inf, 1).Handle(context.Background(), ping{})
	require.ErrorIs(t, err, mediator.ErrNoNextPipeline)
}
