package outbox

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-research-team/dtx-mediator/bus/mediator"
)

// orderPlaced - тестовое уведомление с метаданными.
type orderPlaced struct {
	OrderID string            `json:"order_id"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func (o *orderPlaced) Metadata() map[string]string {
	return o.Meta
}

// memoryStorage - потокобезопасное хранилище в памяти.
type memoryStorage struct {
	mu       sync.Mutex
	messages []*Message
}

func (s *memoryStorage) Save(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *memoryStorage) Fetch(_ context.Context, topic string, limit int) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Message
	for _, msg := range s.messages {
		if msg.Topic == topic && msg.Status == StatusPending && len(out) < limit {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *memoryStorage) MarkProcessed(_ context.Context, ids ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, msg := range s.messages {
		for _, id := range ids {
			if msg.ID == id {
				msg.Status = StatusProcessed
				msg.ProcessedAt = &now
			}
		}
	}
	return nil
}

func (s *memoryStorage) statuses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.messages))
	for _, msg := range s.messages {
		out = append(out, msg.Status)
	}
	return out
}

// recordingPublisher запоминает пересланные уведомления.
type recordingPublisher struct {
	mu        sync.Mutex
	published []*orderPlaced
	failOn    string
}

func (p *recordingPublisher) Publish(_ context.Context, n mediator.Notification, _ ...mediator.PublishOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	order := n.(*orderPlaced)
	if order.OrderID == p.failOn {
		return errors.New("получатель недоступен")
	}
	p.published = append(p.published, order)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func TestHandler_SavesPending(t *testing.T) {
	t.Parallel()

	storage := &memoryStorage{}
	c := mediator.NewContainer()
	require.NoError(t, c.RegisterNotification(&orderPlaced{}, NewHandler(storage)))
	m, err := mediator.New(c)
	require.NoError(t, err)

	n := &orderPlaced{OrderID: "o-1", Meta: map[string]string{"traceparent": "00-abc"}}
	require.NoError(t, m.Publish(context.Background(), n, mediator.WithThrowException()))

	require.Len(t, storage.messages, 1)
	msg := storage.messages[0]
	assert.Equal(t, "*outbox.orderPlaced", msg.Topic)
	assert.Equal(t, StatusPending, msg.Status)
	assert.Equal(t, map[string]string{"traceparent": "00-abc"}, msg.Metadata)
	assert.JSONEq(t, `{"order_id":"o-1","meta":{"traceparent":"00-abc"}}`, string(msg.Payload))
	assert.NotEqual(t, uuid.Nil, msg.ID)

	n.Meta["traceparent"] = "changed"
	assert.Equal(t, "00-abc", msg.Metadata["traceparent"], "метаданные копируются")
}

func TestHandler_WithTopic(t *testing.T) {
	t.Parallel()

	storage := &memoryStorage{}
	h := NewHandler(storage, WithTopic("orders"))

	require.NoError(t, h.Handle(context.Background(), &orderPlaced{OrderID: "o-1"}))
	require.Len(t, storage.messages, 1)
	assert.Equal(t, "orders", storage.messages[0].Topic)
}

func TestRetransmitter_ProcessBatch(t *testing.T) {
	t.Parallel()

	storage := &memoryStorage{}
	h := NewHandler(storage)
	for _, id := range []string{"o-1", "o-2", "o-3"} {
		require.NoError(t, h.Handle(context.Background(), &orderPlaced{OrderID: id}))
	}

	publisher := &recordingPublisher{failOn: "o-2"}
	var logs bytes.Buffer
	r := NewRetransmitter[*orderPlaced](storage, publisher,
		WithLimit[*orderPlaced](10),
		WithLogger[*orderPlaced](slog.New(slog.NewTextHandler(&logs, nil))),
	)

	require.NoError(t, r.processBatch(context.Background()))

	assert.Equal(t, 2, publisher.count())
	assert.Equal(t, []string{StatusProcessed, StatusPending, StatusProcessed}, storage.statuses())
	assert.Contains(t, logs.String(), "получатель недоступен")

	publisher.failOn = ""
	require.NoError(t, r.processBatch(context.Background()))
	assert.Equal(t, 3, publisher.count())
	assert.Equal(t, []string{StatusProcessed, StatusProcessed, StatusProcessed}, storage.statuses())
}

// Тест на пересылку через тот же медиатор, в котором зарегистрирован Handler.
func TestRetransmitter_SameMediator(t *testing.T) {
	t.Parallel()

	storage := &memoryStorage{}
	var delivered []string

	c := mediator.NewContainer()
	require.NoError(t, c.RegisterNotification(&orderPlaced{},
		NewHandler(storage),
		mediator.NotificationHandlerFunc(func(ctx context.Context, n mediator.Notification) error {
			if IsRedelivery(ctx) {
				delivered = append(delivered, n.(*orderPlaced).OrderID)
			}
			return nil
		}),
	))
	m, err := mediator.New(c)
	require.NoError(t, err)

	require.NoError(t, m.Publish(context.Background(), &orderPlaced{OrderID: "o-1"}, mediator.WithThrowException()))
	assert.False(t, IsRedelivery(context.Background()))

	r := NewRetransmitter[*orderPlaced](storage, m)
	for i := 0; i < 3; i++ {
		require.NoError(t, r.processBatch(context.Background()))
	}

	assert.Equal(t, []string{StatusProcessed}, storage.statuses(), "пересылка не создает новых сообщений")
	assert.Equal(t, []string{"o-1"}, delivered)
}

func TestRetransmitter_TopicIsolation(t *testing.T) {
	t.Parallel()

	storage := &memoryStorage{}
	require.NoError(t, NewHandler(storage, WithTopic("orders")).Handle(context.Background(), &orderPlaced{OrderID: "o-1"}))

	publisher := &recordingPublisher{}
	r := NewRetransmitter[*orderPlaced](storage, publisher)
	require.NoError(t, r.processBatch(context.Background()))
	assert.Zero(t, publisher.count(), "сообщения чужого топика не пересылаются")

	r = NewRetransmitter[*orderPlaced](storage, publisher, WithRetransmitTopic[*orderPlaced]("orders"))
	require.NoError(t, r.processBatch(context.Background()))
	assert.Equal(t, 1, publisher.count())
}

func TestRetransmitter_StartStop(t *testing.T) {
	t.Parallel()

	storage := &memoryStorage{}
	require.NoError(t, NewHandler(storage).Handle(context.Background(), &orderPlaced{OrderID: "o-1"}))

	publisher := &recordingPublisher{}
	r := NewRetransmitter[*orderPlaced](storage, publisher, WithInterval[*orderPlaced](5*time.Millisecond))
	r.Start()

	assert.Eventually(t, func() bool {
		return publisher.count() == 1
	}, time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()
}
