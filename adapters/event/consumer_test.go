package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeReader hands out queued messages and reports io.EOF once drained.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if len(r.queue) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

type outcomes struct {
	mu   sync.Mutex
	seen []string
}

func (o *outcomes) EventProcessed(_, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, outcome)
}

func productMessage(t *testing.T, offset int64, id int64) kafka.Message {
	t.Helper()
	value, err := json.Marshal(service.ProductEvent{Type: service.ProductEventImageUploaded, ProductID: id})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: value}
}

func TestConsumer_OutcomesAndCommits(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		productMessage(t, 1, 10),
		{Offset: 2, Value: []byte("{not json")},
		productMessage(t, 3, 13),
		productMessage(t, 4, 14),
	}}

	calls := map[int64]int{}
	handler := JSONHandler(func(_ context.Context, e service.ProductEvent) error {
		calls[e.ProductID]++
		switch e.ProductID {
		case 13:
			if calls[13] < 3 {
				return errors.New("database busy")
			}
		case 14:
			return errors.New("always broken")
		}
		return nil
	})

	obs := &outcomes{}
	consumer := NewConsumer(reader, TopicProductEvents, handler, obs,
		ConsumerOptions{MaxAttempts: 3, RetryDelay: time.Millisecond}, logger.NewNopLogger())

	require.NoError(t, consumer.Run(context.Background()))

	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committed)
	assert.Equal(t, []string{OutcomeProcessed, OutcomeUndecodable, OutcomeProcessed, OutcomeFailed}, obs.seen)
	assert.Equal(t, 3, calls[13])
	assert.Equal(t, 3, calls[14])
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{queue: []kafka.Message{productMessage(t, 1, 1)}}

	handler := func(ctx context.Context, _ kafka.Message) error {
		cancel()
		return errors.New("interrupted")
	}
	consumer := NewConsumer(reader, TopicExportEvents, handler, nil,
		ConsumerOptions{MaxAttempts: 5, RetryDelay: time.Hour}, logger.NewNopLogger())

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
	err    error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_KeysAndPayloads(t *testing.T) {
	users, products, exports := &recordingWriter{}, &recordingWriter{}, &recordingWriter{}
	client := &KafkaProducerClient{userWriter: users, productWriter: products, exportWriter: exports, logger: logger.NewNopLogger()}
	ctx := context.Background()

	jobID := uuid.New()
	require.NoError(t, client.PublishProductEvent(ctx, service.ProductEvent{Type: service.ProductEventCreated, ProductID: 42}))
	require.NoError(t, client.PublishExportEvent(ctx, service.ExportEvent{Type: service.ExportEventRequested, JobID: jobID, Kind: "users"}))

	require.Len(t, products.msgs, 1)
	assert.Equal(t, "42", string(products.msgs[0].Key))
	var decoded service.ProductEvent
	require.NoError(t, json.Unmarshal(products.msgs[0].Value, &decoded))
	assert.Equal(t, service.ProductEventCreated, decoded.Type)

	require.Len(t, exports.msgs, 1)
	assert.Equal(t, jobID.String(), string(exports.msgs[0].Key))
	assert.Empty(t, users.msgs)

	users.err = errors.New("leader not available")
	assert.Error(t, client.PublishUserEvent(ctx, service.UserEvent{UserID: uuid.New()}))

	client.Close()
	assert.True(t, users.closed && products.closed && exports.closed)
}
