package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
)

// queueClient serves queued messages, then cancels the context.
type queueClient struct {
	msgs      []kafka.Message
	cancel    context.CancelFunc
	committed []int64
}

func (q *queueClient) Fetch(ctx context.Context) (kafka.Message, error) {
	if len(q.msgs) == 0 {
		q.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := q.msgs[0]
	q.msgs = q.msgs[1:]
	return m, nil
}

func (q *queueClient) Commit(_ context.Context, msg kafka.Message) error {
	q.committed = append(q.committed, msg.Offset)
	return nil
}

type handlerFunc func(ctx context.Context, msg kafka.Message) error

func (f handlerFunc) Handle(ctx context.Context, msg kafka.Message) error { return f(ctx, msg) }

func TestConsumeCommitsHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	qc := &queueClient{
		msgs:   []kafka.Message{{Offset: 1, Value: []byte("ok")}, {Offset: 2, Value: []byte("bad")}, {Offset: 3, Value: []byte("ok")}},
		cancel: cancel,
	}
	var handled []int64
	c := &Consumer{
		client:   qc,
		strategy: retry.Strategy{Attempts: 1},
		jobHandler: handlerFunc(func(_ context.Context, msg kafka.Message) error {
			handled = append(handled, msg.Offset)
			if string(msg.Value) == "bad" {
				return errors.New("rejected")
			}
			return nil
		}),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	c.Consume(ctx, &wg)

	if len(handled) != 3 {
		t.Fatalf("handled %v", handled)
	}
	if len(qc.committed) != 2 || qc.committed[0] != 1 || qc.committed[1] != 3 {
		t.Fatalf("committed %v", qc.committed)
	}
}
