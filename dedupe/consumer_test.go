package dedupe

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
)

type fakeMembership struct {
	seen map[string]bool
}

func newFakeMembership() *fakeMembership { return &fakeMembership{seen: map[string]bool{}} }

func (f *fakeMembership) Add(key []byte) { f.seen[string(key)] = true }

func (f *fakeMembership) Contains(key []byte) bool { return f.seen[string(key)] }

func TestConsumerHandleFirstSeenIsNotDuplicate(t *testing.T) {
	mem := newFakeMembership()
	c := NewConsumer(mem, "id")

	c.handle(&sarama.ConsumerMessage{Topic: "events", Value: []byte(`{"id":"abc"}`), Timestamp: time.Now()})
	require.True(t, mem.Contains([]byte("abc")))
}

func TestConsumerHandleSecondSeenIsDuplicate(t *testing.T) {
	mem := newFakeMembership()
	c := NewConsumer(mem, "id")

	msg := &sarama.ConsumerMessage{Topic: "events", Value: []byte(`{"id":"abc"}`), Timestamp: time.Now()}
	c.handle(msg)
	before := len(mem.seen)
	c.handle(msg)
	require.Equal(t, before, len(mem.seen), "a duplicate add should not change membership state")
}

func TestConsumerHandleMissingKeyPathIsNotFatal(t *testing.T) {
	mem := newFakeMembership()
	c := NewConsumer(mem, "id")

	require.NotPanics(t, func() {
		c.handle(&sarama.ConsumerMessage{Topic: "events", Value: []byte(`{"other":"field"}`), Timestamp: time.Now()})
	})
	require.Empty(t, mem.seen)
}

func TestConsumerHandleNestedKeyPath(t *testing.T) {
	mem := newFakeMembership()
	c := NewConsumer(mem, "payload.request_id")

	c.handle(&sarama.ConsumerMessage{Topic: "events", Value: []byte(`{"payload":{"request_id":"r-1"}}`), Timestamp: time.Now()})
	require.True(t, mem.Contains([]byte("r-1")))
}
