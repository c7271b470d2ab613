package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollix/internal/rollup"
)

func TestDeliveryQueue_FIFO(t *testing.T) {
	q := newDeliveryQueue()

	for i := uint64(1); i <= 3; i++ {
		require.True(t, q.Enqueue(EventDelivery(rollup.Witness{}, []uint64{i})))
	}
	assert.Equal(t, 3, q.Len())

	for i := uint64(1); i <= 3; i++ {
		d, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, []uint64{i}, d.Words)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestDeliveryQueue_ClosedRejectsEnqueue(t *testing.T) {
	q := newDeliveryQueue()
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(Delivery{Type: DeliveryEvent}))
	assert.True(t, q.closedAndEmpty())
}

func TestDeliveryQueue_CloseWakesWaiter(t *testing.T) {
	q := newDeliveryQueue()

	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()

	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}
}

func TestDeliveryType_String(t *testing.T) {
	assert.Equal(t, "event", DeliveryEvent.String())
	assert.Equal(t, "commit", DeliveryCommit.String())
	assert.Equal(t, "delivery(9)", DeliveryType(9).String())
}
