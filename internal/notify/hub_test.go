package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHub_PublishInSubscriptionOrder(t *testing.T) {
	hub := NewHub[int]()

	var got []string
	hub.Subscribe(func(v int) { got = append(got, "first") })
	hub.Subscribe(func(v int) { got = append(got, "second") })

	hub.Publish(1)

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub[string]()

	calls := 0
	unsubscribe := hub.Subscribe(func(string) { calls++ })
	hub.Publish("a")

	unsubscribe()
	unsubscribe()
	hub.Publish("b")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, hub.Len())
}

func TestHub_UnsubscribeDuringPublish(t *testing.T) {
	hub := NewHub[int]()

	calls := 0
	var unsubscribe func()
	unsubscribe = hub.Subscribe(func(int) {
		calls++
		unsubscribe()
	})

	hub.Publish(1)
	hub.Publish(2)

	assert.Equal(t, 1, calls)
}

func TestHub_NilHandler(t *testing.T) {
	hub := NewHub[int]()
	unsubscribe := hub.Subscribe(nil)
	unsubscribe()

	assert.Equal(t, 0, hub.Len())
	assert.NotPanics(t, func() { hub.Publish(1) })
}

func TestHub_ConcurrentSubscribePublish(t *testing.T) {
	hub := NewHub[int]()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsubscribe := hub.Subscribe(func(v int) {
				mu.Lock()
				total += v
				mu.Unlock()
			})
			hub.Publish(1)
			unsubscribe()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Len())
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, total, 20)
}
