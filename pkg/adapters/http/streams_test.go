package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamManager_Broadcast(t *testing.T) {
	sm := NewStreamManager(nil)
	a, cancelA := sm.Subscribe()
	b, cancelB := sm.Subscribe()
	defer cancelB()
	assert.Equal(t, 2, sm.Len())

	sm.Broadcast("one")
	assert.Equal(t, "one", <-a)
	assert.Equal(t, "one", <-b)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, sm.Len())
}

func TestStreamManager_DropsForSlowClients(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe()
	defer cancel()

	for i := 0; i < 20; i++ {
		sm.Broadcast("x")
	}
	assert.Len(t, ch, cap(ch))
}

func TestStreamManager_Pump(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe()
	defer cancel()

	src := make(chan string, 1)
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sm.Pump(ctx, src)
		close(done)
	}()

	src <- "graph LR"
	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"mermaid":"graph LR"}`, msg)
	case <-time.After(time.Second):
		require.Fail(t, "no message pumped")
	}

	stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "pump did not stop")
	}
}

func TestStreamManager_Close(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe()

	sm.Close()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, sm.Len())

	cancel()
}
