package mermaidviz_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/mermaidviz"
	"github.com/aretw0/mermaidviz/pkg/adapters/memory"
	"github.com/aretw0/mermaidviz/pkg/adapters/redis"
	"github.com/aretw0/mermaidviz/pkg/domain"
	"github.com/aretw0/mermaidviz/pkg/keylock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator records prompts and returns a canned answer.
type fakeGenerator struct {
	answer string
	err    error
	delay  time.Duration
	calls  atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.answer, f.err
}

func TestNew_RequiresGenerator(t *testing.T) {
	_, err := mermaidviz.New(nil)
	assert.Error(t, err)
}

func TestConvert_ReturnsAnswerVerbatim(t *testing.T) {
	gen := &fakeGenerator{answer: "```mermaid\ngraph TD\n  A --> B\n```\n"}
	conv, err := mermaidviz.New(gen)
	require.NoError(t, err)

	got, err := conv.Convert(context.Background(), "A leads to B")
	require.NoError(t, err)
	assert.Equal(t, gen.answer, got)

	require.Len(t, gen.prompts, 1)
	assert.Equal(t,
		"Convert the following text into a proper Mermaid diagram syntax. Only return the Mermaid code without any explanation:\n\nA leads to B",
		gen.prompts[0],
	)
}

func TestConvert_StripFences(t *testing.T) {
	gen := &fakeGenerator{answer: "```mermaid\ngraph TD\n  A --> B\n```"}
	conv, err := mermaidviz.New(gen, mermaidviz.WithStripFences(true))
	require.NoError(t, err)

	got, err := conv.Convert(context.Background(), "A leads to B")
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n  A --> B", got)
}

func TestConvert_StripFencesEmptyBody(t *testing.T) {
	for _, answer := range []string{"```mermaid\n```", "```\n\n```\n"} {
		gen := &fakeGenerator{answer: answer}
		conv, err := mermaidviz.New(gen, mermaidviz.WithStripFences(true))
		require.NoError(t, err)

		_, err = conv.Convert(context.Background(), "A leads to B")
		assert.ErrorIs(t, err, domain.ErrEmptyAnswer, "answer %q", answer)
	}
}

func TestConvert_RejectsBeforeCallingUpstream(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"Empty", "", domain.ErrEmptyInput},
		{"Whitespace", "  \n\t ", domain.ErrEmptyInput},
		{"Only Control Chars", "\x00\x07", domain.ErrEmptyInput},
		{"Too Large", strings.Repeat("a", 11), mermaidviz.ErrInputTooLarge},
		{"Invalid UTF-8", "\xbd\xb2", mermaidviz.ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{answer: "graph TD"}
			conv, err := mermaidviz.New(gen, mermaidviz.WithMaxInputSize(10))
			require.NoError(t, err)

			_, err = conv.Convert(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int32(0), gen.calls.Load())
		})
	}
}

func TestConvert_UpstreamFailure(t *testing.T) {
	gen := &fakeGenerator{err: domain.ErrUpstream}
	conv, err := mermaidviz.New(gen)
	require.NoError(t, err)

	_, err = conv.Convert(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestConvert_EmptyAnswer(t *testing.T) {
	gen := &fakeGenerator{answer: "   \n"}
	conv, err := mermaidviz.New(gen)
	require.NoError(t, err)

	_, err = conv.Convert(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrEmptyAnswer)
}

func TestConvert_CacheHitSkipsUpstream(t *testing.T) {
	gen := &fakeGenerator{answer: "pie\n  \"a\" : 1"}
	conv, err := mermaidviz.New(gen, mermaidviz.WithCache(memory.NewCache(), time.Minute))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := conv.Convert(ctx, "a pie chart")
	require.NoError(t, err)
	second, err := conv.Convert(ctx, "a pie chart")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestConvert_FailuresAreNotCached(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("network down")}
	cache := memory.NewCache()
	conv, err := mermaidviz.New(gen, mermaidviz.WithCache(cache, 0))
	require.NoError(t, err)

	_, err = conv.Convert(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestConvert_ConcurrentIdenticalInputsCallUpstreamOnce(t *testing.T) {
	gen := &fakeGenerator{answer: "graph LR\n  X --> Y", delay: 50 * time.Millisecond}
	conv, err := mermaidviz.New(gen, mermaidviz.WithCache(memory.NewCache(), 0))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := conv.Convert(context.Background(), "X then Y")
			assert.NoError(t, err)
			assert.Equal(t, gen.answer, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestConvert_Hooks(t *testing.T) {
	gen := &fakeGenerator{answer: "sequenceDiagram\n  A->>B: hi"}

	var started, finished *domain.ConvertEvent
	hooks := domain.LifecycleHooks{
		OnConvertStart: func(_ context.Context, e *domain.ConvertEvent) { started = e },
		OnConvertDone:  func(_ context.Context, e *domain.ConvertEvent) { finished = e },
	}
	conv, err := mermaidviz.New(gen, mermaidviz.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	_, err = conv.Convert(context.Background(), "A greets B")
	require.NoError(t, err)

	require.NotNil(t, started)
	require.NotNil(t, finished)
	assert.Equal(t, domain.EventConvertStart, started.Type)
	assert.Equal(t, domain.EventConvertDone, finished.Type)
	assert.Equal(t, mermaidviz.Digest("A greets B"), finished.Key)
	assert.Equal(t, "sequenceDiagram", finished.Kind)
	assert.False(t, finished.CacheHit)
	assert.NoError(t, finished.Err)
}

func TestDigest(t *testing.T) {
	assert.Equal(t, mermaidviz.Digest("abc"), mermaidviz.Digest("abc"))
	assert.NotEqual(t, mermaidviz.Digest("abc"), mermaidviz.Digest("abd"))
	assert.Len(t, mermaidviz.Digest(""), 64)
}

// gatedGenerator blocks every call until release is closed.
type gatedGenerator struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	select {
	case <-g.release:
		return "graph TD\n  A --> B", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestConvert_ReplicasShareFillLockPastDefaultTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gen := &gatedGenerator{started: make(chan struct{}), release: make(chan struct{})}
	newReplica := func() *mermaidviz.Converter {
		conv, err := mermaidviz.New(gen,
			mermaidviz.WithCache(redis.NewFromClient(client), 0),
			mermaidviz.WithLocker(redis.NewLocker(client, "")),
			mermaidviz.WithLockTTL(2*time.Minute),
		)
		require.NoError(t, err)
		return conv
	}
	first, second := newReplica(), newReplica()

	results := make(chan error, 2)
	go func() {
		_, err := first.Convert(context.Background(), "A leads to B")
		results <- err
	}()
	<-gen.started

	// The holder is still generating well after the default lock TTL.
	mr.FastForward(keylock.DefaultTTL + time.Second)

	go func() {
		_, err := second.Convert(context.Background(), "A leads to B")
		results <- err
	}()

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), gen.calls.Load())

	close(gen.release)
	require.NoError(t, <-results)
	require.NoError(t, <-results)
	assert.Equal(t, int32(1), gen.calls.Load())
}
