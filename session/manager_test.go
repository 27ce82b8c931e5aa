package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/genlo/flow"
	"github.com/richinex/genlo/handler"
	"github.com/richinex/genlo/model"
	"github.com/richinex/genlo/storage"
)

type stubCreative struct{}

func (stubCreative) EnhancePrompt(_ context.Context, message, _ string) handler.Enhanced {
	return handler.Enhanced{Prompt: message}
}

func (stubCreative) GenerateCreativeResponse(context.Context, []model.Turn, string) (string, error) {
	return "creative", nil
}

func (stubCreative) Acknowledge(context.Context, string) (string, error) {
	return "ack", nil
}

// stubGenerator answers text requests, optionally waiting on gate, and
// tracks how many calls are in flight at once.
type stubGenerator struct {
	inFlight *atomic.Int32
	maxSeen  *atomic.Int32
	gate     func()
}

func (g stubGenerator) GenerateTextResponse(_ context.Context, req handler.TextRequest) (*handler.TextResult, error) {
	if g.inFlight != nil {
		n := g.inFlight.Add(1)
		defer g.inFlight.Add(-1)
		for {
			seen := g.maxSeen.Load()
			if n <= seen || g.maxSeen.CompareAndSwap(seen, n) {
				break
			}
		}
	}
	if g.gate != nil {
		g.gate()
	}
	return &handler.TextResult{Content: "echo: " + req.Message}, nil
}

func (stubGenerator) GenerateImage(context.Context, string, handler.ImageOptions) (*handler.ImageResult, error) {
	return &handler.ImageResult{URL: "https://example.com/i.png"}, nil
}

func (stubGenerator) GenerateImageFromImage(context.Context, string, string, handler.ImageOptions) (*handler.ImageResult, error) {
	return &handler.ImageResult{URL: "https://example.com/i.png"}, nil
}

func (stubGenerator) ClearConversationState()                           {}
func (stubGenerator) ConversationState() handler.ConversationState      { return handler.ConversationState{} }
func (stubGenerator) RestoreConversationState(handler.ConversationState) {}

func factoryFor(gen stubGenerator) Factory {
	return func() (*flow.Controller, error) {
		return flow.New(stubCreative{}, gen, flow.Options{}), nil
	}
}

func TestManagerPersistsHistory(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStorage()
	m := NewManager(factoryFor(stubGenerator{}), store)

	env := m.Process(ctx, "s1", flow.Request{Message: "explain dns"})
	assert.Equal(t, "echo: explain dns", env.Content)

	stored, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []model.Turn{
		model.UserTurn("explain dns"),
		model.AssistantTurn("echo: explain dns"),
	}, stored)
}

func TestManagerRestoresHistoryAfterRestart(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStorage()
	require.NoError(t, store.Save(ctx, "s1", []model.Turn{
		model.UserTurn("earlier"), model.AssistantTurn("reply"),
	}))

	m := NewManager(factoryFor(stubGenerator{}), store)
	history, err := m.History(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	m.Process(ctx, "s1", flow.Request{Message: "explain tls"})
	history, err = m.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "earlier", history[0].Content)
}

func TestManagerSerializesSameSession(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	gen := stubGenerator{
		inFlight: &inFlight,
		maxSeen:  &maxSeen,
		gate:     func() { time.Sleep(2 * time.Millisecond) },
	}
	m := NewManager(factoryFor(gen), storage.NewInMemoryStorage())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Process(context.Background(), "shared", flow.Request{Message: fmt.Sprintf("explain item %d", i)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	history, err := m.History(context.Background(), "shared")
	require.NoError(t, err)
	assert.Len(t, history, 40)
}

func TestManagerRunsSessionsInParallel(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(2)
	release := make(chan struct{})
	gen := stubGenerator{gate: func() {
		arrived.Done()
		<-release
	}}
	m := NewManager(factoryFor(gen), nil)

	var done sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		done.Add(1)
		go func(id string) {
			defer done.Done()
			m.Process(context.Background(), id, flow.Request{Message: "explain dns"})
		}(id)
	}

	both := make(chan struct{})
	go func() {
		arrived.Wait()
		close(both)
	}()
	select {
	case <-both:
	case <-time.After(5 * time.Second):
		t.Fatal("sessions did not run in parallel")
	}
	close(release)
	done.Wait()
}

func TestManagerClear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStorage()
	m := NewManager(factoryFor(stubGenerator{}), store)
	m.Process(ctx, "s1", flow.Request{Message: "explain dns"})

	require.NoError(t, m.Clear(ctx, "s1"))

	history, err := m.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
	exists, err := store.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestManagerPrune(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(factoryFor(stubGenerator{}), storage.NewInMemoryStorage())
	m.now = func() time.Time { return now }

	m.Process(ctx, "old", flow.Request{Message: "explain dns"})
	now = now.Add(time.Hour)
	m.Process(ctx, "fresh", flow.Request{Message: "explain dns"})

	assert.Equal(t, 1, m.Prune(30*time.Minute))
	assert.Equal(t, []string{"fresh"}, m.Active())

	// history survives eviction
	history, err := m.History(ctx, "old")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestManagerHistoryOfUnknownSession(t *testing.T) {
	var built atomic.Int32
	factory := func() (*flow.Controller, error) {
		built.Add(1)
		return flow.New(stubCreative{}, stubGenerator{}, flow.Options{}), nil
	}

	for name, store := range map[string]storage.ConversationStorage{
		"with store":    storage.NewInMemoryStorage(),
		"without store": nil,
	} {
		t.Run(name, func(t *testing.T) {
			m := NewManager(factory, store)

			_, err := m.History(context.Background(), "never-seen")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Empty(t, m.Active())
		})
	}
	assert.Zero(t, built.Load())
}

func TestManagerHistoryReadsStoreWithoutStartingSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStorage()
	require.NoError(t, store.Save(ctx, "s1", []model.Turn{model.UserTurn("earlier")}))
	m := NewManager(factoryFor(stubGenerator{}), store)

	history, err := m.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []model.Turn{model.UserTurn("earlier")}, history)
	assert.Empty(t, m.Active())
}

func TestManagerFactoryError(t *testing.T) {
	m := NewManager(func() (*flow.Controller, error) {
		return nil, errors.New("no api key")
	}, nil)

	env := m.Process(context.Background(), "s1", flow.Request{Message: "hi"})
	assert.Equal(t, flow.ApologyMessage, env.Content)
	assert.Empty(t, m.Active())
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
