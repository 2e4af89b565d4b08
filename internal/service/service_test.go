package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordedMessage struct {
	Room    string
	Message map[string]interface{}
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []recordedMessage
}

func (b *recordingBroadcaster) BroadcastToRoom(room string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg, _ := message.(map[string]interface{})
	b.messages = append(b.messages, recordedMessage{Room: room, Message: msg})
}

func (b *recordingBroadcaster) ofType(event string) []recordedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedMessage
	for _, m := range b.messages {
		if m.Message["type"] == event {
			out = append(out, m)
		}
	}
	return out
}

type failingCache struct{}

func (failingCache) SetNX(context.Context, string, interface{}, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

type recordingPublisher struct {
	err      error
	mu       sync.Mutex
	messages [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, exchange, routingKey string, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, body)
	return nil
}

type fixture struct {
	db          *gorm.DB
	registry    *model.Registry
	contentRepo repository.ContentRepository
	broadcaster *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	return &fixture{
		db:          db,
		registry:    model.DefaultRegistry(),
		contentRepo: repository.NewContentRepository(db),
		broadcaster: &recordingBroadcaster{},
	}
}

func (f *fixture) reactions() ReactionService {
	return NewReactionService(repository.NewReactionRepository(f.db), f.registry, f.broadcaster)
}

func (f *fixture) views(cache ViewCache) *viewService {
	return NewViewService(f.contentRepo, f.registry, cache, 5*time.Minute, f.broadcaster).(*viewService)
}

func (f *fixture) variant(t *testing.T, tag string) *model.Variant {
	t.Helper()
	v, ok := f.registry.Lookup(tag)
	require.True(t, ok)
	return v
}

func (f *fixture) counters(t *testing.T, tag string, id uint) model.Counters {
	t.Helper()
	item, err := f.contentRepo.FindByID(context.Background(), f.variant(t, tag), id, true)
	require.NoError(t, err)
	return *item.GetCounters()
}
