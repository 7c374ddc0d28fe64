package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatroom-server/internal/models"
)

// newTestConn builds a connection with no socket behind it; frames queued
// by the core are read straight off the send channel.
func newTestConn(nickname string) *Conn {
	return &Conn{
		ID:       uuid.NewString(),
		Nickname: nickname,
		Send:     make(chan []byte, 32),
	}
}

func recvEnvelope(t *testing.T, c *Conn) *Envelope {
	t.Helper()
	select {
	case payload := <-c.Send:
		env := &Envelope{}
		require.NoError(t, json.Unmarshal(payload, env))
		return env
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("no frame queued for %s", c.Nickname)
		return nil
	}
}

func jsonUnmarshalFrame(t *testing.T, c *Conn, v any) error {
	t.Helper()
	select {
	case payload := <-c.Send:
		return json.Unmarshal(payload, v)
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("no frame queued for %s", c.Nickname)
		return nil
	}
}

func queuedFrames(c *Conn) int {
	return len(c.Send)
}

func drain(c *Conn) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}

// fakeStore implements repository.MessageRepo in memory and records the
// arguments of the last query.
type fakeStore struct {
	mu      sync.Mutex
	saved   []*models.ChatMessage
	records []*models.ChatMessage
	total   int64

	insertErr error
	queryErr  error

	lastPage     int
	lastSize     int
	lastFilter   string
	lastNickname string
}

func (f *fakeStore) Insert(_ context.Context, m *models.ChatMessage) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return 0, f.insertErr
	}
	m.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, m)
	return m.ID, nil
}

func (f *fakeStore) Query(_ context.Context, page, size int, filter, nickname string) ([]*models.ChatMessage, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastPage = page
	f.lastSize = size
	f.lastFilter = filter
	f.lastNickname = nickname

	if f.queryErr != nil {
		return nil, 0, f.queryErr
	}
	return f.records, f.total, nil
}

func (f *fakeStore) SoftDeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}
