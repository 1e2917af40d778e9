package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"boardly-api/domain"
	"boardly-api/storage"
)

type memDoc struct {
	data []byte
	etag int
}

// memStore is an in-memory Store with the same ETag semantics as the
// table-backed one. conflicts[id] forces that many ErrConflict replies
// on Replace, bumping the stored etag each time to mimic a concurrent
// writer.
type memStore struct {
	mu        sync.Mutex
	docs      map[string]memDoc
	events    []domain.Event
	writes    int
	conflicts map[string]int
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]memDoc{}, conflicts: map[string]int{}}
}

func (m *memStore) Read(ctx context.Context, id string) (json.RawMessage, azcore.ETag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, "", storage.ErrNotFound
	}
	return append([]byte(nil), doc.data...), azcore.ETag(strconv.Itoa(doc.etag)), nil
}

func (m *memStore) Create(ctx context.Context, id string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; ok {
		return storage.ErrExists
	}
	m.docs[id] = memDoc{data: append([]byte(nil), doc...), etag: 1}
	m.writes++
	return nil
}

func (m *memStore) Replace(ctx context.Context, id string, doc []byte, etag azcore.ETag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[id]
	if !ok {
		return storage.ErrNotFound
	}
	if m.conflicts[id] > 0 {
		m.conflicts[id]--
		cur.etag++
		m.docs[id] = cur
		return storage.ErrConflict
	}
	if string(etag) != strconv.Itoa(cur.etag) {
		return storage.ErrConflict
	}
	m.docs[id] = memDoc{data: append([]byte(nil), doc...), etag: cur.etag + 1}
	m.writes++
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.docs, id)
	m.writes++
	return nil
}

func (m *memStore) QueryPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []json.RawMessage{}
	for id, doc := range m.docs {
		if strings.HasPrefix(id, prefix) {
			out = append(out, append([]byte(nil), doc.data...))
		}
	}
	return out, nil
}

func (m *memStore) EnqueueEvents(ctx context.Context, events []domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *memStore) put(t *testing.T, id string, doc any) {
	t.Helper()
	data, err := sonic.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal %s: %v", id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = memDoc{data: data, etag: 1}
}

func (m *memStore) decode(t *testing.T, id string, out any) {
	t.Helper()
	m.mu.Lock()
	doc, ok := m.docs[id]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("document %s does not exist", id)
	}
	if err := sonic.Unmarshal(doc.data, out); err != nil {
		t.Fatalf("unmarshal %s: %v", id, err)
	}
}

func (m *memStore) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[id]
	return ok
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func newTestService(store *memStore) *Service {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return New(store, nil, logger)
}

func TestReplaceWithRetryRecoversFromConflicts(t *testing.T) {
	store := newMemStore()
	store.put(t, "board_1", domain.Board{ID: "board_1", Name: "old"})
	store.conflicts["board_1"] = 2
	svc := newTestService(store)

	_, err := mutateDoc(context.Background(), svc, "board_1", func(b *domain.Board) error {
		b.Name = "new"
		return nil
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	var b domain.Board
	store.decode(t, "board_1", &b)
	if b.Name != "new" {
		t.Fatalf("expected mutation to land, got name %q", b.Name)
	}
}

func TestReplaceWithRetryExhaustsAttempts(t *testing.T) {
	store := newMemStore()
	store.put(t, "board_1", domain.Board{ID: "board_1", Name: "old"})
	store.conflicts["board_1"] = replaceAttempts
	svc := newTestService(store)

	_, err := mutateDoc(context.Background(), svc, "board_1", func(b *domain.Board) error {
		b.Name = "new"
		return nil
	})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict after exhausted retries, got %v", err)
	}
	var b domain.Board
	store.decode(t, "board_1", &b)
	if b.Name != "old" {
		t.Fatalf("expected document untouched, got name %q", b.Name)
	}
}

func TestMutateDocUnchangedSkipsWrite(t *testing.T) {
	store := newMemStore()
	store.put(t, "board_1", domain.Board{ID: "board_1"})
	svc := newTestService(store)
	before := store.writeCount()

	if _, err := mutateDoc(context.Background(), svc, "board_1", func(b *domain.Board) error {
		return errUnchanged
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.writeCount() != before {
		t.Fatalf("expected no write for unchanged document")
	}
}

func TestNextTimestampStrictlyIncreasing(t *testing.T) {
	prev := nextTimestamp()
	for i := 0; i < 1000; i++ {
		ts := nextTimestamp()
		if ts <= prev {
			t.Fatalf("timestamp %d not greater than previous %d", ts, prev)
		}
		prev = ts
	}
}
