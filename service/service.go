package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"boardly-api/domain"
	"boardly-api/storage"
)

// Store abstracts the document collection consumed by the mutation
// services. *storage.Storage satisfies it.
type Store interface {
	Read(ctx context.Context, id string) (json.RawMessage, azcore.ETag, error)
	Create(ctx context.Context, id string, doc []byte) error
	Replace(ctx context.Context, id string, doc []byte, etag azcore.ETag) error
	Delete(ctx context.Context, id string) error
	QueryPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
	EnqueueEvents(ctx context.Context, events []domain.Event) error
}

// replaceAttempts bounds the optimistic-concurrency retry loop around
// every read-modify-write. Exhaustion surfaces as storage.ErrConflict.
const replaceAttempts = 3

// Service implements the membership, containment, field-patch and
// deletion-cascade operations over the shared document store.
type Service struct {
	store  Store
	cache  *storage.Cache
	logger *log.Logger
	tracer trace.Tracer
}

// New creates a Service. cache may be nil to disable listing caches.
func New(store Store, cache *storage.Cache, logger *log.Logger) *Service {
	if store == nil {
		panic("service.New: store is nil")
	}
	if logger == nil {
		logger = log.New()
	}
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger,
		tracer: otel.Tracer("boardly-api/service"),
	}
}

// errUnchanged signals from a mutate callback that the document needs no
// write. The surrounding loop treats it as success.
var errUnchanged = errors.New("document unchanged")

// replaceWithRetry runs one read-modify-write cycle under the store's
// ETag check, retrying when a concurrent writer got there first.
func (s *Service) replaceWithRetry(ctx context.Context, id string, mutate func(raw json.RawMessage) ([]byte, error)) error {
	for attempt := 0; attempt < replaceAttempts; attempt++ {
		raw, etag, err := s.store.Read(ctx, id)
		if err != nil {
			return err
		}
		doc, err := mutate(raw)
		if err != nil {
			if errors.Is(err, errUnchanged) {
				return nil
			}
			return err
		}
		err = s.store.Replace(ctx, id, doc, etag)
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("replace %s: %w", id, storage.ErrConflict)
}

// mutateDoc applies fn to the typed document under id inside the retry
// loop and returns the version that was written.
func mutateDoc[T any](ctx context.Context, s *Service, id string, fn func(*T) error) (T, error) {
	var out T
	err := s.replaceWithRetry(ctx, id, func(raw json.RawMessage) ([]byte, error) {
		var doc T
		if err := sonic.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if err := fn(&doc); err != nil {
			return nil, err
		}
		out = doc
		return sonic.Marshal(doc)
	})
	return out, err
}

// getDoc reads and decodes the typed document under id. A store-level
// miss becomes a NotFoundError for the given kind.
func getDoc[T any](ctx context.Context, s *Service, kind domain.Kind, id string) (T, error) {
	var doc T
	raw, _, err := s.store.Read(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return doc, &NotFoundError{Kind: kind, ID: id}
		}
		return doc, err
	}
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return doc, err
	}
	return doc, nil
}

func createDoc(ctx context.Context, s *Service, id string, doc any) error {
	data, err := sonic.Marshal(doc)
	if err != nil {
		return err
	}
	return s.store.Create(ctx, id, data)
}

// emit enqueues mutation events best-effort. Event delivery is advisory;
// a queue failure never fails the mutation that already committed.
func (s *Service) emit(ctx context.Context, entityID, entityType, evType string, data []byte) {
	ts := nextTimestamp()
	ev := domain.Event{
		ID:         strconv.FormatInt(ts, 36),
		EntityID:   entityID,
		EntityType: entityType,
		Type:       evType,
		Data:       data,
		Timestamp:  ts,
	}
	if err := s.store.EnqueueEvents(ctx, []domain.Event{ev}); err != nil {
		s.logger.WithFields(log.Fields{
			"entity_id":  entityID,
			"event_type": evType,
			"error":      err.Error(),
		}).Warn("event enqueue failed")
	}
}

// wrapMissing upgrades a raw store miss into a typed NotFoundError for
// the entity an operation was about to mutate.
func wrapMissing(err error, kind domain.Kind, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return err
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
