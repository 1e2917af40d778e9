package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"boardly-api/domain"
)

// Storage provides access to the flat document collection and the
// mutation-event queue. Every entity kind shares one table; the document
// id doubles as partition key and row key, so a point read never scans.
type Storage struct {
	table  *aztables.Client
	events *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, tableName, eventQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	table := svc.NewClient(tableName)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, eventQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{table: table, events: eq}, nil
}

// documentRow is the table representation of one document: the JSON body
// is stored whole in the Doc column.
type documentRow struct {
	aztables.Entity
	Doc string `json:"Doc"`
}

func decodeRow(data []byte) (json.RawMessage, error) {
	var row documentRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	return json.RawMessage(row.Doc), nil
}

func encodeRow(id string, doc []byte) ([]byte, error) {
	return json.Marshal(documentRow{
		Entity: aztables.Entity{PartitionKey: id, RowKey: id},
		Doc:    string(doc),
	})
}

// Read fetches the document stored under id. The returned ETag guards a
// later Replace against concurrent writers.
func (s *Storage) Read(ctx context.Context, id string) (json.RawMessage, azcore.ETag, error) {
	resp, err := s.table.GetEntity(ctx, id, id, nil)
	if err != nil {
		return nil, "", mapError(err)
	}
	doc, err := decodeRow(resp.Value)
	if err != nil {
		return nil, "", err
	}
	return doc, resp.ETag, nil
}

// Create inserts a new document. ErrExists is returned when the id is
// already taken.
func (s *Storage) Create(ctx context.Context, id string, doc []byte) error {
	payload, err := encodeRow(id, doc)
	if err != nil {
		return err
	}
	if _, err := s.table.AddEntity(ctx, payload, nil); err != nil {
		return mapError(err)
	}
	return nil
}

// Replace overwrites the document under id. The write only succeeds while
// the stored ETag still matches; a lost race surfaces as ErrConflict and
// a missing document as ErrNotFound.
func (s *Storage) Replace(ctx context.Context, id string, doc []byte, etag azcore.ETag) error {
	payload, err := encodeRow(id, doc)
	if err != nil {
		return err
	}
	opts := &aztables.UpdateEntityOptions{
		IfMatch:    &etag,
		UpdateMode: aztables.UpdateModeReplace,
	}
	if _, err := s.table.UpdateEntity(ctx, payload, opts); err != nil {
		return mapError(err)
	}
	return nil
}

// Delete removes the document under id. Deleting an absent document
// returns ErrNotFound.
func (s *Storage) Delete(ctx context.Context, id string) error {
	if _, err := s.table.DeleteEntity(ctx, id, id, nil); err != nil {
		return mapError(err)
	}
	return nil
}

// QueryPrefix scans all documents whose id starts with the given prefix.
// Result order is whatever the table returns; empty is not an error.
func (s *Storage) QueryPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	filter := "RowKey ge '" + prefix + "' and RowKey lt '" + prefix + "~'"
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	docs := []json.RawMessage{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, e := range resp.Entities {
			doc, err := decodeRow(e)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// EnqueueEvents sends the given mutation events to the event queue.
func (s *Storage) EnqueueEvents(ctx context.Context, events []domain.Event) error {
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := s.events.EnqueueMessage(ctx, string(data), nil); err != nil {
			return err
		}
	}
	return nil
}
