package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	DefaultWatchlistCollection = "watchlists"
	watchlistItemsCollection   = "items"
)

// Firestore reads watchlists stored as
// {collection}/{userID}/items/{movieID} documents.
type Firestore struct {
	client     *firestore.Client
	collection string
}

type FirestoreOption func(*Firestore)

// WithCollection overrides the top level watchlist collection
func WithCollection(name string) FirestoreOption {
	return func(f *Firestore) {
		if name != "" {
			f.collection = name
		}
	}
}

// historyDoc is the document layout of one watchlist entry
type historyDoc struct {
	ID          int64     `firestore:"id"`
	Title       string    `firestore:"title"`
	ReleaseDate string    `firestore:"release_date"`
	Language    string    `firestore:"original_language"`
	Genres      []int64   `firestore:"genre_ids"`
	AddedAt     time.Time `firestore:"added_at"`
}

// New creates a Firestore backed history reader
func New(ctx context.Context, projectID, databaseID string, opts ...FirestoreOption) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	f := &Firestore{
		client:     client,
		collection: DefaultWatchlistCollection,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Firestore) ListHistory(ctx context.Context, userID string) ([]*model.HistoryItem, error) {
	if userID == "" {
		return nil, goerr.New("user ID is required")
	}

	iter := f.client.Collection(f.collection).Doc(userID).
		Collection(watchlistItemsCollection).
		OrderBy("added_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var items []*model.HistoryItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return []*model.HistoryItem{}, nil
			}
			return nil, goerr.Wrap(err, "failed to iterate watchlist", goerr.V("user_id", userID))
		}

		var d historyDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode watchlist item",
				goerr.V("user_id", userID),
				goerr.V("doc_id", doc.Ref.ID))
		}

		items = append(items, &model.HistoryItem{
			ID:          d.ID,
			Title:       d.Title,
			ReleaseYear: model.YearFromDate(d.ReleaseDate),
			Language:    d.Language,
			Genres:      d.Genres,
			Order:       len(items),
		})
	}

	if items == nil {
		items = []*model.HistoryItem{}
	}
	return items, nil
}

// Close releases the underlying client
func (f *Firestore) Close() error {
	if err := f.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}
