package adapter

import (
	"context"
	"encoding/json"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// Storage is the object store that receives exported recommendation results
type Storage interface {
	// Put returns a writer for the object. The object is committed on Close.
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get opens the object for reading
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	client     *storage.Client
}

// NewStorage creates a new Cloud Storage client
func NewStorage(ctx context.Context, bucketName string) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &storageClient{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *storageClient) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	writer := s.client.Bucket(s.bucketName).Object(key).NewWriter(ctx)
	writer.ContentType = "application/json"
	return writer, nil
}

func (s *storageClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage",
			goerr.V("bucket", s.bucketName),
			goerr.V("key", key))
	}

	return reader, nil
}

// WriteJSON encodes v as indented JSON into the object at key
func WriteJSON(ctx context.Context, s Storage, key string, v any) error {
	w, err := s.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open object for writing", goerr.V("key", key))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to encode object", goerr.V("key", key))
	}

	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit object", goerr.V("key", key))
	}
	return nil
}
