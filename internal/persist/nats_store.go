package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsStore keeps blobs in a JetStream key-value bucket.
type NatsStore struct {
	conn   *nats.Conn
	bucket jetstream.KeyValue
}

// NewNatsStore connects to url and opens bucket, creating it if needed.
func NewNatsStore(ctx context.Context, url, bucket string) (*NatsStore, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "room message snapshots",
			History:     1,
		})
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	return &NatsStore{conn: conn, bucket: kv}, nil
}

func (s *NatsStore) Save(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.bucket.Put(ctx, key, data); err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}

func (s *NatsStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	entry, err := s.bucket.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return entry.Value(), nil
}

func (s *NatsStore) Close() error {
	s.conn.Close()
	return nil
}
