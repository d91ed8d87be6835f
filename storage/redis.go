package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-redis/redis/v9"
	"github.com/rs/zerolog/log"

	"yojiquiz/domain"
)

const (
	KEY_ROOM         = "room:%s"
	KEY_ROOM_CHANGES = "room:%s:changes"

	snapshotTTL = time.Hour
)

// RedisSnapshotStore keeps CBOR encoded snapshots under room:<code> and
// publishes each one on room:<code>:changes. An empty message on the channel
// means the room was removed.
type RedisSnapshotStore struct {
	client *redis.Client
}

func NewRedisSnapshotStore(ctx context.Context, url string) (*RedisSnapshotStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedStoreError, err)
	}
	return &RedisSnapshotStore{client: client}, nil
}

func (r *RedisSnapshotStore) Close() error {
	return r.client.Close()
}

func (r *RedisSnapshotStore) Save(ctx context.Context, snap domain.RoomSnapshot) error {
	data, err := cbor.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.UnexpectedStoreError, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, fmt.Sprintf(KEY_ROOM, snap.Code), data, snapshotTTL)
	pipe.Publish(ctx, fmt.Sprintf(KEY_ROOM_CHANGES, snap.Code), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapRedisError(err)
	}
	return nil
}

func (r *RedisSnapshotStore) Load(ctx context.Context, code string) (domain.RoomSnapshot, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf(KEY_ROOM, code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.RoomSnapshot{}, domain.ErrNotFound
		}
		return domain.RoomSnapshot{}, wrapRedisError(err)
	}

	var snap domain.RoomSnapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("%w: %w", domain.UnexpectedStoreError, err)
	}
	return snap, nil
}

func (r *RedisSnapshotStore) Delete(ctx context.Context, code string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, fmt.Sprintf(KEY_ROOM, code))
	pipe.Publish(ctx, fmt.Sprintf(KEY_ROOM_CHANGES, code), "")
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapRedisError(err)
	}
	return nil
}

func (r *RedisSnapshotStore) Subscribe(ctx context.Context, code string) (<-chan domain.RoomSnapshot, error) {
	sub := r.client.Subscribe(ctx, fmt.Sprintf(KEY_ROOM_CHANGES, code))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, wrapRedisError(err)
	}

	out := make(chan domain.RoomSnapshot, subscriberBuffer)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok || msg.Payload == "" {
					return
				}
				var snap domain.RoomSnapshot
				if err := cbor.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					log.Warn().Err(err).Str("room", code).Msg("skipping undecodable snapshot")
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func wrapRedisError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedStoreError, err)
}
