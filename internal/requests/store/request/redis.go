package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	"blueprints/pkg/platform/sentinel"
)

const keyPrefix = "bp:"

func requestKey(requestID id.RequestID) string {
	return keyPrefix + "request:" + requestID.String()
}

func requestorKey(u id.UserID) string {
	return keyPrefix + "requestor:" + u.String()
}

func ownerKey(kind models.OwnerKind, ownerID int64) string {
	return fmt.Sprintf("%sowner:%s:%d", keyPrefix, kind, ownerID)
}

// RedisStore keeps each request as one JSON document plus index sets per
// requestor and per owner. Writes use WATCH/MULTI so a concurrent writer
// aborts the transaction instead of overwriting.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, r *models.Request) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	key := requestKey(r.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return sentinel.ErrAlreadyUsed
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, requestorKey(r.Requestor), r.ID.String())
			pipe.SAdd(ctx, ownerKey(r.Owner.Kind, r.Owner.ID), r.ID.String())
			return nil
		})
		return err
	}, key)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return sentinel.ErrAlreadyUsed
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return err
	case err != nil:
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	return getRequest(ctx, s.client, requestKey(requestID))
}

func (s *RedisStore) ListByRequestor(ctx context.Context, requestor id.UserID, includeClosed bool) ([]*models.Request, error) {
	return s.listFromSets(ctx, includeClosed, requestorKey(requestor))
}

func (s *RedisStore) ListByOwners(ctx context.Context, characters []id.CharacterID, corporations []id.CorporationID, includeClosed bool) ([]*models.Request, error) {
	keys := make([]string, 0, len(characters)+len(corporations))
	for _, c := range characters {
		keys = append(keys, ownerKey(models.OwnerCharacter, int64(c)))
	}
	for _, c := range corporations {
		keys = append(keys, ownerKey(models.OwnerCorporation, int64(c)))
	}
	if len(keys) == 0 {
		return []*models.Request{}, nil
	}
	return s.listFromSets(ctx, includeClosed, keys...)
}

// CompareAndSwap watches the request key, checks the version, applies fn and
// commits in MULTI. A WATCH abort surfaces as sentinel.ErrConflict.
func (s *RedisStore) CompareAndSwap(ctx context.Context, requestID id.RequestID, expectedVersion int64, fn func(*models.Request) error) (*models.Request, error) {
	key := requestKey(requestID)
	var updated *models.Request
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := getRequest(ctx, tx, key)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return sentinel.ErrConflict
		}
		if err := fn(current); err != nil {
			return err
		}
		payload, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = current
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, sentinel.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) listFromSets(ctx context.Context, includeClosed bool, setKeys ...string) ([]*models.Request, error) {
	ids, err := s.client.SUnion(ctx, setKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read request index: %w", err)
	}
	out := make([]*models.Request, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, rid := range ids {
		keys[i] = keyPrefix + "request:" + rid
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		r, err := decodeRequest([]byte(raw))
		if err != nil {
			return nil, err
		}
		if includeClosed || !r.IsClosed() {
			out = append(out, r)
		}
	}
	return out, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getRequest(ctx context.Context, c stringGetter, key string) (*models.Request, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return decodeRequest(raw)
}

func decodeRequest(raw []byte) (*models.Request, error) {
	var r models.Request
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if _, err := models.ParseStatus(string(r.Status)); err != nil {
		return nil, fmt.Errorf("%w: request %s has status %q", sentinel.ErrInvalidState, r.ID, r.Status)
	}
	return &r, nil
}
