package inventory

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

const keyPrefix = "bp:inv:"

func ownerKey(k models.OwnerKey) string { return keyPrefix + "owner:" + k.String() }

func ownerBlueprintsKey(k models.OwnerKey) string { return keyPrefix + "owner-blueprints:" + k.String() }

func blueprintKey(bpID string) string { return keyPrefix + "blueprint:" + bpID }

func corporationOwnersKey(c id.CorporationID) string { return keyPrefix + "corp-owners:" + c.String() }

func addedByKey(u id.UserID) string { return keyPrefix + "added-by:" + u.String() }

// RedisStore keeps owners and blueprints as JSON documents. Index sets map
// corporations and registering users to owners, and owners to blueprints.
// Blueprint documents carry no owner name or corporation; reads fill them in
// from the owner document.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// SaveOwner upserts the owner and moves its index entries when the
// corporation or the registering user changed.
func (s *RedisStore) SaveOwner(ctx context.Context, o *models.RegisteredOwner) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal owner: %w", err)
	}
	key := ownerKey(o.Key())
	member := o.Key().String()
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		previous, err := getOwner(ctx, tx, key)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if previous != nil {
				pipe.SRem(ctx, corporationOwnersKey(previous.CorporationID), member)
				pipe.SRem(ctx, addedByKey(previous.AddedBy), member)
			}
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, corporationOwnersKey(o.CorporationID), member)
			pipe.SAdd(ctx, addedByKey(o.AddedBy), member)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("save owner: %w", err)
	}
	return nil
}

func (s *RedisStore) FindOwner(ctx context.Context, key models.OwnerKey) (*models.RegisteredOwner, error) {
	return getOwner(ctx, s.client, ownerKey(key))
}

func (s *RedisStore) ListOwnersAddedBy(ctx context.Context, user id.UserID) ([]*models.RegisteredOwner, error) {
	members, err := s.client.SMembers(ctx, addedByKey(user)).Result()
	if err != nil {
		return nil, fmt.Errorf("read owner index: %w", err)
	}
	owners, err := s.ownersByMember(ctx, members)
	if err != nil {
		return nil, err
	}
	out := make([]*models.RegisteredOwner, 0, len(owners))
	for _, o := range owners {
		out = append(out, o)
	}
	return out, nil
}

// DeleteOwner removes the owner, its blueprints and its index entries in one
// MULTI.
func (s *RedisStore) DeleteOwner(ctx context.Context, key models.OwnerKey) error {
	oKey := ownerKey(key)
	setKey := ownerBlueprintsKey(key)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		o, err := getOwner(ctx, tx, oKey)
		if err != nil {
			return err
		}
		bpIDs, err := tx.SMembers(ctx, setKey).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, bpID := range bpIDs {
				pipe.Del(ctx, blueprintKey(bpID))
			}
			pipe.Del(ctx, oKey, setKey)
			pipe.SRem(ctx, corporationOwnersKey(o.CorporationID), key.String())
			pipe.SRem(ctx, addedByKey(o.AddedBy), key.String())
			return nil
		})
		return err
	}, oKey, setKey)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return sentinel.ErrConflict
	case errors.Is(err, sentinel.ErrNotFound):
		return err
	case err != nil:
		return fmt.Errorf("delete owner: %w", err)
	}
	return nil
}

// ReplaceBlueprints swaps the owner's inventory in one MULTI. A concurrent
// change to the owner aborts with sentinel.ErrConflict.
func (s *RedisStore) ReplaceBlueprints(ctx context.Context, key models.OwnerKey, bps []*models.Blueprint) error {
	payloads := make(map[string][]byte, len(bps))
	for _, b := range bps {
		payload, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal blueprint: %w", err)
		}
		payloads[b.ID.String()] = payload
	}
	oKey := ownerKey(key)
	setKey := ownerBlueprintsKey(key)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		if _, err := getOwner(ctx, tx, oKey); err != nil {
			return err
		}
		previous, err := tx.SMembers(ctx, setKey).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, bpID := range previous {
				pipe.Del(ctx, blueprintKey(bpID))
			}
			pipe.Del(ctx, setKey)
			for bpID, payload := range payloads {
				pipe.Set(ctx, blueprintKey(bpID), payload, 0)
				pipe.SAdd(ctx, setKey, bpID)
			}
			return nil
		})
		return err
	}, oKey, setKey)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return sentinel.ErrConflict
	case errors.Is(err, sentinel.ErrNotFound):
		return err
	case err != nil:
		return fmt.Errorf("replace blueprints: %w", err)
	}
	return nil
}

func (s *RedisStore) FindBlueprint(ctx context.Context, bpID id.BlueprintID) (*models.Blueprint, error) {
	raw, err := s.client.Get(ctx, blueprintKey(bpID.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blueprint: %w", err)
	}
	var b models.Blueprint
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode blueprint: %w", err)
	}
	o, err := s.FindOwner(ctx, models.OwnerKey{Kind: b.Owner.Kind, ID: b.Owner.ID})
	if err != nil {
		// The owner was removed after the read; its blueprints went with it.
		return nil, err
	}
	fillOwner(&b, o)
	return &b, nil
}

func (s *RedisStore) ListBlueprintsByCorporations(ctx context.Context, corporations []id.CorporationID) ([]*models.Blueprint, error) {
	out := make([]*models.Blueprint, 0)
	if len(corporations) == 0 {
		return out, nil
	}
	corpKeys := make([]string, len(corporations))
	for i, c := range corporations {
		corpKeys[i] = corporationOwnersKey(c)
	}
	members, err := s.client.SUnion(ctx, corpKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read corporation index: %w", err)
	}
	owners, err := s.ownersByMember(ctx, members)
	if err != nil || len(owners) == 0 {
		return out, err
	}
	setKeys := make([]string, 0, len(owners))
	for member := range owners {
		setKeys = append(setKeys, keyPrefix+"owner-blueprints:"+member)
	}
	bpIDs, err := s.client.SUnion(ctx, setKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read blueprint index: %w", err)
	}
	if len(bpIDs) == 0 {
		return out, nil
	}
	keys := make([]string, len(bpIDs))
	for i, bpID := range bpIDs {
		keys[i] = blueprintKey(bpID)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read blueprints: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var b models.Blueprint
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("decode blueprint: %w", err)
		}
		o, ok := owners[models.OwnerKey{Kind: b.Owner.Kind, ID: b.Owner.ID}.String()]
		if !ok {
			continue
		}
		fillOwner(&b, o)
		out = append(out, &b)
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// ownersByMember loads owner documents for index members ("kind:id"). Owners
// deleted since the index read are skipped.
func (s *RedisStore) ownersByMember(ctx context.Context, members []string) (map[string]*models.RegisteredOwner, error) {
	out := make(map[string]*models.RegisteredOwner, len(members))
	if len(members) == 0 {
		return out, nil
	}
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = keyPrefix + "owner:" + m
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read owners: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var o models.RegisteredOwner
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, fmt.Errorf("decode owner: %w", err)
		}
		out[members[i]] = &o
	}
	return out, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getOwner(ctx context.Context, c stringGetter, key string) (*models.RegisteredOwner, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	var o models.RegisteredOwner
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("decode owner: %w", err)
	}
	return &o, nil
}

func fillOwner(b *models.Blueprint, o *models.RegisteredOwner) {
	b.Owner.Name = o.Owner.Name
	b.CorporationID = o.CorporationID
}
