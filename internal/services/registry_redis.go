package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// RedisRegistry stores each room as a sorted set whose scores record join order.
// Presence is not durable state: Reset should be called when the process starts.
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

// NewRedisRegistry creates a registry that namespaces its keys with prefix.
func NewRedisRegistry(client *redis.Client, prefix string) *RedisRegistry {
	return &RedisRegistry{client: client, prefix: prefix}
}

func (r *RedisRegistry) roomKey(roomID string) string {
	return r.prefix + "room:" + roomID
}

func (r *RedisRegistry) seqKey() string {
	return r.prefix + "seq"
}

// Add records username in roomID. Re-adding keeps the original join position.
func (r *RedisRegistry) Add(ctx context.Context, roomID, username string) ([]string, error) {
	key := r.roomKey(roomID)

	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate join sequence: %w", err)
	}
	if err := r.client.ZAddNX(ctx, key, redis.Z{Score: float64(seq), Member: username}).Err(); err != nil {
		return nil, fmt.Errorf("failed to add %s to room %s: %w", username, roomID, err)
	}
	return r.List(ctx, roomID)
}

// Remove drops username from roomID. Redis deletes the key when the set empties.
func (r *RedisRegistry) Remove(ctx context.Context, roomID, username string) (bool, []string, error) {
	key := r.roomKey(roomID)

	n, err := r.client.ZRem(ctx, key, username).Result()
	if err != nil {
		return false, nil, fmt.Errorf("failed to remove %s from room %s: %w", username, roomID, err)
	}

	participants, err := r.List(ctx, roomID)
	if err != nil {
		return n > 0, nil, err
	}
	if len(participants) == 0 && n > 0 {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			log.Printf("[Registry] Failed to delete empty room %s: %v", roomID, err)
		}
	}
	return n > 0, participants, nil
}

// List returns the participants of roomID in join order.
func (r *RedisRegistry) List(ctx context.Context, roomID string) ([]string, error) {
	names, err := r.client.ZRange(ctx, r.roomKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list room %s: %w", roomID, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Rooms returns every live room with its participants, ordered by room id.
func (r *RedisRegistry) Rooms(ctx context.Context) ([]models.RoomInfoResponse, error) {
	keyPrefix := r.roomKey("")
	var roomIDs []string
	seen := make(map[string]struct{})

	// SCAN may return a key more than once
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		roomID := strings.TrimPrefix(iter.Val(), keyPrefix)
		if _, dup := seen[roomID]; dup {
			continue
		}
		seen[roomID] = struct{}{}
		roomIDs = append(roomIDs, roomID)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan rooms: %w", err)
	}
	sort.Strings(roomIDs)

	rooms := make([]models.RoomInfoResponse, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		participants, err := r.List(ctx, roomID)
		if err != nil {
			return nil, err
		}
		// the room may have emptied between SCAN and ZRANGE
		if len(participants) == 0 {
			continue
		}
		rooms = append(rooms, models.RoomInfoResponse{RoomID: roomID, Participants: participants})
	}
	return rooms, nil
}

// Reset deletes every key under the registry prefix.
func (r *RedisRegistry) Reset(ctx context.Context) error {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan registry keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete registry keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	log.Printf("[Registry] Cleared %d stale keys under %q", deleted, r.prefix)
	return nil
}
