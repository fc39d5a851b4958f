package services

import (
	"encoding/json"
	"fmt"
)

// cacheSchemaVersion is bumped whenever the shape of a cached value changes.
// Entries written by an older (or newer) build decode as misses and are
// refetched from the store, so cache values can evolve safely.
const cacheSchemaVersion = 1

// Cache key families. The single-thread and per-user-list namespaces are
// independent and can both go stale from the same underlying write, so every
// invalidation site has to consider both.
func threadKey(threadID string) string {
	return "thread:" + threadID
}

func userThreadsKey(userID string) string {
	return "threads:user:" + userID
}

func userThreadsKeys(userIDs []string) []string {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, userThreadsKey(id))
	}
	return keys
}

// cacheEnvelope wraps every cached value with its schema version.
type cacheEnvelope struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

func encodeCacheValue(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal cache payload: %w", err)
	}
	return json.Marshal(cacheEnvelope{Version: cacheSchemaVersion, Data: data})
}

// decodeCacheValue unwraps an envelope into out. Any failure, including a
// version mismatch, is reported as an error so the caller treats the entry
// as a miss.
func decodeCacheValue(b []byte, out interface{}) error {
	var env cacheEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("unmarshal cache envelope: %w", err)
	}
	if env.Version != cacheSchemaVersion {
		return fmt.Errorf("cache schema version mismatch: got %d, want %d", env.Version, cacheSchemaVersion)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unmarshal cache payload: %w", err)
	}
	return nil
}
