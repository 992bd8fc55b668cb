package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	KeyAccessToken      = "access_token"
	KeyRefreshToken     = "refresh_token"
	KeyLastActivityTime = "last_activity_time"
	KeyTenantSchemaName = "tenant_schema_name"
	KeyMultiLocation    = "multi_location"
)

var ErrStorageClosed = errors.New("storage closed")

// Change describes a write made through another handle. Removed is set when
// the key was deleted; Value is then empty.
type Change struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Removed bool   `json:"removed"`
	Origin  string `json:"origin"`
}

// Storage is a string key/value store shared between console instances.
// Writes are last-write-wins. Watch only reports changes made by other handles.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Watch(ctx context.Context) (<-chan Change, error)
}

func GetJSON[T any](ctx context.Context, s Storage, key string) (T, bool, error) {
	var value T
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return value, false, err
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return value, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return value, true, nil
}

func SetJSON(ctx context.Context, s Storage, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}

// RemoveAll removes every key and returns the first failure.
func RemoveAll(ctx context.Context, s Storage, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := s.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
