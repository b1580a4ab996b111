package services

import (
	"context"
	"encoding/json"
	"fmt"

	"estate_admin/logging"
	"estate_admin/storage"
)

// Substrate keys. Changing them orphans existing data.
const (
	UsersKey          = "real_estate_users"
	CurrentUserKey    = "real_estate_current_user"
	PropertiesKey     = "real_estate_properties"
	credentialKeyBase = "password_"
)

func credentialKey(userID string) string {
	return credentialKeyBase + userID
}

// loadCollection reads a JSON array stored under key. A missing key is an
// empty collection.
func loadCollection[T any](ctx context.Context, kv storage.KV, key string) ([]T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logging.Warnf("could not parse %s (%d bytes): %v", key, len(raw), err)
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func encodeCollection[T any](key string, items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	return string(data), nil
}

func saveCollection[T any](ctx context.Context, kv storage.KV, key string, items []T) error {
	raw, err := encodeCollection(key, items)
	if err != nil {
		return err
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
