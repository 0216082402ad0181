package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// modelListKey caches the /api/models payload.
	modelListKey = "models:list"
	// modelListTTL matches the upstream 5 minute cache window.
	modelListTTL = 5 * time.Minute
)

// GetModelList retrieves the cached model list payload.
// Returns false on a cache miss or a corrupted entry; misses are not errors.
func (c *Cache) GetModelList(ctx context.Context, out any) (bool, error) {
	data, err := c.client.Get(ctx, modelListKey).Bytes()
	if err != nil {
		return false, nil //nolint:nilerr
	}

	if err := json.Unmarshal(data, out); err != nil {
		// Corrupted cache entry - treat as miss
		return false, nil //nolint:nilerr
	}

	return true, nil
}

// SetModelList caches the model list payload.
func (c *Cache) SetModelList(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal model list: %w", err)
	}

	return c.client.Set(ctx, modelListKey, data, modelListTTL).Err()
}
