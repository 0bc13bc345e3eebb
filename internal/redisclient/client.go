package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pricing-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:locality:%s", sessionID)
}

// SetSessionLocality persists the resolved locality for a session under the
// fixed session key. Only the locality resolver writes this.
func (c *Client) SetSessionLocality(ctx context.Context, sessionID string, locality *models.Locality, ttl time.Duration) error {
	payload, err := json.Marshal(locality)
	if err != nil {
		return fmt.Errorf("failed to marshal locality: %w", err)
	}
	return c.rdb.Set(ctx, sessionKey(sessionID), payload, ttl).Err()
}

// GetSessionLocality retrieves the cached locality for a session.
// An absent key is not an error; both results are nil.
func (c *Client) GetSessionLocality(ctx context.Context, sessionID string) (*models.Locality, error) {
	payload, err := c.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var locality models.Locality
	if err := json.Unmarshal(payload, &locality); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached locality: %w", err)
	}
	return &locality, nil
}

// ClearSessionLocality drops a session's cached locality
func (c *Client) ClearSessionLocality(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func quoteKey(localityID, variantID int64) string {
	return fmt.Sprintf("quote:%d:%d", localityID, variantID)
}

// SetQuote caches a computed variant quote for a locality
func (c *Client) SetQuote(ctx context.Context, localityID, variantID int64, quote interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	return c.rdb.Set(ctx, quoteKey(localityID, variantID), payload, ttl).Err()
}

// GetQuote retrieves a cached variant quote into dest.
// Returns false when no cached quote exists.
func (c *Client) GetQuote(ctx context.Context, localityID, variantID int64, dest interface{}) (bool, error) {
	payload, err := c.rdb.Get(ctx, quoteKey(localityID, variantID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}
	return true, nil
}

// InvalidateLocalityQuotes drops every cached quote for a locality. Called
// by the locality-change worker so stale prices are never served after a
// locality switch.
func (c *Client) InvalidateLocalityQuotes(ctx context.Context, localityID int64) error {
	pattern := fmt.Sprintf("quote:%d:*", localityID)

	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

const distributionStashKey = "distribution:snapshot"

// StashDistributionSnapshot stores the authoritative slot state before an
// optimistic edit, so a failed persist can be reconciled.
func (c *Client) StashDistributionSnapshot(ctx context.Context, slots []models.DistributionSlot, ttl time.Duration) error {
	payload, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to marshal distribution snapshot: %w", err)
	}
	return c.rdb.Set(ctx, distributionStashKey, payload, ttl).Err()
}

// PopDistributionSnapshot retrieves and clears the stashed slot state.
// Returns nil when no snapshot is stashed.
func (c *Client) PopDistributionSnapshot(ctx context.Context) ([]models.DistributionSlot, error) {
	payload, err := c.rdb.Get(ctx, distributionStashKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var slots []models.DistributionSlot
	if err := json.Unmarshal(payload, &slots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution snapshot: %w", err)
	}

	_ = c.rdb.Del(ctx, distributionStashKey)
	return slots, nil
}
