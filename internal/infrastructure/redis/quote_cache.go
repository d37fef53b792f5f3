package redis

import (
	"auction-house/internal/models"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// QuoteCache keeps each listing's quote in a hash that expires after ttl.
// A per-listing generation counter, bumped by Invalidate, guards writes so a
// quote computed before a bid can never be stored after it.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQuoteCache(client *redis.Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{client: client, ttl: ttl}
}

func quoteKey(listingID string) string {
	return fmt.Sprintf("listing:%s:quote", listingID)
}

func generationKey(listingID string) string {
	return fmt.Sprintf("listing:%s:generation", listingID)
}

// GetQuote reports false when no quote is cached
func (c *QuoteCache) GetQuote(ctx context.Context, listingID string) (models.Quote, bool, error) {
	fields, err := c.client.HGetAll(ctx, quoteKey(listingID)).Result()
	if err != nil {
		return models.Quote{}, false, err
	}
	if len(fields) == 0 {
		return models.Quote{}, false, nil
	}
	q, err := decodeQuote(fields)
	if err != nil {
		return models.Quote{}, false, fmt.Errorf("decode quote for listing %s: %w", listingID, err)
	}
	return q, true, nil
}

// Generation returns the listing's current cache generation, 0 if it was
// never invalidated
func (c *QuoteCache) Generation(ctx context.Context, listingID string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(listingID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetQuote stores the quote if generation is still current. The generation
// key is watched so an Invalidate racing with the write aborts it.
func (c *QuoteCache) SetQuote(ctx context.Context, listingID string, generation int64, quote models.Quote) (bool, error) {
	genKey := generationKey(listingID)
	key := quoteKey(listingID)
	stored := false

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, encodeQuote(quote))
			if c.ttl > 0 {
				pipe.Expire(ctx, key, c.ttl)
			}
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored, nil
}

// Invalidate drops the cached quote and advances the generation
func (c *QuoteCache) Invalidate(ctx context.Context, listingID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(listingID))
		pipe.Del(ctx, quoteKey(listingID))
		return nil
	})
	return err
}

func encodeQuote(q models.Quote) map[string]interface{} {
	return map[string]interface{}{
		"current_price": q.CurrentPrice.StringFixed(2),
		"winner_id":     q.WinnerID,
		"bid_count":     strconv.Itoa(q.BidCount),
	}
}

func decodeQuote(fields map[string]string) (models.Quote, error) {
	price, err := decimal.NewFromString(fields["current_price"])
	if err != nil {
		return models.Quote{}, err
	}
	count, err := strconv.Atoi(fields["bid_count"])
	if err != nil {
		return models.Quote{}, err
	}
	return models.Quote{
		CurrentPrice: price,
		WinnerID:     fields["winner_id"],
		BidCount:     count,
	}, nil
}
