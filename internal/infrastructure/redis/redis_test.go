package redis

import (
	"auction-house/internal/config"
	"auction-house/internal/models"
	"auction-house/utils"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestQuoteEncoding(t *testing.T) {
	q := models.Quote{CurrentPrice: decimal.RequireFromString("14.5"), WinnerID: "B", BidCount: 2}

	fields := map[string]string{}
	for k, v := range encodeQuote(q) {
		fields[k] = v.(string)
	}
	require.Equal(t, "14.50", fields["current_price"])

	got, err := decodeQuote(fields)
	require.NoError(t, err)
	require.True(t, q.CurrentPrice.Equal(got.CurrentPrice))
	require.Equal(t, "B", got.WinnerID)
	require.Equal(t, 2, got.BidCount)

	_, err = decodeQuote(map[string]string{"current_price": "abc", "bid_count": "1"})
	require.Error(t, err)
}

func TestBidEventEncoding(t *testing.T) {
	posted := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	payload, err := encodeBidEvent(models.Bid{
		BidID: "b1", ListingID: "l1", UserID: "u1",
		Amount: decimal.RequireFromString("12"), DatePosted: posted,
	})
	require.NoError(t, err)

	var ev BidEvent
	require.NoError(t, json.Unmarshal(payload, &ev))
	require.Equal(t, BidEvent{
		Type: eventBidAccepted, BidID: "b1", ListingID: "l1", UserID: "u1",
		Amount: "12.00", DatePosted: posted,
	}, ev)
}

// Needs a running Redis, e.g. REDIS_TEST_ADDR=localhost:6379
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb, err := NewClient(context.Background(), config.RedisConfig{Address: addr})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestQuoteCache_RoundTrip(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	cache := NewQuoteCache(rdb, time.Minute)
	listingID := utils.GenerateID()

	_, ok, err := cache.GetQuote(ctx, listingID)
	require.NoError(t, err)
	require.False(t, ok)

	want := models.Quote{CurrentPrice: decimal.RequireFromString("20.00"), WinnerID: "A", BidCount: 3}
	gen, err := cache.Generation(ctx, listingID)
	require.NoError(t, err)
	stored, err := cache.SetQuote(ctx, listingID, gen, want)
	require.NoError(t, err)
	require.True(t, stored)

	got, ok, err := cache.GetQuote(ctx, listingID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, want.CurrentPrice.Equal(got.CurrentPrice))
	require.Equal(t, want.WinnerID, got.WinnerID)

	ttl, err := rdb.TTL(ctx, quoteKey(listingID)).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Invalidate(ctx, listingID))
	_, ok, err = cache.GetQuote(ctx, listingID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQuoteCache_StaleWriteSkipped(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	cache := NewQuoteCache(rdb, time.Minute)
	listingID := utils.GenerateID()

	before, err := cache.Generation(ctx, listingID)
	require.NoError(t, err)

	// a bid lands between reading the generation and storing the quote
	require.NoError(t, cache.Invalidate(ctx, listingID))

	stale := models.Quote{CurrentPrice: decimal.RequireFromString("10.00")}
	stored, err := cache.SetQuote(ctx, listingID, before, stale)
	require.NoError(t, err)
	require.False(t, stored)

	_, ok, err := cache.GetQuote(ctx, listingID)
	require.NoError(t, err)
	require.False(t, ok)

	after, err := cache.Generation(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, before+1, after)

	fresh := models.Quote{CurrentPrice: decimal.RequireFromString("50.00"), WinnerID: "A", BidCount: 1}
	stored, err = cache.SetQuote(ctx, listingID, after, fresh)
	require.NoError(t, err)
	require.True(t, stored)

	got, ok, err := cache.GetQuote(ctx, listingID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, fresh.CurrentPrice.Equal(got.CurrentPrice))
}

func TestEventPublisher_Publish(t *testing.T) {
	rdb := testClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel := "test_listing_events_" + utils.GenerateID()
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewEventPublisher(rdb, channel)
	require.NoError(t, pub.PublishBidAccepted(ctx, models.Bid{
		BidID: "b1", ListingID: "l1", UserID: "u1",
		Amount: decimal.RequireFromString("5"), DatePosted: time.Now().UTC(),
	}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var ev BidEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
	require.Equal(t, "l1", ev.ListingID)
	require.Equal(t, "5.00", ev.Amount)
}
