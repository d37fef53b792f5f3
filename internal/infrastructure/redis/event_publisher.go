package redis

import (
	"auction-house/internal/models"
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const eventBidAccepted = "bid_accepted"

// BidEvent is the payload published for every accepted bid
type BidEvent struct {
	Type       string    `json:"type"`
	BidID      string    `json:"bid_id"`
	ListingID  string    `json:"listing_id"`
	UserID     string    `json:"user_id"`
	Amount     string    `json:"amount"`
	DatePosted time.Time `json:"date_posted"`
}

// EventPublisher publishes listing events on a pub/sub channel
type EventPublisher struct {
	client  *redis.Client
	channel string
}

func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

func (p *EventPublisher) PublishBidAccepted(ctx context.Context, bid models.Bid) error {
	payload, err := encodeBidEvent(bid)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

func encodeBidEvent(bid models.Bid) ([]byte, error) {
	return json.Marshal(BidEvent{
		Type:       eventBidAccepted,
		BidID:      bid.BidID,
		ListingID:  bid.ListingID,
		UserID:     bid.UserID,
		Amount:     bid.Amount.StringFixed(2),
		DatePosted: bid.DatePosted,
	})
}
