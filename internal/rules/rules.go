// Package rules holds the pricing and bidding rules of an auction listing.
//
// Everything here is derived from a listing and its bid history on every
// call. Nothing is cached, so the answers always agree with the latest
// accepted bid.
package rules

import (
	"fmt"
	"time"

	"auction-house/internal/biddingerrors"
	model "auction-house/internal/models"
	"auction-house/utils"

	"github.com/shopspring/decimal"
)

// amounts are stored as DECIMAL(10,2)
const amountPlaces = 2

var maxAmount = decimal.RequireFromString("99999999.99")

// CurrentPrice returns the highest bid amount, or the starting bid when the
// listing has not been bid on yet.
func CurrentPrice(listing model.Listing, bids []model.Bid) decimal.Decimal {
	if len(bids) == 0 {
		return listing.StartingBid
	}
	price := bids[0].Amount
	for _, b := range bids[1:] {
		if b.Amount.GreaterThan(price) {
			price = b.Amount
		}
	}
	return price
}

// DetermineWinner returns the bid with the greatest amount. Ties go to the
// most recent bid; with identical timestamps the one recorded later wins.
func DetermineWinner(bids []model.Bid) (model.Bid, bool) {
	if len(bids) == 0 {
		return model.Bid{}, false
	}
	winning := bids[0]
	for _, b := range bids[1:] {
		if b.Amount.GreaterThan(winning.Amount) ||
			(b.Amount.Equal(winning.Amount) && !b.DatePosted.Before(winning.DatePosted)) {
			winning = b
		}
	}
	return winning, true
}

// QuoteFor bundles the derived pricing state of a listing
func QuoteFor(listing model.Listing, bids []model.Bid) model.Quote {
	q := model.Quote{
		CurrentPrice: CurrentPrice(listing, bids),
		BidCount:     len(bids),
	}
	if w, ok := DetermineWinner(bids); ok {
		q.WinnerID = w.UserID
	}
	return q
}

// ValidateAmount checks that amount is a positive money value that fits the
// storage column.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: must be positive", biddingerrors.ErrInvalidAmount)
	}
	if !amount.Equal(amount.Truncate(amountPlaces)) {
		return fmt.Errorf("%w: at most %d decimal places", biddingerrors.ErrInvalidAmount, amountPlaces)
	}
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: exceeds %s", biddingerrors.ErrInvalidAmount, maxAmount.StringFixed(amountPlaces))
	}
	return nil
}

// ValidateBid rejects amounts strictly below the current price. A bid equal
// to the current price is accepted.
func ValidateBid(listing model.Listing, bids []model.Bid, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	price := CurrentPrice(listing, bids)
	if amount.LessThan(price) {
		return fmt.Errorf("%w: bid must be at least %s", biddingerrors.ErrBidTooLow, price.StringFixed(amountPlaces))
	}
	return nil
}

// ValidateListingCreation rejects non-positive starting bids
func ValidateListingCreation(startingBid decimal.Decimal) error {
	if err := ValidateAmount(startingBid); err != nil {
		return fmt.Errorf("%w: %v", biddingerrors.ErrInvalidStartingBid, err)
	}
	return nil
}

// Policy holds the configurable parts of bid acceptance
type Policy struct {
	// AllowInactiveBids keeps closed listings open to new bids
	AllowInactiveBids bool
}

// Engine decides on bid submissions and produces the records to persist
type Engine struct {
	policy Policy
	now    func() time.Time
	newID  func() string
}

// NewEngine creates an Engine using the wall clock and random UUIDs
func NewEngine(policy Policy) *Engine {
	return &Engine{
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  utils.GenerateID,
	}
}

// WithClock returns a copy of the engine that stamps bids using now
func (e *Engine) WithClock(now func() time.Time) *Engine {
	c := *e
	c.now = now
	return &c
}

// Policy returns the engine's acceptance policy
func (e *Engine) Policy() Policy {
	return e.policy
}

// Accept validates a bid against the listing's history and returns the new
// bid record on success. bids is never modified.
func (e *Engine) Accept(listing model.Listing, bids []model.Bid, bidderID string, amount decimal.Decimal) (model.Bid, error) {
	if bidderID == "" {
		return model.Bid{}, fmt.Errorf("%w: missing bidder", biddingerrors.ErrInvalidRequest)
	}
	if bidderID == listing.AuthorID {
		return model.Bid{}, biddingerrors.ErrOwnListing
	}
	if !listing.IsActive && !e.policy.AllowInactiveBids {
		return model.Bid{}, biddingerrors.ErrListingInactive
	}
	if err := ValidateBid(listing, bids, amount); err != nil {
		return model.Bid{}, err
	}

	return model.Bid{
		BidID:      e.newID(),
		ListingID:  listing.ListingID,
		UserID:     bidderID,
		Amount:     amount,
		DatePosted: e.now(),
	}, nil
}
