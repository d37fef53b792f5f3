package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultImageRef is stored for listings created without an image
const DefaultImageRef = "default.jpg"

// User represents a participant in the auction
type User struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category groups listings
type Category struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

// Listing represents an item open for bidding
type Listing struct {
	ListingID   string          `json:"listing_id"`
	AuthorID    string          `json:"author_id"`
	CategoryID  string          `json:"category_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartingBid decimal.Decimal `json:"starting_bid"`
	DatePosted  time.Time       `json:"date_posted"`
	IsActive    bool            `json:"is_active"`
	ImageRef    string          `json:"image_ref"`
	WatcherIDs  []string        `json:"-"`
}

// IsWatchedBy reports whether the user keeps the listing on their watchlist
func (l Listing) IsWatchedBy(userID string) bool {
	for _, id := range l.WatcherIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Bid represents a user's offer on a listing. Bids are append-only.
type Bid struct {
	BidID      string          `json:"bid_id"`
	ListingID  string          `json:"listing_id"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	DatePosted time.Time       `json:"date_posted"`
}

// Comment is a free-text remark left on a listing
type Comment struct {
	CommentID  string    `json:"comment_id"`
	ListingID  string    `json:"listing_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	DatePosted time.Time `json:"date_posted"`
}

// ListingFilter narrows ListListings results
type ListingFilter struct {
	CategoryID string
	ActiveOnly bool
}

// Quote is the derived pricing state of a listing
type Quote struct {
	CurrentPrice decimal.Decimal `json:"current_price"`
	WinnerID     string          `json:"winner_id,omitempty"`
	BidCount     int             `json:"bid_count"`
}
