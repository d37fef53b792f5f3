package helpers

import (
	bidding "auction-house/internal/biddingService"
	model "auction-house/internal/models"
	"time"

	"github.com/shopspring/decimal"
)

// Request DTOs. Amounts accept both JSON numbers and strings.
type PlaceBidRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

type CreateListingRequest struct {
	Title       string           `json:"title" binding:"required,max=200"`
	Description string           `json:"description"`
	CategoryID  string           `json:"category_id"`
	StartingBid *decimal.Decimal `json:"starting_bid" binding:"required"`
	ImageRef    string           `json:"image_ref"`
	IsActive    *bool            `json:"is_active"`
}

type UpdateListingRequest struct {
	Title       *string          `json:"title" binding:"omitempty,max=200"`
	Description *string          `json:"description"`
	CategoryID  *string          `json:"category_id"`
	StartingBid *decimal.Decimal `json:"starting_bid"`
	ImageRef    *string          `json:"image_ref"`
	IsActive    *bool            `json:"is_active"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=30"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Response DTOs. Amounts are fixed two-decimal strings.
type BidResponse struct {
	BidID      string `json:"bid_id"`
	ListingID  string `json:"listing_id"`
	UserID     string `json:"user_id"`
	Amount     string `json:"amount"`
	DatePosted string `json:"date_posted"`
}

type ListingResponse struct {
	ListingID    string `json:"listing_id"`
	AuthorID     string `json:"author_id"`
	CategoryID   string `json:"category_id,omitempty"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartingBid  string `json:"starting_bid"`
	DatePosted   string `json:"date_posted"`
	IsActive     bool   `json:"is_active"`
	ImageRef     string `json:"image_ref"`
	CurrentPrice string `json:"current_price,omitempty"`
	WinnerID     string `json:"winner_id,omitempty"`
	BidCount     *int   `json:"bid_count,omitempty"`
	IsWatched    bool   `json:"is_watched"`
	IsOwner      bool   `json:"is_owner"`
}

type CommentResponse struct {
	CommentID  string `json:"comment_id"`
	ListingID  string `json:"listing_id"`
	UserID     string `json:"user_id"`
	Content    string `json:"content"`
	DatePosted string `json:"date_posted"`
}

type WatchResponse struct {
	ListingID string `json:"listing_id"`
	Watched   bool   `json:"watched"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ToBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:      bid.BidID,
		ListingID:  bid.ListingID,
		UserID:     bid.UserID,
		Amount:     bid.Amount.StringFixed(2),
		DatePosted: formatTime(bid.DatePosted),
	}
}

func ToBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, ToBidResponse(b))
	}
	return out
}

// ToListingSummary converts a listing without its derived price state
func ToListingSummary(l model.Listing) ListingResponse {
	return ListingResponse{
		ListingID:   l.ListingID,
		AuthorID:    l.AuthorID,
		CategoryID:  l.CategoryID,
		Title:       l.Title,
		Description: l.Description,
		StartingBid: l.StartingBid.StringFixed(2),
		DatePosted:  formatTime(l.DatePosted),
		IsActive:    l.IsActive,
		ImageRef:    l.ImageRef,
	}
}

func ToListingSummaries(listings []model.Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, ToListingSummary(l))
	}
	return out
}

func ToListingResponse(d bidding.ListingDetail) ListingResponse {
	resp := ToListingSummary(d.Listing)
	count := d.Quote.BidCount
	resp.CurrentPrice = d.Quote.CurrentPrice.StringFixed(2)
	resp.WinnerID = d.Quote.WinnerID
	resp.BidCount = &count
	resp.IsWatched = d.IsWatched
	resp.IsOwner = d.IsOwner
	return resp
}

func ToListingResponses(details []bidding.ListingDetail) []ListingResponse {
	out := make([]ListingResponse, 0, len(details))
	for _, d := range details {
		out = append(out, ToListingResponse(d))
	}
	return out
}

func ToCommentResponse(c model.Comment) CommentResponse {
	return CommentResponse{
		CommentID:  c.CommentID,
		ListingID:  c.ListingID,
		UserID:     c.UserID,
		Content:    c.Content,
		DatePosted: formatTime(c.DatePosted),
	}
}

func ToCommentResponses(comments []model.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, ToCommentResponse(c))
	}
	return out
}
