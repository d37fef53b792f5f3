package handler

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_handler.go -package=handler

import (
	"context"
	"net/http"
	"strconv"

	bidding "auction-house/internal/biddingService"
	model "auction-house/internal/models"
	"auction-house/services/bidding/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BiddingServiceInterface interface {
	CreateListing(ctx context.Context, actorID string, in bidding.NewListing) (model.Listing, error)
	UpdateListing(ctx context.Context, actorID, listingID string, upd bidding.ListingUpdate) (model.Listing, error)
	CloseListing(ctx context.Context, actorID, listingID string) (model.Listing, error)
	GetListing(ctx context.Context, viewerID, listingID string) (bidding.ListingDetail, error)
	ListListings(ctx context.Context, viewerID string, filter model.ListingFilter) ([]bidding.ListingDetail, error)
	ListingsByCategory(ctx context.Context, viewerID, categoryID string) ([]bidding.ListingDetail, error)
	PlaceBid(ctx context.Context, actorID, listingID string, amount decimal.Decimal) (model.Bid, error)
	GetBidsForListing(ctx context.Context, listingID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, listingID string) (model.Bid, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)
	ToggleWatchlist(ctx context.Context, actorID, listingID string) (bool, error)
	GetWatchlist(ctx context.Context, actorID string) ([]bidding.ListingDetail, error)
	AddComment(ctx context.Context, actorID, listingID, content string) (model.Comment, error)
	GetComments(ctx context.Context, listingID string) ([]model.Comment, error)
	CreateCategory(ctx context.Context, name string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PlaceBidHandler handles POST /listings/:listing_id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	actorID := helpers.ActorID(c)
	bid, err := h.service.PlaceBid(c.Request.Context(), actorID, listingID, *req.Amount)
	if err != nil {
		helpers.HandleServiceError(c, "PlaceBidHandler", "failed to record bid", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actorID,
			"amount":     req.Amount.String(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": bid.ListingID,
		"user_id":    actorID,
		"amount":     bid.Amount.StringFixed(2),
	})
}

// GetBidsByListingHandler handles GET /listings/:listing_id/bids
func (h *BiddingHandler) GetBidsByListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bids, err := h.service.GetBidsForListing(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetBidsByListingHandler", "error retrieving bids", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByListingHandler", "bids retrieved successfully", map[string]any{
		"listing_id": listingID,
		"count":      len(bids),
	})
}

// GetWinningBidHandler handles GET /listings/:listing_id/winner
func (h *BiddingHandler) GetWinningBidHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bid, err := h.service.GetWinningBid(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetWinningBidHandler", "winning bid error", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": bid.ListingID,
		"user_id":    bid.UserID,
		"amount":     bid.Amount.StringFixed(2),
	})
}

// GetListingsByUserHandler handles GET /users/:user_id/listings
func (h *BiddingHandler) GetListingsByUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	listings, err := h.service.GetListingsByBidder(c.Request.Context(), userID)
	if err != nil {
		helpers.HandleServiceError(c, "GetListingsByUserHandler", "error retrieving listings", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingSummaries(listings), "listings retrieved successfully")
	helpers.LogSuccess("GetListingsByUserHandler", "listings retrieved successfully", map[string]any{
		"user_id":        userID,
		"listings_count": len(listings),
	})
}

// CreateListingHandler handles POST /listings
func (h *BiddingHandler) CreateListingHandler(c *gin.Context) {
	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	actorID := helpers.ActorID(c)
	listing, err := h.service.CreateListing(c.Request.Context(), actorID, bidding.NewListing{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		StartingBid: *req.StartingBid,
		ImageRef:    req.ImageRef,
		IsActive:    req.IsActive,
	})
	if err != nil {
		helpers.HandleServiceError(c, "CreateListingHandler", "failed to create listing", err, map[string]any{"user_id": actorID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToListingSummary(listing), "listing created successfully")
	helpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"listing_id": listing.ListingID,
		"user_id":    actorID,
	})
}

// ListListingsHandler handles GET /listings?category_id=&active=true
func (h *BiddingHandler) ListListingsHandler(c *gin.Context) {
	filter := model.ListingFilter{CategoryID: c.Query("category_id")}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			helpers.HandleBindError(c, "ListListingsHandler", err)
			return
		}
		filter.ActiveOnly = active
	}

	details, err := h.service.ListListings(c.Request.Context(), helpers.ActorID(c), filter)
	if err != nil {
		helpers.HandleServiceError(c, "ListListingsHandler", "error listing listings", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponses(details), "listings retrieved successfully")
	helpers.LogSuccess("ListListingsHandler", "listings retrieved successfully", map[string]any{"count": len(details)})
}

// GetListingHandler handles GET /listings/:listing_id
func (h *BiddingHandler) GetListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	detail, err := h.service.GetListing(c.Request.Context(), helpers.ActorID(c), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetListingHandler", "error retrieving listing", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponse(detail), "listing retrieved successfully")
}

// UpdateListingHandler handles PATCH /listings/:listing_id
func (h *BiddingHandler) UpdateListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	var req helpers.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateListingHandler", err)
		return
	}

	actorID := helpers.ActorID(c)
	listing, err := h.service.UpdateListing(c.Request.Context(), actorID, listingID, bidding.ListingUpdate{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		ImageRef:    req.ImageRef,
		StartingBid: req.StartingBid,
		IsActive:    req.IsActive,
	})
	if err != nil {
		helpers.HandleServiceError(c, "UpdateListingHandler", "failed to update listing", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actorID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingSummary(listing), "listing updated successfully")
	helpers.LogSuccess("UpdateListingHandler", "listing updated successfully", map[string]any{"listing_id": listingID})
}

// CloseListingHandler handles POST /listings/:listing_id/close
func (h *BiddingHandler) CloseListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	actorID := helpers.ActorID(c)
	listing, err := h.service.CloseListing(c.Request.Context(), actorID, listingID)
	if err != nil {
		helpers.HandleServiceError(c, "CloseListingHandler", "failed to close listing", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actorID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingSummary(listing), "listing closed successfully")
	helpers.LogSuccess("CloseListingHandler", "listing closed successfully", map[string]any{"listing_id": listingID})
}

// ToggleWatchlistHandler handles POST /listings/:listing_id/watchlist
func (h *BiddingHandler) ToggleWatchlistHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	actorID := helpers.ActorID(c)
	watched, err := h.service.ToggleWatchlist(c.Request.Context(), actorID, listingID)
	if err != nil {
		helpers.HandleServiceError(c, "ToggleWatchlistHandler", "failed to toggle watchlist", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actorID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.WatchResponse{ListingID: listingID, Watched: watched}, "watchlist updated successfully")
}

// GetWatchlistHandler handles GET /watchlist
func (h *BiddingHandler) GetWatchlistHandler(c *gin.Context) {
	actorID := helpers.ActorID(c)
	details, err := h.service.GetWatchlist(c.Request.Context(), actorID)
	if err != nil {
		helpers.HandleServiceError(c, "GetWatchlistHandler", "error retrieving watchlist", err, map[string]any{"user_id": actorID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponses(details), "watchlist retrieved successfully")
}

// AddCommentHandler handles POST /listings/:listing_id/comments
func (h *BiddingHandler) AddCommentHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	var req helpers.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AddCommentHandler", err)
		return
	}

	actorID := helpers.ActorID(c)
	comment, err := h.service.AddComment(c.Request.Context(), actorID, listingID, req.Content)
	if err != nil {
		helpers.HandleServiceError(c, "AddCommentHandler", "failed to add comment", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actorID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToCommentResponse(comment), "comment added successfully")
}

// GetCommentsHandler handles GET /listings/:listing_id/comments
func (h *BiddingHandler) GetCommentsHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	comments, err := h.service.GetComments(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetCommentsHandler", "error retrieving comments", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToCommentResponses(comments), "comments retrieved successfully")
}

// CreateCategoryHandler handles POST /categories
func (h *BiddingHandler) CreateCategoryHandler(c *gin.Context) {
	var req helpers.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateCategoryHandler", err)
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		helpers.HandleServiceError(c, "CreateCategoryHandler", "failed to create category", err, map[string]any{"name": req.Name})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, category, "category created successfully")
	helpers.LogSuccess("CreateCategoryHandler", "category created successfully", map[string]any{"category_id": category.CategoryID})
}

// ListCategoriesHandler handles GET /categories
func (h *BiddingHandler) ListCategoriesHandler(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		helpers.HandleServiceError(c, "ListCategoriesHandler", "error listing categories", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, categories, "categories retrieved successfully")
}

// CategoryListingsHandler handles GET /categories/:category_id/listings
func (h *BiddingHandler) CategoryListingsHandler(c *gin.Context) {
	categoryID := c.Param("category_id")
	details, err := h.service.ListingsByCategory(c.Request.Context(), helpers.ActorID(c), categoryID)
	if err != nil {
		helpers.HandleServiceError(c, "CategoryListingsHandler", "error retrieving category listings", err, map[string]any{"category_id": categoryID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponses(details), "listings retrieved successfully")
}
