package bidding

//go:generate mockgen -source=bidding_service.go -destination=mock_collaborators.go -package=bidding

import (
	"auction-house/internal/biddingerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/rules"
	"auction-house/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxTitleLen        = 200
	maxCategoryNameLen = 30
)

// PriceCache keeps derived listing quotes. Invalidate drops a listing's entry
// and advances its generation; SetQuote stores a quote only while the
// generation it was computed under is still current and reports whether it
// did.
type PriceCache interface {
	GetQuote(ctx context.Context, listingID string) (models.Quote, bool, error)
	Generation(ctx context.Context, listingID string) (int64, error)
	SetQuote(ctx context.Context, listingID string, generation int64, quote models.Quote) (bool, error)
	Invalidate(ctx context.Context, listingID string) error
}

// EventPublisher announces accepted bids to other processes
type EventPublisher interface {
	PublishBidAccepted(ctx context.Context, bid models.Bid) error
}

type noopCache struct{}

func (noopCache) GetQuote(context.Context, string) (models.Quote, bool, error) {
	return models.Quote{}, false, nil
}
func (noopCache) Generation(context.Context, string) (int64, error) { return 0, nil }
func (noopCache) SetQuote(context.Context, string, int64, models.Quote) (bool, error) {
	return true, nil
}
func (noopCache) Invalidate(context.Context, string) error { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishBidAccepted(context.Context, models.Bid) error { return nil }

// Option configures optional collaborators of the BiddingService
type Option func(*BiddingService)

// WithPriceCache caches listing quotes between bids
func WithPriceCache(cache PriceCache) Option {
	return func(s *BiddingService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithEventPublisher publishes every accepted bid
func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *BiddingService) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// WithClock overrides the clock used for listings and comments
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) {
		s.now = now
	}
}

// NewListing holds the author-provided fields of a listing
type NewListing struct {
	Title       string
	Description string
	CategoryID  string
	StartingBid decimal.Decimal
	ImageRef    string
	// IsActive defaults to true
	IsActive *bool
}

// ListingUpdate holds the fields an author may change. Nil fields are kept.
type ListingUpdate struct {
	Title       *string
	Description *string
	CategoryID  *string
	ImageRef    *string
	StartingBid *decimal.Decimal
	IsActive    *bool
}

// ListingDetail is a listing with its derived state as seen by one viewer
type ListingDetail struct {
	Listing   models.Listing
	Quote     models.Quote
	IsWatched bool
	IsOwner   bool
}

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo   repository.AuctionDB
	engine *rules.Engine
	cache  PriceCache
	events EventPublisher
	now    func() time.Time
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, engine *rules.Engine, opts ...Option) *BiddingService {
	if engine == nil {
		engine = rules.NewEngine(rules.Policy{})
	}
	s := &BiddingService{
		repo:   repo,
		engine: engine,
		cache:  noopCache{},
		events: noopPublisher{},
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateListing validates and stores a new listing authored by actorID
func (s *BiddingService) CreateListing(ctx context.Context, actorID string, in NewListing) (models.Listing, error) {
	if actorID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing author", biddingerrors.ErrInvalidRequest)
	}
	if err := rules.ValidateListingCreation(in.StartingBid); err != nil {
		return models.Listing{}, fmt.Errorf("service: %w", err)
	}
	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return models.Listing{}, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return models.Listing{}, err
	}

	listing := models.Listing{
		ListingID:   utils.GenerateID(),
		AuthorID:    actorID,
		CategoryID:  in.CategoryID,
		Title:       title,
		Description: in.Description,
		StartingBid: in.StartingBid,
		DatePosted:  s.now(),
		IsActive:    in.IsActive == nil || *in.IsActive,
		ImageRef:    in.ImageRef,
	}
	if listing.ImageRef == "" {
		listing.ImageRef = models.DefaultImageRef
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to create listing %q: %w", title, err)
	}
	return listing, nil
}

// UpdateListing applies an author's edits. The starting bid is frozen once
// the listing has bids and a closed listing cannot be reopened.
func (s *BiddingService) UpdateListing(ctx context.Context, actorID, listingID string, upd ListingUpdate) (models.Listing, error) {
	if listingID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrInvalidRequest)
	}
	if upd.CategoryID != nil {
		if err := s.checkCategory(ctx, *upd.CategoryID); err != nil {
			return models.Listing{}, err
		}
	}

	updated, err := s.repo.UpdateListing(ctx, listingID, func(l *models.Listing, bids []models.Bid) error {
		if l.AuthorID != actorID {
			return biddingerrors.ErrNotListingAuthor
		}
		if upd.Title != nil {
			title := strings.TrimSpace(*upd.Title)
			if err := validateTitle(title); err != nil {
				return err
			}
			l.Title = title
		}
		if upd.Description != nil {
			l.Description = *upd.Description
		}
		if upd.CategoryID != nil {
			l.CategoryID = *upd.CategoryID
		}
		if upd.ImageRef != nil {
			l.ImageRef = *upd.ImageRef
			if l.ImageRef == "" {
				l.ImageRef = models.DefaultImageRef
			}
		}
		if upd.StartingBid != nil && !upd.StartingBid.Equal(l.StartingBid) {
			if len(bids) > 0 {
				return biddingerrors.ErrListingHasBids
			}
			if err := rules.ValidateListingCreation(*upd.StartingBid); err != nil {
				return err
			}
			l.StartingBid = *upd.StartingBid
		}
		if upd.IsActive != nil && *upd.IsActive != l.IsActive {
			if *upd.IsActive {
				return fmt.Errorf("%w: a closed listing cannot be reopened", biddingerrors.ErrInvalidListing)
			}
			l.IsActive = false
		}
		return nil
	})
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to update listing %s: %w", listingID, err)
	}

	s.invalidate(ctx, listingID)
	return updated, nil
}

// CloseListing ends bidding on a listing. Only its author may close it;
// closing an already closed listing is a no-op.
func (s *BiddingService) CloseListing(ctx context.Context, actorID, listingID string) (models.Listing, error) {
	closed := false
	return s.UpdateListing(ctx, actorID, listingID, ListingUpdate{IsActive: &closed})
}

// GetListing returns a listing with its current price and winner
func (s *BiddingService) GetListing(ctx context.Context, viewerID, listingID string) (ListingDetail, error) {
	if listingID == "" {
		return ListingDetail{}, fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrInvalidRequest)
	}
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return ListingDetail{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}
	return s.detail(ctx, viewerID, listing)
}

// ListListings returns listings ordered active first, newest first
func (s *BiddingService) ListListings(ctx context.Context, viewerID string, filter models.ListingFilter) ([]ListingDetail, error) {
	listings, err := s.repo.ListListings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	return s.details(ctx, viewerID, listings)
}

// ListingsByCategory returns the active listings of a category
func (s *BiddingService) ListingsByCategory(ctx context.Context, viewerID, categoryID string) ([]ListingDetail, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("service: %w - empty category ID", biddingerrors.ErrInvalidRequest)
	}
	if err := s.checkCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.ListListings(ctx, viewerID, models.ListingFilter{CategoryID: categoryID, ActiveOnly: true})
}

// PlaceBid validates and records a user's bid for a listing. Validation and
// insert happen atomically with respect to other bids on the same listing.
func (s *BiddingService) PlaceBid(ctx context.Context, actorID, listingID string, amount decimal.Decimal) (models.Bid, error) {
	if listingID == "" || actorID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing listingID or userID", biddingerrors.ErrInvalidRequest)
	}
	if err := rules.ValidateAmount(amount); err != nil {
		return models.Bid{}, fmt.Errorf("service: %w", err)
	}

	bid, err := s.repo.RecordBid(ctx, listingID, func(l models.Listing, bids []models.Bid) (models.Bid, error) {
		return s.engine.Accept(l, bids, actorID, amount)
	})
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid for listing %s by user %s: %w", listingID, actorID, err)
	}

	s.invalidate(ctx, listingID)
	if err := s.events.PublishBidAccepted(ctx, bid); err != nil {
		utils.Warn("PlaceBid: failed to publish bid event", map[string]any{
			"bid_id":     bid.BidID,
			"listing_id": listingID,
			"error":      err.Error(),
		})
	}

	return bid, nil
}

// GetBidsForListing returns all bids for a specific listing
func (s *BiddingService) GetBidsForListing(ctx context.Context, listingID string) ([]models.Bid, error) {
	if listingID == "" {
		return nil, fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrInvalidRequest)
	}

	bids, err := s.repo.GetBidsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}

	return bids, nil
}

// GetWinningBid returns the bid currently entitled to the listing
func (s *BiddingService) GetWinningBid(ctx context.Context, listingID string) (models.Bid, error) {
	bids, err := s.GetBidsForListing(ctx, listingID)
	if err != nil {
		return models.Bid{}, err
	}

	winning, ok := rules.DetermineWinner(bids)
	if !ok {
		return models.Bid{}, fmt.Errorf("service: listing %s: %w", listingID, biddingerrors.ErrNoBids)
	}
	return winning, nil
}

// GetListingsByBidder returns all listings a user has placed bids on
func (s *BiddingService) GetListingsByBidder(ctx context.Context, userID string) ([]models.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidRequest)
	}

	listings, err := s.repo.GetListingsByBidder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get listings for user %s: %w", userID, err)
	}

	return listings, nil
}

// ToggleWatchlist adds or removes a listing from the actor's watchlist and
// reports whether it is watched afterwards
func (s *BiddingService) ToggleWatchlist(ctx context.Context, actorID, listingID string) (bool, error) {
	if listingID == "" || actorID == "" {
		return false, fmt.Errorf("service: %w - missing listingID or userID", biddingerrors.ErrInvalidRequest)
	}
	watched, err := s.repo.ToggleWatch(ctx, listingID, actorID)
	if err != nil {
		return false, fmt.Errorf("service: failed to toggle watch on listing %s: %w", listingID, err)
	}
	return watched, nil
}

// GetWatchlist returns the listings the actor watches
func (s *BiddingService) GetWatchlist(ctx context.Context, actorID string) ([]ListingDetail, error) {
	if actorID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidRequest)
	}
	listings, err := s.repo.GetWatchlist(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get watchlist for user %s: %w", actorID, err)
	}
	return s.details(ctx, actorID, listings)
}

// AddComment stores a comment by actorID on a listing
func (s *BiddingService) AddComment(ctx context.Context, actorID, listingID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if listingID == "" || actorID == "" {
		return models.Comment{}, fmt.Errorf("service: %w - missing listingID or userID", biddingerrors.ErrInvalidRequest)
	}
	if content == "" {
		return models.Comment{}, fmt.Errorf("service: %w - empty content", biddingerrors.ErrInvalidComment)
	}

	comment := models.Comment{
		CommentID:  utils.GenerateID(),
		ListingID:  listingID,
		UserID:     actorID,
		Content:    content,
		DatePosted: s.now(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("service: failed to add comment to listing %s: %w", listingID, err)
	}
	return comment, nil
}

// GetComments returns the comments of a listing, oldest first
func (s *BiddingService) GetComments(ctx context.Context, listingID string) ([]models.Comment, error) {
	if listingID == "" {
		return nil, fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrInvalidRequest)
	}
	comments, err := s.repo.GetComments(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}

// CreateCategory adds a listing category
func (s *BiddingService) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxCategoryNameLen {
		return models.Category{}, fmt.Errorf("service: %w - category name must be 1-%d characters", biddingerrors.ErrInvalidRequest, maxCategoryNameLen)
	}
	category := models.Category{CategoryID: utils.GenerateID(), Name: name}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return models.Category{}, fmt.Errorf("service: failed to create category %q: %w", name, err)
	}
	return category, nil
}

// ListCategories returns all categories
func (s *BiddingService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *BiddingService) detail(ctx context.Context, viewerID string, listing models.Listing) (ListingDetail, error) {
	quote, err := s.quote(ctx, listing)
	if err != nil {
		return ListingDetail{}, err
	}
	return ListingDetail{
		Listing:   listing,
		Quote:     quote,
		IsWatched: viewerID != "" && listing.IsWatchedBy(viewerID),
		IsOwner:   viewerID != "" && listing.AuthorID == viewerID,
	}, nil
}

func (s *BiddingService) details(ctx context.Context, viewerID string, listings []models.Listing) ([]ListingDetail, error) {
	out := make([]ListingDetail, 0, len(listings))
	for _, l := range listings {
		d, err := s.detail(ctx, viewerID, l)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// quote derives the listing's price state, going through the cache first.
// Cache failures only cost a recomputation.
func (s *BiddingService) quote(ctx context.Context, listing models.Listing) (models.Quote, error) {
	if q, ok, err := s.cache.GetQuote(ctx, listing.ListingID); err != nil {
		utils.Warn("quote: cache read failed", map[string]any{"listing_id": listing.ListingID, "error": err.Error()})
	} else if ok {
		return q, nil
	}

	// read before the bids: a bid committed after this point bumps the
	// generation and the store below becomes a no-op
	generation, genErr := s.cache.Generation(ctx, listing.ListingID)
	if genErr != nil {
		utils.Warn("quote: cache generation read failed", map[string]any{"listing_id": listing.ListingID, "error": genErr.Error()})
	}

	bids, err := s.repo.GetBidsByListing(ctx, listing.ListingID)
	if err != nil {
		return models.Quote{}, fmt.Errorf("service: failed to get bids for listing %s: %w", listing.ListingID, err)
	}
	q := rules.QuoteFor(listing, bids)

	if genErr != nil {
		return q, nil
	}
	stored, err := s.cache.SetQuote(ctx, listing.ListingID, generation, q)
	switch {
	case err != nil:
		utils.Warn("quote: cache write failed", map[string]any{"listing_id": listing.ListingID, "error": err.Error()})
	case !stored:
		utils.Debug("quote: listing changed while computing, not cached", map[string]any{
			"listing_id": listing.ListingID,
			"generation": generation,
		})
	}
	return q, nil
}

func (s *BiddingService) invalidate(ctx context.Context, listingID string) {
	if err := s.cache.Invalidate(ctx, listingID); err != nil {
		utils.Warn("failed to invalidate cached quote", map[string]any{"listing_id": listingID, "error": err.Error()})
	}
}

func (s *BiddingService) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, biddingerrors.ErrCategoryNotFound) {
			return fmt.Errorf("service: %w", err)
		}
		return fmt.Errorf("service: failed to check category %s: %w", categoryID, err)
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" || utf8.RuneCountInString(title) > maxTitleLen {
		return fmt.Errorf("service: %w - title must be 1-%d characters", biddingerrors.ErrInvalidListing, maxTitleLen)
	}
	return nil
}
