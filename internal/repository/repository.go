package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"auction-house/internal/biddingerrors"
	model "auction-house/internal/models"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BidDecision inspects a listing and its full bid history and returns the bid
// to append, or an error to reject the submission.
type BidDecision func(listing model.Listing, bids []model.Bid) (model.Bid, error)

// ListingMutation edits a listing in place. Returning an error discards the edit.
type ListingMutation func(listing *model.Listing, bids []model.Bid) error

// AuctionDB defines the storage interface for the auction system
type AuctionDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	CreateCategory(ctx context.Context, category model.Category) error
	GetCategory(ctx context.Context, categoryID string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	CreateListing(ctx context.Context, listing model.Listing) error
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	ListListings(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error)
	UpdateListing(ctx context.Context, listingID string, mutate ListingMutation) (model.Listing, error)

	// RecordBid runs decide and stores its bid as one atomic step per listing,
	// so two submissions can never both pass against the same stale price.
	RecordBid(ctx context.Context, listingID string, decide BidDecision) (model.Bid, error)
	GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)

	ToggleWatch(ctx context.Context, listingID, userID string) (bool, error)
	GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error)

	AddComment(ctx context.Context, comment model.Comment) error
	GetComments(ctx context.Context, listingID string) ([]model.Comment, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu          sync.RWMutex
	users       map[string]model.User     // key: userID
	usernames   map[string]string         // key: lowercased username -> userID
	categories  map[string]model.Category // key: categoryID
	listings    map[string]model.Listing  // key: listingID
	bids        map[string][]model.Bid    // key: listingID -> bids in insertion order
	comments    map[string][]model.Comment
	bidListings map[string][]string // key: userID -> listingIDs the user has bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:       make(map[string]model.User),
		usernames:   make(map[string]string),
		categories:  make(map[string]model.Category),
		listings:    make(map[string]model.Listing),
		bids:        make(map[string][]model.Bid),
		comments:    make(map[string][]model.Comment),
		bidListings: make(map[string][]string),
	}
}

// CreateUser stores a new user; usernames are unique case-insensitively
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, taken := r.usernames[key]; taken {
		return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrUsernameTaken)
	}
	r.users[user.UserID] = user
	r.usernames[key] = user.UserID
	return nil
}

// GetUser returns a user by ID
func (r *MemoryRepo) GetUser(_ context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	return user, nil
}

// GetUserByUsername returns a user by login name
func (r *MemoryRepo) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usernames[strings.ToLower(username)]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", username, biddingerrors.ErrUserNotFound)
	}
	return r.users[id], nil
}

// CreateCategory stores a category; names are unique case-insensitively
func (r *MemoryRepo) CreateCategory(_ context.Context, category model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return fmt.Errorf("create category %s: %w", category.Name, biddingerrors.ErrCategoryExists)
		}
	}
	r.categories[category.CategoryID] = category
	return nil
}

// GetCategory returns a category by ID
func (r *MemoryRepo) GetCategory(_ context.Context, categoryID string) (model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[categoryID]
	if !ok {
		return model.Category{}, fmt.Errorf("get category %s: %w", categoryID, biddingerrors.ErrCategoryNotFound)
	}
	return c, nil
}

// ListCategories returns all categories ordered by name
func (r *MemoryRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateListing stores a new listing
func (r *MemoryRepo) CreateListing(_ context.Context, listing model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if listing.ListingID == "" {
		return fmt.Errorf("create listing: %w", biddingerrors.ErrInvalidListing)
	}
	if listing.CategoryID != "" {
		if _, ok := r.categories[listing.CategoryID]; !ok {
			return fmt.Errorf("create listing %s: %w", listing.ListingID, biddingerrors.ErrCategoryNotFound)
		}
	}
	listing.WatcherIDs = append([]string(nil), listing.WatcherIDs...)
	r.listings[listing.ListingID] = listing
	return nil
}

// GetListing returns a listing by ID
func (r *MemoryRepo) GetListing(_ context.Context, listingID string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}
	return copyListing(l), nil
}

// ListListings returns listings matching filter, active first then newest first
func (r *MemoryRepo) ListListings(_ context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if filter.ActiveOnly && !l.IsActive {
			continue
		}
		if filter.CategoryID != "" && l.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, copyListing(l))
	}
	SortListings(out)
	return out, nil
}

// UpdateListing applies mutate to the stored listing under the write lock
func (r *MemoryRepo) UpdateListing(_ context.Context, listingID string, mutate ListingMutation) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("update listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}
	edited := copyListing(l)
	if err := mutate(&edited, append([]model.Bid(nil), r.bids[listingID]...)); err != nil {
		return model.Listing{}, err
	}
	if edited.CategoryID != "" {
		if _, ok := r.categories[edited.CategoryID]; !ok {
			return model.Listing{}, fmt.Errorf("update listing %s: %w", listingID, biddingerrors.ErrCategoryNotFound)
		}
	}
	edited.ListingID = listingID
	edited.WatcherIDs = l.WatcherIDs
	r.listings[listingID] = edited
	return copyListing(edited), nil
}

// RecordBid decides on and records a bid while holding the write lock
func (r *MemoryRepo) RecordBid(_ context.Context, listingID string, decide BidDecision) (model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[listingID]
	if !ok {
		return model.Bid{}, fmt.Errorf("record bid for listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}

	bid, err := decide(copyListing(l), append([]model.Bid(nil), r.bids[listingID]...))
	if err != nil {
		return model.Bid{}, err
	}
	bid.ListingID = listingID
	r.bids[listingID] = append(r.bids[listingID], bid)

	for _, id := range r.bidListings[bid.UserID] {
		if id == listingID {
			return bid, nil
		}
	}
	r.bidListings[bid.UserID] = append(r.bidListings[bid.UserID], listingID)

	return bid, nil
}

// GetBidsByListing returns all bids for a listing in the order they were placed
func (r *MemoryRepo) GetBidsByListing(_ context.Context, listingID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.listings[listingID]; !ok {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}
	return append([]model.Bid{}, r.bids[listingID]...), nil
}

// GetListingsByBidder returns all listings a user has bid on
func (r *MemoryRepo) GetListingsByBidder(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bidListings[userID]
	out := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.listings[id]; ok {
			out = append(out, copyListing(l))
		}
	}
	return out, nil
}

// ToggleWatch adds the user to the listing's watchers or removes them.
// It reports whether the listing is watched afterwards.
func (r *MemoryRepo) ToggleWatch(_ context.Context, listingID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[listingID]
	if !ok {
		return false, fmt.Errorf("toggle watch on listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}

	watchers := make([]string, 0, len(l.WatcherIDs)+1)
	removed := false
	for _, id := range l.WatcherIDs {
		if id == userID {
			removed = true
			continue
		}
		watchers = append(watchers, id)
	}
	if !removed {
		watchers = append(watchers, userID)
	}
	l.WatcherIDs = watchers
	r.listings[listingID] = l
	return !removed, nil
}

// GetWatchlist returns the listings a user watches
func (r *MemoryRepo) GetWatchlist(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Listing{}
	for _, l := range r.listings {
		if l.IsWatchedBy(userID) {
			out = append(out, copyListing(l))
		}
	}
	SortListings(out)
	return out, nil
}

// AddComment stores a comment on an existing listing
func (r *MemoryRepo) AddComment(_ context.Context, comment model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[comment.ListingID]; !ok {
		return fmt.Errorf("add comment to listing %s: %w", comment.ListingID, biddingerrors.ErrListingNotFound)
	}
	r.comments[comment.ListingID] = append(r.comments[comment.ListingID], comment)
	return nil
}

// GetComments returns a listing's comments oldest first
func (r *MemoryRepo) GetComments(_ context.Context, listingID string) ([]model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.listings[listingID]; !ok {
		return nil, fmt.Errorf("get comments for listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}
	return append([]model.Comment{}, r.comments[listingID]...), nil
}

// AddListing adds a listing without validation. This method is intended for
// seeding and tests only.
func (r *MemoryRepo) AddListing(listing model.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ListingID] = listing
}

// SortListings orders listings active first, then by most recent posting
func SortListings(listings []model.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].IsActive != listings[j].IsActive {
			return listings[i].IsActive
		}
		return listings[i].DatePosted.After(listings[j].DatePosted)
	})
}

func copyListing(l model.Listing) model.Listing {
	l.WatcherIDs = append([]string(nil), l.WatcherIDs...)
	return l
}
