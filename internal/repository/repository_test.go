package repository

import (
	"auction-house/internal/biddingerrors"
	model "auction-house/internal/models"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Helper to create a new Listing
func newListing(listingID, authorID string, startingBid int64, postedAt time.Time) model.Listing {
	return model.Listing{
		ListingID:   listingID,
		AuthorID:    authorID,
		Title:       fmt.Sprintf("%s title", listingID),
		Description: fmt.Sprintf("%s description", listingID),
		StartingBid: decimal.NewFromInt(startingBid),
		DatePosted:  postedAt,
		IsActive:    true,
		ImageRef:    model.DefaultImageRef,
	}
}

// Helper to create a new Bid
func newBid(bidID, listingID, userID string, amount int64, postedAt time.Time) model.Bid {
	return model.Bid{
		BidID:      bidID,
		ListingID:  listingID,
		UserID:     userID,
		Amount:     decimal.NewFromInt(amount),
		DatePosted: postedAt,
	}
}

// accept returns a decision that always appends bid
func accept(bid model.Bid) BidDecision {
	return func(model.Listing, []model.Bid) (model.Bid, error) {
		return bid, nil
	}
}

// Test RecordBid
func TestMemoryRepo_RecordBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	repo := NewMemoryRepo()
	repo.AddListing(newListing("listing1", "author", 50, now))

	tests := []struct {
		name      string
		listingID string
		decide    BidDecision
		wantError error
	}{
		{name: "valid_bid", listingID: "listing1", decide: accept(newBid("bid1", "listing1", "user1", 100, now))},
		{name: "listing_not_found", listingID: "listingX", decide: accept(newBid("bid2", "listingX", "user1", 50, now)), wantError: biddingerrors.ErrListingNotFound},
		{name: "empty_listingID", listingID: "", decide: accept(newBid("bid3", "", "user1", 50, now)), wantError: biddingerrors.ErrListingNotFound},
		{
			name:      "decision_rejects",
			listingID: "listing1",
			decide: func(model.Listing, []model.Bid) (model.Bid, error) {
				return model.Bid{}, biddingerrors.ErrBidTooLow
			},
			wantError: biddingerrors.ErrBidTooLow,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			bid, err := repo.RecordBid(ctx, tc.listingID, tc.decide)
			if tc.wantError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.wantError), "expected error: %v, got: %v", tc.wantError, err)
				return
			}
			require.NoError(t, err)
			bids, err := repo.GetBidsByListing(ctx, tc.listingID)
			require.NoError(t, err)
			require.Contains(t, bids, bid)
		})
	}

	t.Run("rejected_decision_leaves_history_unchanged", func(t *testing.T) {
		before, err := repo.GetBidsByListing(ctx, "listing1")
		require.NoError(t, err)

		_, err = repo.RecordBid(ctx, "listing1", func(model.Listing, []model.Bid) (model.Bid, error) {
			return model.Bid{}, biddingerrors.ErrListingInactive
		})
		require.ErrorIs(t, err, biddingerrors.ErrListingInactive)

		after, err := repo.GetBidsByListing(ctx, "listing1")
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("decision_sees_listing_and_history", func(t *testing.T) {
		var seen []model.Bid
		var seenListing model.Listing
		_, err := repo.RecordBid(ctx, "listing1", func(l model.Listing, bids []model.Bid) (model.Bid, error) {
			seenListing = l
			seen = bids
			return newBid("bid-seen", "listing1", "user2", 120, now), nil
		})
		require.NoError(t, err)
		require.Equal(t, "listing1", seenListing.ListingID)
		require.NotEmpty(t, seen)
	})
}

// Every goroutine bids one above the price it observes. Serialised decisions
// produce a strictly increasing history with no duplicate amounts.
func TestMemoryRepo_RecordBid_Serialized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newListing("listing1", "author", 100, time.Now()))

	var wg sync.WaitGroup
	concurrentCount := 50

	for i := 0; i < concurrentCount; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			_, err := repo.RecordBid(ctx, "listing1", func(l model.Listing, bids []model.Bid) (model.Bid, error) {
				price := l.StartingBid
				for _, b := range bids {
					if b.Amount.GreaterThan(price) {
						price = b.Amount
					}
				}
				return model.Bid{
					BidID:      fmt.Sprintf("bid-%d", i),
					UserID:     fmt.Sprintf("user-%d", i),
					Amount:     price.Add(decimal.NewFromInt(1)),
					DatePosted: time.Now(),
				}, nil
			})
			require.NoError(t, err)
		}()
	}

	wg.Wait()

	bids, err := repo.GetBidsByListing(ctx, "listing1")
	require.NoError(t, err)
	require.Len(t, bids, concurrentCount)
	for i, b := range bids {
		require.True(t, decimal.NewFromInt(int64(101+i)).Equal(b.Amount), "bid %d has amount %s", i, b.Amount)
		require.Equal(t, "listing1", b.ListingID)
	}
}

// Test GetBidsByListing
func TestMemoryRepo_GetBidsByListing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()

	repo := NewMemoryRepo()
	repo.AddListing(newListing("listing1", "author", 50, now))
	repo.AddListing(newListing("listing2", "author", 75, now))
	repo.AddListing(newListing("listing3", "author", 100, now))

	bid1 := newBid("bid1", "listing1", "user1", 100, now)
	bid2 := newBid("bid2", "listing1", "user2", 150, now)
	_, err := repo.RecordBid(ctx, "listing1", accept(bid1))
	require.NoError(t, err)
	_, err = repo.RecordBid(ctx, "listing1", accept(bid2))
	require.NoError(t, err)

	var largeBids []model.Bid
	for i := 0; i < 1000; i++ {
		b := newBid(fmt.Sprintf("bid-large-%d", i), "listing3", fmt.Sprintf("user-%d", i), int64(100+i), now)
		_, err := repo.RecordBid(ctx, "listing3", accept(b))
		require.NoError(t, err)
		largeBids = append(largeBids, b)
	}

	tests := []struct {
		name      string
		listingID string
		wantBids  []model.Bid
		wantError bool
	}{
		{name: "existing_listing_with_bids", listingID: "listing1", wantBids: []model.Bid{bid1, bid2}},
		{name: "existing_listing_no_bids", listingID: "listing2", wantBids: []model.Bid{}},
		{name: "non_existing_listing", listingID: "listingX", wantError: true},
		{name: "listing_with_large_number_of_bids", listingID: "listing3", wantBids: largeBids},
		{name: "empty_listingID", listingID: "", wantError: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bids, err := repo.GetBidsByListing(ctx, tc.listingID)
			if tc.wantError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.wantBids, bids)
			}
		})
	}

	t.Run("concurrent_reads", func(t *testing.T) {
		t.Parallel()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				bids, err := repo.GetBidsByListing(ctx, "listing1")
				require.NoError(t, err)
				require.Equal(t, []model.Bid{bid1, bid2}, bids)
			}()
		}
		wg.Wait()
	})
}

// Test GetListingsByBidder
func TestMemoryRepo_GetListingsByBidder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()

	repo := NewMemoryRepo()
	l1 := newListing("listing1", "author", 50, now)
	l2 := newListing("listing2", "author", 75, now)
	l3 := newListing("listing3", "author", 100, now)
	for _, l := range []model.Listing{l1, l2, l3} {
		repo.AddListing(l)
	}

	for _, b := range []model.Bid{
		newBid("bid1", "listing1", "user1", 100, now),
		newBid("bid2", "listing2", "user1", 150, now),
		newBid("bid3", "listing3", "user2", 200, now),
		newBid("bid4", "listing3", "user2", 250, now),
	} {
		_, err := repo.RecordBid(ctx, b.ListingID, accept(b))
		require.NoError(t, err)
	}

	tests := []struct {
		name         string
		userID       string
		wantListings []model.Listing
	}{
		{name: "user_with_multiple_listings", userID: "user1", wantListings: []model.Listing{l1, l2}},
		{name: "duplicate_bids_same_listing", userID: "user2", wantListings: []model.Listing{l3}},
		{name: "user_with_no_bids", userID: "userX", wantListings: []model.Listing{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			listings, err := repo.GetListingsByBidder(ctx, tc.userID)
			require.NoError(t, err)
			require.ElementsMatch(t, tc.wantListings, listings)
		})
	}
}

// Test ListListings
func TestMemoryRepo_ListListings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateCategory(ctx, model.Category{CategoryID: "cat1", Name: "Books"}))

	oldActive := newListing("old-active", "a", 10, base)
	newActive := newListing("new-active", "a", 10, base.Add(time.Hour))
	newActive.CategoryID = "cat1"
	closed := newListing("closed", "a", 10, base.Add(2*time.Hour))
	closed.IsActive = false
	closed.CategoryID = "cat1"
	for _, l := range []model.Listing{oldActive, newActive, closed} {
		require.NoError(t, repo.CreateListing(ctx, l))
	}

	ids := func(ls []model.Listing) []string {
		out := make([]string, 0, len(ls))
		for _, l := range ls {
			out = append(out, l.ListingID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter model.ListingFilter
		want   []string
	}{
		{name: "all_active_first_then_newest", want: []string{"new-active", "old-active", "closed"}},
		{name: "active_only", filter: model.ListingFilter{ActiveOnly: true}, want: []string{"new-active", "old-active"}},
		{name: "category", filter: model.ListingFilter{CategoryID: "cat1"}, want: []string{"new-active", "closed"}},
		{name: "category_active_only", filter: model.ListingFilter{CategoryID: "cat1", ActiveOnly: true}, want: []string{"new-active"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := repo.ListListings(ctx, tc.filter)
			require.NoError(t, err)
			require.Equal(t, tc.want, ids(got))
		})
	}

	t.Run("unknown_category_rejected", func(t *testing.T) {
		l := newListing("orphan", "a", 10, base)
		l.CategoryID = "missing"
		require.ErrorIs(t, repo.CreateListing(ctx, l), biddingerrors.ErrCategoryNotFound)
	})
}

// Test UpdateListing
func TestMemoryRepo_UpdateListing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newListing("listing1", "author", 50, time.Now()))

	updated, err := repo.UpdateListing(ctx, "listing1", func(l *model.Listing, _ []model.Bid) error {
		l.Title = "renamed"
		l.IsActive = false
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.False(t, updated.IsActive)

	_, err = repo.UpdateListing(ctx, "listing1", func(l *model.Listing, _ []model.Bid) error {
		l.Title = "discarded"
		return biddingerrors.ErrNotListingAuthor
	})
	require.ErrorIs(t, err, biddingerrors.ErrNotListingAuthor)

	stored, err := repo.GetListing(ctx, "listing1")
	require.NoError(t, err)
	require.Equal(t, "renamed", stored.Title)

	_, err = repo.UpdateListing(ctx, "missing", func(*model.Listing, []model.Bid) error { return nil })
	require.ErrorIs(t, err, biddingerrors.ErrListingNotFound)
}

// Test ToggleWatch and GetWatchlist
func TestMemoryRepo_Watchlist(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newListing("listing1", "author", 50, time.Now()))
	repo.AddListing(newListing("listing2", "author", 50, time.Now()))

	watched, err := repo.ToggleWatch(ctx, "listing1", "user1")
	require.NoError(t, err)
	require.True(t, watched)

	list, err := repo.GetWatchlist(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "listing1", list[0].ListingID)
	require.True(t, list[0].IsWatchedBy("user1"))

	watched, err = repo.ToggleWatch(ctx, "listing1", "user1")
	require.NoError(t, err)
	require.False(t, watched)

	list, err = repo.GetWatchlist(ctx, "user1")
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = repo.ToggleWatch(ctx, "missing", "user1")
	require.ErrorIs(t, err, biddingerrors.ErrListingNotFound)
}

// Test users, categories and comments
func TestMemoryRepo_UsersCategoriesComments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()

	require.NoError(t, repo.CreateUser(ctx, model.User{UserID: "u1", Username: "Alice"}))
	require.ErrorIs(t, repo.CreateUser(ctx, model.User{UserID: "u2", Username: "alice"}), biddingerrors.ErrUsernameTaken)

	u, err := repo.GetUserByUsername(ctx, "ALICE")
	require.NoError(t, err)
	require.Equal(t, "u1", u.UserID)
	_, err = repo.GetUser(ctx, "nobody")
	require.ErrorIs(t, err, biddingerrors.ErrUserNotFound)

	require.NoError(t, repo.CreateCategory(ctx, model.Category{CategoryID: "c2", Name: "Toys"}))
	require.NoError(t, repo.CreateCategory(ctx, model.Category{CategoryID: "c1", Name: "Books"}))
	require.ErrorIs(t, repo.CreateCategory(ctx, model.Category{CategoryID: "c3", Name: "books"}), biddingerrors.ErrCategoryExists)
	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.Category{{CategoryID: "c1", Name: "Books"}, {CategoryID: "c2", Name: "Toys"}}, cats)

	repo.AddListing(newListing("listing1", "author", 50, time.Now()))
	c := model.Comment{CommentID: "cm1", ListingID: "listing1", UserID: "u1", Content: "nice"}
	require.NoError(t, repo.AddComment(ctx, c))
	require.ErrorIs(t, repo.AddComment(ctx, model.Comment{ListingID: "missing"}), biddingerrors.ErrListingNotFound)

	comments, err := repo.GetComments(ctx, "listing1")
	require.NoError(t, err)
	require.Equal(t, []model.Comment{c}, comments)
}
