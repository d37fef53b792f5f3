package mysql

import (
	"auction-house/internal/biddingerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

const errDuplicateEntry = 1062

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const listingColumns = `l.id, l.author_id, COALESCE(l.category_id, ''), l.title, l.description,
	l.starting_bid, l.date_posted, l.is_active, l.image_ref`

// AuctionRepository implements repository.AuctionDB on MySQL. Bids and
// listing edits lock the listing row so they serialise per listing.
type AuctionRepository struct {
	db *sql.DB
}

var _ repository.AuctionDB = (*AuctionRepository)(nil)

func NewAuctionRepository(db *sql.DB) *AuctionRepository {
	return &AuctionRepository{db: db}
}

func (r *AuctionRepository) CreateUser(ctx context.Context, user models.User) error {
	query := `
        INSERT INTO users (id, username, email, password_hash, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		user.UserID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if isDuplicate(err) {
		return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrUsernameTaken)
	}
	if err != nil {
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

func (r *AuctionRepository) GetUser(ctx context.Context, userID string) (models.User, error) {
	return r.getUser(ctx, "id", userID)
}

// GetUserByUsername matches case-insensitively through the column collation
func (r *AuctionRepository) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getUser(ctx, "username", username)
}

func (r *AuctionRepository) getUser(ctx context.Context, column, value string) (models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE ` + column + ` = ?`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&u.UserID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("get user %s: %w", value, biddingerrors.ErrUserNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user %s: %w", value, err)
	}
	return u, nil
}

func (r *AuctionRepository) CreateCategory(ctx context.Context, category models.Category) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES (?, ?)`,
		category.CategoryID, category.Name)
	if isDuplicate(err) {
		return fmt.Errorf("create category %s: %w", category.Name, biddingerrors.ErrCategoryExists)
	}
	if err != nil {
		return fmt.Errorf("create category %s: %w", category.Name, err)
	}
	return nil
}

func (r *AuctionRepository) GetCategory(ctx context.Context, categoryID string) (models.Category, error) {
	return getCategory(ctx, r.db, categoryID)
}

func getCategory(ctx context.Context, q querier, categoryID string) (models.Category, error) {
	var c models.Category
	err := q.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = ?`, categoryID).
		Scan(&c.CategoryID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, fmt.Errorf("get category %s: %w", categoryID, biddingerrors.ErrCategoryNotFound)
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("get category %s: %w", categoryID, err)
	}
	return c, nil
}

func (r *AuctionRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.CategoryID, &c.Name); err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *AuctionRepository) CreateListing(ctx context.Context, listing models.Listing) error {
	if listing.ListingID == "" {
		return fmt.Errorf("create listing: %w", biddingerrors.ErrInvalidListing)
	}
	if listing.CategoryID != "" {
		if _, err := getCategory(ctx, r.db, listing.CategoryID); err != nil {
			return fmt.Errorf("create listing %s: %w", listing.ListingID, err)
		}
	}

	query := `
        INSERT INTO listings (id, author_id, category_id, title, description,
                              starting_bid, date_posted, is_active, image_ref)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		listing.ListingID, listing.AuthorID, nullable(listing.CategoryID), listing.Title,
		listing.Description, listing.StartingBid, listing.DatePosted, listing.IsActive, listing.ImageRef)
	if err != nil {
		return fmt.Errorf("create listing %s: %w", listing.ListingID, err)
	}
	return nil
}

func (r *AuctionRepository) GetListing(ctx context.Context, listingID string) (models.Listing, error) {
	l, err := getListing(ctx, r.db, listingID, false)
	if err != nil {
		return models.Listing{}, err
	}
	if err := loadWatchers(ctx, r.db, []*models.Listing{&l}); err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

func getListing(ctx context.Context, q querier, listingID string, forUpdate bool) (models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings l WHERE l.id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	l, err := scanListing(q.QueryRowContext(ctx, query, listingID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, fmt.Errorf("get listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}
	if err != nil {
		return models.Listing{}, fmt.Errorf("get listing %s: %w", listingID, err)
	}
	return l, nil
}

// ListListings returns listings matching filter, active first then newest first
func (r *AuctionRepository) ListListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	var (
		where []string
		args  []any
	)
	if filter.CategoryID != "" {
		where = append(where, "l.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.ActiveOnly {
		where = append(where, "l.is_active = TRUE")
	}

	query := `SELECT ` + listingColumns + ` FROM listings l`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY l.is_active DESC, l.date_posted DESC`

	return r.queryListings(ctx, query, args...)
}

// UpdateListing locks the listing row, applies mutate and writes the result
func (r *AuctionRepository) UpdateListing(ctx context.Context, listingID string, mutate repository.ListingMutation) (models.Listing, error) {
	var updated models.Listing
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getListing(ctx, tx, listingID, true)
		if err != nil {
			return fmt.Errorf("update listing %s: %w", listingID, err)
		}
		bids, err := bidsByListing(ctx, tx, listingID)
		if err != nil {
			return err
		}

		edited := current
		if err := mutate(&edited, bids); err != nil {
			return err
		}
		if edited.CategoryID != "" && edited.CategoryID != current.CategoryID {
			if _, err := getCategory(ctx, tx, edited.CategoryID); err != nil {
				return fmt.Errorf("update listing %s: %w", listingID, err)
			}
		}

		query := `
            UPDATE listings
            SET category_id = ?, title = ?, description = ?, starting_bid = ?, is_active = ?, image_ref = ?
            WHERE id = ?
        `
		if _, err := tx.ExecContext(ctx, query,
			nullable(edited.CategoryID), edited.Title, edited.Description,
			edited.StartingBid, edited.IsActive, edited.ImageRef, listingID); err != nil {
			return fmt.Errorf("update listing %s: %w", listingID, err)
		}

		edited.ListingID = listingID
		updated = edited
		return loadWatchers(ctx, tx, []*models.Listing{&updated})
	})
	if err != nil {
		return models.Listing{}, err
	}
	return updated, nil
}

// RecordBid locks the listing row, runs decide against the committed history
// and inserts the resulting bid in the same transaction.
func (r *AuctionRepository) RecordBid(ctx context.Context, listingID string, decide repository.BidDecision) (models.Bid, error) {
	var bid models.Bid
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		listing, err := getListing(ctx, tx, listingID, true)
		if err != nil {
			return fmt.Errorf("record bid for listing %s: %w", listingID, err)
		}
		bids, err := bidsByListing(ctx, tx, listingID)
		if err != nil {
			return err
		}

		bid, err = decide(listing, bids)
		if err != nil {
			return err
		}
		bid.ListingID = listingID
		// DATETIME(6) keeps microseconds; the returned bid must match what is read back
		bid.DatePosted = bid.DatePosted.UTC().Truncate(time.Microsecond)

		query := `
            INSERT INTO bids (id, listing_id, user_id, amount, date_posted)
            VALUES (?, ?, ?, ?, ?)
        `
		if _, err := tx.ExecContext(ctx, query,
			bid.BidID, bid.ListingID, bid.UserID, bid.Amount, bid.DatePosted); err != nil {
			return fmt.Errorf("record bid for listing %s: %w", listingID, err)
		}
		return nil
	})
	if err != nil {
		return models.Bid{}, err
	}
	return bid, nil
}

// GetBidsByListing returns all bids for a listing in the order they were placed
func (r *AuctionRepository) GetBidsByListing(ctx context.Context, listingID string) ([]models.Bid, error) {
	if err := listingExists(ctx, r.db, listingID); err != nil {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
	}
	return bidsByListing(ctx, r.db, listingID)
}

func bidsByListing(ctx context.Context, q querier, listingID string) ([]models.Bid, error) {
	query := `
        SELECT id, listing_id, user_id, amount, date_posted
        FROM bids
        WHERE listing_id = ?
        ORDER BY seq ASC
    `
	rows, err := q.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
	}
	defer rows.Close()

	bids := []models.Bid{}
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.BidID, &b.ListingID, &b.UserID, &b.Amount, &b.DatePosted); err != nil {
			return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
		}
		b.DatePosted = b.DatePosted.UTC()
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// GetListingsByBidder returns the listings a user has bid on, in the order of
// their first bid on each
func (r *AuctionRepository) GetListingsByBidder(ctx context.Context, userID string) ([]models.Listing, error) {
	query := `
        SELECT ` + listingColumns + `
        FROM listings l
        JOIN (SELECT listing_id, MIN(seq) AS first_seq FROM bids WHERE user_id = ? GROUP BY listing_id) b
          ON b.listing_id = l.id
        ORDER BY b.first_seq ASC
    `
	return r.queryListings(ctx, query, userID)
}

// ToggleWatch adds the user to the listing's watchers or removes them.
// It reports whether the listing is watched afterwards.
func (r *AuctionRepository) ToggleWatch(ctx context.Context, listingID, userID string) (bool, error) {
	var watched bool
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getListing(ctx, tx, listingID, true); err != nil {
			return fmt.Errorf("toggle watch on listing %s: %w", listingID, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM watchlist WHERE listing_id = ? AND user_id = ?`, listingID, userID)
		if err != nil {
			return fmt.Errorf("toggle watch on listing %s: %w", listingID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			watched = false
			return nil
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO watchlist (listing_id, user_id) VALUES (?, ?)`, listingID, userID); err != nil {
			return fmt.Errorf("toggle watch on listing %s: %w", listingID, err)
		}
		watched = true
		return nil
	})
	return watched, err
}

// GetWatchlist returns the listings a user watches
func (r *AuctionRepository) GetWatchlist(ctx context.Context, userID string) ([]models.Listing, error) {
	query := `
        SELECT ` + listingColumns + `
        FROM listings l
        JOIN watchlist w ON w.listing_id = l.id
        WHERE w.user_id = ?
        ORDER BY l.is_active DESC, l.date_posted DESC
    `
	return r.queryListings(ctx, query, userID)
}

func (r *AuctionRepository) AddComment(ctx context.Context, comment models.Comment) error {
	if err := listingExists(ctx, r.db, comment.ListingID); err != nil {
		return fmt.Errorf("add comment to listing %s: %w", comment.ListingID, err)
	}
	query := `
        INSERT INTO comments (id, listing_id, user_id, content, date_posted)
        VALUES (?, ?, ?, ?, ?)
    `
	if _, err := r.db.ExecContext(ctx, query,
		comment.CommentID, comment.ListingID, comment.UserID, comment.Content, comment.DatePosted); err != nil {
		return fmt.Errorf("add comment to listing %s: %w", comment.ListingID, err)
	}
	return nil
}

// GetComments returns a listing's comments oldest first
func (r *AuctionRepository) GetComments(ctx context.Context, listingID string) ([]models.Comment, error) {
	if err := listingExists(ctx, r.db, listingID); err != nil {
		return nil, fmt.Errorf("get comments for listing %s: %w", listingID, err)
	}
	query := `
        SELECT id, listing_id, user_id, content, date_posted
        FROM comments
        WHERE listing_id = ?
        ORDER BY seq ASC
    `
	rows, err := r.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("get comments for listing %s: %w", listingID, err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.CommentID, &c.ListingID, &c.UserID, &c.Content, &c.DatePosted); err != nil {
			return nil, fmt.Errorf("get comments for listing %s: %w", listingID, err)
		}
		c.DatePosted = c.DatePosted.UTC()
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *AuctionRepository) queryListings(ctx context.Context, query string, args ...any) ([]models.Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("query listings: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}

	ptrs := make([]*models.Listing, len(listings))
	for i := range listings {
		ptrs[i] = &listings[i]
	}
	if err := loadWatchers(ctx, r.db, ptrs); err != nil {
		return nil, err
	}
	return listings, nil
}

// loadWatchers fills WatcherIDs for the given listings with one query
func loadWatchers(ctx context.Context, q querier, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	byID := make(map[string]*models.Listing, len(listings))
	placeholders := make([]string, 0, len(listings))
	args := make([]any, 0, len(listings))
	for _, l := range listings {
		l.WatcherIDs = nil
		byID[l.ListingID] = l
		placeholders = append(placeholders, "?")
		args = append(args, l.ListingID)
	}

	query := `SELECT listing_id, user_id FROM watchlist WHERE listing_id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY seq ASC`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load watchers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var listingID, userID string
		if err := rows.Scan(&listingID, &userID); err != nil {
			return fmt.Errorf("load watchers: %w", err)
		}
		if l, ok := byID[listingID]; ok {
			l.WatcherIDs = append(l.WatcherIDs, userID)
		}
	}
	return rows.Err()
}

func scanListing(s rowScanner) (models.Listing, error) {
	var l models.Listing
	err := s.Scan(&l.ListingID, &l.AuthorID, &l.CategoryID, &l.Title, &l.Description,
		&l.StartingBid, &l.DatePosted, &l.IsActive, &l.ImageRef)
	l.DatePosted = l.DatePosted.UTC()
	return l, err
}

func listingExists(ctx context.Context, q querier, listingID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM listings WHERE id = ?`, listingID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return biddingerrors.ErrListingNotFound
	}
	return err
}

// inTx runs fn in a transaction, committing only if it returns nil
func (r *AuctionRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isDuplicate(err error) bool {
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry
}
