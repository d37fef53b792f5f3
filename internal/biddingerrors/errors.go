package biddingerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already taken")
)

// business logic errors
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrBidTooLow          = fmt.Errorf("%w: amount too low", ErrInvalidAmount)
	ErrInvalidStartingBid = errors.New("starting bid must be positive")
	ErrInvalidListing     = errors.New("invalid listing details")
	ErrInvalidComment     = errors.New("invalid comment")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrListingInactive    = errors.New("listing is closed for bidding")
	ErrListingHasBids     = errors.New("listing already has bids")
	ErrOwnListing         = errors.New("cannot bid on own listing")
	ErrNotListingAuthor   = errors.New("only the listing author may do this")
	ErrNoBids             = errors.New("no bids found for listing")
)

// account errors
var (
	ErrInvalidCredentials = errors.New("invalid username and/or password")
	ErrPasswordMismatch   = errors.New("passwords must match")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrInvalidUsername    = errors.New("username must be 3-150 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
