package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-house/internal/accounts"
	"auction-house/internal/biddingerrors"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// HandleServiceError maps err to a status, sends it and logs it
func HandleServiceError(c *gin.Context, handlerName, logMessage string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": "+logMessage, fields)
		return
	}
	utils.Warn(handlerName+": "+logMessage, fields)
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrListingNotFound):
		return http.StatusNotFound, "listing not found"
	case errors.Is(err, biddingerrors.ErrCategoryNotFound):
		return http.StatusNotFound, "category not found"
	case errors.Is(err, biddingerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, biddingerrors.ErrNoBids):
		return http.StatusNotFound, "no winning bid found"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrListingInactive):
		return http.StatusConflict, "listing is closed for bidding"
	case errors.Is(err, biddingerrors.ErrListingHasBids):
		return http.StatusConflict, "starting bid cannot change once bids exist"
	case errors.Is(err, biddingerrors.ErrUsernameTaken):
		return http.StatusConflict, "username already taken"
	case errors.Is(err, biddingerrors.ErrCategoryExists):
		return http.StatusConflict, "category already exists"
	case errors.Is(err, biddingerrors.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid bid amount"
	case errors.Is(err, biddingerrors.ErrInvalidStartingBid):
		return http.StatusBadRequest, "invalid starting bid"
	case errors.Is(err, biddingerrors.ErrInvalidListing):
		return http.StatusBadRequest, "invalid listing details"
	case errors.Is(err, biddingerrors.ErrInvalidComment):
		return http.StatusBadRequest, "invalid comment"
	case errors.Is(err, biddingerrors.ErrPasswordMismatch),
		errors.Is(err, biddingerrors.ErrWeakPassword),
		errors.Is(err, biddingerrors.ErrPasswordTooLong),
		errors.Is(err, biddingerrors.ErrInvalidUsername):
		return http.StatusBadRequest, "invalid registration details"
	case errors.Is(err, biddingerrors.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, biddingerrors.ErrOwnListing):
		return http.StatusForbidden, "cannot bid on your own listing"
	case errors.Is(err, biddingerrors.ErrNotListingAuthor):
		return http.StatusForbidden, "only the listing author may do this"
	case errors.Is(err, biddingerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username and/or password"
	case errors.Is(err, biddingerrors.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// ActorID returns the authenticated caller's user ID, or "" when anonymous
func ActorID(c *gin.Context) string {
	p, ok := accounts.PrincipalFrom(c.Request.Context())
	if !ok {
		return ""
	}
	return p.UserID
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
