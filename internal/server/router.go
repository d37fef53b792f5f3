package server

import (
	"net/http"

	accountshandler "auction-house/services/accounts/handler"
	handler "auction-house/services/bidding/handler"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// AccountsService is what the router needs from the accounts package
type AccountsService interface {
	accountshandler.AccountsServiceInterface
	TokenValidator
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService handler.BiddingServiceInterface, accountsService AccountsService) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := handler.NewBiddingHandler(biddingService)
	accountsHandler := accountshandler.NewAccountsHandler(accountsService)

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"healthy": true}, "OK")
	})

	auth := router.Group("/auth")
	{
		auth.POST("/register", accountsHandler.RegisterHandler)
		auth.POST("/login", accountsHandler.LoginHandler)
	}

	api := router.Group("")
	api.Use(AuthMiddleware(accountsService))

	categories := api.Group("/categories")
	{
		categories.GET("", biddingHandler.ListCategoriesHandler)
		categories.POST("", biddingHandler.CreateCategoryHandler)
		categories.GET("/:category_id/listings", biddingHandler.CategoryListingsHandler)
	}

	listings := api.Group("/listings")
	{
		listings.GET("", biddingHandler.ListListingsHandler)
		listings.POST("", biddingHandler.CreateListingHandler)
		listings.GET("/:listing_id", biddingHandler.GetListingHandler)
		listings.PATCH("/:listing_id", biddingHandler.UpdateListingHandler)
		listings.POST("/:listing_id/close", biddingHandler.CloseListingHandler)
		listings.POST("/:listing_id/watchlist", biddingHandler.ToggleWatchlistHandler)
		listings.GET("/:listing_id/bids", biddingHandler.GetBidsByListingHandler)
		listings.POST("/:listing_id/bids", biddingHandler.PlaceBidHandler)
		listings.GET("/:listing_id/winner", biddingHandler.GetWinningBidHandler)
		listings.GET("/:listing_id/comments", biddingHandler.GetCommentsHandler)
		listings.POST("/:listing_id/comments", biddingHandler.AddCommentHandler)
	}

	api.GET("/watchlist", biddingHandler.GetWatchlistHandler)

	users := api.Group("/users")
	{
		users.GET("/:user_id/listings", biddingHandler.GetListingsByUserHandler)
	}

	return router
}
