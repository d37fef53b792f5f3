package main

import (
	"auction-house/internal/accounts"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/biddingerrors"
	"auction-house/internal/config"
	"auction-house/internal/infrastructure/mysql"
	"auction-house/internal/infrastructure/redis"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/rules"
	"auction-house/internal/server"
	"auction-house/utils"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load config", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.Log.Level); err != nil {
		utils.Warn("unknown log level, keeping info", map[string]any{"level": cfg.Log.Level})
	}
	gin.SetMode(gin.ReleaseMode)
	utils.Info("configuration loaded", map[string]any{"config": cfg.GetConfigString()})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closeRepo := openRepository(ctx, cfg)
	defer closeRepo()

	var opts []bidding.Option
	if cfg.RedisEnabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			utils.Fatal("failed to connect to redis", map[string]any{"error": err.Error()})
		}
		defer rdb.Close()
		opts = append(opts,
			bidding.WithPriceCache(redis.NewQuoteCache(rdb, cfg.Redis.QuoteTTL)),
			bidding.WithEventPublisher(redis.NewEventPublisher(rdb, cfg.Redis.Channel)),
		)
	}

	engine := rules.NewEngine(rules.Policy{AllowInactiveBids: cfg.Bidding.AllowInactiveBids})
	biddingSvc := bidding.NewBiddingService(repo, engine, opts...)
	accountsSvc := accounts.NewService(repo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if cfg.Storage.Seed {
		if err := seedDemoData(ctx, biddingSvc, accountsSvc); err != nil {
			utils.Fatal("failed to seed demo data", map[string]any{"error": err.Error()})
		}
	}

	router := server.SetupRouter(biddingSvc, accountsSvc)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("server failed to start", map[string]any{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Info("shutting down server", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server forced to shutdown", map[string]any{"error": err.Error()})
	}
	utils.Info("server exited", nil)
}

// openRepository returns the configured store and a function releasing it
func openRepository(ctx context.Context, cfg *config.Config) (repository.AuctionDB, func()) {
	if cfg.Storage.Driver != config.DriverMySQL {
		return repository.NewMemoryRepo(), func() {}
	}

	db, err := mysql.Open(ctx, cfg.MySQL)
	if err != nil {
		utils.Fatal("failed to connect to mysql", map[string]any{"error": err.Error()})
	}
	if err := mysql.Migrate(ctx, db); err != nil {
		utils.Fatal("failed to migrate mysql schema", map[string]any{"error": err.Error()})
	}
	return mysql.NewAuctionRepository(db), func() { db.Close() }
}

// seedDemoData adds a demo seller, categories and listings. Running it again
// against a persistent store only adds new listings.
func seedDemoData(ctx context.Context, svc *bidding.BiddingService, acc *accounts.Service) error {
	seller, err := acc.Register(ctx, accounts.Registration{
		Username:     "demo-seller",
		Password:     "demo-password",
		Confirmation: "demo-password",
	})
	if errors.Is(err, biddingerrors.ErrUsernameTaken) {
		utils.Info("demo data already present, skipping seed", nil)
		return nil
	}
	if err != nil {
		return err
	}

	categories := map[string]model.Category{}
	for _, name := range []string{"Antiques", "Books", "Electronics"} {
		c, err := svc.CreateCategory(ctx, name)
		if err != nil {
			return err
		}
		categories[name] = c
	}

	listings := []bidding.NewListing{
		{Title: "Brass table lamp", Description: "Early 1900s, rewired", CategoryID: categories["Antiques"].CategoryID, StartingBid: decimal.RequireFromString("100.00")},
		{Title: "First edition novel", Description: "Good condition", CategoryID: categories["Books"].CategoryID, StartingBid: decimal.RequireFromString("200.00")},
		{Title: "Vintage radio", Description: "Works on AM", CategoryID: categories["Electronics"].CategoryID, StartingBid: decimal.RequireFromString("150.00")},
	}
	for _, l := range listings {
		if _, err := svc.CreateListing(ctx, seller.UserID, l); err != nil {
			return err
		}
	}

	utils.Info("seeded demo data", map[string]any{"seller_id": seller.UserID, "listings": len(listings)})
	return nil
}
