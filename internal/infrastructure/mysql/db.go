package mysql

import (
	"auction-house/internal/config"
	"context"
	"database/sql"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
)

// schema is applied in order by Migrate. Amounts use DECIMAL(10,2) so the
// store itself bounds them to two places and 99999999.99.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            VARCHAR(36)  NOT NULL PRIMARY KEY,
		username      VARCHAR(150) NOT NULL,
		email         VARCHAR(254) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci`,

	`CREATE TABLE IF NOT EXISTS categories (
		id   VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(30) NOT NULL,
		UNIQUE KEY uq_categories_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci`,

	`CREATE TABLE IF NOT EXISTS listings (
		id           VARCHAR(36)   NOT NULL PRIMARY KEY,
		author_id    VARCHAR(36)   NOT NULL,
		category_id  VARCHAR(36)   NULL,
		title        VARCHAR(200)  NOT NULL,
		description  TEXT          NOT NULL,
		starting_bid DECIMAL(10,2) NOT NULL,
		date_posted  DATETIME(6)   NOT NULL,
		is_active    BOOLEAN       NOT NULL DEFAULT TRUE,
		image_ref    VARCHAR(255)  NOT NULL,
		KEY idx_listings_category (category_id),
		KEY idx_listings_order (is_active, date_posted),
		CONSTRAINT fk_listings_category FOREIGN KEY (category_id) REFERENCES categories (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bids (
		seq         BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
		id          VARCHAR(36)   NOT NULL,
		listing_id  VARCHAR(36)   NOT NULL,
		user_id     VARCHAR(36)   NOT NULL,
		amount      DECIMAL(10,2) NOT NULL,
		date_posted DATETIME(6)   NOT NULL,
		UNIQUE KEY uq_bids_id (id),
		KEY idx_bids_listing (listing_id, seq),
		KEY idx_bids_user (user_id, seq),
		CONSTRAINT fk_bids_listing FOREIGN KEY (listing_id) REFERENCES listings (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS watchlist (
		listing_id VARCHAR(36) NOT NULL,
		user_id    VARCHAR(36) NOT NULL,
		seq        BIGINT      NOT NULL AUTO_INCREMENT,
		PRIMARY KEY (listing_id, user_id),
		UNIQUE KEY uq_watchlist_seq (seq),
		KEY idx_watchlist_user (user_id),
		CONSTRAINT fk_watchlist_listing FOREIGN KEY (listing_id) REFERENCES listings (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS comments (
		seq         BIGINT      NOT NULL AUTO_INCREMENT PRIMARY KEY,
		id          VARCHAR(36) NOT NULL,
		listing_id  VARCHAR(36) NOT NULL,
		user_id     VARCHAR(36) NOT NULL,
		content     TEXT        NOT NULL,
		date_posted DATETIME(6) NOT NULL,
		UNIQUE KEY uq_comments_id (id),
		KEY idx_comments_listing (listing_id, seq),
		CONSTRAINT fk_comments_listing FOREIGN KEY (listing_id) REFERENCES listings (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Open connects to MySQL with the configured pool settings and pings it
func Open(ctx context.Context, cfg config.MySQLConfig) (*sql.DB, error) {
	dsn, err := gomysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	// DATETIME columns must come back as time.Time
	dsn.ParseTime = true

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return db, nil
}

// Migrate creates the tables the repository needs if they do not exist
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql: migrate: %w", err)
		}
	}
	return nil
}
