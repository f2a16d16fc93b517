package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/besservanja-cell/OutreachAI/app/config"

	_ "github.com/lib/pq"
)

var db *sql.DB

// MustInitDB initializes the global db and panics/logs fatally on error.
func MustInitDB() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		cfg.DB.Username,
		cfg.DB.Password,
		cfg.DB.URL,
		cfg.DB.Port,
		cfg.DB.Database,
	)

	d, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}

	if err := d.Ping(); err != nil {
		log.Fatalf("db.Ping: %v", err)
	}

	log.Println("Connected to Postgres")
	db = d

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ensureSchema(ctx); err != nil {
		log.Fatalf("ensureSchema: %v", err)
	}
}

func ensureSchema(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id                  TEXT PRIMARY KEY,
			email               TEXT,
			plan                TEXT NOT NULL DEFAULT 'free',
			credits_used        INT NOT NULL DEFAULT 0,
			credits_limit       INT NOT NULL DEFAULT 5,
			ls_customer_id      TEXT,
			ls_subscription_id  TEXT,
			subscription_status TEXT,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS emails (
			id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id          TEXT NOT NULL REFERENCES users (id),
			prospect_name    TEXT NOT NULL,
			prospect_company TEXT NOT NULL,
			industry         TEXT NOT NULL,
			tone             TEXT NOT NULL,
			variants         JSONB NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS emails_user_created_idx
		ON emails (user_id, created_at DESC);
	`)
	return err
}
