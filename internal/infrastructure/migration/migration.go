package migration

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
)

// RunMigrations executes all necessary database migrations on startup
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log.Info("Starting database migrations")

	for _, m := range Migrations() {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			log.Error("Migration failed", "name", m.Name, "error", err)
			return err
		}
		log.Info("Migration completed", "name", m.Name)
	}

	log.Info("All migrations completed successfully")
	return nil
}

// Migration represents a database migration. Every statement is idempotent.
type Migration struct {
	Name string
	SQL  string
}

// Migrations lists the schema steps in order.
func Migrations() []Migration {
	return []Migration{
		{
			Name: "create_cv_documents",
			SQL: `
		CREATE TABLE IF NOT EXISTS cv_documents (
			key        TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		},
		{
			Name: "add_title_to_cv_documents",
			SQL: `
		ALTER TABLE cv_documents
		ADD COLUMN IF NOT EXISTS title TEXT NOT NULL DEFAULT '';`,
		},
	}
}
