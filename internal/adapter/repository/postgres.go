package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cv-builder/internal/codec"
	"cv-builder/internal/model"
	"cv-builder/internal/section"
)

// Postgres stores documents in the cv_documents table. The body is TEXT, not
// JSONB, so member order survives.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (r *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var body string
	err := r.pool.QueryRow(ctx, `SELECT body FROM cv_documents WHERE key = $1`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (r *Postgres) Put(ctx context.Context, key string, data []byte) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO cv_documents (key, title, body, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (key) DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		key, documentTitle(data), string(data), time.Now().UTC())
	return err
}

// documentTitle extracts the owner's name for listing; it falls back to
// "Curriculum Vitae".
func documentTitle(data []byte) string {
	d, err := codec.Decode(data)
	if err != nil {
		return "Curriculum Vitae"
	}
	s, ok := d.Section("basicInfo")
	if !ok {
		return "Curriculum Vitae"
	}
	c, err := section.Default().Resolve("basicInfo").Decode(s.Raw)
	if err != nil {
		return "Curriculum Vitae"
	}
	if bi, ok := c.(*model.BasicInfo); ok && bi.Name != "" {
		return bi.Name
	}
	return "Curriculum Vitae"
}
