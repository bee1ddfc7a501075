package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"context"

	_ "github.com/lib/pq"

	"github.com/crickwire/cricnews/internal/news"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	slog.Info("connected to postgres history store")
	return store, nil
}

func (p *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posted_articles (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		link TEXT UNIQUE NOT NULL,
		description TEXT,
		image_url TEXT,
		source VARCHAR(20) NOT NULL,
		category VARCHAR(20) NOT NULL,
		published_at TIMESTAMPTZ,
		posted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_posted BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_posted_articles_posted_at ON posted_articles(posted_at);
	`

	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (p *PostgresStore) Exists(ctx context.Context, link string) (bool, error) {
	var count int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posted_articles WHERE link = $1`, link).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count by link: %w", err)
	}
	return count > 0, nil
}

func (p *PostgresStore) Insert(ctx context.Context, article news.PostedArticle) error {
	result, err := p.db.ExecContext(ctx, `
		INSERT INTO posted_articles (title, link, description, image_url, source, category, published_at, posted_at, is_posted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (link) DO NOTHING
	`, article.Title, article.Link, article.Description, article.ImageURL,
		string(article.Source), string(article.Category),
		article.PublishedAt, article.PostedAt, article.IsPosted)
	if err != nil {
		return fmt.Errorf("insert posted article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert posted article: %w", err)
	}
	if rows == 0 {
		return ErrDuplicate
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, filter Filter) ([]news.PostedArticle, error) {
	var conditions []string
	var args []interface{}

	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conditions = append(conditions, fmt.Sprintf("posted_at >= $%d", len(args)))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until)
		conditions = append(conditions, fmt.Sprintf("posted_at < $%d", len(args)))
	}

	query := `SELECT title, link, description, image_url, source, category, published_at, posted_at, is_posted
		FROM posted_articles`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY posted_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posted articles: %w", err)
	}
	defer rows.Close()

	var articles []news.PostedArticle
	for rows.Next() {
		var a news.PostedArticle
		var description, imageURL sql.NullString
		var source, category string
		var publishedAt sql.NullTime

		if err := rows.Scan(&a.Title, &a.Link, &description, &imageURL,
			&source, &category, &publishedAt, &a.PostedAt, &a.IsPosted); err != nil {
			slog.Warn("skipping unscannable history row", "error", err)
			continue
		}

		a.Description = description.String
		a.ImageURL = imageURL.String
		a.Source = news.Source(source)
		a.Category = news.Category(category)
		if publishedAt.Valid {
			a.PublishedAt = publishedAt.Time
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posted articles: %w", err)
	}

	return articles, nil
}

func (p *PostgresStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)

	result, err := p.db.ExecContext(ctx,
		`DELETE FROM posted_articles WHERE posted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old articles: %w", err)
	}

	return result.RowsAffected()
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) Close(context.Context) error {
	return p.db.Close()
}
