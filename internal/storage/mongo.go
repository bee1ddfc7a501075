package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crickwire/cricnews/internal/news"
)

const postedCollection = "posted_articles"

// MongoStore implements Store on MongoDB. A unique index on link makes
// Insert an atomic insert-if-absent.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

type postedDoc struct {
	Title       string    `bson:"title"`
	Link        string    `bson:"link"`
	Description string    `bson:"description,omitempty"`
	ImageURL    string    `bson:"image_url,omitempty"`
	Source      string    `bson:"source"`
	Category    string    `bson:"category"`
	PublishedAt time.Time `bson:"published_at"`
	PostedAt    time.Time `bson:"posted_at"`
	IsPosted    bool      `bson:"is_posted"`
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	store := &MongoStore{
		client: client,
		col:    client.Database(database).Collection(postedCollection),
	}

	if err := store.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	slog.Info("connected to mongodb history store", "database", database)
	return store, nil
}

func (m *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "link", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "posted_at", Value: 1}},
		},
	})
	return err
}

func (m *MongoStore) Exists(ctx context.Context, link string) (bool, error) {
	count, err := m.col.CountDocuments(ctx, bson.M{"link": link}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count by link: %w", err)
	}
	return count > 0, nil
}

func (m *MongoStore) Insert(ctx context.Context, article news.PostedArticle) error {
	doc := postedDoc{
		Title:       article.Title,
		Link:        article.Link,
		Description: article.Description,
		ImageURL:    article.ImageURL,
		Source:      string(article.Source),
		Category:    string(article.Category),
		PublishedAt: article.PublishedAt,
		PostedAt:    article.PostedAt,
		IsPosted:    article.IsPosted,
	}

	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert posted article: %w", err)
	}
	return nil
}

func (m *MongoStore) List(ctx context.Context, filter Filter) ([]news.PostedArticle, error) {
	query := bson.M{}
	postedAt := bson.M{}
	if !filter.Since.IsZero() {
		postedAt["$gte"] = filter.Since
	}
	if !filter.Until.IsZero() {
		postedAt["$lt"] = filter.Until
	}
	if len(postedAt) > 0 {
		query["posted_at"] = postedAt
	}

	opts := options.Find().SetSort(bson.D{{Key: "posted_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := m.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list posted articles: %w", err)
	}
	defer cursor.Close(ctx)

	var articles []news.PostedArticle
	for cursor.Next(ctx) {
		var doc postedDoc
		if err := cursor.Decode(&doc); err != nil {
			slog.Warn("skipping undecodable history record", "error", err)
			continue
		}
		articles = append(articles, doc.toArticle())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate posted articles: %w", err)
	}

	return articles, nil
}

func (m *MongoStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)

	result, err := m.col.DeleteMany(ctx, bson.M{"posted_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete old articles: %w", err)
	}
	return result.DeletedCount, nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (d postedDoc) toArticle() news.PostedArticle {
	return news.PostedArticle{
		Candidate: news.Candidate{
			Title:       d.Title,
			Link:        d.Link,
			Description: d.Description,
			ImageURL:    d.ImageURL,
			Source:      news.Source(d.Source),
			Category:    news.Category(d.Category),
			PublishedAt: d.PublishedAt,
		},
		PostedAt: d.PostedAt,
		IsPosted: d.IsPosted,
	}
}
